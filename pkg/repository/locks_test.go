package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathLocksSerializeSamePath(t *testing.T) {
	locks := newPathLocks()

	// Unsynchronized counter: only safe if the lock serializes.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("/repo/pkgsinfo/a.plist")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestPathLocksIndependentPaths(t *testing.T) {
	locks := newPathLocks()

	releaseA := locks.acquire("/repo/a.plist")
	defer releaseA()

	// A different path must not block.
	done := make(chan struct{})
	go func() {
		release := locks.acquire("/repo/b.plist")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent paths must not contend")
	}
}

func TestPathLocksEntriesAreReleased(t *testing.T) {
	locks := newPathLocks()

	release := locks.acquire("/repo/a.plist")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.m, "released locks must not accumulate")
}
