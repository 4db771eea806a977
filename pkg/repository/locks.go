package repository

import "sync"

// pathLocks serializes operations on the same normalized path while
// letting different paths proceed independently. Entries are
// refcounted so the map does not grow with every file ever touched.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{m: make(map[string]*pathLock)}
}

// acquire blocks until the lock for path is held and returns the
// matching release function.
func (l *pathLocks) acquire(path string) func() {
	l.mu.Lock()
	entry, ok := l.m[path]
	if !ok {
		entry = &pathLock{}
		l.m[path] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.m, path)
		}
		l.mu.Unlock()
	}
}
