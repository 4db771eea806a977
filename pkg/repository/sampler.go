package repository

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/repoform/repoform/pkg/detect"
	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/types"
)

// Sampler decides a repository's dominant format by tallying a
// bounded number of entries per designated subdirectory. Results are
// cached per root until invalidated.
type Sampler struct {
	fs        types.FS
	subdirs   []string
	perDirCap int
	logger    zerolog.Logger

	mu    sync.Mutex
	cache map[string]types.FormatKind
}

// NewSampler creates a sampler over the given designated subdirs.
func NewSampler(fs types.FS, subdirs []string, perDirCap int, logger zerolog.Logger) *Sampler {
	return &Sampler{
		fs:        fs,
		subdirs:   subdirs,
		perDirCap: perDirCap,
		logger:    logger,
		cache:     make(map[string]types.FormatKind),
	}
}

// Sample returns the dominant format under root. ModernText wins only
// with a strict majority; ties and empty samples resolve to Legacy.
func (s *Sampler) Sample(root string) types.FormatKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind, ok := s.cache[root]; ok {
		return kind
	}
	kind := s.sample(root)
	s.cache[root] = kind
	return kind
}

// Invalidate drops the cached result for root.
func (s *Sampler) Invalidate(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, root)
}

func (s *Sampler) sample(root string) types.FormatKind {
	var legacy, modern int
	for _, subdir := range s.subdirs {
		dir := filepath.Join(root, subdir)
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			continue
		}
		seen := 0
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if seen >= s.perDirCap {
				break
			}
			seen++
			switch detect.Detect(entry.Name()) {
			case types.FormatModernText:
				modern++
			default:
				legacy++
			}
		}
	}

	kind := types.FormatLegacy
	if modern > legacy {
		kind = types.FormatModernText
	}
	s.logger.Debug().
		Str("root", root).
		Int("legacy", legacy).
		Int("modern", modern).
		Str("preference", kind.String()).
		Msg("Sampled repository format preference")
	return kind
}

// Watch invalidates the cached preference for root whenever one of
// its designated subdirectories changes. It returns once the watcher
// is installed; invalidation runs in the background until ctx is done.
func (s *Sampler) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot create preference watcher")
	}

	watching := 0
	for _, subdir := range s.subdirs {
		dir := filepath.Join(root, subdir)
		if err := watcher.Add(dir); err != nil {
			s.logger.Debug().Str("dir", dir).Err(err).Msg("Not watching missing subdirectory")
			continue
		}
		watching++
	}
	if watching == 0 {
		_ = watcher.Close()
		return errors.Newf(errors.ErrNotFound, "no designated subdirectories to watch under %s", root)
	}

	go func() {
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.Invalidate(root)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("Preference watcher error")
			}
		}
	}()
	return nil
}
