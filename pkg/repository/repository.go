// Package repository is the consumer-facing surface of repoform: it
// reads repository documents into canonical form, writes them back in
// their original format with atomic replace semantics, samples the
// repository's dominant format, and scans designated subdirectories
// tolerating per-file failures.
package repository

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/repoform/repoform/pkg/bridge"
	"github.com/repoform/repoform/pkg/config"
	"github.com/repoform/repoform/pkg/detect"
	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/filesystem"
	"github.com/repoform/repoform/pkg/logging"
	"github.com/repoform/repoform/pkg/types"
)

// Codec is the narrow boundary to the external text codec. The rest
// of the package never depends on how the translation happens.
type Codec interface {
	// Decode turns ModernText content into the canonical
	// intermediate (an XML plist).
	Decode(ctx context.Context, content []byte) ([]byte, error)
	// Encode turns the canonical intermediate into ModernText.
	Encode(ctx context.Context, intermediate []byte) ([]byte, error)
}

// Options configures a Repository session.
type Options struct {
	// Root is the repository root directory. Required.
	Root string
	// Config overrides the configuration loaded from Root.
	Config *config.Config
	// FS overrides the OS filesystem, for tests.
	FS types.FS
	// Codec overrides the external bridge, for tests.
	Codec Codec

	// Logger overrides the component logger. Nil means default; a
	// caller that wants silence passes zerolog.Nop().
	Logger *zerolog.Logger
}

// Repository is one open repository session. It owns the per-path
// locks and the format-preference cache; both are safe for concurrent
// use from multiple background tasks.
type Repository struct {
	root    string
	cfg     *config.Config
	fs      types.FS
	codec   Codec
	locks   *pathLocks
	sampler *Sampler
	logger  zerolog.Logger
}

// New opens a repository session rooted at opts.Root.
func New(opts Options) (*Repository, error) {
	if opts.Root == "" {
		return nil, errors.New(errors.ErrInvalidInput, "repository root is required")
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.Root)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	logger := logging.GetLogger("repository")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	codec := opts.Codec
	if codec == nil {
		codec = bridge.New(bridge.Options{
			Executable: cfg.Bridge.Path,
			PoolSize:   cfg.Bridge.PoolSize,
			Timeout:    cfg.Bridge.Timeout,
			MaxPayload: cfg.Bridge.MaxPayload,
			Logger:     &logger,
		})
	}

	return &Repository{
		root:    filepath.Clean(opts.Root),
		cfg:     cfg,
		fs:      fs,
		codec:   codec,
		locks:   newPathLocks(),
		sampler: NewSampler(fs, cfg.Repo.Subdirs, cfg.Sampler.PerDirCap, logger),
		logger:  logger,
	}, nil
}

// Root returns the repository root.
func (r *Repository) Root() string {
	return r.root
}

// Detect returns the format a path will be read or written as.
func (r *Repository) Detect(path string) types.FormatKind {
	return detect.Detect(path)
}

// Sample returns the repository's dominant format, cached until
// InvalidateSample is called.
func (r *Repository) Sample() types.FormatKind {
	return r.sampler.Sample(r.root)
}

// InvalidateSample drops the cached format preference so the next
// Sample re-inspects the repository.
func (r *Repository) InvalidateSample() {
	r.sampler.Invalidate(r.root)
}

// WatchPreference invalidates the cached format preference whenever a
// designated subdirectory changes, until ctx is done.
func (r *Repository) WatchPreference(ctx context.Context) error {
	return r.sampler.Watch(ctx, r.root)
}

// normalize resolves path against the root and cleans it, so the same
// file always maps to the same lock regardless of how it was spelled.
func (r *Repository) normalize(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	return filepath.Clean(path)
}
