// Package config loads repoform configuration with koanf: embedded
// TOML defaults, then an optional repoform.toml at the repository
// root, then REPOFORM_* environment variables, each layer overriding
// the previous one.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/repoform/repoform/pkg/errors"
)

//go:embed defaults.toml
var defaultConfig []byte

// Config is the resolved configuration for one repository session.
type Config struct {
	Bridge  BridgeConfig
	Reader  ReaderConfig
	Sampler SamplerConfig
	Repo    RepoConfig
}

// BridgeConfig controls the external helper process.
type BridgeConfig struct {
	Path       string
	PoolSize   int
	Timeout    time.Duration
	MaxPayload int64
}

// ReaderConfig controls file reading limits.
type ReaderConfig struct {
	MaxFileSize int64
}

// SamplerConfig controls format-preference sampling.
type SamplerConfig struct {
	PerDirCap int
}

// RepoConfig describes the repository layout.
type RepoConfig struct {
	Subdirs []string
}

// Load resolves configuration for the repository at root. A missing
// config file is not an error; malformed content is.
func Load(root string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	for _, name := range []string{".repoform.toml", "repoform.toml"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load %s", path)
		}
		break
	}

	if err := k.Load(env.Provider("REPOFORM_", ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	cfg := &Config{
		Bridge: BridgeConfig{
			Path:       k.String("bridge.path"),
			PoolSize:   k.Int("bridge.pool_size"),
			Timeout:    k.Duration("bridge.timeout"),
			MaxPayload: k.Int64("bridge.max_payload"),
		},
		Reader: ReaderConfig{
			MaxFileSize: k.Int64("reader.max_file_size"),
		},
		Sampler: SamplerConfig{
			PerDirCap: k.Int("sampler.per_dir_cap"),
		},
		Repo: RepoConfig{
			Subdirs: k.Strings("repo.subdirs"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps REPOFORM_BRIDGE_POOL_SIZE to bridge.pool_size. Only the
// first underscore becomes a section separator; the rest stay part of
// the key name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "REPOFORM_"))
	return strings.Replace(s, "_", ".", 1)
}

func (c *Config) validate() error {
	if c.Bridge.PoolSize <= 0 {
		return errors.Newf(errors.ErrConfigValid, "bridge.pool_size must be positive, got %d", c.Bridge.PoolSize)
	}
	if c.Bridge.Timeout <= 0 {
		return errors.Newf(errors.ErrConfigValid, "bridge.timeout must be positive, got %s", c.Bridge.Timeout)
	}
	if c.Bridge.MaxPayload <= 0 {
		return errors.Newf(errors.ErrConfigValid, "bridge.max_payload must be positive, got %d", c.Bridge.MaxPayload)
	}
	if c.Reader.MaxFileSize <= 0 {
		return errors.Newf(errors.ErrConfigValid, "reader.max_file_size must be positive, got %d", c.Reader.MaxFileSize)
	}
	if c.Sampler.PerDirCap <= 0 {
		return errors.Newf(errors.ErrConfigValid, "sampler.per_dir_cap must be positive, got %d", c.Sampler.PerDirCap)
	}
	if len(c.Repo.Subdirs) == 0 {
		return errors.New(errors.ErrConfigValid, "repo.subdirs must not be empty")
	}
	return nil
}
