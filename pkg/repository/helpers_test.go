package repository

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repoform/repoform/pkg/config"
	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/filesystem"
	"github.com/repoform/repoform/pkg/types"
)

// yamlPrefix marks fake-ModernText content in tests. The fake codec
// "decodes" by stripping it and "encodes" by prepending it, which is
// lossless and keeps the real helper out of unit tests.
const yamlPrefix = "#fake-yaml\n"

type fakeCodec struct {
	decodeErr error
	encodeErr error

	// lastDecoded captures what the reader handed to Decode.
	lastDecoded []byte
}

func (c *fakeCodec) Decode(_ context.Context, content []byte) ([]byte, error) {
	c.lastDecoded = append([]byte(nil), content...)
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	if !bytes.HasPrefix(content, []byte(yamlPrefix)) {
		return nil, errors.New(errors.ErrBridgeProcessFailed, "helper failed: not valid YAML")
	}
	return bytes.TrimPrefix(content, []byte(yamlPrefix)), nil
}

func (c *fakeCodec) Encode(_ context.Context, intermediate []byte) ([]byte, error) {
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	return append([]byte(yamlPrefix), intermediate...), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Bridge: config.BridgeConfig{
			Path:       "yamlbridge",
			PoolSize:   2,
			Timeout:    5 * time.Second,
			MaxPayload: 5 * 1024 * 1024,
		},
		Reader:  config.ReaderConfig{MaxFileSize: 1024 * 1024},
		Sampler: config.SamplerConfig{PerDirCap: 200},
		Repo:    config.RepoConfig{Subdirs: []string{"pkgsinfo", "manifests"}},
	}
}

func newTestRepo(t *testing.T, codec Codec) (*Repository, types.FS) {
	t.Helper()
	fs := filesystem.NewMem()
	repo, err := New(Options{
		Root:   "/repo",
		Config: testConfig(),
		FS:     fs,
		Codec:  codec,
	})
	require.NoError(t, err)
	return repo, fs
}

const testPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>name</key>
	<string>Firefox</string>
	<key>version</key>
	<string>128.0</string>
	<key>catalogs</key>
	<array>
		<string>testing</string>
	</array>
</dict>
</plist>
`

func writeTestFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}
