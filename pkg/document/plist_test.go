package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/repoform/repoform/pkg/errors"
)

const samplePkginfo = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>name</key>
	<string>Firefox</string>
	<key>version</key>
	<string>128.0</string>
	<key>installer_item_size</key>
	<integer>104857600</integer>
	<key>unattended_install</key>
	<true/>
	<key>catalogs</key>
	<array>
		<string>testing</string>
		<string>production</string>
	</array>
	<key>_metadata</key>
	<dict>
		<key>creation_date</key>
		<date>2024-06-01T12:00:00Z</date>
		<key>munki_version</key>
		<string>6.3.1</string>
	</dict>
</dict>
</plist>
`

func TestParsePlistXML(t *testing.T) {
	root, err := ParsePlist([]byte(samplePkginfo))
	require.NoError(t, err)
	require.Equal(t, DictKind, root.Kind)

	assert.Equal(t,
		[]string{"name", "version", "installer_item_size", "unattended_install", "catalogs", "_metadata"},
		root.Keys)

	name, ok := root.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Firefox", name.Str)

	size, ok := root.Get("installer_item_size")
	require.True(t, ok)
	assert.Equal(t, int64(104857600), size.Int)

	unattended, ok := root.Get("unattended_install")
	require.True(t, ok)
	assert.True(t, unattended.Bool)

	catalogs, ok := root.Get("catalogs")
	require.True(t, ok)
	require.Equal(t, 2, catalogs.Len())
	assert.Equal(t, "testing", catalogs.Items[0].Str)

	meta, ok := root.Get("_metadata")
	require.True(t, ok)
	created, ok := meta.Get("creation_date")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), created.Date)
}

func TestPlistRoundTrip(t *testing.T) {
	root, err := ParsePlist([]byte(samplePkginfo))
	require.NoError(t, err)

	out, err := SerializePlist(root)
	require.NoError(t, err)

	again, err := ParsePlist(out)
	require.NoError(t, err)
	assert.True(t, root.Equal(again), "round trip changed the tree")
}

func TestSerializePlistScalars(t *testing.T) {
	dict := NewDict()
	dict.Set("ratio", Float(0.25))
	dict.Set("payload", Data([]byte("hello")))
	dict.Set("disabled", Bool(false))

	out, err := SerializePlist(dict)
	require.NoError(t, err)

	assert.Contains(t, string(out), "<real>0.25</real>")
	assert.Contains(t, string(out), "<data>aGVsbG8=</data>")
	assert.Contains(t, string(out), "<false/>")
	assert.Contains(t, string(out), `<!DOCTYPE plist PUBLIC`)

	again, err := ParsePlist(out)
	require.NoError(t, err)
	assert.True(t, dict.Equal(again))
}

func TestParsePlistMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "not xml at all",
			input: "name: Firefox\nversion: 128.0\n",
		},
		{
			name:  "missing plist root",
			input: `<?xml version="1.0"?><dict><key>a</key><string>b</string></dict>`,
		},
		{
			name:  "dict with dangling key",
			input: `<?xml version="1.0"?><plist version="1.0"><dict><key>a</key></dict></plist>`,
		},
		{
			name:  "bad integer",
			input: `<?xml version="1.0"?><plist version="1.0"><integer>twelve</integer></plist>`,
		},
		{
			name:  "bad base64 data",
			input: `<?xml version="1.0"?><plist version="1.0"><data>!!!</data></plist>`,
		},
		{
			name:  "unknown element",
			input: `<?xml version="1.0"?><plist version="1.0"><widget>x</widget></plist>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlist([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, errors.ErrMalformedLegacy, errors.GetErrorCode(err))
		})
	}
}

func TestParseBinaryPlist(t *testing.T) {
	src := map[string]interface{}{
		"zebra":   "last alphabetically",
		"alpha":   int64(42),
		"enabled": true,
	}
	raw, err := plist.Marshal(src, plist.BinaryFormat)
	require.NoError(t, err)

	root, err := ParsePlist(raw)
	require.NoError(t, err)
	require.Equal(t, DictKind, root.Kind)

	// Binary dicts come back with sorted keys.
	assert.Equal(t, []string{"alpha", "enabled", "zebra"}, root.Keys)

	alpha, ok := root.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, int64(42), alpha.Int)
}

func TestParseBinaryPlistCorrupt(t *testing.T) {
	_, err := ParsePlist([]byte("bplist00garbage"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrMalformedLegacy, errors.GetErrorCode(err))
}
