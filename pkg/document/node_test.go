package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictPreservesInsertionOrder(t *testing.T) {
	dict := NewDict()
	dict.Set("name", String("Firefox"))
	dict.Set("version", String("128.0"))
	dict.Set("installer_item_size", Int(123456))

	assert.Equal(t, []string{"name", "version", "installer_item_size"}, dict.Keys)

	// Overwriting a key must not move it.
	dict.Set("name", String("Firefox ESR"))
	assert.Equal(t, []string{"name", "version", "installer_item_size"}, dict.Keys)

	val, ok := dict.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Firefox ESR", val.Str)
}

func TestDictDelete(t *testing.T) {
	dict := NewDict()
	dict.Set("a", Int(1))
	dict.Set("b", Int(2))
	dict.Set("c", Int(3))

	dict.Delete("b")
	assert.Equal(t, []string{"a", "c"}, dict.Keys)
	_, ok := dict.Get("b")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	dict.Delete("missing")
	assert.Equal(t, 2, dict.Len())
}

func TestKindIsLeaf(t *testing.T) {
	assert.False(t, DictKind.IsLeaf())
	assert.False(t, ArrayKind.IsLeaf())
	for _, k := range []Kind{StringKind, IntKind, FloatKind, BoolKind, DataKind, DateKind} {
		assert.True(t, k.IsLeaf(), k.String())
	}
}

func TestNodeEqual(t *testing.T) {
	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	build := func() *Node {
		dict := NewDict()
		dict.Set("name", String("Munki"))
		dict.Set("count", Int(7))
		dict.Set("ratio", Float(0.5))
		dict.Set("managed", Bool(true))
		dict.Set("stamp", Date(when))
		dict.Set("blob", Data([]byte{0x01, 0x02}))
		arr := NewArray()
		arr.Append(String("a"))
		arr.Append(String("b"))
		dict.Set("items", arr)
		return dict
	}

	assert.True(t, build().Equal(build()))

	t.Run("differing scalar", func(t *testing.T) {
		other := build()
		other.Set("count", Int(8))
		assert.False(t, build().Equal(other))
	})

	t.Run("differing key order", func(t *testing.T) {
		reordered := NewDict()
		reordered.Set("b", Int(2))
		reordered.Set("a", Int(1))
		ordered := NewDict()
		ordered.Set("a", Int(1))
		ordered.Set("b", Int(2))
		assert.False(t, ordered.Equal(reordered))
	})

	t.Run("differing array order", func(t *testing.T) {
		a := NewArray()
		a.Append(Int(1))
		a.Append(Int(2))
		b := NewArray()
		b.Append(Int(2))
		b.Append(Int(1))
		assert.False(t, a.Equal(b))
	})

	t.Run("nil nodes", func(t *testing.T) {
		var a *Node
		assert.True(t, a.Equal(nil))
		assert.False(t, a.Equal(Int(1)))
	})
}

func TestDocumentFormatIsImmutable(t *testing.T) {
	doc := New(NewDict(), "plist")
	assert.Equal(t, "plist", doc.Format().String())

	converted := doc.Converted("yaml")
	assert.Equal(t, "yaml", converted.Format().String())
	// The original keeps its tag.
	assert.Equal(t, "plist", doc.Format().String())
	// The tree is shared, not copied.
	assert.Same(t, doc.Root, converted.Root)
}
