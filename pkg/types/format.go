package types

// FormatKind identifies the on-disk encoding of a repository document.
// It is determined once, when a file is first read or created, and stays
// attached to the document for the life of the edit session.
type FormatKind string

const (
	// FormatLegacy is the property-list encoding (XML or binary).
	FormatLegacy FormatKind = "plist"

	// FormatModernText is the indentation-based YAML encoding.
	FormatModernText FormatKind = "yaml"
)

func (k FormatKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known format kinds.
func (k FormatKind) Valid() bool {
	return k == FormatLegacy || k == FormatModernText
}
