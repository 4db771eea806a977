// Package document holds the canonical in-memory representation of a
// repository file: an ordered tree of dicts, arrays and scalars that
// both on-disk formats convert into and out of.
package document

import (
	"github.com/repoform/repoform/pkg/types"
)

// Document pairs a canonical tree with the format it was read from.
// The format is fixed at creation; saving in a different format is an
// explicit conversion, done by constructing a new Document.
type Document struct {
	Root *Node

	// Path is the file this document was read from, empty for
	// documents that have not been persisted yet.
	Path string

	// Warnings collects non-fatal repairs made while reading, such
	// as invalid byte sequences replaced during decoding.
	Warnings []string

	format types.FormatKind
}

// New creates a document with the given root and format tag.
func New(root *Node, format types.FormatKind) *Document {
	return &Document{Root: root, format: format}
}

// Format returns the format the document was read as. It never changes
// for a given document instance.
func (d *Document) Format() types.FormatKind {
	return d.format
}

// Converted returns a copy of d tagged with a different format,
// sharing the same tree. This is the one sanctioned way to change a
// document's format.
func (d *Document) Converted(format types.FormatKind) *Document {
	return &Document{
		Root:     d.Root,
		Path:     d.Path,
		Warnings: d.Warnings,
		format:   format,
	}
}
