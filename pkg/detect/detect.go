// Package detect maps file paths to their FormatKind.
//
// Detection is purely extension-based and does no I/O, so it is safe to
// call on paths that do not exist yet (e.g. when creating a new file).
package detect

import (
	"path/filepath"
	"strings"

	"github.com/repoform/repoform/pkg/types"
)

// Detect returns the FormatKind for the given path. Files with a
// .yaml or .yml extension (any case) are ModernText; everything else,
// including extensionless paths, is Legacy. Detect never fails.
func Detect(path string) types.FormatKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return types.FormatModernText
	default:
		return types.FormatLegacy
	}
}
