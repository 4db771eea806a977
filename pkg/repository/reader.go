package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/repoform/repoform/pkg/detect"
	"github.com/repoform/repoform/pkg/document"
	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/types"
)

var binaryPlistMagic = []byte("bplist")

// Read loads the file at path into a canonical document tagged with
// its originating format. Operations on the same path are serialized
// against concurrent reads and writes.
func (r *Repository) Read(ctx context.Context, path string) (*document.Document, error) {
	norm := r.normalize(path)
	release := r.locks.acquire(norm)
	defer release()
	return r.readLocked(ctx, norm)
}

func (r *Repository) readLocked(ctx context.Context, path string) (*document.Document, error) {
	kind := detect.Detect(path)

	info, err := r.fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound, "cannot stat %s", path)
	}
	if info.Size() > r.cfg.Reader.MaxFileSize {
		return nil, errors.Newf(errors.ErrSizeExceeded,
			"%s is %d bytes, limit is %d", path, info.Size(), r.cfg.Reader.MaxFileSize)
	}

	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}

	// Binary plists are not text; repairing them would corrupt them.
	var warnings []string
	if !bytes.HasPrefix(data, binaryPlistMagic) {
		repaired, replaced := repairUTF8(data)
		if replaced > 0 {
			data = repaired
			msg := fmt.Sprintf("replaced %d invalid byte sequence(s)", replaced)
			warnings = append(warnings, msg)
			r.logger.Warn().Str("path", path).Int("replaced", replaced).
				Msg("Repaired invalid byte sequences")
		}
	}

	var root *document.Node
	switch kind {
	case types.FormatLegacy:
		root, err = document.ParsePlist(data)
		if err != nil {
			return nil, err
		}
	case types.FormatModernText:
		root, kind, err = r.decodeModern(ctx, path, data)
		if err != nil {
			return nil, err
		}
	}

	doc := document.New(root, kind)
	doc.Path = path
	doc.Warnings = warnings
	return doc, nil
}

// decodeModern runs the bridge and, when the bridge or its output
// fails, falls back to an in-process Legacy parse of the same bytes.
// Some files carry a .yaml name but plist content; the fallback
// recovers those and tags them Legacy so a later save round-trips the
// content it actually holds.
func (r *Repository) decodeModern(ctx context.Context, path string, data []byte) (*document.Node, types.FormatKind, error) {
	intermediate, bridgeErr := r.codec.Decode(ctx, data)
	if bridgeErr == nil {
		root, err := document.ParsePlist(intermediate)
		if err == nil {
			return root, types.FormatModernText, nil
		}
		bridgeErr = errors.Wrap(err, errors.ErrBridgeProcessFailed, "bridge output is not a valid intermediate")
	}

	// An oversized payload is a hard limit, not a mislabel.
	if errors.IsErrorCode(bridgeErr, errors.ErrSizeExceeded) {
		return nil, "", bridgeErr
	}

	if root, err := document.ParsePlist(data); err == nil {
		r.logger.Warn().Str("path", path).
			Msg("ModernText decode failed but content parses as Legacy, treating file as mislabeled")
		return root, types.FormatLegacy, nil
	}

	return nil, "", errors.Wrapf(bridgeErr, errors.ErrUnparseable, "cannot decode %s", path)
}
