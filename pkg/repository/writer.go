package repository

import (
	"context"
	"path/filepath"

	"github.com/repoform/repoform/pkg/document"
	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/types"
)

// Write serializes doc to path in the requested format. The content
// lands via a temp file in the target directory plus an atomic
// rename, so the destination always holds either the complete prior
// content or the complete new content. Write never substitutes a
// different format than the one requested.
func (r *Repository) Write(ctx context.Context, doc *document.Document, path string, kind types.FormatKind) error {
	if doc == nil || doc.Root == nil {
		return errors.New(errors.ErrInvalidInput, "cannot write a nil document")
	}
	if !kind.Valid() {
		return errors.Newf(errors.ErrInvalidInput, "unknown format kind %q", kind)
	}

	out, err := r.serialize(ctx, doc, kind)
	if err != nil {
		return err
	}

	norm := r.normalize(path)
	release := r.locks.acquire(norm)
	defer release()

	return r.replaceAtomically(norm, out)
}

// serialize renders the document in the requested format. The XML
// plist serializer covers Legacy directly and doubles as the
// intermediate handed to the bridge for ModernText.
func (r *Repository) serialize(ctx context.Context, doc *document.Document, kind types.FormatKind) ([]byte, error) {
	intermediate, err := document.SerializePlist(doc.Root)
	if err != nil {
		return nil, err
	}
	if kind == types.FormatLegacy {
		return intermediate, nil
	}
	out, err := r.codec.Encode(ctx, intermediate)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBridgeUnavailable, "cannot encode ModernText").
			WithDetail("hint", "retry with a Legacy write if converting is acceptable")
	}
	return out, nil
}

func (r *Repository) replaceAtomically(path string, content []byte) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := r.fs.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot write temp file %s", tmpName)
	}
	// Flush durably before the rename makes the content visible.
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot sync temp file %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot close temp file %s", tmpName)
	}
	if err := r.fs.Chmod(tmpName, 0644); err != nil {
		_ = r.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot chmod temp file %s", tmpName)
	}

	if err := r.fs.Rename(tmpName, path); err != nil {
		// Remove the temp file so a failed replace leaves no litter.
		_ = r.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrAtomicReplaceFailed, "cannot replace %s", path)
	}

	r.logger.Debug().Str("path", path).Int("bytes", len(content)).Msg("Wrote document")
	return nil
}
