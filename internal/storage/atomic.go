package storage

import (
	"context"

	"github.com/lopen-dev/lopen/internal/fsys"
)

// tmpSuffix marks the sibling temp file used by WriteAtomic. A cancelled
// or crashed write leaves one behind; the next attempt overwrites it.
const tmpSuffix = ".tmp"

// WriteAtomic writes data to path via a sibling temp file and an atomic
// move, so the final path never holds a partially-written record. The
// parent directory must exist. Failures come back as StorageError or
// WriteFailureError; context cancellation comes back as ctx.Err().
func WriteAtomic(ctx context.Context, fs fsys.FS, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := path + tmpSuffix
	if err := fs.WriteFile(ctx, tmp, data); err != nil {
		return WrapWrite("failed to write temp file", tmp, err)
	}
	if err := fs.Move(ctx, tmp, path); err != nil {
		// A cancelled save leaves its temp file for the next attempt to
		// overwrite; a failed move cleans up best-effort.
		if !IsContextError(err) {
			_ = fs.Remove(context.WithoutCancel(ctx), tmp)
		}
		return WrapWrite("failed to move temp file into place", path, err)
	}
	return nil
}
