// Package fsys defines the filesystem capability interface the persistent
// store is built on, along with a real implementation backed by the os
// package and an in-memory fake for tests. The interface deliberately
// exposes only whole-file operations: every record the store handles is
// small enough to read and write in one shot, and the atomicity story
// (write-to-temp-then-move) depends on it.
package fsys

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned when a requested file or directory does not exist.
// Implementations must return an error matching this (via errors.Is) so
// callers can distinguish absence from real failures.
var ErrNotExist = errors.New("file does not exist")

// FS is the capability contract between the store and the filesystem.
// All paths are absolute. Implementations must check ctx before starting
// any I/O and return ctx.Err() for an already-cancelled context.
type FS interface {
	// MkdirAll creates a directory and any missing parents. Idempotent.
	MkdirAll(ctx context.Context, path string) error

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// ReadFile reads the entire file at path.
	// Returns ErrNotExist if the file does not exist.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data as the complete contents of path, creating
	// the file if needed and truncating it otherwise.
	WriteFile(ctx context.Context, path string, data []byte) error

	// List returns the names (not full paths) of the entries directly
	// under dir. A non-empty pattern filters names by glob match.
	// A missing directory yields an empty list, not an error.
	List(ctx context.Context, dir, pattern string) ([]string, error)

	// Move renames oldpath to newpath. Within one filesystem this is
	// atomic, which the store's write path relies on.
	Move(ctx context.Context, oldpath, newpath string) error

	// Remove deletes the file or empty directory at path.
	// Returns ErrNotExist if nothing is there.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes path and everything under it. Removing a
	// missing path is not an error.
	RemoveAll(ctx context.Context, path string) error

	// Symlink creates a symbolic link at linkname pointing to target,
	// replacing any existing link at linkname.
	Symlink(ctx context.Context, target, linkname string) error

	// Readlink returns the target of the symbolic link at linkname.
	// Returns ErrNotExist if the link does not exist.
	Readlink(ctx context.Context, linkname string) (string, error)

	// ModTime returns the last-write time of path in UTC.
	// Returns ErrNotExist if the path does not exist.
	ModTime(ctx context.Context, path string) (time.Time, error)
}
