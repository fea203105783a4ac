package fsys

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gobwas/glob"
)

// OS implements FS against the real filesystem.
type OS struct{}

// NewOS returns an FS backed by the host filesystem.
func NewOS() *OS {
	return &OS{}
}

// MkdirAll creates a directory and any missing parents.
func (o *OS) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(path, 0755)
}

// Exists reports whether a file or directory exists at path.
func (o *OS) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadFile reads the entire file at path.
func (o *OS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, err
	}
	return data, nil
}

// WriteFile writes data as the complete contents of path.
func (o *OS) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// List returns the names of entries directly under dir, optionally
// filtered by a glob pattern.
func (o *OS) List(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matcher glob.Glob
	if pattern != "" {
		var err error
		matcher, err = glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid list pattern %q: %w", pattern, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Move renames oldpath to newpath.
func (o *OS) Move(ctx context.Context, oldpath, newpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(oldpath, newpath)
}

// Remove deletes the file or empty directory at path.
func (o *OS) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return err
	}
	return nil
}

// RemoveAll deletes path and everything under it.
func (o *OS) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

// Symlink creates a symbolic link, replacing any existing one.
func (o *OS) Symlink(ctx context.Context, target, linkname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// os.Symlink fails if linkname exists, so retarget via remove-then-create.
	if err := os.Remove(linkname); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, linkname)
}

// Readlink returns the target of the symbolic link at linkname.
func (o *OS) Readlink(ctx context.Context, linkname string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := os.Readlink(linkname)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, linkname)
		}
		return "", err
	}
	return target, nil
}

// ModTime returns the last-write time of path in UTC.
func (o *OS) ModTime(ctx context.Context, path string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}
