package fsys

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// Mem is an in-memory FS implementation for tests. It mirrors the
// semantics of the OS implementation, including the requirement that a
// file's parent directory exist before the file can be written, so tests
// catch missing-MkdirAll bugs.
//
// FailOp, when set, is consulted before every operation with the
// operation name ("write", "move", "read", ...) and the primary path; a
// non-nil return is surfaced as that operation's failure. This is how
// tests simulate disk-full and permission errors.
type Mem struct {
	mu       sync.Mutex
	files    map[string][]byte
	dirs     map[string]bool
	symlinks map[string]string
	mtimes   map[string]time.Time

	FailOp func(op, path string) error
}

// NewMem returns an empty in-memory filesystem with "/" present.
func NewMem() *Mem {
	return &Mem{
		files:    make(map[string][]byte),
		dirs:     map[string]bool{"/": true},
		symlinks: make(map[string]string),
		mtimes:   make(map[string]time.Time),
	}
}

func (m *Mem) fail(op, path string) error {
	if m.FailOp != nil {
		return m.FailOp(op, path)
	}
	return nil
}

// MkdirAll creates a directory and any missing parents.
func (m *Mem) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("mkdir", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	for p != "/" && p != "." {
		m.dirs[p] = true
		p = filepath.Dir(p)
	}
	return nil
}

// Exists reports whether a file, directory, or symlink exists at path.
func (m *Mem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := m.fail("exists", path); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	if _, ok := m.symlinks[p]; ok {
		return true, nil
	}
	return m.dirs[p], nil
}

// ReadFile reads the entire file at path.
func (m *Mem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.fail("read", path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteFile writes data as the complete contents of path. The parent
// directory must already exist.
func (m *Mem) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("write", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	if !m.dirs[filepath.Dir(p)] {
		return fmt.Errorf("parent directory does not exist: %s", p)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[p] = stored
	m.mtimes[p] = time.Now().UTC()
	return nil
}

// List returns the names of entries directly under dir, optionally
// filtered by a glob pattern.
func (m *Mem) List(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.fail("list", dir); err != nil {
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

	m.mu.Lock()
	defer m.mu.Unlock()

	d := filepath.Clean(dir)
	if !m.dirs[d] {
		return nil, nil
	}

	seen := make(map[string]bool)
	collect := func(p string) {
		if filepath.Dir(p) != d {
			return
		}
		name := filepath.Base(p)
		if matcher != nil && !matcher.Match(name) {
			return
		}
		seen[name] = true
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.symlinks {
		collect(p)
	}
	for p := range m.dirs {
		if p != d {
			collect(p)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Move renames oldpath to newpath. Directories move with their contents.
func (m *Mem) Move(ctx context.Context, oldpath, newpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("move", oldpath); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	oldp := filepath.Clean(oldpath)
	newp := filepath.Clean(newpath)
	if !m.dirs[filepath.Dir(newp)] {
		return fmt.Errorf("parent directory does not exist: %s", newp)
	}

	if data, ok := m.files[oldp]; ok {
		m.files[newp] = data
		m.mtimes[newp] = m.mtimes[oldp]
		delete(m.files, oldp)
		delete(m.mtimes, oldp)
		return nil
	}

	if m.dirs[oldp] {
		prefix := oldp + string(filepath.Separator)
		for p, data := range m.files {
			if strings.HasPrefix(p, prefix) {
				moved := newp + string(filepath.Separator) + strings.TrimPrefix(p, prefix)
				m.files[moved] = data
				m.mtimes[moved] = m.mtimes[p]
				delete(m.files, p)
				delete(m.mtimes, p)
			}
		}
		for p := range m.dirs {
			if strings.HasPrefix(p, prefix) {
				m.dirs[newp+string(filepath.Separator)+strings.TrimPrefix(p, prefix)] = true
				delete(m.dirs, p)
			}
		}
		delete(m.dirs, oldp)
		m.dirs[newp] = true
		return nil
	}

	return fmt.Errorf("%w: %s", ErrNotExist, oldp)
}

// Remove deletes the file, symlink, or empty directory at path.
func (m *Mem) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("remove", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		delete(m.mtimes, p)
		return nil
	}
	if _, ok := m.symlinks[p]; ok {
		delete(m.symlinks, p)
		return nil
	}
	if m.dirs[p] {
		delete(m.dirs, p)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotExist, p)
}

// RemoveAll deletes path and everything under it.
func (m *Mem) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("removeall", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	prefix := p + string(filepath.Separator)
	for f := range m.files {
		if f == p || strings.HasPrefix(f, prefix) {
			delete(m.files, f)
			delete(m.mtimes, f)
		}
	}
	for s := range m.symlinks {
		if s == p || strings.HasPrefix(s, prefix) {
			delete(m.symlinks, s)
		}
	}
	for d := range m.dirs {
		if d == p || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

// Symlink creates a symbolic link, replacing any existing one.
func (m *Mem) Symlink(ctx context.Context, target, linkname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("symlink", linkname); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l := filepath.Clean(linkname)
	if !m.dirs[filepath.Dir(l)] {
		return fmt.Errorf("parent directory does not exist: %s", l)
	}
	m.symlinks[l] = target
	return nil
}

// Readlink returns the target of the symbolic link at linkname.
func (m *Mem) Readlink(ctx context.Context, linkname string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := m.fail("readlink", linkname); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l := filepath.Clean(linkname)
	target, ok := m.symlinks[l]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotExist, l)
	}
	return target, nil
}

// ModTime returns the last-write time of path in UTC.
func (m *Mem) ModTime(ctx context.Context, path string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := m.fail("modtime", path); err != nil {
		return time.Time{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := filepath.Clean(path)
	if t, ok := m.mtimes[p]; ok {
		return t, nil
	}
	if m.dirs[p] {
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrNotExist, p)
}

// Chtimes overrides a file's recorded modification time. Test-only hook
// for exercising mtime-keyed cache invalidation.
func (m *Mem) Chtimes(path string, mtime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mtimes[filepath.Clean(path)] = mtime.UTC()
}
