// Package cache provides the store's disk-backed, mtime-invalidated
// caches for expensive derived artifacts: extracted document sections
// and multi-file code assessments.
//
// Both caches share one invalidation rule: an entry is valid iff every
// watched file's modification time still equals the snapshot recorded
// when the entry was written. Staleness and corruption are never errors;
// they only cost a recomputation.
package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/paths"
)

// sectionEntry is the on-disk record of one cached document section.
// The key fields are stored alongside the content so entries can be
// found again when invalidating by source file.
type sectionEntry struct {
	SourceFile      string    `json:"source_file"`
	Header          string    `json:"header"`
	Content         string    `json:"content"`
	CachedAt        time.Time `json:"cached_at"`
	SourceFileMtime time.Time `json:"source_file_mtime"`
}

// SectionCache caches extracted document sections keyed by
// (source file, header), watching the source file's mtime. It avoids
// re-extracting the same section on every phase transition.
type SectionCache struct {
	fs     fsys.FS
	layout paths.Layout
	log    *logging.Logger
	now    func() time.Time
}

// NewSectionCache creates a section cache over the given filesystem and
// layout.
func NewSectionCache(fs fsys.FS, layout paths.Layout, log *logging.Logger) *SectionCache {
	return &SectionCache{fs: fs, layout: layout, log: log, now: time.Now}
}

// Get returns the cached section content for (sourceFile, header), or
// ok=false when the entry is missing, unparseable, or the source file's
// mtime no longer matches the recorded snapshot. Staleness and
// corruption never surface as errors; only context cancellation does.
func (c *SectionCache) Get(ctx context.Context, sourceFile, header string) (string, bool, error) {
	path := c.layout.SectionCacheFile(sourceFile, header)

	data, err := c.fs.ReadFile(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return "", false, err
		}
		return "", false, nil
	}

	var entry sectionEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Debug("unparseable section cache entry", "path", path, "error", err)
		return "", false, nil
	}

	mtime, err := c.fs.ModTime(ctx, sourceFile)
	if err != nil {
		if storage.IsContextError(err) {
			return "", false, err
		}
		return "", false, nil
	}
	if !mtime.Equal(entry.SourceFileMtime) {
		return "", false, nil
	}
	return entry.Content, true, nil
}

// Set stores section content along with the source file's current mtime.
func (c *SectionCache) Set(ctx context.Context, sourceFile, header, content string) error {
	mtime, err := c.fs.ModTime(ctx, sourceFile)
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to stat section source file", err).WithPath(sourceFile)
	}

	entry := sectionEntry{
		SourceFile:      sourceFile,
		Header:          header,
		Content:         content,
		CachedAt:        c.now().UTC(),
		SourceFileMtime: mtime,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return storage.NewError("failed to serialize section cache entry", err)
	}

	path := c.layout.SectionCacheFile(sourceFile, header)
	if err := c.fs.MkdirAll(ctx, c.layout.SectionCacheDir()); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to create section cache directory", err).WithPath(path)
	}
	return storage.WriteAtomic(ctx, c.fs, path, data)
}

// InvalidateFile removes every cached section extracted from sourceFile.
// Best-effort: I/O failures are logged, not raised.
func (c *SectionCache) InvalidateFile(ctx context.Context, sourceFile string) error {
	names, err := c.fs.List(ctx, c.layout.SectionCacheDir(), "*.json")
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		c.log.Warn("failed to list section cache", "error", err)
		return nil
	}

	for _, name := range names {
		path := filepath.Join(c.layout.SectionCacheDir(), name)
		data, err := c.fs.ReadFile(ctx, path)
		if err != nil {
			if storage.IsContextError(err) {
				return err
			}
			continue
		}
		var entry sectionEntry
		if err := json.Unmarshal(data, &entry); err != nil || entry.SourceFile != sourceFile {
			continue
		}
		if err := c.fs.Remove(ctx, path); err != nil {
			if storage.IsContextError(err) {
				return err
			}
			c.log.Warn("failed to remove section cache entry", "path", path, "error", err)
		}
	}
	return nil
}

// Clear removes every cached section. Best-effort.
func (c *SectionCache) Clear(ctx context.Context) error {
	return clearDir(ctx, c.fs, c.log, c.layout.SectionCacheDir())
}

// clearDir removes every .json entry under dir, logging failures rather
// than raising them.
func clearDir(ctx context.Context, fs fsys.FS, log *logging.Logger, dir string) error {
	names, err := fs.List(ctx, dir, "*.json")
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		log.Warn("failed to list cache directory", "dir", dir, "error", err)
		return nil
	}
	for _, name := range names {
		if err := fs.Remove(ctx, filepath.Join(dir, name)); err != nil {
			if storage.IsContextError(err) {
				return err
			}
			log.Warn("failed to remove cache entry", "path", filepath.Join(dir, name), "error", err)
		}
	}
	return nil
}
