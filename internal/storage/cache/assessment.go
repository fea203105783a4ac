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

// assessmentEntry is the on-disk record of one cached assessment: a
// multi-file analysis whose validity depends on every contributing
// file's mtime.
type assessmentEntry struct {
	Scope          string               `json:"scope"`
	Content        string               `json:"content"`
	CachedAt       time.Time            `json:"cached_at"`
	FileTimestamps map[string]time.Time `json:"file_timestamps"`
}

// AssessmentCache caches multi-file analyses (for example, "is module X
// consistent with its spec") keyed by a caller-chosen scope string. An
// entry watches the mtimes of every file that contributed to the
// analysis and is invalid the instant any one of them changes.
type AssessmentCache struct {
	fs     fsys.FS
	layout paths.Layout
	log    *logging.Logger
	now    func() time.Time
}

// NewAssessmentCache creates an assessment cache over the given
// filesystem and layout.
func NewAssessmentCache(fs fsys.FS, layout paths.Layout, log *logging.Logger) *AssessmentCache {
	return &AssessmentCache{fs: fs, layout: layout, log: log, now: time.Now}
}

// Get returns the cached assessment for scope, or ok=false when the
// entry is missing, unparseable, or any watched file's mtime no longer
// matches its recorded snapshot. Only context cancellation is an error.
func (c *AssessmentCache) Get(ctx context.Context, scope string) (string, bool, error) {
	path := c.layout.AssessmentCacheFile(scope)

	data, err := c.fs.ReadFile(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return "", false, err
		}
		return "", false, nil
	}

	var entry assessmentEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Debug("unparseable assessment cache entry", "path", path, "error", err)
		return "", false, nil
	}

	for file, recorded := range entry.FileTimestamps {
		mtime, err := c.fs.ModTime(ctx, file)
		if err != nil {
			if storage.IsContextError(err) {
				return "", false, err
			}
			return "", false, nil
		}
		if !mtime.Equal(recorded) {
			return "", false, nil
		}
	}
	return entry.Content, true, nil
}

// Set stores assessment content for scope, capturing the current mtime
// of every watched file.
func (c *AssessmentCache) Set(ctx context.Context, scope string, watched []string, content string) error {
	timestamps := make(map[string]time.Time, len(watched))
	for _, file := range watched {
		mtime, err := c.fs.ModTime(ctx, file)
		if err != nil {
			if storage.IsContextError(err) {
				return err
			}
			return storage.NewError("failed to stat watched file", err).WithPath(file)
		}
		timestamps[file] = mtime
	}

	entry := assessmentEntry{
		Scope:          scope,
		Content:        content,
		CachedAt:       c.now().UTC(),
		FileTimestamps: timestamps,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return storage.NewError("failed to serialize assessment cache entry", err)
	}

	path := c.layout.AssessmentCacheFile(scope)
	if err := c.fs.MkdirAll(ctx, c.layout.AssessmentCacheDir()); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to create assessment cache directory", err).WithPath(path)
	}
	return storage.WriteAtomic(ctx, c.fs, path, data)
}

// Invalidate removes the cached assessment for scope. Best-effort: I/O
// failures are logged, not raised.
func (c *AssessmentCache) Invalidate(ctx context.Context, scope string) error {
	path := c.layout.AssessmentCacheFile(scope)
	if err := c.fs.Remove(ctx, path); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		if !storage.Is(err, fsys.ErrNotExist) {
			c.log.Warn("failed to remove assessment cache entry", "path", path, "error", err)
		}
	}
	return nil
}

// InvalidateWatching removes every cached assessment that watches the
// given file. Best-effort.
func (c *AssessmentCache) InvalidateWatching(ctx context.Context, file string) error {
	names, err := c.fs.List(ctx, c.layout.AssessmentCacheDir(), "*.json")
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		c.log.Warn("failed to list assessment cache", "error", err)
		return nil
	}

	for _, name := range names {
		path := filepath.Join(c.layout.AssessmentCacheDir(), name)
		data, err := c.fs.ReadFile(ctx, path)
		if err != nil {
			if storage.IsContextError(err) {
				return err
			}
			continue
		}
		var entry assessmentEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if _, watches := entry.FileTimestamps[file]; !watches {
			continue
		}
		if err := c.fs.Remove(ctx, path); err != nil {
			if storage.IsContextError(err) {
				return err
			}
			c.log.Warn("failed to remove assessment cache entry", "path", path, "error", err)
		}
	}
	return nil
}

// Clear removes every cached assessment. Best-effort.
func (c *AssessmentCache) Clear(ctx context.Context) error {
	return clearDir(ctx, c.fs, c.log, c.layout.AssessmentCacheDir())
}
