// Package initialize bootstraps the lopen store: it idempotently creates
// the directory layout under .lopen/ and keeps the project's ignore file
// excluding the store from version control.
package initialize

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/paths"
)

const (
	ignoreFileName = ".gitignore"
	ignoreEntry    = paths.StoreDirName + "/"
)

// Initializer bootstraps the store layout for a project.
type Initializer struct {
	fs     fsys.FS
	layout paths.Layout
	log    *logging.Logger
}

// New creates an initializer over the given filesystem and layout.
func New(fs fsys.FS, layout paths.Layout, log *logging.Logger) *Initializer {
	return &Initializer{fs: fs, layout: layout, log: log}
}

// Initialize ensures the full store directory layout exists and the
// ignore file excludes the store root. Safe to call repeatedly; repeated
// calls converge to the same state as a single call.
func (i *Initializer) Initialize(ctx context.Context) error {
	dirs := []string{
		i.layout.Root(),
		i.layout.SessionsDir(),
		i.layout.ModulesDir(),
		i.layout.SectionCacheDir(),
		i.layout.AssessmentCacheDir(),
		i.layout.CorruptedDir(),
	}
	for _, dir := range dirs {
		if err := i.fs.MkdirAll(ctx, dir); err != nil {
			if storage.IsContextError(err) {
				return err
			}
			return storage.NewError("failed to create store directory", err).WithPath(dir)
		}
	}

	if err := i.ensureIgnoreEntry(ctx); err != nil {
		return err
	}

	i.log.Debug("store initialized", "root", i.layout.Root())
	return nil
}

// ensureIgnoreEntry appends a ".lopen/" entry to a pre-existing ignore
// file, without duplicating the entry or disturbing other content. If no
// ignore file exists, none is created.
func (i *Initializer) ensureIgnoreEntry(ctx context.Context) error {
	path := filepath.Join(i.layout.ProjectRoot(), ignoreFileName)

	data, err := i.fs.ReadFile(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return err
		}
		if storage.Is(err, fsys.ErrNotExist) {
			return nil
		}
		return storage.NewError("failed to read ignore file", err).WithPath(path)
	}

	content := string(data)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == ignoreEntry || trimmed == paths.StoreDirName {
			return nil
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += ignoreEntry + "\n"

	if err := storage.WriteAtomic(ctx, i.fs, path, []byte(content)); err != nil {
		return err
	}
	i.log.Info("added store entry to ignore file", "path", path)
	return nil
}
