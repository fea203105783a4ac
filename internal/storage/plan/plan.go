// Package plan manages per-module task plan documents: markdown files
// holding nested checkbox task lists under .lopen/modules/<module>/plan.md.
//
// Checkbox state is flipped only by the workflow engine against verified
// program state; the model's narration never drives task completion.
package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage"
	"github.com/lopen-dev/lopen/internal/storage/paths"
	"github.com/lopen-dev/lopen/internal/storage/session"
)

// checkboxLine matches a markdown checkbox task line, capturing the
// indentation, list marker, checkbox state, and task text.
var checkboxLine = regexp.MustCompile(`^([ \t]*)([-*]) \[( |x|X)\] (.*)$`)

// Task is one checkbox line of a plan, as derived on read. Plans are
// stored as plain markdown, never as structured data.
type Task struct {
	Text        string `json:"text"`
	IsCompleted bool   `json:"is_completed"`
	Level       int    `json:"level"`
}

// Manager reads and edits plan documents for the store.
type Manager struct {
	fs     fsys.FS
	layout paths.Layout
	log    *logging.Logger
}

// NewManager creates a plan manager over the given filesystem and layout.
func NewManager(fs fsys.FS, layout paths.Layout, log *logging.Logger) *Manager {
	return &Manager{fs: fs, layout: layout, log: log}
}

// Write stores a module's plan document verbatim, creating it on first
// write. The content is not parsed or validated.
func (m *Manager) Write(ctx context.Context, module, content string) error {
	path := m.layout.PlanFile(session.NormalizeModule(module))
	if err := m.fs.MkdirAll(ctx, filepath.Dir(path)); err != nil {
		if storage.IsContextError(err) {
			return err
		}
		return storage.NewError("failed to create module directory", err).WithPath(path)
	}
	return storage.WriteAtomic(ctx, m.fs, path, []byte(content))
}

// Read returns a module's plan document. A missing plan reports
// storage.ErrNotFound.
func (m *Manager) Read(ctx context.Context, module string) (string, error) {
	path := m.layout.PlanFile(session.NormalizeModule(module))
	data, err := m.fs.ReadFile(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return "", err
		}
		if storage.Is(err, fsys.ErrNotExist) {
			return "", fmt.Errorf("plan for module %q: %w", module, storage.ErrNotFound)
		}
		return "", storage.NewError("failed to read plan", err).WithPath(path)
	}
	return string(data), nil
}

// Exists reports whether a module has a plan document.
func (m *Manager) Exists(ctx context.Context, module string) (bool, error) {
	path := m.layout.PlanFile(session.NormalizeModule(module))
	exists, err := m.fs.Exists(ctx, path)
	if err != nil {
		if storage.IsContextError(err) {
			return false, err
		}
		return false, storage.NewError("failed to check plan", err).WithPath(path)
	}
	return exists, nil
}

// UpdateCheckbox flips the checkbox marker of the first line whose task
// text exactly matches taskText, preserving indentation and every other
// line byte-for-byte. It reports whether a matching line was found.
func (m *Manager) UpdateCheckbox(ctx context.Context, module, taskText string, completed bool) (bool, error) {
	content, err := m.Read(ctx, module)
	if err != nil {
		return false, err
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		text, ok := taskTextOf(line)
		if !ok || text != taskText {
			continue
		}

		groups := checkboxLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		marker := " "
		if completed {
			marker = "x"
		}
		updated := groups[1] + groups[2] + " [" + marker + "] " + groups[4]
		if strings.HasSuffix(line, "\r") {
			updated += "\r"
		}
		if updated == line {
			return true, nil
		}

		lines[i] = updated
		if err := m.Write(ctx, module, strings.Join(lines, "\n")); err != nil {
			return false, err
		}
		m.log.Debug("checkbox updated", "module", module, "task", taskText, "completed", completed)
		return true, nil
	}
	return false, nil
}

// Tasks parses every checkbox line of a module's plan into Task values,
// in document order. Non-checkbox lines are ignored. Level is the number
// of indentation characters preceding the list marker.
func (m *Manager) Tasks(ctx context.Context, module string) ([]Task, error) {
	content, err := m.Read(ctx, module)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, line := range strings.Split(content, "\n") {
		groups := checkboxLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if groups == nil {
			continue
		}
		tasks = append(tasks, Task{
			Text:        groups[4],
			IsCompleted: groups[3] == "x" || groups[3] == "X",
			Level:       len(groups[1]),
		})
	}
	return tasks, nil
}

// taskTextOf extracts the task text from a checkbox line, tolerating a
// trailing carriage return.
func taskTextOf(line string) (string, bool) {
	groups := checkboxLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
	if groups == nil {
		return "", false
	}
	return groups[4], true
}
