package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lopen-dev/lopen/internal/fsys"
	"github.com/lopen-dev/lopen/internal/logging"
	"github.com/lopen-dev/lopen/internal/storage/paths"
)

func newTestStore(t *testing.T) (*fsys.Mem, paths.Layout) {
	t.Helper()
	mem := fsys.NewMem()
	ctx := context.Background()
	if err := mem.MkdirAll(ctx, "/proj/docs"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	return mem, paths.NewLayout("/proj")
}

func writeSource(t *testing.T, mem *fsys.Mem, path, content string) {
	t.Helper()
	if err := mem.WriteFile(context.Background(), path, []byte(content)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestSectionCache_SetGet(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "# Spec\n\n## Overview\ntext\n")
	if err := c.Set(ctx, "/proj/docs/spec.md", "## Overview", "text"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	content, ok, err := c.Get(ctx, "/proj/docs/spec.md", "## Overview")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Get missed a fresh entry")
	}
	if content != "text" {
		t.Errorf("content = %q", content)
	}
}

func TestSectionCache_MissAbsent(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())

	_, ok, err := c.Get(context.Background(), "/proj/docs/spec.md", "## Overview")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get hit with no entry written")
	}
}

func TestSectionCache_SourceChangeInvalidates(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "v1")
	if err := c.Set(ctx, "/proj/docs/spec.md", "## Overview", "from v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mtime, _ := mem.ModTime(ctx, "/proj/docs/spec.md")
	mem.Chtimes("/proj/docs/spec.md", mtime.Add(time.Second))

	_, ok, err := c.Get(ctx, "/proj/docs/spec.md", "## Overview")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get hit after the source file changed")
	}
}

func TestSectionCache_SourceDeletedInvalidates(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "v1")
	c.Set(ctx, "/proj/docs/spec.md", "## Overview", "content")
	if err := mem.Remove(ctx, "/proj/docs/spec.md"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, ok, err := c.Get(ctx, "/proj/docs/spec.md", "## Overview")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get hit after the source file was deleted")
	}
}

func TestSectionCache_CorruptEntryIsAMiss(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "v1")
	c.Set(ctx, "/proj/docs/spec.md", "## Overview", "content")

	path := layout.SectionCacheFile("/proj/docs/spec.md", "## Overview")
	if err := mem.WriteFile(ctx, path, []byte("{garbage")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, ok, err := c.Get(ctx, "/proj/docs/spec.md", "## Overview")
	if err != nil {
		t.Fatalf("corrupt entry surfaced an error: %v", err)
	}
	if ok {
		t.Error("Get hit on a corrupt entry")
	}
}

func TestSectionCache_KeysAreIndependent(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "doc")
	c.Set(ctx, "/proj/docs/spec.md", "## A", "section a")
	c.Set(ctx, "/proj/docs/spec.md", "## B", "section b")

	got, ok, _ := c.Get(ctx, "/proj/docs/spec.md", "## B")
	if !ok || got != "section b" {
		t.Errorf("Get(## B) = %q, %v", got, ok)
	}
	if _, ok, _ := c.Get(ctx, "/proj/docs/spec.md", "## C"); ok {
		t.Error("Get hit for a header never cached")
	}
}

func TestSectionCache_InvalidateFile(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "a")
	writeSource(t, mem, "/proj/docs/other.md", "b")
	c.Set(ctx, "/proj/docs/spec.md", "## A", "1")
	c.Set(ctx, "/proj/docs/spec.md", "## B", "2")
	c.Set(ctx, "/proj/docs/other.md", "## A", "3")

	if err := c.InvalidateFile(ctx, "/proj/docs/spec.md"); err != nil {
		t.Fatalf("InvalidateFile failed: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "/proj/docs/spec.md", "## A"); ok {
		t.Error("entry for invalidated file survived")
	}
	if _, ok, _ := c.Get(ctx, "/proj/docs/spec.md", "## B"); ok {
		t.Error("entry for invalidated file survived")
	}
	if _, ok, _ := c.Get(ctx, "/proj/docs/other.md", "## A"); !ok {
		t.Error("entry for a different file was removed")
	}
}

func TestSectionCache_Clear(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	ctx := context.Background()

	writeSource(t, mem, "/proj/docs/spec.md", "a")
	c.Set(ctx, "/proj/docs/spec.md", "## A", "1")
	c.Set(ctx, "/proj/docs/spec.md", "## B", "2")

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	names, _ := mem.List(ctx, layout.SectionCacheDir(), "*.json")
	if len(names) != 0 {
		t.Errorf("entries remain after Clear: %v", names)
	}
}

func TestSectionCache_ContextCancellation(t *testing.T) {
	mem, layout := newTestStore(t)
	c := NewSectionCache(mem, layout, logging.NopLogger())
	writeSource(t, mem, "/proj/docs/spec.md", "v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "/proj/docs/spec.md", "## A"); err == nil {
		t.Error("Get with cancelled ctx returned no error")
	}
	if err := c.Set(ctx, "/proj/docs/spec.md", "## A", "x"); err == nil {
		t.Error("Set with cancelled ctx returned no error")
	}
}
