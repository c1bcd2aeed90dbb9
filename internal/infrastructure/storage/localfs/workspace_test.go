package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ws
}

func TestWorkspaceEnsureCreatesStageDirs(t *testing.T) {
	ws := newWorkspace(t)
	if err := ws.Ensure(context.Background(), "p1"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	for _, dir := range ws.Layout("p1").Dirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected dir %s", dir)
		}
	}
	if err := ws.Ensure(context.Background(), "../p1"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWorkspaceWriteReadList(t *testing.T) {
	ws := newWorkspace(t)
	ctx := context.Background()
	layout := ws.Layout("p1")

	if err := ws.WriteText(ctx, filepath.Join(layout.MemoDir(), "b.md"), "B"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if err := ws.WriteText(ctx, filepath.Join(layout.MemoDir(), "A.MD"), "A"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if err := ws.WriteText(ctx, filepath.Join(layout.MemoDir(), "c.txt"), "C"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	files, err := ws.List(ctx, layout.MemoDir(), ".md")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "A.MD" || filepath.Base(files[1]) != "b.md" {
		t.Fatalf("unexpected files: %v", files)
	}
	text, err := ws.ReadText(ctx, files[1])
	if err != nil || text != "B" {
		t.Fatalf("ReadText() = %q, %v", text, err)
	}

	missing, err := ws.List(ctx, layout.OutputsDir())
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected an empty listing for a missing dir, got %v %v", missing, err)
	}
	if _, err := ws.ReadText(ctx, layout.DeckFile()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestWorkspaceRejectsPathsOutsideRoot(t *testing.T) {
	ws := newWorkspace(t)
	outside := filepath.Join(filepath.Dir(ws.Root()), "escape.txt")

	if err := ws.WriteText(context.Background(), outside, "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if ws.Exists(outside) {
		t.Fatalf("paths outside the root never exist")
	}
}

func TestWorkspaceSaveRaw(t *testing.T) {
	ws := newWorkspace(t)
	path, err := ws.SaveRaw(context.Background(), "p1", "deck.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("SaveRaw() error = %v", err)
	}
	if path != filepath.Join(ws.Layout("p1").RawDocsDir(), "deck.pdf") || !ws.Exists(path) {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestWorkspacePurgeKeepsMarker(t *testing.T) {
	ws := newWorkspace(t)
	ctx := context.Background()
	layout := ws.Layout("p1")
	if err := ws.Ensure(ctx, "p1"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := ws.WriteText(ctx, layout.DeckFile(), "# Deck"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if err := ws.WriteText(ctx, layout.CompletionMarkerFile(), "done"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	if err := ws.Purge(ctx, "p1"); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if ws.Exists(layout.DeckFile()) {
		t.Fatalf("deck must be purged")
	}
	if !ws.Exists(layout.CompletionMarkerFile()) {
		t.Fatalf("completion marker must survive the purge")
	}
	for _, name := range domain.StageDirs {
		entries, err := os.ReadDir(layout.StageDir(name))
		if err != nil {
			t.Fatalf("stage dir %s must be recreated: %v", name, err)
		}
		if len(entries) != 0 {
			t.Fatalf("stage dir %s must be empty after purge, has %d entries", name, len(entries))
		}
	}
	if err := ws.WriteText(ctx, layout.RevenueChartFile(), "png"); err != nil {
		t.Fatalf("nested dirs must be created on write after purge: %v", err)
	}

	if err := ws.Purge(ctx, "missing"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestWorkspaceRemove(t *testing.T) {
	ws := newWorkspace(t)
	ctx := context.Background()
	chart := ws.Layout("p1").RevenueChartFile()
	if err := ws.WriteText(ctx, chart, "png"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	if err := ws.Remove(ctx, chart); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if ws.Exists(chart) {
		t.Fatal("file must be removed")
	}
	if err := ws.Remove(ctx, chart); err != nil {
		t.Fatalf("removing a missing file must succeed, got %v", err)
	}
	if err := ws.Remove(ctx, filepath.Join(ws.Root(), "..", "outside.txt")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput outside the root, got %v", err)
	}
}
