package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

func TestStandardizeConvertsByExtension(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.RawDocsDir()+"/notes.md", "")
	ws.put(layout.RawDocsDir()+"/brief.txt", "")
	ws.put(layout.RawDocsDir()+"/model.xlsx", "")
	ws.put(layout.RawDocsDir()+"/annex.TXT", "")

	extractors := map[string]ports.TextExtractor{
		".md":  &extractorFake{text: "# Notes\nbody\n"},
		".TXT": &extractorFake{text: "plain body"},
	}
	n, err := NewStandardizeUseCase(ws, extractors).Standardize(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 documents, got %d", n)
	}
	if got, _ := ws.get(layout.StandardizedDocsDir() + "/notes.md"); got != "# Notes\nbody\n" {
		t.Fatalf("markdown must be copied as is, got %q", got)
	}
	if got, _ := ws.get(layout.StandardizedDocsDir() + "/brief.md"); got != "# brief\n\nplain body\n" {
		t.Fatalf("unexpected text conversion: %q", got)
	}
	if _, ok := ws.get(layout.StandardizedDocsDir() + "/model.md"); ok {
		t.Fatalf("spreadsheets are not standardized")
	}
}

func TestStandardizeSkipsEmptyText(t *testing.T) {
	ws := newMemWorkspace()
	ws.put(ws.Layout("p1").RawDocsDir()+"/scan.pdf", "")

	n, err := NewStandardizeUseCase(ws, map[string]ports.TextExtractor{".pdf": &extractorFake{text: "  \n"}}).
		Standardize(context.Background(), "p1")
	if err != nil || n != 0 {
		t.Fatalf("expected nothing standardized, got %d %v", n, err)
	}
}

func TestStandardizeExtractorError(t *testing.T) {
	ws := newMemWorkspace()
	ws.put(ws.Layout("p1").RawDocsDir()+"/broken.pdf", "")

	_, err := NewStandardizeUseCase(ws, map[string]ports.TextExtractor{".pdf": &extractorFake{err: errors.New("malformed xref")}}).
		Standardize(context.Background(), "p1")
	if err == nil {
		t.Fatalf("expected an error")
	}
}
