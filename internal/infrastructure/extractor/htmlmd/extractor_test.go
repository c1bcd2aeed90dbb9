package htmlmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractConvertsBody(t *testing.T) {
	page := `<html><head><title>Brief</title><style>p{}</style></head>
<body><nav><a href="/">Home</a></nav>
<h2>Market</h2><p>Demand is <strong>growing</strong>.</p>
<ul><li>Imports</li><li>Local supply</li></ul>
<script>alert(1)</script></body></html>`
	path := filepath.Join(t.TempDir(), "brief.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	text, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, want := range []string{"## Market", "Demand is **growing**.", "- Imports"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"alert", "Home", "p{}"} {
		if strings.Contains(text, unwanted) {
			t.Fatalf("unexpected %q in:\n%s", unwanted, text)
		}
	}
}

func TestExtractEmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	if err := os.WriteFile(path, []byte("<html><body><script>x</script></body></html>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	text, err := NewExtractor().Extract(context.Background(), path)
	if err != nil || text != "" {
		t.Fatalf("expected empty text, got %q %v", text, err)
	}
}
