package domain

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateAudience(t *testing.T) {
	for _, ok := range []string{"investors", "board-2026", "lp_update"} {
		if err := ValidateAudience(ok); err != nil {
			t.Errorf("ValidateAudience(%q) error = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "../escaped", "../../../../tmp/deck", "a/b", ".hidden", "with space"} {
		if err := ValidateAudience(bad); !IsKind(err, ErrInvalidInput) {
			t.Errorf("ValidateAudience(%q) = %v, want invalid input", bad, err)
		}
	}
}

func TestArtifactFileStaysInOutputs(t *testing.T) {
	layout := NewProjectLayout("/projects", "acme")

	path, err := layout.ArtifactFile("investors", "pptx")
	if err != nil {
		t.Fatalf("ArtifactFile() error = %v", err)
	}
	if want := filepath.Join("/projects", "acme", DirOutputs, "acme-investors.pptx"); path != want {
		t.Fatalf("ArtifactFile() = %q, want %q", path, want)
	}

	path, err = layout.ArtifactFile("../../../../escaped/deck", "pptx")
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for traversal audience, got %q, %v", path, err)
	}
	if strings.Contains(path, "escaped") {
		t.Fatalf("no path may be returned for a rejected audience: %q", path)
	}
}
