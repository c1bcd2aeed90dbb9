package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

var markdownExts = map[string]bool{".md": true, ".markdown": true}

// StandardizeUseCase converts raw project documents into standardized markdown, one file per
// document, picking the extractor by file extension.
type StandardizeUseCase struct {
	workspace  ports.ProjectWorkspace
	extractors map[string]ports.TextExtractor
}

func NewStandardizeUseCase(workspace ports.ProjectWorkspace, extractors map[string]ports.TextExtractor) *StandardizeUseCase {
	normalized := make(map[string]ports.TextExtractor, len(extractors))
	for ext, extractor := range extractors {
		normalized[strings.ToLower(ext)] = extractor
	}
	return &StandardizeUseCase{workspace: workspace, extractors: normalized}
}

func (uc *StandardizeUseCase) Standardize(ctx context.Context, projectID string) (int, error) {
	layout := uc.workspace.Layout(projectID)
	files, err := uc.workspace.List(ctx, layout.RawDocsDir())
	if err != nil {
		return 0, fmt.Errorf("list raw documents: %w", err)
	}

	count := 0
	for _, path := range files {
		ext := strings.ToLower(filepath.Ext(path))
		extractor, ok := uc.extractors[ext]
		if !ok {
			continue
		}
		text, err := extractor.Extract(ctx, path)
		if err != nil {
			return count, fmt.Errorf("standardize %s: %w", filepath.Base(path), err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if !markdownExts[ext] {
			text = "# " + stem + "\n\n" + strings.TrimSpace(text) + "\n"
		}
		out := filepath.Join(layout.StandardizedDocsDir(), stem+".md")
		if err := uc.workspace.WriteText(ctx, out, text); err != nil {
			return count, fmt.Errorf("write standardized document: %w", err)
		}
		count++
	}
	return count, nil
}

const SampleDocument = "# Sample Document\n\nContent from uploaded files would appear here.\n"
