package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

type UploadUseCase struct {
	workspace ports.ProjectWorkspace
}

func NewUploadUseCase(workspace ports.ProjectWorkspace) *UploadUseCase {
	return &UploadUseCase{workspace: workspace}
}

// Upload stores a raw document under the project's raw_docs directory and returns its path.
func (uc *UploadUseCase) Upload(ctx context.Context, projectID, filename string, body io.Reader) (string, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("filename is required"))
	}
	if err := uc.workspace.Ensure(ctx, projectID); err != nil {
		return "", fmt.Errorf("prepare project workspace: %w", err)
	}

	path, err := uc.workspace.SaveRaw(ctx, projectID, sanitizeFilename(filename), body)
	if err != nil {
		return "", fmt.Errorf("save raw document: %w", err)
	}
	return path, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || strings.Trim(base, ".") == "" {
		return "document.bin"
	}
	return base
}
