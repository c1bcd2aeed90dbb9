package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

type ArtifactUseCase struct {
	workspace ports.ProjectWorkspace
	purges    *PurgeScheduler
}

func NewArtifactUseCase(workspace ports.ProjectWorkspace, purges *PurgeScheduler) *ArtifactUseCase {
	return &ArtifactUseCase{workspace: workspace, purges: purges}
}

// Retrieve returns the project's rendered artifact and schedules the purge of its working
// files. A rendered presentation wins over a text summary, which wins over an error report.
func (uc *ArtifactUseCase) Retrieve(ctx context.Context, projectID string) (string, ports.PurgeHandle, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return "", nil, err
	}
	layout := uc.workspace.Layout(projectID)
	if !uc.workspace.Exists(layout.Root) {
		return "", nil, domain.WrapError(domain.ErrProjectNotFound, "retrieve artifact", fmt.Errorf("project %q", projectID))
	}

	path, err := uc.findArtifact(ctx, layout)
	if err != nil {
		return "", nil, err
	}
	return path, uc.purges.Schedule(projectID), nil
}

// markerArtifactPrefix starts the completion marker line naming the latest run's artifact.
const markerArtifactPrefix = "Artifact: "

// findArtifact serves what the latest run produced when its completion marker names an output
// that still exists. Otherwise outputs are scanned by kind.
func (uc *ArtifactUseCase) findArtifact(ctx context.Context, layout domain.ProjectLayout) (string, error) {
	if path, ok := uc.markedArtifact(ctx, layout); ok {
		return path, nil
	}

	decks, err := uc.workspace.List(ctx, layout.OutputsDir(), ".pptx")
	if err != nil {
		return "", fmt.Errorf("list outputs: %w", err)
	}
	if len(decks) > 0 {
		return decks[0], nil
	}

	texts, err := uc.workspace.List(ctx, layout.OutputsDir(), ".txt")
	if err != nil {
		return "", fmt.Errorf("list outputs: %w", err)
	}
	report := ""
	for _, path := range texts {
		if path == layout.ErrorReportFile() {
			report = path
			continue
		}
		return path, nil
	}
	if report != "" {
		return report, nil
	}
	return "", domain.WrapError(domain.ErrArtifactNotFound, "retrieve artifact",
		fmt.Errorf("no artifact in %s", filepath.Base(layout.OutputsDir())))
}

func (uc *ArtifactUseCase) markedArtifact(ctx context.Context, layout domain.ProjectLayout) (string, bool) {
	if !uc.workspace.Exists(layout.CompletionMarkerFile()) {
		return "", false
	}
	marker, err := uc.workspace.ReadText(ctx, layout.CompletionMarkerFile())
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(marker, "\n") {
		path, ok := strings.CutPrefix(line, markerArtifactPrefix)
		if !ok {
			continue
		}
		path = strings.TrimSpace(path)
		if path == "" || filepath.Dir(path) != layout.OutputsDir() || !uc.workspace.Exists(path) {
			return "", false
		}
		return path, true
	}
	return "", false
}
