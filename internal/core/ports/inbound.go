package ports

import (
	"context"
	"io"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// PipelineRunner is the inbound contract for running the document-to-deck pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, req domain.RunRequest) (*domain.PipelineRun, error)
	RunStage(ctx context.Context, stage domain.StageName, req domain.RunRequest) (domain.StageResult, error)
}

// DocumentUploader stores raw project documents.
type DocumentUploader interface {
	Upload(ctx context.Context, projectID, filename string, body io.Reader) (string, error)
}

// ArtifactRetriever hands out the rendered artifact and schedules the project purge.
type ArtifactRetriever interface {
	Retrieve(ctx context.Context, projectID string) (string, PurgeHandle, error)
}

// RunReader is the read model for recorded pipeline runs.
type RunReader interface {
	Latest(ctx context.Context, projectID string) (*domain.PipelineRun, error)
}

// PurgeHandle tracks a scheduled, irreversible project purge.
type PurgeHandle interface {
	Done() <-chan struct{}
	Err() error
	Cancel() bool
}
