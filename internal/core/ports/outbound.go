package ports

import (
	"context"
	"io"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// ProjectWorkspace owns the on-disk artifact tree of every project.
type ProjectWorkspace interface {
	Layout(projectID string) domain.ProjectLayout
	Ensure(ctx context.Context, projectID string) error
	ReadText(ctx context.Context, path string) (string, error)
	WriteText(ctx context.Context, path, content string) error
	List(ctx context.Context, dir string, exts ...string) ([]string, error)
	Exists(path string) bool
	Remove(ctx context.Context, path string) error
	SaveRaw(ctx context.Context, projectID, filename string, body io.Reader) (string, error)
	Purge(ctx context.Context, projectID string) error
}

// TextExtractor turns one stored document into plain text or markdown.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// DocumentStandardizer converts raw project documents into standardized markdown.
type DocumentStandardizer interface {
	Standardize(ctx context.Context, projectID string) (int, error)
}

// TextGenerator is the text-generation collaborator: a prompt in, text back.
type TextGenerator interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// SpreadsheetReader reads one sheet as rows of raw cell strings.
type SpreadsheetReader interface {
	ReadSheet(ctx context.Context, path, sheet string) ([][]string, error)
}

// ChartRenderer draws the financial chart image.
type ChartRenderer interface {
	RenderFinancialChart(ctx context.Context, summary domain.FinancialSummary, outPath string) error
}

// PresentationWriter serializes a rendered presentation to a binary artifact.
type PresentationWriter interface {
	Write(ctx context.Context, pres *domain.Presentation, outPath string) error
}

// TemplateLoader resolves the brand template; a missing template yields the built-in default.
type TemplateLoader interface {
	Load(ctx context.Context) (*domain.BrandTemplate, error)
}

// RunLedger persists pipeline run records.
type RunLedger interface {
	Record(ctx context.Context, run *domain.PipelineRun) error
	Latest(ctx context.Context, projectID string) (*domain.PipelineRun, error)
}

// RunNotifier publishes run lifecycle events.
type RunNotifier interface {
	PublishRunCompleted(ctx context.Context, run *domain.PipelineRun) error
}

// PipelineObserver receives per-stage and per-run measurements.
type PipelineObserver interface {
	ObserveStage(result domain.StageResult)
	ObserveRun(run *domain.PipelineRun)
	ObservePurge(projectID string, err error)
}
