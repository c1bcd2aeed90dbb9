package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

const (
	fallbackInsights = "# Key Insights\n\nDocument analysis would appear here.\n"
	summaryPreview   = 500
)

// PipelineDeps groups the collaborators of the pipeline orchestrator. Ledger, Notifier and
// Observer are optional.
type PipelineDeps struct {
	Workspace    ports.ProjectWorkspace
	Standardizer ports.DocumentStandardizer
	Insights     *InsightsUseCase
	Analysis     *AnalysisUseCase
	Financials   *FinancialsUseCase
	Charts       ports.ChartRenderer
	Deck         *DeckUseCase
	Slides       *SlidesUseCase
	Ledger       ports.RunLedger
	Notifier     ports.RunNotifier
	Observer     ports.PipelineObserver
	Logger       *slog.Logger

	// DefaultAudience applies when a request names none; empty means domain.DefaultAudience.
	DefaultAudience string
}

// PipelineUseCase runs the fixed stage sequence for a project. Every stage before rendering
// either succeeds or substitutes a fallback artifact; only a render that cannot produce any
// artifact makes the run fatal.
type PipelineUseCase struct {
	deps  PipelineDeps
	clock func() time.Time
	newID func() string
}

func NewPipelineUseCase(deps PipelineDeps) *PipelineUseCase {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if strings.TrimSpace(deps.DefaultAudience) == "" {
		deps.DefaultAudience = domain.DefaultAudience
	}
	return &PipelineUseCase{
		deps:  deps,
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// stageOutput is what a primary stage produced. degraded is set when the stage completed on
// built-in defaults rather than project data.
type stageOutput struct {
	artifact string
	degraded error
}

type stageFunc func(ctx context.Context, req domain.RunRequest) (stageOutput, error)

type fallbackFunc func(ctx context.Context, req domain.RunRequest, cause error) (string, error)

type stageDef struct {
	run      stageFunc
	fallback fallbackFunc
}

func (uc *PipelineUseCase) Run(ctx context.Context, req domain.RunRequest) (*domain.PipelineRun, error) {
	req, err := normalizeRunRequest(req, uc.deps.DefaultAudience)
	if err != nil {
		return nil, err
	}

	run := &domain.PipelineRun{
		ID:        uc.newID(),
		ProjectID: req.ProjectID,
		Sector:    req.Sector,
		Territory: req.Territory,
		Audience:  req.Audience,
		StartedAt: uc.clock().UTC(),
	}
	logger := uc.deps.Logger.With("run_id", run.ID, "project", req.ProjectID)
	logger.Info("pipeline_run_started", "sector", req.Sector, "territory", req.Territory, "audience", req.Audience)

	if err := uc.deps.Workspace.Ensure(ctx, req.ProjectID); err != nil {
		logger.Error("workspace_prepare_failed", "error", err)
	}

	var last domain.StageResult
	for _, stage := range domain.PipelineStages {
		last = uc.execute(ctx, logger, stage, req)
		run.Record(last)
		if last.Status == domain.StageFatal {
			break
		}
	}

	var runErr error
	if last.Status == domain.StageFatal {
		run.Status = domain.RunFatal
		reportPath, err := uc.writeErrorReport(ctx, req, last.Err)
		if err != nil {
			runErr = domain.WrapError(domain.ErrRenderFailed, "write error report", errors.Join(last.Err, err))
		}
		run.FinalArtifactPath = reportPath
	} else {
		run.Status = domain.RunSucceeded
		run.FinalArtifactPath = last.Artifact
	}
	run.FinishedAt = uc.clock().UTC()

	marker, err := uc.writeCompletionMarker(ctx, run)
	if err != nil {
		logger.Warn("completion_marker_failed", "error", err)
	}
	run.CompletionMarker = marker

	uc.publish(ctx, logger, run)
	logger.Info("pipeline_run_finished",
		"status", run.Status,
		"artifact", run.FinalArtifactPath,
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	)
	return run, runErr
}

// RunStage executes one stage on its own with the same fallback handling as a full run.
func (uc *PipelineUseCase) RunStage(ctx context.Context, stage domain.StageName, req domain.RunRequest) (domain.StageResult, error) {
	if _, ok := domain.ParseStageName(string(stage)); !ok {
		return domain.StageResult{}, domain.WrapError(domain.ErrInvalidInput, "run stage", fmt.Errorf("unknown stage %q", stage))
	}
	req, err := normalizeRunRequest(req, uc.deps.DefaultAudience)
	if err != nil {
		return domain.StageResult{}, err
	}
	logger := uc.deps.Logger.With("project", req.ProjectID)
	if err := uc.deps.Workspace.Ensure(ctx, req.ProjectID); err != nil {
		logger.Error("workspace_prepare_failed", "error", err)
	}

	result := uc.execute(ctx, logger, stage, req)
	if result.Status == domain.StageFatal {
		if _, err := uc.writeErrorReport(ctx, req, result.Err); err != nil {
			logger.Error("error_report_failed", "error", err)
		}
	}
	return result, nil
}

func (uc *PipelineUseCase) execute(ctx context.Context, logger *slog.Logger, name domain.StageName, req domain.RunRequest) domain.StageResult {
	def := uc.stage(name)
	started := uc.clock()
	result := domain.StageResult{Stage: name}

	out, err := def.run(ctx, req)
	switch {
	case err == nil && out.degraded == nil:
		result.Status = domain.StageSucceeded
		result.Artifact = out.artifact
	case err == nil:
		result.Status = domain.StageFallback
		result.Artifact = out.artifact
		result.Err = out.degraded
		logger.Warn("stage_degraded", "stage", name, "reason", out.degraded)
	default:
		logger.Warn("stage_failed", "stage", name, "error", err)
		artifact, fbErr := def.fallback(ctx, req, err)
		switch {
		case fbErr == nil:
			result.Status = domain.StageFallback
			result.Artifact = artifact
			result.Err = err
		case name == domain.StageRenderSlides:
			result.Status = domain.StageFatal
			result.Err = errors.Join(err, fbErr)
			logger.Error("stage_fatal", "stage", name, "error", result.Err)
		default:
			result.Status = domain.StageFallback
			result.Err = errors.Join(err, fbErr)
			logger.Error("stage_fallback_failed", "stage", name, "error", fbErr)
		}
	}

	if result.Err != nil {
		result.Error = result.Err.Error()
	}
	result.Duration = uc.clock().Sub(started)
	if uc.deps.Observer != nil {
		uc.deps.Observer.ObserveStage(result)
	}
	logger.Info("stage_finished", "stage", name, "status", result.Status, "duration_ms", result.Duration.Milliseconds())
	return result
}

func (uc *PipelineUseCase) stage(name domain.StageName) stageDef {
	switch name {
	case domain.StageStandardize:
		return stageDef{run: uc.standardize, fallback: uc.standardizeFallback}
	case domain.StageExtractInsights:
		return stageDef{run: uc.extractInsights, fallback: uc.insightsFallback}
	case domain.StageReason:
		return stageDef{run: uc.reason, fallback: uc.reasonFallback}
	case domain.StageBuildStructure:
		return stageDef{run: uc.buildStructure, fallback: uc.structureFallback}
	case domain.StageExtractFinancials:
		return stageDef{run: uc.extractFinancials, fallback: uc.financialsFallback}
	case domain.StageRenderCharts:
		return stageDef{run: uc.renderCharts, fallback: uc.noChart}
	case domain.StageAssembleDeck:
		return stageDef{run: uc.assembleDeck, fallback: uc.deckFallback}
	default:
		return stageDef{run: uc.renderSlides, fallback: uc.textSummaryFallback}
	}
}

func (uc *PipelineUseCase) layout(projectID string) domain.ProjectLayout {
	return uc.deps.Workspace.Layout(projectID)
}

func (uc *PipelineUseCase) standardize(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	n, err := uc.deps.Standardizer.Standardize(ctx, req.ProjectID)
	if err != nil {
		return stageOutput{}, err
	}
	out := stageOutput{artifact: uc.layout(req.ProjectID).StandardizedDocsDir()}
	if n == 0 {
		uc.deps.Logger.Warn("no_documents_standardized", "project", req.ProjectID)
	}
	return out, nil
}

func (uc *PipelineUseCase) standardizeFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	path := filepath.Join(uc.layout(req.ProjectID).StandardizedDocsDir(), "sample_document.md")
	return path, uc.deps.Workspace.WriteText(ctx, path, SampleDocument)
}

func (uc *PipelineUseCase) extractInsights(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	if _, err := uc.deps.Insights.ExtractProject(ctx, req.ProjectID); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: uc.layout(req.ProjectID).InsightsFile()}, nil
}

func (uc *PipelineUseCase) insightsFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	path := uc.layout(req.ProjectID).InsightsFile()
	return path, uc.deps.Workspace.WriteText(ctx, path, fallbackInsights)
}

func (uc *PipelineUseCase) reason(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = DefaultReasoningQuestion(req.Sector, req.Territory)
	}
	if _, err := uc.deps.Analysis.Reason(ctx, req.ProjectID, question); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: uc.layout(req.ProjectID).ReasoningFile()}, nil
}

func (uc *PipelineUseCase) reasonFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	path := uc.layout(req.ProjectID).ReasoningFile()
	return path, uc.deps.Workspace.WriteText(ctx, path, FallbackReasoning(req.Sector, req.Territory))
}

func (uc *PipelineUseCase) buildStructure(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	if _, err := uc.deps.Analysis.BuildStructure(ctx, req.ProjectID); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: uc.layout(req.ProjectID).StructureFile()}, nil
}

func (uc *PipelineUseCase) structureFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	path := uc.layout(req.ProjectID).StructureFile()
	return path, uc.deps.Workspace.WriteText(ctx, path, FallbackStructure(req.Sector, req.Territory))
}

func (uc *PipelineUseCase) extractFinancials(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	outcome, err := uc.deps.Financials.ExtractProject(ctx, req.ProjectID, projectInfo(req))
	if err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: uc.layout(req.ProjectID).FinancialSummaryFile(), degraded: outcome.Cause}, nil
}

func (uc *PipelineUseCase) financialsFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	summary := domain.DefaultFinancialSummary()
	summary.ProjectInfo = projectInfo(req)
	return uc.layout(req.ProjectID).FinancialSummaryFile(), uc.deps.Financials.Persist(ctx, req.ProjectID, summary)
}

func (uc *PipelineUseCase) renderCharts(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	summary, err := uc.deps.Financials.Load(ctx, req.ProjectID)
	if err != nil {
		return stageOutput{}, err
	}
	path := uc.layout(req.ProjectID).RevenueChartFile()
	if err := uc.deps.Charts.RenderFinancialChart(ctx, summary, path); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: path}, nil
}

// noChart leaves the deck without a chart image, dropping any chart an earlier run left.
func (uc *PipelineUseCase) noChart(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	return "", uc.deps.Workspace.Remove(ctx, uc.layout(req.ProjectID).RevenueChartFile())
}

func (uc *PipelineUseCase) assembleDeck(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	if _, err := uc.deps.Deck.AssembleProject(ctx, req.ProjectID, req.Sector, req.Territory); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: uc.layout(req.ProjectID).DeckFile()}, nil
}

func (uc *PipelineUseCase) deckFallback(ctx context.Context, req domain.RunRequest, _ error) (string, error) {
	path := uc.layout(req.ProjectID).DeckFile()
	return path, uc.deps.Workspace.WriteText(ctx, path, BasicDeck(req.ProjectID, req.Sector, req.Territory))
}

func (uc *PipelineUseCase) renderSlides(ctx context.Context, req domain.RunRequest) (stageOutput, error) {
	path, err := uc.deps.Slides.RenderProject(ctx, req.ProjectID, req.Audience, req.Sector, req.Territory)
	if err != nil {
		return stageOutput{}, err
	}
	return stageOutput{artifact: path}, nil
}

// textSummaryFallback writes a plain-text rendition of the deck when the binary presentation
// cannot be produced.
func (uc *PipelineUseCase) textSummaryFallback(ctx context.Context, req domain.RunRequest, cause error) (string, error) {
	layout := uc.layout(req.ProjectID)
	path, err := layout.ArtifactFile(req.Audience, "txt")
	if err != nil {
		return "", err
	}
	deck, err := uc.deps.Workspace.ReadText(ctx, layout.DeckFile())
	if err != nil {
		return "", fmt.Errorf("read deck markdown: %w", err)
	}
	summary := fmt.Sprintf(`Investment Presentation - %s
Sector: %s
Territory: %s
Audience: %s

The presentation file could not be rendered: %v

Deck Preview:
%s
`, req.ProjectID, req.Sector, req.Territory, req.Audience, cause, truncateWithEllipsis(deck, summaryPreview))
	if err := uc.deps.Workspace.WriteText(ctx, path, summary); err != nil {
		return "", err
	}
	return path, nil
}

func (uc *PipelineUseCase) writeErrorReport(ctx context.Context, req domain.RunRequest, cause error) (string, error) {
	path := uc.layout(req.ProjectID).ErrorReportFile()
	report := fmt.Sprintf(`Pipeline Error Report
Project: %s
Sector: %s
Territory: %s
Error: %v
Time: %s
`, req.ProjectID, req.Sector, req.Territory, cause, uc.clock().UTC().Format(time.RFC3339))
	if err := uc.deps.Workspace.WriteText(ctx, path, report); err != nil {
		return "", err
	}
	return path, nil
}

func (uc *PipelineUseCase) writeCompletionMarker(ctx context.Context, run *domain.PipelineRun) (string, error) {
	path := uc.layout(run.ProjectID).CompletionMarkerFile()
	marker := fmt.Sprintf(`Pipeline completed at %s
Run: %s
Status: %s
Sector: %s
Territory: %s
%s%s
`, run.FinishedAt.Format("2006-01-02 15:04:05"), run.ID, run.Status, run.Sector, run.Territory, markerArtifactPrefix, run.FinalArtifactPath)
	if err := uc.deps.Workspace.WriteText(ctx, path, marker); err != nil {
		return "", err
	}
	return path, nil
}

// publish hands the finished run to the ledger, the notifier and the observer. Their failures
// never change the run outcome.
func (uc *PipelineUseCase) publish(ctx context.Context, logger *slog.Logger, run *domain.PipelineRun) {
	if uc.deps.Ledger != nil {
		if err := uc.deps.Ledger.Record(ctx, run); err != nil {
			logger.Warn("run_ledger_failed", "error", err)
		}
	}
	if uc.deps.Notifier != nil {
		if err := uc.deps.Notifier.PublishRunCompleted(ctx, run); err != nil {
			logger.Warn("run_notify_failed", "error", err)
		}
	}
	if uc.deps.Observer != nil {
		uc.deps.Observer.ObserveRun(run)
	}
}

func normalizeRunRequest(req domain.RunRequest, defaultAudience string) (domain.RunRequest, error) {
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	if err := domain.ValidateProjectID(req.ProjectID); err != nil {
		return req, err
	}
	req.Sector = strings.TrimSpace(req.Sector)
	req.Territory = strings.TrimSpace(req.Territory)
	req.Audience = strings.TrimSpace(req.Audience)
	if req.Audience == "" {
		req.Audience = strings.TrimSpace(defaultAudience)
	}
	if err := domain.ValidateAudience(req.Audience); err != nil {
		return req, err
	}
	return req, nil
}

func projectInfo(req domain.RunRequest) *domain.ProjectInfo {
	return &domain.ProjectInfo{Sector: req.Sector, Territory: req.Territory, ProjectID: req.ProjectID}
}
