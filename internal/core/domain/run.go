package domain

import "time"

type StageName string

const (
	StageStandardize       StageName = "standardize"
	StageExtractInsights   StageName = "extract_insights"
	StageReason            StageName = "reason"
	StageBuildStructure    StageName = "build_structure"
	StageExtractFinancials StageName = "extract_financials"
	StageRenderCharts      StageName = "render_charts"
	StageAssembleDeck      StageName = "assemble_deck"
	StageRenderSlides      StageName = "render_slides"
)

// PipelineStages is the fixed, total stage order.
var PipelineStages = []StageName{
	StageStandardize,
	StageExtractInsights,
	StageReason,
	StageBuildStructure,
	StageExtractFinancials,
	StageRenderCharts,
	StageAssembleDeck,
	StageRenderSlides,
}

func ParseStageName(raw string) (StageName, bool) {
	for _, stage := range PipelineStages {
		if string(stage) == raw {
			return stage, true
		}
	}
	return "", false
}

type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFallback  StageStatus = "fallback"
	StageFatal     StageStatus = "fatal"
)

// StageResult is the explicit outcome of one stage. Err carries the cause of a fallback or fatal.
type StageResult struct {
	Stage    StageName     `json:"stage"`
	Status   StageStatus   `json:"status"`
	Artifact string        `json:"artifact,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFatal     RunStatus = "fatal"
)

type RunRequest struct {
	ProjectID string `json:"project_id"`
	Sector    string `json:"sector"`
	Territory string `json:"territory"`
	Audience  string `json:"audience,omitempty"`
	Question  string `json:"question,omitempty"`
}

const DefaultAudience = "investors"

// PipelineRun is the audit record of one pipeline execution.
type PipelineRun struct {
	ID                string                    `json:"id"`
	ProjectID         string                    `json:"project_id"`
	Sector            string                    `json:"sector"`
	Territory         string                    `json:"territory"`
	Audience          string                    `json:"audience"`
	Status            RunStatus                 `json:"status"`
	PerStageStatus    map[StageName]StageStatus `json:"per_stage_status"`
	Stages            []StageResult             `json:"stages"`
	FinalArtifactPath string                    `json:"final_artifact_path"`
	CompletionMarker  string                    `json:"completion_marker,omitempty"`
	StartedAt         time.Time                 `json:"started_at"`
	FinishedAt        time.Time                 `json:"finished_at"`
}

func (r *PipelineRun) Record(result StageResult) {
	if r.PerStageStatus == nil {
		r.PerStageStatus = make(map[StageName]StageStatus, len(PipelineStages))
	}
	r.PerStageStatus[result.Stage] = result.Status
	r.Stages = append(r.Stages, result)
}

func (r *PipelineRun) Fatal() bool {
	return r.Status == RunFatal
}
