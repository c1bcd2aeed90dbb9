package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// RunRepository is the Postgres-backed run ledger.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '',
	territory TEXT NOT NULL DEFAULT '',
	audience TEXT NOT NULL,
	status TEXT NOT NULL,
	stage_status JSONB NOT NULL DEFAULT '{}'::jsonb,
	stages JSONB NOT NULL DEFAULT '[]'::jsonb,
	artifact_path TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_project_started ON pipeline_runs(project_id, started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Record upserts a run by id.
func (r *RunRepository) Record(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil {
		return domain.WrapError(domain.ErrInvalidInput, "record run", errors.New("run is nil"))
	}
	statusJSON, err := json.Marshal(run.PerStageStatus)
	if err != nil {
		return fmt.Errorf("marshal stage status: %w", err)
	}
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO pipeline_runs (
	id, project_id, sector, territory, audience, status, stage_status, stages, artifact_path, started_at, finished_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	stage_status = EXCLUDED.stage_status,
	stages = EXCLUDED.stages,
	artifact_path = EXCLUDED.artifact_path,
	finished_at = EXCLUDED.finished_at
`,
		run.ID, run.ProjectID, run.Sector, run.Territory, run.Audience, string(run.Status),
		statusJSON, stagesJSON, run.FinalArtifactPath, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

func (r *RunRepository) Latest(ctx context.Context, projectID string) (*domain.PipelineRun, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, project_id, sector, territory, audience, status, stage_status, stages, artifact_path, started_at, finished_at
FROM pipeline_runs
WHERE project_id = $1
ORDER BY started_at DESC
LIMIT 1
`, projectID)

	var run domain.PipelineRun
	var status string
	var statusRaw, stagesRaw []byte
	err := row.Scan(
		&run.ID, &run.ProjectID, &run.Sector, &run.Territory, &run.Audience, &status,
		&statusRaw, &stagesRaw, &run.FinalArtifactPath, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "latest run", fmt.Errorf("project %s", projectID))
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if len(statusRaw) > 0 {
		if err := json.Unmarshal(statusRaw, &run.PerStageStatus); err != nil {
			return nil, fmt.Errorf("unmarshal stage status: %w", err)
		}
	}
	if len(stagesRaw) > 0 {
		if err := json.Unmarshal(stagesRaw, &run.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
	}
	return &run, nil
}
