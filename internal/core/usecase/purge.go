package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

// PurgeScheduler deletes a project's working artifacts a fixed delay after its deck was handed
// out. The purge is detached from the caller's context and is irreversible once it starts.
type PurgeScheduler struct {
	workspace ports.ProjectWorkspace
	delay     time.Duration
	observer  ports.PipelineObserver
	logger    *slog.Logger
}

func NewPurgeScheduler(workspace ports.ProjectWorkspace, delay time.Duration, observer ports.PipelineObserver, logger *slog.Logger) *PurgeScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if delay < 0 {
		delay = 0
	}
	return &PurgeScheduler{workspace: workspace, delay: delay, observer: observer, logger: logger}
}

func (s *PurgeScheduler) Schedule(projectID string) *PurgeTask {
	task := &PurgeTask{
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
	go s.run(projectID, task)
	return task
}

func (s *PurgeScheduler) run(projectID string, task *PurgeTask) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-task.cancel:
		task.finish(context.Canceled)
		return
	case <-timer.C:
	}
	if !task.start() {
		task.finish(context.Canceled)
		return
	}

	err := s.workspace.Purge(context.Background(), projectID)
	if err != nil {
		s.logger.Error("project_purge_failed", "project", projectID, "error", err)
	} else {
		s.logger.Info("project_purged", "project", projectID)
	}
	if s.observer != nil {
		s.observer.ObservePurge(projectID, err)
	}
	task.finish(err)
}

// PurgeTask is the handle of one scheduled purge.
type PurgeTask struct {
	done   chan struct{}
	cancel chan struct{}

	mu       sync.Mutex
	started  bool
	canceled bool
	err      error
}

func (t *PurgeTask) Done() <-chan struct{} { return t.done }

// Err is context.Canceled for a cancelled purge and the purge error otherwise. It is only
// meaningful once Done is closed.
func (t *PurgeTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel stops a purge that has not started yet and reports whether it did.
func (t *PurgeTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.canceled {
		return false
	}
	t.canceled = true
	close(t.cancel)
	return true
}

func (t *PurgeTask) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		return false
	}
	t.started = true
	return true
}

func (t *PurgeTask) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

var _ ports.PurgeHandle = (*PurgeTask)(nil)
