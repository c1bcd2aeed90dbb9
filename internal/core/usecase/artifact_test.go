package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

func TestArtifactRetrievePrefersPresentation(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.ErrorReportFile(), "report")
	ws.put(layout.OutputsDir()+"/p1-investors.txt", "summary")
	ws.put(layout.OutputsDir()+"/p1-investors.pptx", "pptx")

	uc := NewArtifactUseCase(ws, NewPurgeScheduler(ws, time.Hour, nil, nil))
	path, handle, err := uc.Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer handle.Cancel()
	if path != layout.OutputsDir()+"/p1-investors.pptx" {
		t.Fatalf("unexpected artifact: %s", path)
	}
}

func TestArtifactRetrievePrefersLatestRunArtifact(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	stale := layout.OutputsDir() + "/p1-investors.pptx"
	latest := layout.OutputsDir() + "/p1-lenders.txt"
	ws.put(stale, "pptx from an earlier run")
	ws.put(latest, "summary")
	ws.put(layout.CompletionMarkerFile(), "Pipeline completed at 2026-03-04 10:00:00\nStatus: succeeded\n"+markerArtifactPrefix+latest+"\n")
	uc := NewArtifactUseCase(ws, NewPurgeScheduler(ws, time.Hour, nil, nil))

	path, handle, err := uc.Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handle.Cancel()
	if path != latest {
		t.Fatalf("expected the latest run's artifact %s, got %s", latest, path)
	}

	ws.put(layout.CompletionMarkerFile(), markerArtifactPrefix+"/etc/passwd\n")
	path, handle, err = uc.Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handle.Cancel()
	if path != stale {
		t.Fatalf("a marker outside outputs must be ignored, got %s", path)
	}
}

func TestArtifactRetrieveFallsBackToTextThenReport(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.ErrorReportFile(), "report")
	ws.put(layout.OutputsDir()+"/p1-lenders.txt", "summary")
	uc := NewArtifactUseCase(ws, NewPurgeScheduler(ws, time.Hour, nil, nil))

	path, handle, err := uc.Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handle.Cancel()
	if path != layout.OutputsDir()+"/p1-lenders.txt" {
		t.Fatalf("expected the text summary, got %s", path)
	}

	ws2 := newMemWorkspace()
	ws2.put(ws2.Layout("p1").ErrorReportFile(), "report")
	path, handle, err = NewArtifactUseCase(ws2, NewPurgeScheduler(ws2, time.Hour, nil, nil)).Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handle.Cancel()
	if path != ws2.Layout("p1").ErrorReportFile() {
		t.Fatalf("expected the error report, got %s", path)
	}
}

func TestArtifactRetrieveSchedulesPurge(t *testing.T) {
	ws := newMemWorkspace()
	ws.put(ws.Layout("p1").OutputsDir()+"/p1-investors.pptx", "pptx")
	uc := NewArtifactUseCase(ws, NewPurgeScheduler(ws, 0, nil, nil))

	_, handle, err := uc.Retrieve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("purge did not run")
	}
	if handle.Err() != nil || len(ws.purged) != 1 {
		t.Fatalf("unexpected purge result: %v %v", handle.Err(), ws.purged)
	}
}

func TestArtifactRetrieveErrors(t *testing.T) {
	ws := newMemWorkspace()
	uc := NewArtifactUseCase(ws, NewPurgeScheduler(ws, time.Hour, nil, nil))

	if _, _, err := uc.Retrieve(context.Background(), "missing"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := ws.Ensure(context.Background(), "empty"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := uc.Retrieve(context.Background(), "empty"); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if _, _, err := uc.Retrieve(context.Background(), "../x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(ws.purged) != 0 {
		t.Fatalf("no purge may be scheduled without an artifact")
	}
}
