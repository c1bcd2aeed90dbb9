package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func waitDone(t *testing.T, task *PurgeTask) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("purge did not finish")
	}
}

func TestPurgeSchedulerPurgesAfterDelay(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := newMemWorkspace()
	observer := &observerFake{}
	task := NewPurgeScheduler(ws, 10*time.Millisecond, observer, nil).Schedule("p1")

	waitDone(t, task)
	if task.Err() != nil {
		t.Fatalf("unexpected error: %v", task.Err())
	}
	if len(ws.purged) != 1 || ws.purged[0] != "p1" {
		t.Fatalf("unexpected purges: %v", ws.purged)
	}
	if len(observer.purges) != 1 {
		t.Fatalf("purge was not observed")
	}
	if task.Cancel() {
		t.Fatalf("a finished purge cannot be cancelled")
	}
}

func TestPurgeSchedulerCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := newMemWorkspace()
	task := NewPurgeScheduler(ws, time.Hour, nil, nil).Schedule("p1")

	if !task.Cancel() {
		t.Fatalf("expected a pending purge to be cancelled")
	}
	waitDone(t, task)
	if !errors.Is(task.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", task.Err())
	}
	if len(ws.purged) != 0 {
		t.Fatalf("cancelled purge must not run")
	}
	if task.Cancel() {
		t.Fatalf("second cancel must report false")
	}
}

func TestPurgeSchedulerReportsPurgeError(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := newMemWorkspace()
	ws.purgeErr = errors.New("permission denied")
	task := NewPurgeScheduler(ws, 0, nil, nil).Schedule("p1")

	waitDone(t, task)
	if task.Err() == nil {
		t.Fatalf("expected the purge error")
	}
}
