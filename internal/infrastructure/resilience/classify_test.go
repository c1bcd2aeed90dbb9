package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

var errFlaky = errors.New("flaky")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "nil", err: nil, want: ErrorClassification{}},
		{name: "canceled", err: fmt.Errorf("ask: %w", context.Canceled), want: ErrorClassification{}},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorClassification{}},
		{name: "breaker open", err: gobreaker.ErrOpenState, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "transient", err: fmt.Errorf("call: %w", errFlaky), want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "permanent", err: errors.New("bad request"), want: ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err, isFlaky); got != tc.want {
				t.Fatalf("Classify(%v) = %+v, want %+v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTemporary(t *testing.T) {
	classify := func(err error) ErrorClassification { return Classify(err, isFlaky) }

	err := Temporary("generate", errFlaky, classify)
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, errFlaky) {
		t.Fatalf("expected temporary wrapping the cause, got %v", err)
	}
	if again := Temporary("generate", err, classify); again != err {
		t.Fatalf("already temporary errors must pass through, got %v", again)
	}

	plain := errors.New("bad payload")
	if got := Temporary("generate", plain, classify); got != plain {
		t.Fatalf("expected error unchanged, got %v", got)
	}
	if got := Temporary("generate", gobreaker.ErrOpenState, nil); !domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("open breaker must be temporary, got %v", got)
	}
	if Temporary("generate", nil, classify) != nil {
		t.Fatal("nil must stay nil")
	}
}
