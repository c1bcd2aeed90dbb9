package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// Classify applies the rules every adapter shares. Cancellation is neither retried nor counted
// against the breaker, an open breaker is retried, and transient decides which adapter errors
// are worth another attempt. Everything else fails once and counts as a failure.
func Classify(err error, transient func(error) bool) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{}
	case IsCircuitOpen(err):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	case transient != nil && transient(err):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return ErrorClassification{RecordFailure: true}
	}
}

// Temporary tags err with domain.ErrTemporary when classify considers it retryable.
func Temporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify == nil {
		classify = defaultClassifier
	}
	if classify(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
