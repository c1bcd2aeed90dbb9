package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInputTooShort     = errors.New("input too short")
	ErrNoRelevantContent = errors.New("no relevant content")
	ErrNoDocuments       = errors.New("no documents found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrRunNotFound       = errors.New("run not found")
	ErrRenderFailed      = errors.New("render failed")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
