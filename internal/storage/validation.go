package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notestream/notestream/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidNote  = errors.New("invalid voice note")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateNote validates a voice note before persistence.
func validateNote(record *model.VoiceNoteRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	if record.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidNote)
	}
	return nil
}
