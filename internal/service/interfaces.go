// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/notestream/notestream/internal/model"
)

// Storage defines the contract for the voice-note persistence layer.
type Storage interface {
	// SaveNote persists a record, assigning ID and CreatedAt when unset,
	// and returns the stored record.
	SaveNote(ctx context.Context, record *model.VoiceNoteRecord) (*model.VoiceNoteRecord, error)
	// ListNotes returns the user's notes ordered newest first.
	ListNotes(ctx context.Context, userID string) ([]model.VoiceNoteRecord, error)
	GetNote(ctx context.Context, id string) (*model.VoiceNoteRecord, error)
	DeleteNote(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Processor turns raw transcript text into a fully populated
// TranscriptionResult. Implementations never fail: remote errors degrade to
// a deterministic local fallback.
type Processor interface {
	Process(ctx context.Context, rawText, titleHint string) model.TranscriptionResult
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
