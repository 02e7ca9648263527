package model

import "time"

// VoiceNoteRecord is a persisted voice note. Records are created on explicit
// save and never mutated afterward except by explicit re-save or deletion.
type VoiceNoteRecord struct {
	CreatedAt       time.Time            `json:"createdAt"`
	AI              *TranscriptionResult `json:"aiPayload,omitempty"`
	ID              string               `json:"id"`
	UserID          string               `json:"userId"`
	Title           string               `json:"title"`
	TranscriptText  string               `json:"transcriptText"`
	DurationSeconds int                  `json:"durationSeconds"`
	Unsynced        bool                 `json:"-"`
}
