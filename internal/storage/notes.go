package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
)

// SaveNote persists a voice note, assigning an id and creation time when the
// record carries none, and returns the stored record.
func (s *SQLiteStorage) SaveNote(ctx context.Context, record *model.VoiceNoteRecord) (*model.VoiceNoteRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNote(record); err != nil {
		return nil, err
	}

	stored := *record
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	var aiPayload []byte
	if stored.AI != nil {
		encoded, err := json.Marshal(stored.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to encode AI payload: %w", err)
		}
		aiPayload = encoded
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voice_notes (
			id, user_id, title, transcript_text, duration_seconds, ai_payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			transcript_text = excluded.transcript_text,
			duration_seconds = excluded.duration_seconds,
			ai_payload = excluded.ai_payload
	`,
		stored.ID,
		stored.UserID,
		stored.Title,
		stored.TranscriptText,
		stored.DurationSeconds,
		aiPayload,
		stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save voice note: %w", err)
	}

	return &stored, nil
}

// ListNotes returns a user's voice notes, newest first.
func (s *SQLiteStorage) ListNotes(ctx context.Context, userID string) ([]model.VoiceNoteRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, transcript_text, duration_seconds, ai_payload, created_at
		FROM voice_notes
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []model.VoiceNoteRecord
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate voice notes: %w", err)
	}

	return notes, nil
}

// GetNote fetches a single voice note by id.
func (s *SQLiteStorage) GetNote(ctx context.Context, id string) (*model.VoiceNoteRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, transcript_text, duration_seconds, ai_payload, created_at
		FROM voice_notes
		WHERE id = ?
	`, id)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("voice note %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}

	return note, nil
}

// DeleteNote removes a voice note by id.
func (s *SQLiteStorage) DeleteNote(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM voice_notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("voice note %s: %w", id, common.ErrNotFound)
	}

	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanNote(row scannable) (*model.VoiceNoteRecord, error) {
	var note model.VoiceNoteRecord
	var aiPayload sql.NullString

	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.TranscriptText,
		&note.DurationSeconds,
		&aiPayload,
		&note.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan voice note: %w", err)
	}

	if aiPayload.Valid && aiPayload.String != "" {
		var result model.TranscriptionResult
		if err := json.Unmarshal([]byte(aiPayload.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode AI payload: %w", err)
		}
		note.AI = &result
	}

	return &note, nil
}
