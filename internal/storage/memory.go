package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
)

// MemoryStore is an in-memory service.Storage. It backs the optimistic-save
// fallback (notes stay visible in the current session when the real store
// fails) and doubles as a test double.
type MemoryStore struct {
	mu    sync.Mutex
	notes map[string]model.VoiceNoteRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]model.VoiceNoteRecord)}
}

// SaveNote stores a record, assigning a local id and creation time when
// unset.
func (m *MemoryStore) SaveNote(_ context.Context, record *model.VoiceNoteRecord) (*model.VoiceNoteRecord, error) {
	if err := validateNote(record); err != nil {
		return nil, err
	}

	stored := *record
	if stored.ID == "" {
		stored.ID = "local-" + uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.notes[stored.ID] = stored
	m.mu.Unlock()

	return &stored, nil
}

// ListNotes returns a user's notes, newest first.
func (m *MemoryStore) ListNotes(_ context.Context, userID string) ([]model.VoiceNoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var notes []model.VoiceNoteRecord
	for _, note := range m.notes {
		if note.UserID == userID {
			notes = append(notes, note)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID > notes[j].ID
	})

	return notes, nil
}

// GetNote fetches a note by id.
func (m *MemoryStore) GetNote(_ context.Context, id string) (*model.VoiceNoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("voice note %s: %w", id, common.ErrNotFound)
	}
	return &note, nil
}

// DeleteNote removes a note by id.
func (m *MemoryStore) DeleteNote(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("voice note %s: %w", id, common.ErrNotFound)
	}
	delete(m.notes, id)
	return nil
}

// Migrate is a no-op for the in-memory store.
func (m *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
