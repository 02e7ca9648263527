// Package recognizer wraps a continuous speech-recognition engine behind a
// small event-driven adapter.
package recognizer

import (
	"context"
	"errors"
)

// ErrNoEngine is returned by factories with no platform engine available.
var ErrNoEngine = errors.New("no speech recognition engine available")

// EventKind tags a recognition engine event.
type EventKind string

// Engine event kinds.
const (
	EventFinal   EventKind = "final"
	EventInterim EventKind = "interim"
	EventError   EventKind = "error"
	EventEnd     EventKind = "end"
)

// Event is a single engine emission. Final events carry only the text
// finalized by that event, not the engine's cumulative transcript.
type Event struct {
	Err  error
	Kind EventKind
	Text string
}

// Config describes a recognition segment.
type Config struct {
	Language   string
	Continuous bool
	Interim    bool
}

// Engine is one continuous listening segment of a platform speech engine.
// Engines are single-use: each pause/resume cycle gets a fresh instance
// because stopping an engine discards its internal accumulation.
type Engine interface {
	// Start begins capture. The events channel is closed once the engine
	// has fully ended and no further events will be delivered.
	Start(ctx context.Context) error
	// Stop requests a graceful end, flushing any pending final result.
	Stop()
	// Abort terminates immediately, discarding in-flight results.
	Abort()
	// Events returns the engine's event stream.
	Events() <-chan Event
}

// Factory creates engines and reports platform capability. Supported must be
// consulted before a session starts; attempting capture on an unsupported
// platform is a caller error, not a runtime discovery.
type Factory interface {
	Supported() bool
	New(cfg Config) (Engine, error)
}
