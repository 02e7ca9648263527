package recognizer

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Utterance is one spoken phrase in a scripted engine's playback: interim
// hypotheses build up word by word, then the phrase finalizes.
type Utterance struct {
	Text  string
	Delay time.Duration
}

// ScriptedEngine is a deterministic in-process engine used by tests and the
// demo front end. Events are either emitted manually (Emit* methods) or
// played from a script after Start.
type ScriptedEngine struct {
	events chan Event
	script []Utterance

	mu     sync.Mutex
	closed bool
}

// NewScriptedEngine creates an engine that plays the given script after
// Start. A nil script leaves the engine fully manual.
func NewScriptedEngine(script []Utterance) *ScriptedEngine {
	return &ScriptedEngine{
		events: make(chan Event, 64),
		script: script,
	}
}

// Start begins script playback, if a script was provided.
func (e *ScriptedEngine) Start(ctx context.Context) error {
	if len(e.script) > 0 {
		go e.play(ctx)
	}
	return nil
}

// Stop ends the segment gracefully, delivering the end event.
func (e *ScriptedEngine) Stop() {
	e.close(false)
}

// Abort ends the segment immediately.
func (e *ScriptedEngine) Abort() {
	e.close(true)
}

// Events returns the engine's event stream.
func (e *ScriptedEngine) Events() <-chan Event {
	return e.events
}

// EmitInterim delivers an interim hypothesis.
func (e *ScriptedEngine) EmitInterim(text string) {
	e.emit(Event{Kind: EventInterim, Text: text})
}

// EmitFinal delivers newly finalized text.
func (e *ScriptedEngine) EmitFinal(text string) {
	e.emit(Event{Kind: EventFinal, Text: text})
}

// EmitError delivers an engine error.
func (e *ScriptedEngine) EmitError(err error) {
	e.emit(Event{Kind: EventError, Err: err})
}

func (e *ScriptedEngine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *ScriptedEngine) close(aborted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if !aborted {
		select {
		case e.events <- Event{Kind: EventEnd}:
		default:
		}
	}
	close(e.events)
}

func (e *ScriptedEngine) play(ctx context.Context) {
	for _, u := range e.script {
		delay := u.Delay
		if delay <= 0 {
			delay = 20 * time.Millisecond
		}

		words := strings.Fields(u.Text)
		for i := range words {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			e.EmitInterim(strings.Join(words[:i+1], " "))
		}
		e.EmitFinal(u.Text)
	}
	e.Stop()
}

// ScriptedFactory hands out scripted engines and records them so tests can
// drive the most recent segment directly.
type ScriptedFactory struct {
	// NotSupported makes the factory report no platform capability.
	NotSupported bool
	// Script is played by every engine the factory creates.
	Script []Utterance

	mu      sync.Mutex
	engines []*ScriptedEngine
}

// Supported reports platform capability.
func (f *ScriptedFactory) Supported() bool {
	return !f.NotSupported
}

// New creates a fresh scripted engine segment.
func (f *ScriptedFactory) New(_ Config) (Engine, error) {
	engine := NewScriptedEngine(f.Script)
	f.mu.Lock()
	f.engines = append(f.engines, engine)
	f.mu.Unlock()
	return engine, nil
}

// Last returns the most recently created engine, or nil.
func (f *ScriptedFactory) Last() *ScriptedEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

// Count returns how many engine segments have been created.
func (f *ScriptedFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}
