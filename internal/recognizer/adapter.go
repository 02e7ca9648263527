package recognizer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
)

// Adapter owns callback wiring over a Factory's engines. One adapter spans a
// whole recording session: every Start creates a fresh engine segment, while
// the adapter's cumulative final transcript survives across segments until
// Reset. The cumulative transcript is the authoritative fallback source when
// the caller's own bookkeeping might have raced.
type Adapter struct {
	factory Factory
	cfg     Config

	mu       sync.Mutex
	engine   Engine
	drained  chan struct{}
	onResult func(model.RecognitionResult)
	onError  func(error)
	onEnd    func()
	finals   []string
	detached bool
}

// How long a graceful Stop waits for the engine to flush and end.
const stopDrainTimeout = 4 * time.Second

// NewAdapter creates an adapter over the given engine factory.
func NewAdapter(factory Factory, cfg Config) *Adapter {
	return &Adapter{factory: factory, cfg: cfg}
}

// Supported reports whether the platform can recognize speech at all.
func (a *Adapter) Supported() bool {
	return a.factory.Supported()
}

// OnResult registers the recognition-result callback.
func (a *Adapter) OnResult(fn func(model.RecognitionResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

// OnError registers the engine-error callback. Errors are surfaced verbatim.
func (a *Adapter) OnError(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = fn
}

// OnEnd registers the end-of-segment callback, invoked whenever the
// underlying engine stops, including platform-initiated stops. The caller
// decides whether that means done or needs restart.
func (a *Adapter) OnEnd(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEnd = fn
}

// Start begins a new engine segment. The previous segment, if any, must have
// been stopped or aborted first.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.factory.Supported() {
		return common.ErrNotSupported
	}

	engine, err := a.factory.New(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to create recognition engine: %w", err)
	}

	drained := make(chan struct{})

	a.mu.Lock()
	a.engine = engine
	a.drained = drained
	a.detached = false
	a.mu.Unlock()

	if err := engine.Start(ctx); err != nil {
		a.mu.Lock()
		a.engine = nil
		a.drained = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to start recognition engine: %w", err)
	}

	go a.consume(engine, drained)
	return nil
}

// Stop requests a graceful end of the current segment and waits, bounded,
// until pending final results have been flushed and delivered. After Stop
// returns the cumulative transcript is settled.
func (a *Adapter) Stop() {
	a.mu.Lock()
	engine := a.engine
	drained := a.drained
	a.mu.Unlock()
	if engine == nil {
		return
	}

	engine.Stop()
	if drained != nil {
		select {
		case <-drained:
		case <-time.After(stopDrainTimeout):
		}
	}
}

// Abort terminates the current segment immediately and guarantees no
// further callback fires, even if the engine delivers a trailing event.
func (a *Adapter) Abort() {
	a.mu.Lock()
	a.detached = true
	engine := a.engine
	a.engine = nil
	a.mu.Unlock()
	if engine != nil {
		engine.Abort()
	}
}

// FinalTranscript returns the finalized text accumulated across all segments
// since the last Reset, space-joined in arrival order.
func (a *Adapter) FinalTranscript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.finals, " ")
}

// Reset clears the cumulative transcript for a new session.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finals = nil
}

func (a *Adapter) consume(engine Engine, drained chan struct{}) {
	defer close(drained)

	for ev := range engine.Events() {
		a.mu.Lock()
		if a.detached || a.engine != engine {
			a.mu.Unlock()
			continue
		}

		switch ev.Kind {
		case EventFinal:
			text := strings.TrimSpace(ev.Text)
			if text != "" {
				a.finals = append(a.finals, text)
			}
			fn := a.onResult
			a.mu.Unlock()
			if fn != nil && text != "" {
				fn(model.RecognitionResult{Final: text, Combined: text})
			}
		case EventInterim:
			fn := a.onResult
			a.mu.Unlock()
			if fn != nil {
				fn(model.RecognitionResult{Interim: ev.Text, Combined: ev.Text})
			}
		case EventError:
			fn := a.onError
			a.mu.Unlock()
			if fn != nil && ev.Err != nil {
				fn(ev.Err)
			}
		case EventEnd:
			a.mu.Unlock()
		default:
			a.mu.Unlock()
		}
	}

	a.mu.Lock()
	if a.engine == engine {
		a.engine = nil
		a.drained = nil
	}
	ended := !a.detached
	fn := a.onEnd
	a.mu.Unlock()

	if ended && fn != nil {
		fn()
	}
}
