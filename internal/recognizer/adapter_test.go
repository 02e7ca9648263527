package recognizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
)

// resultRecorder captures adapter callbacks for assertions.
type resultRecorder struct {
	mu      sync.Mutex
	results []model.RecognitionResult
	errs    []error
	ends    int
}

func (r *resultRecorder) onResult(res model.RecognitionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *resultRecorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *resultRecorder) onEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
}

func (r *resultRecorder) snapshot() ([]model.RecognitionResult, []error, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := append([]model.RecognitionResult{}, r.results...)
	errs := append([]error{}, r.errs...)
	return results, errs, r.ends
}

func newTestAdapter(t *testing.T) (*Adapter, *ScriptedFactory, *resultRecorder) {
	t.Helper()
	factory := &ScriptedFactory{}
	adapter := NewAdapter(factory, Config{Language: "en-US", Continuous: true, Interim: true})
	rec := &resultRecorder{}
	adapter.OnResult(rec.onResult)
	adapter.OnError(rec.onError)
	adapter.OnEnd(rec.onEnd)
	return adapter, factory, rec
}

func TestAdapter_SplitsFinalAndInterim(t *testing.T) {
	adapter, factory, rec := newTestAdapter(t)
	require.NoError(t, adapter.Start(context.Background()))

	engine := factory.Last()
	engine.EmitInterim("hello wor")
	engine.EmitInterim("hello world")
	engine.EmitFinal("hello world")
	adapter.Stop()

	results, _, _ := rec.snapshot()
	require.Len(t, results, 3)
	assert.Equal(t, model.RecognitionResult{Interim: "hello wor", Combined: "hello wor"}, results[0])
	assert.Equal(t, model.RecognitionResult{Interim: "hello world", Combined: "hello world"}, results[1])
	assert.Equal(t, model.RecognitionResult{Final: "hello world", Combined: "hello world"}, results[2])
}

func TestAdapter_AccumulatesAcrossSegments(t *testing.T) {
	adapter, factory, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Start(ctx))
	factory.Last().EmitFinal("first segment")
	adapter.Stop()

	require.NoError(t, adapter.Start(ctx))
	factory.Last().EmitFinal("second segment")
	adapter.Stop()

	assert.Equal(t, "first segment second segment", adapter.FinalTranscript())
	assert.Equal(t, 2, factory.Count())

	adapter.Reset()
	assert.Equal(t, "", adapter.FinalTranscript())
}

func TestAdapter_StopWaitsForPendingFinals(t *testing.T) {
	adapter, factory, _ := newTestAdapter(t)
	require.NoError(t, adapter.Start(context.Background()))

	factory.Last().EmitFinal("flushed before end")
	adapter.Stop()

	// No Eventually needed: Stop drains the segment before returning.
	assert.Equal(t, "flushed before end", adapter.FinalTranscript())
}

func TestAdapter_NoCallbacksAfterAbort(t *testing.T) {
	adapter, factory, rec := newTestAdapter(t)
	require.NoError(t, adapter.Start(context.Background()))

	engine := factory.Last()
	adapter.Abort()
	engine.EmitFinal("too late")

	time.Sleep(50 * time.Millisecond)
	results, _, ends := rec.snapshot()
	assert.Empty(t, results)
	assert.Zero(t, ends, "aborted segments must not report end")
	assert.Equal(t, "", adapter.FinalTranscript())
}

func TestAdapter_SurfacesEngineErrors(t *testing.T) {
	adapter, factory, rec := newTestAdapter(t)
	require.NoError(t, adapter.Start(context.Background()))

	engineErr := errors.New("audio-capture")
	factory.Last().EmitError(engineErr)
	adapter.Stop()

	_, errs, _ := rec.snapshot()
	require.Len(t, errs, 1)
	assert.Equal(t, engineErr, errs[0])
}

func TestAdapter_EndCallbackOnGracefulStop(t *testing.T) {
	adapter, factory, rec := newTestAdapter(t)
	require.NoError(t, adapter.Start(context.Background()))

	factory.Last().Stop()

	require.Eventually(t, func() bool {
		_, _, ends := rec.snapshot()
		return ends == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAdapter_UnsupportedFactory(t *testing.T) {
	factory := &ScriptedFactory{NotSupported: true}
	adapter := NewAdapter(factory, Config{})

	assert.False(t, adapter.Supported())
	assert.ErrorIs(t, adapter.Start(context.Background()), common.ErrNotSupported)
}
