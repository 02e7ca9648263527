package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
	"github.com/notestream/notestream/internal/recognizer"
	"github.com/notestream/notestream/internal/storage"
	"github.com/notestream/notestream/internal/transcribe"
)

const (
	waitFor  = 2 * time.Second
	waitTick = 5 * time.Millisecond
)

// countingProcessor runs the deterministic local heuristic and counts calls.
type countingProcessor struct {
	calls atomic.Int32
	title string
}

func (p *countingProcessor) Process(_ context.Context, rawText, _ string) model.TranscriptionResult {
	p.calls.Add(1)
	result := transcribe.Fallback(rawText, time.Now())
	if p.title != "" {
		result.Title = p.title
	}
	return result
}

// failingStore rejects every save.
type failingStore struct {
	storage.MemoryStore
}

func (f *failingStore) SaveNote(_ context.Context, _ *model.VoiceNoteRecord) (*model.VoiceNoteRecord, error) {
	return nil, errors.New("remote store unavailable")
}

// deniedDevice simulates a refused microphone permission prompt.
type deniedDevice struct{}

func (deniedDevice) Open(_ context.Context) (AudioTap, error) {
	return nil, errors.New("permission dismissed")
}

// fixedTap reports constant amplitude levels.
type fixedTap struct {
	level  float64
	closed atomic.Bool
}

func (t *fixedTap) Levels(n int) ([]float64, error) {
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = t.level
	}
	return levels, nil
}

func (t *fixedTap) Close() error {
	t.closed.Store(true)
	return nil
}

type fixedTapDevice struct {
	tap *fixedTap
}

func (d *fixedTapDevice) Open(_ context.Context) (AudioTap, error) {
	return d.tap, nil
}

type testRig struct {
	controller *Controller
	factory    *recognizer.ScriptedFactory
	processor  *countingProcessor
	store      *storage.MemoryStore
	fallback   *storage.MemoryStore
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		factory:   &recognizer.ScriptedFactory{},
		processor: &countingProcessor{},
		store:     storage.NewMemoryStore(),
		fallback:  storage.NewMemoryStore(),
	}

	adapter := recognizer.NewAdapter(rig.factory, recognizer.Config{Language: "en-US", Continuous: true, Interim: true})
	rig.controller = NewController(adapter, rig.processor, rig.store, rig.fallback, nil, nil, Config{
		UserID:           "tester",
		WaveformBars:     8,
		TickInterval:     10 * time.Millisecond,
		WaveformInterval: 5 * time.Millisecond,
	})
	return rig
}

func (r *testRig) waitLiveText(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(r.controller.Snapshot().LiveText, substr)
	}, waitFor, waitTick, "live text never contained %q", substr)
}

func (r *testRig) waitState(t *testing.T, state model.RecordingState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.controller.Snapshot().State == state
	}, waitFor, waitTick, "never reached state %s", state)
}

func TestController_PauseResumePreservesText(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitFinal("this is part one")
	rig.waitLiveText(t, "this is part one")

	require.NoError(t, rig.controller.Pause())
	assert.Contains(t, rig.controller.Snapshot().LiveText, "this is part one")

	require.NoError(t, rig.controller.Resume(ctx))
	assert.Equal(t, 2, rig.factory.Count(), "resume must open a fresh engine segment")

	rig.factory.Last().EmitFinal("and part two")
	rig.waitLiveText(t, "and part two")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)

	snap := rig.controller.Snapshot()
	assert.Equal(t, "this is part one and part two", snap.FinalRawText)
}

func TestController_PausePromotesInterim(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitInterim("words in flight")
	rig.waitLiveText(t, "words in flight")

	require.NoError(t, rig.controller.Pause())
	assert.Contains(t, rig.controller.Snapshot().LiveText, "words in flight")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)
	assert.Contains(t, rig.controller.Snapshot().FinalRawText, "words in flight")
}

func TestController_InterimReplacedNotAppended(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitInterim("hel")
	rig.factory.Last().EmitInterim("hello there")
	rig.waitLiveText(t, "hello there")

	snap := rig.controller.Snapshot()
	assert.Equal(t, "hello there", snap.LiveText)
}

func TestController_CancelIdempotent(t *testing.T) {
	ctx := context.Background()

	setups := []struct {
		name    string
		prepare func(t *testing.T, rig *testRig)
	}{
		{
			name:    "from idle",
			prepare: func(_ *testing.T, _ *testRig) {},
		},
		{
			name: "from recording",
			prepare: func(t *testing.T, rig *testRig) {
				require.NoError(t, rig.controller.Start(ctx))
				rig.factory.Last().EmitFinal("some words")
				rig.waitLiveText(t, "some words")
			},
		},
		{
			name: "from paused",
			prepare: func(t *testing.T, rig *testRig) {
				require.NoError(t, rig.controller.Start(ctx))
				rig.factory.Last().EmitFinal("some words")
				rig.waitLiveText(t, "some words")
				require.NoError(t, rig.controller.Pause())
			},
		},
	}

	for _, tt := range setups {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(t)
			tt.prepare(t, rig)

			rig.controller.Cancel()
			rig.controller.Cancel()

			snap := rig.controller.Snapshot()
			assert.Equal(t, model.StateIdle, snap.State)
			assert.Empty(t, snap.LiveText)
			assert.Zero(t, snap.ElapsedSeconds)

			// No timer may fire after Cancel returns.
			before := rig.controller.Snapshot()
			time.Sleep(80 * time.Millisecond)
			after := rig.controller.Snapshot()
			assert.Equal(t, before.ElapsedSeconds, after.ElapsedSeconds)
			assert.Equal(t, before.Waveform, after.Waveform)
		})
	}
}

func TestController_NoOrphanTimersAfterPause(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))

	// Let both tickers run.
	require.Eventually(t, func() bool {
		return rig.controller.Snapshot().ElapsedSeconds >= 2
	}, waitFor, waitTick)

	require.NoError(t, rig.controller.Pause())

	before := rig.controller.Snapshot()
	time.Sleep(80 * time.Millisecond)
	after := rig.controller.Snapshot()
	assert.Equal(t, before.ElapsedSeconds, after.ElapsedSeconds, "elapsed timer kept ticking after pause")
	assert.Equal(t, before.Waveform, after.Waveform, "waveform sampler kept ticking after pause")

	require.NoError(t, rig.controller.Resume(ctx))
	require.Eventually(t, func() bool {
		return rig.controller.Snapshot().ElapsedSeconds > after.ElapsedSeconds
	}, waitFor, waitTick, "elapsed timer did not resume")
}

func TestController_StopWithEmptyTranscript(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	err := rig.controller.Stop(ctx)

	assert.ErrorIs(t, err, common.ErrEmptyTranscript)
	assert.Equal(t, model.StateIdle, rig.controller.Snapshot().State)
	assert.Zero(t, rig.processor.calls.Load(), "post-processor must not run on an empty transcript")
}

func TestController_SaveRoundTrip(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitFinal("I should submit the expense report.")
	rig.waitLiveText(t, "expense report")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)

	snap := rig.controller.Snapshot()
	require.NotNil(t, snap.Result)
	duration := snap.ElapsedSeconds

	record, err := rig.controller.Save(ctx, "Expenses")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.False(t, record.Unsynced)

	notes, err := rig.store.ListNotes(ctx, "tester")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Expenses", notes[0].Title)
	assert.Equal(t, snap.Result.CleanedText, notes[0].TranscriptText)
	assert.Equal(t, duration, notes[0].DurationSeconds)

	assert.Equal(t, model.StateIdle, rig.controller.Snapshot().State)
}

func TestController_SaveFallsBackToLocalStore(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	// Swap in a store that always fails.
	rig.controller.store = &failingStore{}

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitFinal("remember to water the plants")
	rig.waitLiveText(t, "water the plants")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)

	record, err := rig.controller.Save(ctx, "Plants")
	require.Error(t, err, "persistence failure must be surfaced")
	require.NotNil(t, record, "the note must survive locally")
	assert.True(t, record.Unsynced)
	assert.True(t, strings.HasPrefix(record.ID, "local-"))

	notes, listErr := rig.fallback.ListNotes(ctx, "tester")
	require.NoError(t, listErr)
	require.Len(t, notes, 1)
	assert.Equal(t, "Plants", notes[0].Title)
}

func TestController_TitlePreFilledFromResult(t *testing.T) {
	rig := newTestRig(t)
	rig.processor.title = "Team Standup"
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitFinal("we discussed the sprint goals today")
	rig.waitLiveText(t, "sprint goals")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)

	assert.Equal(t, "Team Standup", rig.controller.Snapshot().TitleDraft)
}

func TestController_StartUnsupported(t *testing.T) {
	factory := &recognizer.ScriptedFactory{NotSupported: true}
	adapter := recognizer.NewAdapter(factory, recognizer.Config{})
	controller := NewController(adapter, &countingProcessor{}, storage.NewMemoryStore(), nil, nil, nil, Config{})

	err := controller.Start(context.Background())
	assert.ErrorIs(t, err, common.ErrNotSupported)
	assert.Equal(t, model.StateIdle, controller.Snapshot().State)
}

func TestController_PermissionDenied(t *testing.T) {
	rig := newTestRig(t)
	rig.controller.device = deniedDevice{}

	err := rig.controller.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
	assert.Equal(t, model.StateIdle, rig.controller.Snapshot().State)
}

func TestController_StartWhileActiveFails(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	assert.ErrorIs(t, rig.controller.Start(ctx), common.ErrSessionActive)
}

func TestController_DiscardClearsState(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))
	rig.factory.Last().EmitFinal("throwaway thought")
	rig.waitLiveText(t, "throwaway thought")

	require.NoError(t, rig.controller.Stop(ctx))
	rig.waitState(t, model.StateReviewing)

	require.NoError(t, rig.controller.Discard())

	snap := rig.controller.Snapshot()
	assert.Equal(t, model.StateIdle, snap.State)
	assert.Empty(t, snap.LiveText)
	assert.Nil(t, snap.Result)

	notes, err := rig.store.ListNotes(ctx, "tester")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestController_WaveformUsesAudioTap(t *testing.T) {
	rig := newTestRig(t)
	tap := &fixedTap{level: 0.5}
	rig.controller.device = &fixedTapDevice{tap: tap}
	ctx := context.Background()

	require.NoError(t, rig.controller.Start(ctx))

	require.Eventually(t, func() bool {
		snap := rig.controller.Snapshot()
		return len(snap.Waveform) > 0 && snap.Waveform[0] == 0.5
	}, waitFor, waitTick)

	rig.controller.Cancel()
	assert.True(t, tap.closed.Load(), "cancel must release the audio tap")
}

func TestController_InvalidTransitions(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	assert.ErrorIs(t, rig.controller.Pause(), common.ErrInvalidState)
	assert.ErrorIs(t, rig.controller.Resume(ctx), common.ErrInvalidState)
	assert.ErrorIs(t, rig.controller.Stop(ctx), common.ErrInvalidState)
	assert.ErrorIs(t, rig.controller.Discard(), common.ErrInvalidState)

	_, err := rig.controller.Save(ctx, "x")
	assert.ErrorIs(t, err, common.ErrInvalidState)
}
