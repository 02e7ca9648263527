// Package session coordinates one voice-recording interaction: the state
// machine, the elapsed-time and waveform tickers, the recognizer lifecycle
// across pause/resume, and the stop-transcribe-review-save flow.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
	"github.com/notestream/notestream/internal/recognizer"
	"github.com/notestream/notestream/internal/service"
)

// Config controls session behavior.
type Config struct {
	UserID           string
	WaveformBars     int
	TickInterval     time.Duration
	WaveformInterval time.Duration
	RestingAmplitude float64
}

func (c *Config) applyDefaults() {
	if c.WaveformBars <= 0 {
		c.WaveformBars = 32
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.WaveformInterval <= 0 {
		c.WaveformInterval = 120 * time.Millisecond
	}
	if c.RestingAmplitude <= 0 {
		c.RestingAmplitude = 0.08
	}
}

// Controller owns exactly one recording session at a time. The microphone
// tap and the recognizer belong to the active session; starting a new
// session while one is active is a caller error.
//
// Every state transition bumps a generation counter under the mutex. Ticker
// ticks and recognizer callbacks re-check generation and state before
// mutating, so once a transition returns, no stale timer or trailing engine
// event can touch session state.
type Controller struct {
	adapter   *recognizer.Adapter
	processor service.Processor
	store     service.Storage
	fallback  service.Storage
	device    CaptureDevice
	logger    *slog.Logger
	rng       *rand.Rand
	cfg       Config

	mu          sync.Mutex
	gen         int
	state       model.RecordingState
	elapsed     int
	accumulated []string
	interim     string
	waveform    []float64
	finalRaw    string
	result      *model.TranscriptionResult
	titleDraft  string
	tap         AudioTap
	runCtx      context.Context
}

// NewController wires a controller. device and fallback may be nil; a nil
// fallback disables the local-save safety net.
func NewController(
	adapter *recognizer.Adapter,
	processor service.Processor,
	store service.Storage,
	fallback service.Storage,
	device CaptureDevice,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		adapter:   adapter,
		processor: processor,
		store:     store,
		fallback:  fallback,
		device:    device,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:       cfg,
		state:     model.StateIdle,
		waveform:  make([]float64, cfg.WaveformBars),
	}
	c.settleWaveformLocked()

	adapter.OnResult(c.handleResult)
	adapter.OnError(c.handleError)
	adapter.OnEnd(c.handleEnd)
	return c
}

// Start begins a new recording session. Capability is checked before any
// resource is acquired; permission denial from the capture device keeps the
// session in Idle.
func (c *Controller) Start(ctx context.Context) error {
	if !c.adapter.Supported() {
		return common.ErrNotSupported
	}

	c.mu.Lock()
	if c.state.Active() || c.state == model.StateTranscribing || c.state == model.StateReviewing {
		c.mu.Unlock()
		return common.ErrSessionActive
	}
	c.resetLocked()
	c.runCtx = ctx
	c.mu.Unlock()

	var tap AudioTap
	if c.device != nil {
		opened, err := c.device.Open(ctx)
		if err != nil {
			return common.NewUserError("microphone unavailable",
				fmt.Errorf("%w: %v", common.ErrPermissionDenied, err))
		}
		tap = opened
	}

	c.adapter.Reset()

	c.mu.Lock()
	c.tap = tap
	c.state = model.StateRecording
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if err := c.adapter.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = model.StateIdle
		c.gen++
		c.closeTapLocked()
		c.mu.Unlock()
		return err
	}

	c.startTickers(gen)
	return nil
}

// Pause freezes the session: both tickers halt, the recognizer segment is
// stopped gracefully, and the last interim hypothesis is promoted into the
// accumulated text so pausing never drops words in flight. The engine's own
// final for that utterance is superseded by the promotion and ignored.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.state != model.StateRecording {
		c.mu.Unlock()
		return common.ErrInvalidState
	}
	c.gen++
	c.promoteInterimLocked()
	c.state = model.StatePaused
	c.settleWaveformLocked()
	c.mu.Unlock()

	c.adapter.Stop()
	return nil
}

// Resume restarts the tickers and opens a fresh recognizer segment. New
// recognition results append to the preserved text rather than replacing it.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.state != model.StatePaused {
		c.mu.Unlock()
		return common.ErrInvalidState
	}
	c.state = model.StateRecording
	c.gen++
	gen := c.gen
	c.runCtx = ctx
	c.mu.Unlock()

	if err := c.adapter.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = model.StatePaused
		c.gen++
		c.mu.Unlock()
		return err
	}

	c.startTickers(gen)
	return nil
}

// Stop ends capture and hands the transcript to the post-processor. The
// final raw text is the adapter's authoritative cumulative transcript when
// it is longer than the controller's own accumulation. An empty transcript
// returns the session straight to Idle without processing.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != model.StateRecording && c.state != model.StatePaused {
		c.mu.Unlock()
		return common.ErrInvalidState
	}
	c.gen++
	c.promoteInterimLocked()
	c.state = model.StateTranscribing
	c.settleWaveformLocked()
	c.mu.Unlock()

	// Graceful stop: waits for the engine to flush pending finals into the
	// adapter's cumulative transcript.
	c.adapter.Stop()

	c.mu.Lock()
	accumulated := strings.Join(c.accumulated, " ")
	authoritative := c.adapter.FinalTranscript()
	finalRaw := accumulated
	if len(authoritative) > len(accumulated) {
		finalRaw = authoritative
	}
	c.finalRaw = finalRaw
	c.closeTapLocked()

	if strings.TrimSpace(finalRaw) == "" {
		c.resetLocked()
		c.mu.Unlock()
		return common.ErrEmptyTranscript
	}

	gen := c.gen
	c.mu.Unlock()

	go c.transcribe(ctx, gen, finalRaw)
	return nil
}

// Cancel discards the session from any state. It is idempotent, and once it
// returns no timer tick or recognizer callback will mutate session state.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.gen++
	c.resetLocked()
	c.mu.Unlock()

	c.adapter.Abort()
	c.adapter.Reset()
}

// Discard throws away a reviewed transcription without saving.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.StateReviewing {
		return common.ErrInvalidState
	}
	c.gen++
	c.resetLocked()
	return nil
}

// Save persists the reviewed note. title overrides the pre-filled draft
// when non-empty. On storage failure the note is kept in the in-memory
// fallback store under a local id and the error is returned alongside the
// record so the caller can surface the unsynced state.
func (c *Controller) Save(ctx context.Context, title string) (*model.VoiceNoteRecord, error) {
	c.mu.Lock()
	if c.state != model.StateReviewing || c.result == nil {
		c.mu.Unlock()
		return nil, common.ErrInvalidState
	}

	result := c.result
	record := &model.VoiceNoteRecord{
		UserID:          c.cfg.UserID,
		Title:           strings.TrimSpace(title),
		TranscriptText:  result.CleanedText,
		DurationSeconds: c.elapsed,
		AI:              result,
	}
	if record.Title == "" {
		record.Title = c.titleDraft
	}
	if record.Title == "" {
		record.Title = result.Title
	}

	c.gen++
	c.state = model.StateCompleted
	c.mu.Unlock()

	saved, err := c.persist(ctx, record)

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	return saved, err
}

func (c *Controller) persist(ctx context.Context, record *model.VoiceNoteRecord) (*model.VoiceNoteRecord, error) {
	var saved *model.VoiceNoteRecord
	err := common.WithRetry(ctx, func() error {
		var saveErr error
		saved, saveErr = c.store.SaveNote(ctx, record)
		return saveErr
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: 200 * time.Millisecond})
	if err == nil {
		return saved, nil
	}

	common.LogError(err, "failed to persist voice note", common.Fields{"title": record.Title})

	if c.fallback == nil {
		return nil, err
	}

	record.Unsynced = true
	local, fallbackErr := c.fallback.SaveNote(ctx, record)
	if fallbackErr != nil {
		return nil, fmt.Errorf("save failed and local fallback failed: %w", fallbackErr)
	}

	return local, common.NewUserError("note saved locally only, sync failed", err)
}

// Snapshot returns a copy of the display state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	waveform := make([]float64, len(c.waveform))
	copy(waveform, c.waveform)

	var result *model.TranscriptionResult
	if c.result != nil {
		copied := *c.result
		result = &copied
	}

	return Snapshot{
		State:          c.state,
		ElapsedSeconds: c.elapsed,
		LiveText:       c.liveTextLocked(),
		Waveform:       waveform,
		FinalRawText:   c.finalRaw,
		Result:         result,
		TitleDraft:     c.titleDraft,
	}
}

// Snapshot is a point-in-time copy of the session's visible state.
type Snapshot struct {
	Result         *model.TranscriptionResult
	State          model.RecordingState
	LiveText       string
	FinalRawText   string
	TitleDraft     string
	Waveform       []float64
	ElapsedSeconds int
}

func (c *Controller) transcribe(ctx context.Context, gen int, rawText string) {
	result := c.processor.Process(ctx, rawText, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != model.StateTranscribing {
		// Session was cancelled while processing.
		return
	}

	c.result = &result
	if result.HasCustomTitle() {
		c.titleDraft = result.Title
	}
	c.state = model.StateReviewing
}

// handleResult consumes adapter results while recording. Final text extends
// the accumulated transcript; interim text replaces the previous hypothesis.
func (c *Controller) handleResult(res model.RecognitionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.StateRecording {
		return
	}

	if res.Final != "" {
		c.accumulated = append(c.accumulated, res.Final)
		c.interim = ""
		return
	}
	c.interim = res.Interim
}

// handleError logs recognition runtime errors; the session continues.
func (c *Controller) handleError(err error) {
	c.logger.Warn("speech recognition error", "error", err)
}

// handleEnd restarts a fresh engine segment when the platform stops the
// engine on its own mid-recording. Ends caused by Pause, Stop, or Cancel
// find the state already changed and do nothing.
func (c *Controller) handleEnd() {
	c.mu.Lock()
	if c.state != model.StateRecording {
		c.mu.Unlock()
		return
	}
	ctx := c.runCtx
	c.mu.Unlock()

	c.logger.Debug("recognition engine ended unexpectedly, restarting")
	if err := c.adapter.Start(ctx); err != nil {
		c.logger.Warn("failed to restart recognition engine", "error", err)
	}
}

func (c *Controller) startTickers(gen int) {
	go c.runTicker(gen, c.cfg.TickInterval, c.tickElapsedLocked)
	go c.runTicker(gen, c.cfg.WaveformInterval, c.tickWaveformLocked)
}

// runTicker drives fn until the generation moves on. fn runs with the mutex
// held, so a tick can never interleave with a transition.
func (c *Controller) runTicker(gen int, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.gen != gen || c.state != model.StateRecording {
			c.mu.Unlock()
			return
		}
		fn()
		c.mu.Unlock()
	}
}

func (c *Controller) tickElapsedLocked() {
	c.elapsed++
}

func (c *Controller) tickWaveformLocked() {
	if c.tap != nil {
		levels, err := c.tap.Levels(len(c.waveform))
		if err == nil {
			for i := range c.waveform {
				v := 0.0
				if i < len(levels) {
					v = levels[i]
				}
				c.waveform[i] = clamp01(v)
			}
			return
		}
		c.logger.Debug("audio tap read failed, using synthetic waveform", "error", err)
	}

	// Cosmetic fallback when no live audio tap is available.
	for i := range c.waveform {
		c.waveform[i] = clamp01(0.15 + c.rng.Float64()*0.75)
	}
}

func (c *Controller) promoteInterimLocked() {
	if strings.TrimSpace(c.interim) != "" {
		c.accumulated = append(c.accumulated, strings.TrimSpace(c.interim))
	}
	c.interim = ""
}

func (c *Controller) liveTextLocked() string {
	parts := c.accumulated
	if c.interim != "" {
		parts = append(append([]string{}, c.accumulated...), c.interim)
	}
	return strings.Join(parts, " ")
}

func (c *Controller) settleWaveformLocked() {
	for i := range c.waveform {
		c.waveform[i] = c.cfg.RestingAmplitude
	}
}

func (c *Controller) resetLocked() {
	c.state = model.StateIdle
	c.elapsed = 0
	c.accumulated = nil
	c.interim = ""
	c.finalRaw = ""
	c.result = nil
	c.titleDraft = ""
	c.settleWaveformLocked()
	c.closeTapLocked()
}

func (c *Controller) closeTapLocked() {
	if c.tap != nil {
		if err := c.tap.Close(); err != nil {
			c.logger.Debug("failed to close audio tap", "error", err)
		}
		c.tap = nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
