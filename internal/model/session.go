// Package model defines the core domain models used throughout the application.
package model

// RecordingState identifies where a recording session is in its lifecycle.
type RecordingState string

// Recording session states.
const (
	StateIdle         RecordingState = "IDLE"
	StateRecording    RecordingState = "RECORDING"
	StatePaused       RecordingState = "PAUSED"
	StateTranscribing RecordingState = "TRANSCRIBING"
	StateReviewing    RecordingState = "REVIEWING"
	StateCompleted    RecordingState = "COMPLETED"
	StateCancelled    RecordingState = "CANCELLED"
)

// Active reports whether the state holds live capture resources
// (timers, recognizer, audio tap).
func (s RecordingState) Active() bool {
	return s == StateRecording || s == StatePaused
}

// RecognitionResult is the adapter-boundary shape for a single recognition
// event. Final carries only text newly finalized since the previous final
// event; callers accumulate it themselves. Interim is the engine's current
// unfinalized hypothesis and is replaced, never appended. Combined is
// Final+Interim, ready for display.
type RecognitionResult struct {
	Final    string
	Interim  string
	Combined string
}
