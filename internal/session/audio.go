package session

import "context"

// AudioTap exposes live amplitude levels from an open capture stream. It
// feeds the waveform display only; amplitude data has no persistence or
// correctness requirement.
type AudioTap interface {
	// Levels returns up to n normalized amplitudes in [0,1].
	Levels(n int) ([]float64, error)
	Close() error
}

// CaptureDevice acquires the microphone. Open must surface permission
// denial as an error rather than failing later mid-session.
type CaptureDevice interface {
	Open(ctx context.Context) (AudioTap, error)
}
