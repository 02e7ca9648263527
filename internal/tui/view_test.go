package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{59, "00:59"},
		{60, "01:00"},
		{61, "01:01"},
		{600, "10:00"},
		{3599, "59:59"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.seconds), "%d seconds", tt.seconds)
	}
}

func TestRenderWaveform(t *testing.T) {
	tests := []struct {
		name       string
		amplitudes []float64
		want       string
	}{
		{
			name:       "empty",
			amplitudes: nil,
			want:       "",
		},
		{
			name:       "silence",
			amplitudes: []float64{0, 0, 0},
			want:       "▁▁▁",
		},
		{
			name:       "full scale",
			amplitudes: []float64{1, 1},
			want:       "██",
		},
		{
			name:       "out of range clamps",
			amplitudes: []float64{-0.5, 1.5},
			want:       "▁█",
		},
		{
			name:       "rising ramp",
			amplitudes: []float64{0, 0.5, 1},
			want:       "▁▄█",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderWaveform(tt.amplitudes))
		})
	}
}

func TestLiveTextOrHint(t *testing.T) {
	assert.Equal(t, "Listening...", liveTextOrHint(""))
	assert.Equal(t, "Listening...", liveTextOrHint("   "))
	assert.Equal(t, "hello world", liveTextOrHint("hello world"))
}
