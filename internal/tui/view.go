package tui

import (
	"fmt"
	"strings"

	"github.com/notestream/notestream/internal/model"
)

var waveformRunes = []rune("▁▂▃▄▅▆▇█")

// View renders the current session state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("NoteStream"))
	b.WriteString("\n\n")

	switch m.snap.State {
	case model.StateIdle:
		b.WriteString(statusStyle.Render("Ready."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r record · q quit"))

	case model.StateRecording, model.StatePaused:
		if m.snap.State == model.StateRecording {
			b.WriteString(recordingStyle.Render("● REC "))
		} else {
			b.WriteString(pausedStyle.Render("‖ PAUSED "))
		}
		b.WriteString(statusStyle.Render(formatElapsed(m.snap.ElapsedSeconds)))
		b.WriteString("\n")
		b.WriteString(waveformStyle.Render(renderWaveform(m.snap.Waveform)))
		b.WriteString("\n\n")
		b.WriteString(transcriptStyle.Render(liveTextOrHint(m.snap.LiveText)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("space pause/resume · s stop · c cancel · q quit"))

	case model.StateTranscribing:
		b.WriteString(m.spin.View())
		b.WriteString(statusStyle.Render(" Transcribing..."))

	case model.StateReviewing:
		b.WriteString(m.renderReview())

	default:
		b.WriteString(statusStyle.Render(string(m.snap.State)))
	}

	if m.statusMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(successStyle.Render(m.statusMsg))
	}
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) renderReview() string {
	result := m.snap.Result
	if result == nil {
		return statusStyle.Render("Preparing review...")
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render("Review your note"))
	b.WriteString("\n\n")
	b.WriteString(m.titleInput.View())
	b.WriteString("\n\n")

	var body strings.Builder
	body.WriteString(result.CleanedText)
	if result.Summary != "" {
		body.WriteString("\n\n")
		body.WriteString(statusStyle.Render("Summary: " + result.Summary))
	}
	if len(result.ActionItems) > 0 {
		body.WriteString("\n")
		body.WriteString(statusStyle.Render("Action items:"))
		for _, item := range result.ActionItems {
			body.WriteString("\n")
			body.WriteString(statusStyle.Render("  • " + item))
		}
	}
	body.WriteString("\n")
	body.WriteString(statusStyle.Render(fmt.Sprintf("%s · %s · %s",
		result.Category, result.Sentiment, result.Model)))

	b.WriteString(boxStyle.Render(body.String()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter save · esc discard"))
	return b.String()
}

func renderWaveform(amplitudes []float64) string {
	var b strings.Builder
	for _, a := range amplitudes {
		idx := int(a * float64(len(waveformRunes)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(waveformRunes) {
			idx = len(waveformRunes) - 1
		}
		b.WriteRune(waveformRunes[idx])
	}
	return b.String()
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func liveTextOrHint(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Listening..."
	}
	return text
}
