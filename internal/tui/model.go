// Package tui renders the recording session: waveform, timer, live
// transcript, and the review/save dialog. It holds no session logic of its
// own; everything flows through the controller's operations and snapshots.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/notestream/notestream/internal/model"
	"github.com/notestream/notestream/internal/session"
)

const snapshotInterval = 80 * time.Millisecond

// tickMsg drives snapshot polling.
type tickMsg time.Time

// saveDoneMsg reports the outcome of an async save.
type saveDoneMsg struct {
	record *model.VoiceNoteRecord
	err    error
}

// Model is the root bubbletea model.
type Model struct {
	ctx        context.Context
	controller *session.Controller
	keys       KeyMap
	titleInput textinput.Model
	spin       spinner.Model
	snap       session.Snapshot
	statusMsg  string
	errMsg     string
	prevState  model.RecordingState
	quitting   bool
}

// New creates the TUI model over a session controller.
func New(ctx context.Context, controller *session.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Note title"
	ti.CharLimit = 120
	ti.Width = 48

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		controller: controller,
		keys:       DefaultKeyMap(),
		titleInput: ti,
		spin:       sp,
		snap:       controller.Snapshot(),
		prevState:  model.StateIdle,
	}
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, controller *session.Controller) error {
	program := tea.NewProgram(New(ctx, controller), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// Init schedules the first snapshot tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spin.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.controller.Snapshot()
		if m.snap.State == model.StateReviewing && m.prevState != model.StateReviewing {
			m.titleInput.SetValue(m.snap.TitleDraft)
			m.titleInput.Focus()
		}
		m.prevState = m.snap.State
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case saveDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		if msg.record != nil {
			m.statusMsg = fmt.Sprintf("Saved %q", msg.record.Title)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.snap.State != model.StateReviewing {
		m.controller.Cancel()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.snap.State {
	case model.StateIdle:
		if key.Matches(msg, m.keys.Record) {
			m.errMsg = ""
			m.statusMsg = ""
			if err := m.controller.Start(m.ctx); err != nil {
				m.errMsg = err.Error()
			}
		}

	case model.StateRecording:
		switch {
		case key.Matches(msg, m.keys.Pause):
			if err := m.controller.Pause(); err != nil {
				m.errMsg = err.Error()
			}
		case key.Matches(msg, m.keys.Stop):
			m.stop()
		case key.Matches(msg, m.keys.Cancel):
			m.controller.Cancel()
			m.statusMsg = "Recording discarded"
		}

	case model.StatePaused:
		switch {
		case key.Matches(msg, m.keys.Pause):
			if err := m.controller.Resume(m.ctx); err != nil {
				m.errMsg = err.Error()
			}
		case key.Matches(msg, m.keys.Stop):
			m.stop()
		case key.Matches(msg, m.keys.Cancel):
			m.controller.Cancel()
			m.statusMsg = "Recording discarded"
		}

	case model.StateReviewing:
		switch {
		case key.Matches(msg, m.keys.Save):
			title := strings.TrimSpace(m.titleInput.Value())
			return m, m.saveCmd(title)
		case key.Matches(msg, m.keys.Discard):
			if err := m.controller.Discard(); err == nil {
				m.statusMsg = "Transcript discarded"
			}
		default:
			var cmd tea.Cmd
			m.titleInput, cmd = m.titleInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) stop() {
	if err := m.controller.Stop(m.ctx); err != nil {
		m.errMsg = err.Error()
	}
}

func (m Model) saveCmd(title string) tea.Cmd {
	ctx := m.ctx
	controller := m.controller
	return func() tea.Msg {
		record, err := controller.Save(ctx, title)
		return saveDoneMsg{record: record, err: err}
	}
}
