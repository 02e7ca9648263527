package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/notestream/notestream/internal/config"
	"github.com/notestream/notestream/internal/recognizer"
	"github.com/notestream/notestream/internal/session"
	"github.com/notestream/notestream/internal/storage"
	"github.com/notestream/notestream/internal/tui"
)

// noEngineFactory reports no platform speech capability. Hosts embedding
// this module supply a real engine factory; the CLI only bundles the demo
// engine.
type noEngineFactory struct{}

func (noEngineFactory) Supported() bool { return false }
func (noEngineFactory) New(recognizer.Config) (recognizer.Engine, error) {
	return nil, recognizer.ErrNoEngine
}

func recordCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a voice note",
		Long: `Start an interactive recording session: live transcript, pause/resume,
and AI-assisted cleanup on stop. Use --demo to drive the session from the
built-in scripted speech engine.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var factory recognizer.Factory = noEngineFactory{}
			if demo {
				factory = &recognizer.ScriptedFactory{
					Script: []recognizer.Utterance{
						{Text: "This is a demo voice note", Delay: 150 * time.Millisecond},
						{Text: "Remember to review the quarterly numbers", Delay: 150 * time.Millisecond},
						{Text: "We should follow up with the design team", Delay: 150 * time.Millisecond},
					},
				}
			}

			adapter := recognizer.NewAdapter(factory, recognizer.Config{
				Language:   cfg.Recognition.Language,
				Continuous: true,
				Interim:    cfg.Recognition.Interim,
			})

			controller := session.NewController(
				adapter,
				newProcessor(ctx, cfg),
				store,
				storage.NewMemoryStore(),
				nil,
				slog.Default(),
				session.Config{
					UserID:           cfg.UserID,
					WaveformBars:     cfg.Recording.WaveformBars,
					TickInterval:     cfg.Recording.TickInterval,
					WaveformInterval: cfg.Recording.WaveformInterval,
				},
			)

			return tui.Run(ctx, controller)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "use the built-in scripted speech engine")
	return cmd
}
