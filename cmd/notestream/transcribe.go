package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/notestream/notestream/internal/config"
	"github.com/notestream/notestream/internal/model"
)

func transcribeCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "transcribe <file>...",
		Short: "Process raw transcript files into voice notes",
		Long: `Run one or more raw transcript text files through the AI post-processor
and save the results as voice notes. Remote failures degrade to the local
heuristic cleanup, so every file produces a note.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			processor := newProcessor(ctx, cfg)

			bar := progressbar.NewOptions(len(args),
				progressbar.OptionSetDescription("Transcribing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				hint := title
				if hint == "" {
					hint = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}

				result := processor.Process(ctx, string(raw), hint)

				record := &model.VoiceNoteRecord{
					UserID:         cfg.UserID,
					Title:          result.Title,
					TranscriptText: result.CleanedText,
					AI:             &result,
				}
				if !result.HasCustomTitle() && hint != "" {
					record.Title = hint
				}

				saved, err := store.SaveNote(ctx, record)
				if err != nil {
					return fmt.Errorf("failed to save note for %s: %w", path, err)
				}

				_ = bar.Add(1)
				fmt.Printf("%s → %s (%s)\n", path, saved.ID, result.Model)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title hint for all processed files")
	return cmd
}
