package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notestream/notestream/internal/config"
)

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage saved voice notes",
	}

	cmd.AddCommand(notesListCmd())
	cmd.AddCommand(notesDeleteCmd())
	return cmd
}

func notesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved voice notes, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			notes, err := store.ListNotes(ctx, cfg.UserID)
			if err != nil {
				return err
			}

			if len(notes) == 0 {
				fmt.Println("No voice notes yet.")
				return nil
			}

			for _, note := range notes {
				duration := fmt.Sprintf("%02d:%02d", note.DurationSeconds/60, note.DurationSeconds%60)
				fmt.Printf("%s  %s  %s  %s\n",
					note.ID, note.CreatedAt.Local().Format("2006-01-02 15:04"), duration, note.Title)

				preview := note.TranscriptText
				if len(preview) > 100 {
					preview = preview[:100] + "…"
				}
				if preview != "" {
					fmt.Printf("    %s\n", strings.ReplaceAll(preview, "\n", " "))
				}
			}

			return nil
		},
	}
}

func notesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a voice note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteNote(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
