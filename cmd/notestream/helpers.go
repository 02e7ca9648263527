package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/notestream/notestream/internal/config"
	"github.com/notestream/notestream/internal/storage"
	"github.com/notestream/notestream/internal/transcribe"
)

// openStorage opens the SQLite store and applies migrations.
func openStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open note storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate note storage: %w", err)
	}

	return store, nil
}

// tokenSource builds the session-token chain from configuration: an OAuth
// client-credentials source when a token endpoint is configured, a static
// session token otherwise. The processor adds the anonymous-key fallback.
func tokenSource(ctx context.Context, cfg config.Config) transcribe.TokenSource {
	if cfg.AI.TokenURL != "" && cfg.AI.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.AI.ClientID,
			ClientSecret: cfg.AI.ClientSecret,
			TokenURL:     cfg.AI.TokenURL,
		}
		return transcribe.NewOAuthTokenSource(cc.TokenSource(ctx))
	}

	return transcribe.StaticTokenSource(cfg.AI.SessionToken)
}

// newProcessor wires the transcript post-processor from configuration.
func newProcessor(ctx context.Context, cfg config.Config) *transcribe.Processor {
	return transcribe.NewProcessor(transcribe.Config{
		Endpoint: cfg.AI.Endpoint,
		AnonKey:  cfg.AI.AnonKey,
		Timeout:  cfg.AI.Timeout,
	}, tokenSource(ctx, cfg), slog.Default())
}
