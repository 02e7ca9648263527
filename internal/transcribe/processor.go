// Package transcribe post-processes raw transcript text: it asks a remote
// cleanup service for a corrected transcript and structured fields, and
// degrades to a deterministic local heuristic on any failure.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/notestream/notestream/internal/model"
)

// Raw text shorter than this (trimmed) never triggers a remote call.
const minRemoteLength = 5

// Config holds configuration for the remote AI endpoint.
type Config struct {
	Endpoint string
	AnonKey  string
	Timeout  time.Duration
}

// Processor implements service.Processor against a remote cleanup endpoint
// with the local fallback. Process never returns an error: every remote
// failure funnels into the fallback so the caller's stop-to-transcribe
// transition always completes.
type Processor struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	now        func() time.Time
	cfg        Config
}

// NewProcessor creates a transcript post-processor.
func NewProcessor(cfg Config, tokens TokenSource, logger *slog.Logger) *Processor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = StaticTokenSource("")
	}

	return &Processor{
		cfg:    cfg,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Process cleans and analyzes rawText. The returned result is always fully
// populated, whichever path produced it.
func (p *Processor) Process(ctx context.Context, rawText, titleHint string) model.TranscriptionResult {
	trimmed := strings.TrimSpace(rawText)

	if utf8.RuneCountInString(trimmed) < minRemoteLength {
		return Fallback(trimmed, p.now())
	}

	if p.cfg.Endpoint == "" {
		p.logger.Warn("AI endpoint not configured, using local fallback")
		return Fallback(trimmed, p.now())
	}

	result, err := p.callRemote(ctx, trimmed, titleHint)
	if err != nil {
		p.logger.Warn("AI processing failed, using local fallback", "error", err)
		return Fallback(trimmed, p.now())
	}

	result.Normalize(trimmed, p.now())
	return result
}

// remoteResponse is the endpoint's wire shape. The service signals its own
// degraded operation with the fallback flag, which the client treats as a
// failure rather than a first-class result.
type remoteResponse struct {
	model.TranscriptionResult
	Fallback bool   `json:"fallback"`
	Reason   string `json:"error"`
}

func (p *Processor) callRemote(ctx context.Context, rawText, titleHint string) (model.TranscriptionResult, error) {
	requestBody := map[string]any{
		"rawText": rawText,
	}
	if titleHint != "" {
		requestBody["title"] = titleHint
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.bearerToken(ctx))
	req.Header.Set("apikey", p.cfg.AnonKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return model.TranscriptionResult{}, fmt.Errorf("AI endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	var response remoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if response.Fallback {
		reason := response.Reason
		if reason == "" {
			reason = "unspecified"
		}
		return model.TranscriptionResult{}, fmt.Errorf("remote service degraded: %s", reason)
	}

	if strings.TrimSpace(response.CleanedText) == "" {
		return model.TranscriptionResult{}, fmt.Errorf("no cleaned text in response")
	}

	return response.TranscriptionResult, nil
}

// bearerToken resolves the credential chain: cached session token, then one
// refresh attempt, then the anonymous key.
func (p *Processor) bearerToken(ctx context.Context) string {
	token, err := p.tokens.CurrentToken(ctx)
	if err == nil && token != "" {
		return token
	}

	token, err = p.tokens.RefreshToken(ctx)
	if err == nil && token != "" {
		return token
	}
	if err != nil {
		p.logger.Debug("session token unavailable, using anonymous key", "error", err)
	}

	return p.cfg.AnonKey
}
