package model

import "time"

// FallbackModel identifies results produced by the local heuristic
// post-processor rather than the remote AI service.
const FallbackModel = "local-fallback"

// Default field values applied by Normalize.
const (
	DefaultTitle     = "Voice Note"
	DefaultCategory  = "general"
	DefaultSentiment = "neutral"
)

// TranscriptionResult is the uniform output of transcript post-processing.
// It is fully populated regardless of whether the remote service or the
// local fallback produced it; callers must never branch on which path ran.
type TranscriptionResult struct {
	ProcessedAt time.Time `json:"processedAt"`
	Title       string    `json:"title"`
	CleanedText string    `json:"cleanedText"`
	Category    string    `json:"category"`
	Summary     string    `json:"summary"`
	Sentiment   string    `json:"sentiment"`
	Model       string    `json:"model"`
	ActionItems []string  `json:"actionItems"`
}

// Normalize fills any missing field with its default so the always-populated
// invariant holds at one choke point. rawText backfills CleanedText when the
// producer left it empty.
func (r *TranscriptionResult) Normalize(rawText string, now time.Time) {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.CleanedText == "" {
		r.CleanedText = rawText
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Sentiment == "" {
		r.Sentiment = DefaultSentiment
	}
	if r.Model == "" {
		r.Model = FallbackModel
	}
	if r.ActionItems == nil {
		r.ActionItems = []string{}
	}
	if r.ProcessedAt.IsZero() {
		r.ProcessedAt = now
	}
}

// HasCustomTitle reports whether the result carries a title worth pre-filling
// in the review form.
func (r *TranscriptionResult) HasCustomTitle() bool {
	return r.Title != "" && r.Title != DefaultTitle
}
