package transcribe

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/notestream/notestream/internal/model"
)

// actionKeywords mark sentences with action intent. Matching is a
// case-insensitive substring test.
var actionKeywords = []string{
	"need to",
	"should",
	"todo",
	"follow up",
	"schedule",
	"remember",
	"review",
	"submit",
}

const maxActionItems = 5

// Fallback computes the deterministic local result used whenever the remote
// service is unavailable or degraded. Identical input always yields an
// identical summary, action items, and category.
func Fallback(rawText string, now time.Time) model.TranscriptionResult {
	trimmed := strings.TrimSpace(rawText)
	sentences := splitSentences(trimmed)

	var actionItems []string
	for _, sentence := range sentences {
		if len(actionItems) >= maxActionItems {
			break
		}
		lower := strings.ToLower(sentence)
		for _, keyword := range actionKeywords {
			if strings.Contains(lower, keyword) {
				actionItems = append(actionItems, sentence)
				break
			}
		}
	}

	summary := ""
	if len(sentences) > 0 {
		n := len(sentences)
		if n > 2 {
			n = 2
		}
		summary = strings.Join(sentences[:n], ". ") + "."
	}

	result := model.TranscriptionResult{
		Title:       model.DefaultTitle,
		CleanedText: trimmed,
		ActionItems: actionItems,
		Category:    model.DefaultCategory,
		Summary:     summary,
		Sentiment:   model.DefaultSentiment,
		Model:       model.FallbackModel,
		ProcessedAt: now,
	}
	result.Normalize(trimmed, now)
	return result
}

// splitSentences breaks text on sentence-ending punctuation, trims the
// pieces, and drops fragments of three characters or fewer.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > 3 {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
