// Package provider abstracts the external text-generation backends that turn
// extracted document text into summaries and flashcards.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// Flashcard generation bounds. Counts are clamped to the window before any
// backend call; the initial pipeline run uses DefaultFlashcards.
const (
	MinFlashcards     = 10
	MaxFlashcards     = 40
	DefaultFlashcards = 20
)

// Summary is the structured summary a backend produces for a document.
type Summary struct {
	Body      string
	KeyPoints []string
	Insights  []string
	Examples  []Example
}

// Example is one worked example inside a summary.
type Example struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// Flashcard is one generated question/answer pair.
type Flashcard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// Provider is a text-generation backend. Implementations never return an
// error for a payload they received but could not parse; they degrade to a
// fallback result instead. An error always means the call itself failed
// (transport, auth, rate limit) and is of type *Error.
type Provider interface {
	// Name identifies the backend in logs and failure reasons.
	Name() string
	// Summarize produces a structured summary of the text.
	Summarize(ctx context.Context, text string) (*Summary, error)
	// GenerateFlashcards produces exactly count flashcards from the text,
	// with count clamped to [MinFlashcards, MaxFlashcards].
	GenerateFlashcards(ctx context.Context, text string, count int) ([]Flashcard, error)
}

// Error is a failed backend call.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClampCount clamps a requested flashcard count to the supported window.
func ClampCount(count int) int {
	if count < MinFlashcards {
		return MinFlashcards
	}
	if count > MaxFlashcards {
		return MaxFlashcards
	}
	return count
}

// Truncate returns a deterministic bounded prefix of the input text.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

// stripCodeFence removes a surrounding markdown code fence from a model
// response. Backends are asked for bare JSON but some wrap it anyway.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallbackSummary is the degraded result used when a backend response cannot
// be parsed: the raw response becomes the body, the lists stay empty.
func fallbackSummary(raw string) *Summary {
	body := strings.TrimSpace(raw)
	if len(body) > 1000 {
		body = body[:1000]
	}
	if body == "" {
		body = "Summary generation failed - could not parse response"
	}
	return &Summary{
		Body:      body,
		KeyPoints: []string{},
		Insights:  []string{},
		Examples:  []Example{},
	}
}

// placeholderCard is the synthetic card used to pad short responses.
func placeholderCard(position int) Flashcard {
	return Flashcard{
		Question:   fmt.Sprintf("Review question %d", position+1),
		Answer:     "Please review the document for more details",
		Difficulty: "medium",
	}
}

// fallbackFlashcards is the degraded result used when a backend response
// cannot be parsed at all: count placeholder cards.
func fallbackFlashcards(count int) []Flashcard {
	cards := make([]Flashcard, count)
	for i := range cards {
		cards[i] = placeholderCard(i)
	}
	return cards
}

// reconcileFlashcards drops structurally invalid cards, normalizes the
// difficulty, then pads with placeholders or truncates so the result holds
// exactly count cards.
func reconcileFlashcards(cards []Flashcard, count int) []Flashcard {
	out := make([]Flashcard, 0, count)
	for _, card := range cards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			continue
		}
		switch card.Difficulty {
		case "easy", "medium", "hard":
		default:
			card.Difficulty = "medium"
		}
		out = append(out, card)
	}

	for len(out) < count {
		out = append(out, placeholderCard(len(out)))
	}
	if len(out) > count {
		out = out[:count]
	}

	return out
}
