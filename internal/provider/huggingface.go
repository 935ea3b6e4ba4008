package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// huggingFaceMaxInput bounds the document text submitted to the model. The
// hosted model accepts far less context than Gemini.
const huggingFaceMaxInput = 4000

var _ Provider = (*HuggingFace)(nil)

// HuggingFace generates summaries and flashcards through a hosted Hugging
// Face space exposing /summarize and /generate-qa endpoints.
type HuggingFace struct {
	baseURL string
	client  *http.Client
}

// NewHuggingFace creates a Hugging Face backed provider. The timeout bounds
// every request; the space can be slow to wake from a cold start.
func NewHuggingFace(baseURL string, timeout time.Duration) (*HuggingFace, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("huggingface: base URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HuggingFace{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (h *HuggingFace) Name() string {
	return "huggingface"
}

func (h *HuggingFace) Summarize(ctx context.Context, text string) (*Summary, error) {
	body, err := h.post(ctx, "summarize", "/summarize", map[string]any{
		"text": Truncate(text, huggingFaceMaxInput),
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Summary   string    `json:"summary"`
		KeyPoints []string  `json:"key_points"`
		Insights  []string  `json:"insights"`
		Examples  []Example `json:"examples"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Summary == "" {
		logrus.Warnf("huggingface: unparseable summary response, falling back: %v", err)
		return fallbackSummary(string(body)), nil
	}

	return &Summary{
		Body:      payload.Summary,
		KeyPoints: payload.KeyPoints,
		Insights:  payload.Insights,
		Examples:  payload.Examples,
	}, nil
}

func (h *HuggingFace) GenerateFlashcards(ctx context.Context, text string, count int) ([]Flashcard, error) {
	count = ClampCount(count)
	body, err := h.post(ctx, "generate flashcards", "/generate-qa", map[string]any{
		"text":          Truncate(text, huggingFaceMaxInput),
		"num_questions": count,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		QAPairs []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"qa_pairs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		logrus.Warnf("huggingface: unparseable flashcard response, falling back: %v", err)
		return fallbackFlashcards(count), nil
	}

	// the qa model does not grade difficulty
	cards := make([]Flashcard, 0, len(payload.QAPairs))
	for _, pair := range payload.QAPairs {
		cards = append(cards, Flashcard{
			Question:   pair.Question,
			Answer:     pair.Answer,
			Difficulty: "medium",
		})
	}

	return reconcileFlashcards(cards, count), nil
}

func (h *HuggingFace) post(ctx context.Context, op, path string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Provider: h.Name(), Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Provider: h.Name(), Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: h.Name(), Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: h.Name(), Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Provider: h.Name(),
			Op:       op,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, Truncate(string(body), 200)),
		}
	}

	return body, nil
}
