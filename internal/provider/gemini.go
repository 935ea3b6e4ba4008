package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"
)

// geminiMaxInput bounds the document text submitted to the model.
const geminiMaxInput = 20000

const geminiSummaryPrompt = `Analyze the following document and provide a JSON response with:
1. A comprehensive summary (2-3 paragraphs)
2. Key points (5-7 bullet points)
3. Important insights (3-5 insights)
4. Practical examples with explanations (2-3 examples)

Response format (must be valid JSON):
{
    "summary": "your summary here",
    "key_points": ["point 1", "point 2", "point 3"],
    "insights": ["insight 1", "insight 2", "insight 3"],
    "examples": [
        {"title": "Example Title", "description": "Example description", "code": "optional code"}
    ]
}

Document text:
%s`

const geminiFlashcardPrompt = `Create exactly %d educational flashcards from the following document.

Requirements:
- Generate exactly %d flashcards
- Questions should test understanding
- Answers should be clear and concise
- Mix of easy, medium, and hard difficulty
- Cover different topics from the document

Response format (must be valid JSON array):
[
    {"question": "question text", "answer": "answer text", "difficulty": "easy"},
    {"question": "question text", "answer": "answer text", "difficulty": "medium"},
    {"question": "question text", "answer": "answer text", "difficulty": "hard"}
]

Document text:
%s`

var _ Provider = (*Gemini)(nil)

// Gemini generates summaries and flashcards through a Vertex AI Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(ctx context.Context, projectID, region, modelName string) (*Gemini, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("gemini: projectID and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		// Force JSON output so responses parse without prose around them.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Summarize(ctx context.Context, text string) (*Summary, error) {
	prompt := fmt.Sprintf(geminiSummaryPrompt, Truncate(text, geminiMaxInput))

	raw, err := g.generate(ctx, "summarize", prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Summary   string    `json:"summary"`
		KeyPoints []string  `json:"key_points"`
		Insights  []string  `json:"insights"`
		Examples  []Example `json:"examples"`
	}
	raw = stripCodeFence(raw)
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Summary == "" {
		logrus.Warnf("gemini: unparseable summary response, falling back: %v", err)
		return fallbackSummary(raw), nil
	}

	return &Summary{
		Body:      payload.Summary,
		KeyPoints: payload.KeyPoints,
		Insights:  payload.Insights,
		Examples:  payload.Examples,
	}, nil
}

func (g *Gemini) GenerateFlashcards(ctx context.Context, text string, count int) ([]Flashcard, error) {
	count = ClampCount(count)
	prompt := fmt.Sprintf(geminiFlashcardPrompt, count, count, Truncate(text, geminiMaxInput))

	raw, err := g.generate(ctx, "generate flashcards", prompt)
	if err != nil {
		return nil, err
	}

	var cards []Flashcard
	raw = stripCodeFence(raw)
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		logrus.Warnf("gemini: unparseable flashcard response, falling back: %v", err)
		return fallbackFlashcards(count), nil
	}

	return reconcileFlashcards(cards, count), nil
}

func (g *Gemini) generate(ctx context.Context, op, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &Error{Provider: g.Name(), Op: op, Err: err}
	}

	raw := responseText(resp)
	if raw == "" {
		return "", &Error{Provider: g.Name(), Op: op, Err: errors.New("empty response")}
	}

	return raw, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}
