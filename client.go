package studydoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client is a Go client for the studydoc REST API, used by the doc CLI.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type Document struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	Pages       int        `json:"pages"`
	Status      string     `json:"status"`
	FailReason  string     `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

type Summary struct {
	ID        string           `json:"id"`
	Body      string           `json:"summary"`
	KeyPoints []string         `json:"key_points"`
	Insights  []string         `json:"insights"`
	Examples  []SummaryExample `json:"examples"`
}

type SummaryExample struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

type Flashcard struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
	Order      int    `json:"order"`
}

type FlashcardSet struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"card_count"`
	IsActive  bool   `json:"is_active"`
}

type DocumentDetail struct {
	Document   Document      `json:"document"`
	Summary    *Summary      `json:"summary"`
	Flashcards []Flashcard   `json:"flashcards"`
	Set        *FlashcardSet `json:"flashcard_set"`
}

// UploadDocument uploads the PDF at path and returns the created document,
// which starts processing in the background.
func (c *Client) UploadDocument(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Document Document `json:"document"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/documents", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Documents []Document `json:"documents"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*DocumentDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/documents/"+id, nil)
	if err != nil {
		return nil, err
	}

	var out DocumentDetail
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/documents/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) RegenerateFlashcards(ctx context.Context, id string, count int) ([]Flashcard, error) {
	url := fmt.Sprintf("%s/v1/documents/%s/flashcards/regenerate?count=%d", c.baseURL, id, count)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Flashcards, nil
}

func (c *Client) RegenerateSummary(ctx context.Context, id string) (*Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/documents/"+id+"/summary/regenerate", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Summary Summary `json:"summary"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Summary, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
