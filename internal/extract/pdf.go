// Package extract pulls plain text out of uploaded PDF documents.
//
// It uses ledongthuc/pdf (pure Go, no CGO). Per-page failures are tolerated;
// only a document with no extractable text at all is an error, since such a
// document (scanned, image-only or encrypted) cannot be summarized.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when no page of the document yields any text.
var ErrNoText = errors.New("no text could be extracted from the pdf")

// Result is the outcome of a successful extraction.
type Result struct {
	Text  string
	Pages int
}

// PDF extracts text and the page count from a PDF byte stream. The input is
// never mutated. Unreadable pages are skipped; an error is returned only when
// the stream is not a valid PDF or the whole document yields no text.
func PDF(content []byte) (Result, error) {
	if len(content) == 0 {
		return Result{}, fmt.Errorf("empty pdf content: %w", ErrNoText)
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()

	var text strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := pageText(page)
		if err != nil {
			// skip unreadable pages
			continue
		}
		if pageText == "" {
			continue
		}

		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(pageText)
	}

	extracted := strings.TrimSpace(text.String())
	if extracted == "" {
		return Result{}, ErrNoText
	}

	return Result{Text: extracted, Pages: pages}, nil
}

func pageText(page pdf.Page) (text string, err error) {
	// GetPlainText panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content: %v", r)
		}
	}()

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
