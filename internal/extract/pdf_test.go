package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildPDF assembles a minimal single-font PDF with one page per text, with a
// correct xref table so the reader accepts it.
func buildPDF(pageTexts ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	write := func(format string, args ...any) {
		fmt.Fprintf(&buf, format, args...)
	}
	object := func(format string, args ...any) {
		offsets = append(offsets, buf.Len())
		write(format, args...)
	}

	n := len(pageTexts)
	pageObj := func(i int) int { return 4 + 2*i }
	contentObj := func(i int) int { return 5 + 2*i }

	write("%%PDF-1.4\n")

	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	object("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	object("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, text := range pageTexts {
		object("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n",
			pageObj(i), contentObj(i))

		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		object("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObj(i), len(stream), stream)
	}

	xrefStart := buf.Len()
	write("xref\n0 %d\n", len(offsets)+1)
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write("%010d 00000 n \n", off)
	}
	write("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart)

	return buf.Bytes()
}

func TestPDF(t *testing.T) {
	res, err := PDF(buildPDF("Hello study world"))
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "Hello study world")
}

func TestPDF_MultiplePages(t *testing.T) {
	res, err := PDF(buildPDF("page one text", "page two text"))
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "page one text")
	assert.Contains(t, res.Text, "page two text")
}

func TestPDF_EmptyContent(t *testing.T) {
	_, err := PDF(nil)
	assert.True(t, errors.Is(err, ErrNoText))
}

func TestPDF_InvalidContent(t *testing.T) {
	_, err := PDF([]byte("this is not a pdf at all"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoText))
}

func TestPDF_NoExtractableText(t *testing.T) {
	_, err := PDF(buildPDF(""))
	assert.True(t, errors.Is(err, ErrNoText))
}
