package service

import (
	"errors"
	"fmt"

	"github.com/emrgen/studydoc/internal/provider"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNotDocumentOwner is returned when the caller does not own the document.
	ErrNotDocumentOwner = errors.New("document belongs to another user")
	// ErrNotPDF is returned when an upload is not a .pdf file.
	ErrNotPDF = errors.New("only PDF files are supported")
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = fmt.Errorf("file too large (max %d bytes)", MaxUploadSize)
	// ErrInvalidCardCount is returned when a regenerate request asks for a
	// flashcard count outside the supported window.
	ErrInvalidCardCount = fmt.Errorf("flashcard count must be between %d and %d",
		provider.MinFlashcards, provider.MaxFlashcards)
	// ErrDocumentNotReady is returned when an operation needs extracted text
	// that does not exist yet.
	ErrDocumentNotReady = errors.New("document has no extracted text yet")
)
