package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Document statuses. A document is created in StatusProcessing and is moved
// to a terminal status by the processing pipeline only.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxStoredTextLen bounds the extracted text prefix persisted on the document.
const MaxStoredTextLen = 20000

type Document struct {
	gorm.Model
	ID            string `gorm:"primaryKey;uuid;not null;"`
	OwnerID       string `gorm:"uuid;not null;index"`
	Title         string `gorm:"not null"`
	FileName      string
	StoragePath   string
	FileSize      int64
	Pages         int    // 0 until extraction has run
	ExtractedText string // bounded prefix of the extraction, codec-encoded
	Status        string `gorm:"not null;index"`
	FailReason    string
	ProcessedAt   *time.Time
}

func (d *Document) Terminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}
