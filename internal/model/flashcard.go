package model

import "gorm.io/gorm"

// Flashcard difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Flashcard is one generated question/answer pair. OrderIndex is the 0-based
// position of the card within its document's set; after a replace the indices
// of a document's cards form a contiguous 0..n-1 sequence.
type Flashcard struct {
	gorm.Model
	ID         string `gorm:"primaryKey;uuid;not null;"`
	DocumentID string `gorm:"uuid;not null;index"`
	Question   string `gorm:"type:text;not null"`
	Answer     string `gorm:"type:text;not null"`
	Difficulty string `gorm:"not null"`
	OrderIndex int    `gorm:"not null"`
}

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
