package model

import "gorm.io/gorm"

// FlashcardSet tracks the active flashcard collection of a document.
// One set per document; CardCount always equals the number of live
// flashcard rows after a replace commits.
type FlashcardSet struct {
	gorm.Model
	ID         string `gorm:"primaryKey;uuid;not null;"`
	DocumentID string `gorm:"uuid;not null;uniqueIndex"`
	Name       string `gorm:"not null"`
	CardCount  int    `gorm:"not null"`
	IsActive   bool   `gorm:"not null;default:true"`
}
