package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// SummaryExample is one worked example inside a summary. Stored as part of
// the examples JSON column.
type SummaryExample struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// Summary holds the generated summary for a document. At most one live
// summary exists per document; regeneration replaces content, not identity.
type Summary struct {
	gorm.Model
	ID         string `gorm:"primaryKey;uuid;not null;"`
	DocumentID string `gorm:"uuid;not null;uniqueIndex"`
	Body       string `gorm:"type:text"`
	KeyPoints  string `gorm:"type:text"` // JSON array of strings
	Insights   string `gorm:"type:text"` // JSON array of strings
	Examples   string `gorm:"type:text"` // JSON array of SummaryExample
}

func (s *Summary) SetKeyPoints(points []string) error {
	data, err := json.Marshal(points)
	if err != nil {
		return err
	}
	s.KeyPoints = string(data)
	return nil
}

func (s *Summary) GetKeyPoints() ([]string, error) {
	return unmarshalStrings(s.KeyPoints)
}

func (s *Summary) SetInsights(insights []string) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return err
	}
	s.Insights = string(data)
	return nil
}

func (s *Summary) GetInsights() ([]string, error) {
	return unmarshalStrings(s.Insights)
}

func (s *Summary) SetExamples(examples []SummaryExample) error {
	data, err := json.Marshal(examples)
	if err != nil {
		return err
	}
	s.Examples = string(data)
	return nil
}

func (s *Summary) GetExamples() ([]SummaryExample, error) {
	examples := make([]SummaryExample, 0)
	if s.Examples == "" {
		return examples, nil
	}
	if err := json.Unmarshal([]byte(s.Examples), &examples); err != nil {
		return nil, err
	}
	return examples, nil
}

func unmarshalStrings(data string) ([]string, error) {
	values := make([]string, 0)
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}
