// Package domain holds the core types shared across the assistant:
// knowledge records, conversation events, and the error taxonomy.
package domain

import (
	"fmt"
	"strings"
)

// DefaultCategory is assigned to records whose source row carries no
// category value.
const DefaultCategory = "general"

// KnowledgeRecord is one validated question/answer pair from the
// corpus. EmbedText is the canonical text sent to the embedding model
// and stored alongside the vector for display.
type KnowledgeRecord struct {
	Question    string
	Answer      string
	Category    string
	EmbedText   string
	SourceIndex int
}

// BuildEmbedText produces the canonical embedding input for a pair.
// The format is stable: changing it silently invalidates every vector
// already in the index.
func BuildEmbedText(question, answer string) string {
	return fmt.Sprintf("Вопрос: %s Ответ: %s", question, answer)
}

// NewKnowledgeRecord trims and validates a raw corpus row. An empty
// category falls back to DefaultCategory.
func NewKnowledgeRecord(question, answer, category string, sourceIndex int) (KnowledgeRecord, error) {
	rec := KnowledgeRecord{
		Question:    strings.TrimSpace(question),
		Answer:      strings.TrimSpace(answer),
		Category:    strings.TrimSpace(category),
		SourceIndex: sourceIndex,
	}
	if rec.Category == "" {
		rec.Category = DefaultCategory
	}
	if err := rec.Validate(); err != nil {
		return KnowledgeRecord{}, err
	}
	rec.EmbedText = BuildEmbedText(rec.Question, rec.Answer)
	return rec, nil
}

// Validate checks that the record has both a question and an answer.
func (r KnowledgeRecord) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("%w: empty question (row %d)", ErrInvalidRecord, r.SourceIndex)
	}
	if r.Answer == "" {
		return fmt.Errorf("%w: empty answer (row %d)", ErrInvalidRecord, r.SourceIndex)
	}
	return nil
}

// Payload is the metadata stored with the record's vector.
func (r KnowledgeRecord) Payload() map[string]any {
	return map[string]any{
		"question":      r.Question,
		"answer":        r.Answer,
		"category":      r.Category,
		"original_text": r.EmbedText,
		"index":         r.SourceIndex,
	}
}
