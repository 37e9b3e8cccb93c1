package domain

import (
	"strings"
	"unicode/utf8"
)

// DocumentStats carries display statistics computed once at extraction time.
type DocumentStats struct {
	Lines              int `json:"lines"`
	Words              int `json:"words"`
	Characters         int `json:"characters"`
	ReadingTimeMinutes int `json:"reading_time_minutes"`
}

// Document is the extracted plain-text form of an uploaded file. It is
// immutable once created; a new upload replaces it wholesale.
type Document struct {
	Name  string        `json:"name"`
	Text  string        `json:"text"`
	Stats DocumentStats `json:"stats"`
}

// Thresholds below which extracted text is too thin to reason about.
const (
	minSubstantialChars = 100
	minSubstantialWords = 50
)

// Substantial reports whether the document carries enough text for
// meaningful prompting. Informational: thin documents are still processed.
func (d *Document) Substantial() bool {
	stripped := strings.TrimSpace(d.Text)
	return utf8.RuneCountInString(stripped) >= minSubstantialChars &&
		len(strings.Fields(stripped)) >= minSubstantialWords
}
