package generation

import (
	"strings"
	"unicode"
)

// Tool names the operation whose limits apply.
type Tool string

const (
	ToolKeywordExtractor Tool = "KEYWORD_EXTRACTOR"
	ToolResumeEnhancer   Tool = "RESUME_ENHANCER"
	ToolCoverLetter      Tool = "COVER_LETTER"
)

// Word limits per tool and field.
var toolLimits = map[Tool]int{
	ToolKeywordExtractor: 1000,
	ToolResumeEnhancer:   1000,
	ToolCoverLetter:      1000,
}

var disallowedTerms = map[string]bool{
	"profanity":     true,
	"explicit":      true,
	"offensive":     true,
	"inappropriate": true,
	"nsfw":          true,
}

// Limit returns the word limit for a tool.
func Limit(tool Tool) int {
	if n, ok := toolLimits[tool]; ok {
		return n
	}
	return 1000
}

// ValidateText checks one input. The returned *ValidationError has an
// empty Field; use ValidateField to name it.
func ValidateText(tool Tool, text string) error {
	return ValidateField(tool, "", text)
}

// ValidateField checks one named input field.
func ValidateField(tool Tool, field, text string) error {
	words := strings.Fields(text)
	if len(words) == 0 {
		return &ValidationError{Field: field, Reason: ReasonRequired}
	}
	if len(words) > Limit(tool) {
		return &ValidationError{Field: field, Reason: ReasonTooLong}
	}
	if containsDisallowed(text) {
		return &ValidationError{Field: field, Reason: ReasonDisallowedContent}
	}
	return nil
}

// containsDisallowed matches lexicon terms as whole words, ignoring case
// and punctuation, so "explicitly" or "inappropriately" pass.
func containsDisallowed(text string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if disallowedTerms[tok] {
			return true
		}
	}
	return false
}
