package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Prompt is one two-message exchange: a role-setting system message and
// the templated user content.
type Prompt struct {
	System string
	User   string
}

// Provider abstracts text generation backends.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ErrNotConfigured is returned by the placeholder provider.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderProvider stands in when no API key is configured.
type PlaceholderProvider struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return "", ErrNotConfigured
}

// Hash fingerprints a prompt for logs.
func Hash(p Prompt) string {
	sum := sha256.Sum256([]byte("system: " + p.System + "\n\nuser: " + p.User))
	return hex.EncodeToString(sum[:])
}
