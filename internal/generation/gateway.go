package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"ramresume-backend/internal/llm"
	"ramresume-backend/internal/shared/metrics"
	"ramresume-backend/internal/shared/telemetry"
)

// Operation names used in logs and metrics.
const (
	OpExtractKeywords  = "extract_keywords"
	OpEnhanceBullets   = "enhance_bullets"
	OpDraftCoverLetter = "draft_cover_letter"
)

// Gateway wraps a provider with the fixed prompt templates.
type Gateway struct {
	provider llm.Provider
	now      func() time.Time
}

// NewGateway constructs a gateway. A nil provider behaves as unconfigured.
func NewGateway(provider llm.Provider) *Gateway {
	if provider == nil {
		provider = llm.PlaceholderProvider{}
	}
	return &Gateway{provider: provider, now: time.Now}
}

// ExtractKeywords returns up to MaxKeywords keywords for a job description.
func (g *Gateway) ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error) {
	if err := ValidateField(ToolKeywordExtractor, "jobDescription", jobDescription); err != nil {
		metrics.ObserveGeneration(OpExtractKeywords, metrics.OutcomeValidation, 0)
		return nil, err
	}

	start := g.now()
	content, err := g.complete(ctx, OpExtractKeywords, KeywordsPrompt(jobDescription))
	if err != nil {
		g.observe(OpExtractKeywords, err, start)
		return nil, err
	}
	keywords, err := parseKeywords(content)
	g.observe(OpExtractKeywords, err, start)
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

// EnhanceBullets rewrites resume bullets grouped per employer.
func (g *Gateway) EnhanceBullets(ctx context.Context, resume, jobDescription string) ([]BulletGroup, error) {
	if err := validatePair(ToolResumeEnhancer, resume, jobDescription); err != nil {
		metrics.ObserveGeneration(OpEnhanceBullets, metrics.OutcomeValidation, 0)
		return nil, err
	}

	start := g.now()
	content, err := g.complete(ctx, OpEnhanceBullets, BulletsPrompt(resume, jobDescription))
	if err != nil {
		g.observe(OpEnhanceBullets, err, start)
		return nil, err
	}
	groups, err := parseBullets(content)
	g.observe(OpEnhanceBullets, err, start)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// DraftCoverLetter writes a cover letter.
func (g *Gateway) DraftCoverLetter(ctx context.Context, resume, jobDescription string) (string, error) {
	if err := validatePair(ToolCoverLetter, resume, jobDescription); err != nil {
		metrics.ObserveGeneration(OpDraftCoverLetter, metrics.OutcomeValidation, 0)
		return "", err
	}

	start := g.now()
	content, err := g.complete(ctx, OpDraftCoverLetter, CoverLetterPrompt(resume, jobDescription))
	if err == nil {
		content = strings.TrimSpace(content)
		if content == "" {
			err = ErrUnparseableResponse
		}
	}
	g.observe(OpDraftCoverLetter, err, start)
	if err != nil {
		return "", err
	}
	return content, nil
}

func validatePair(tool Tool, resume, jobDescription string) error {
	if err := ValidateField(tool, "resume", resume); err != nil {
		return err
	}
	return ValidateField(tool, "jobDescription", jobDescription)
}

func (g *Gateway) complete(ctx context.Context, operation string, prompt llm.Prompt) (string, error) {
	content, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		telemetry.Error("generation.upstream_failed", map[string]any{
			"operation":   operation,
			"prompt_hash": llm.Hash(prompt),
			"error":       err.Error(),
		})
		return "", &UpstreamError{Operation: operation, Err: err}
	}
	return content, nil
}

func (g *Gateway) observe(operation string, err error, start time.Time) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrUpstream):
		outcome = metrics.OutcomeUpstream
	case errors.Is(err, ErrUnparseableResponse):
		outcome = metrics.OutcomeUnparseable
		telemetry.Warn("generation.unparseable", map[string]any{"operation": operation})
	}
	metrics.ObserveGeneration(operation, outcome, g.now().Sub(start))
}
