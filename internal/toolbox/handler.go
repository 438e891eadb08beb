package toolbox

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/generation"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/shared/metrics"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
	"ramresume-backend/internal/shared/telemetry"
	"ramresume-backend/internal/shared/validation"
	"ramresume-backend/internal/usage"
)

// Handler serves the three generation steps.
type Handler struct {
	Gateway *generation.Gateway
	Usage   *usage.Service
	Scans   *scans.Service
}

// NewHandler constructs a Handler.
func NewHandler(gw *generation.Gateway, usageSvc *usage.Service, scanSvc *scans.Service) *Handler {
	return &Handler{Gateway: gw, Usage: usageSvc, Scans: scanSvc}
}

// RegisterRoutes attaches toolbox routes. Callers apply auth, terms and
// rate limiting on the group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract-keywords", h.extractKeywords)
	rg.POST("/resume", h.enhanceResume)
	rg.POST("/cover-letter", h.coverLetter)
}

func (h *Handler) extractKeywords(c *gin.Context) {
	middleware.SetOperation(c, generation.OpExtractKeywords)
	var req extractKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request body", validation.Issues(err))
		return
	}
	if err := generation.ValidateField(generation.ToolKeywordExtractor, "jobDescription", req.JobDescription); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	ledger, err := h.Usage.Gate(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	keywords, err := h.Gateway.ExtractKeywords(ctx, req.JobDescription)
	if err != nil {
		writeError(c, err)
		return
	}

	ledger, ok, err := h.Usage.DecrementUsage(ctx, ledger)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		telemetry.Warn("usage.decrement_skipped", map[string]any{"user_id": userID})
	}
	if _, err := h.Usage.IncrementTotalScans(ctx, ledger); err != nil {
		writeError(c, err)
		return
	}

	record, err := h.Scans.Create(ctx, userID, strings.TrimSpace(req.JobTitle), strings.TrimSpace(req.Company), keywords)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetScanID(c, record.ID)

	respond.OK(c, extractKeywordsResponse{Keywords: keywords, ScanID: record.ID})
}

func (h *Handler) enhanceResume(c *gin.Context) {
	middleware.SetOperation(c, generation.OpEnhanceBullets)
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request body", validation.Issues(err))
		return
	}
	if err := validateResumePair(generation.ToolResumeEnhancer, req.Resume, req.JobDescription); err != nil {
		writeError(c, err)
		return
	}
	scanID := strings.TrimSpace(req.ScanID)
	if scanID == "" {
		writeError(c, &generation.ValidationError{Field: "scanId", Reason: generation.ReasonRequired})
		return
	}
	middleware.SetScanID(c, scanID)

	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	// Gated but not billed; the keyword step charged for this scan.
	if _, err := h.Usage.Gate(ctx, userID); err != nil {
		writeError(c, err)
		return
	}
	if _, err := h.Scans.Get(ctx, userID, scanID); err != nil {
		writeError(c, err)
		return
	}

	groups, err := h.Gateway.EnhanceBullets(ctx, req.Resume, req.JobDescription)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.Scans.UpdateBullets(ctx, userID, scanID, req.Resume, toScanBullets(groups)); err != nil {
		writeError(c, err)
		return
	}

	respond.OK(c, resumeResponse{FormattedBullets: groups, ScanID: scanID})
}

func (h *Handler) coverLetter(c *gin.Context) {
	middleware.SetOperation(c, generation.OpDraftCoverLetter)
	var req coverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request body", validation.Issues(err))
		return
	}
	if err := validateResumePair(generation.ToolCoverLetter, req.Resume, req.JobDescription); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	if _, err := h.Usage.Gate(ctx, userID); err != nil {
		writeError(c, err)
		return
	}
	scanID := strings.TrimSpace(req.ScanID)
	if scanID != "" {
		middleware.SetScanID(c, scanID)
		if _, err := h.Scans.Get(ctx, userID, scanID); err != nil {
			writeError(c, err)
			return
		}
	}

	letter, err := h.Gateway.DraftCoverLetter(ctx, req.Resume, req.JobDescription)
	if err != nil {
		writeError(c, err)
		return
	}

	if scanID != "" {
		if _, err := h.Scans.UpdateCoverLetter(ctx, userID, scanID, letter); err != nil {
			writeError(c, err)
			return
		}
	}

	respond.OK(c, coverLetterResponse{CoverLetter: letter})
}

func validateResumePair(tool generation.Tool, resume, jobDescription string) error {
	if err := generation.ValidateField(tool, "resume", resume); err != nil {
		return err
	}
	return generation.ValidateField(tool, "jobDescription", jobDescription)
}

func toScanBullets(groups []generation.BulletGroup) []scans.BulletGroup {
	out := make([]scans.BulletGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, scans.BulletGroup{Company: g.Company, Bullets: append([]string(nil), g.Bullets...)})
	}
	return out
}

func writeError(c *gin.Context, err error) {
	var vErr *generation.ValidationError
	var limitErr *usage.LimitError
	switch {
	case errors.As(err, &vErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid input",
			[]validation.FieldIssue{{Field: vErr.Field, Issue: vErr.Reason}})
	case errors.As(err, &limitErr):
		metrics.IncUsageLimitHit()
		respond.ErrorWithFields(c, http.StatusForbidden, "usage_limit_exceeded", "Usage limit reached", nil,
			map[string]any{"resetDate": limitErr.ResetDate, "remainingUses": 0})
	case errors.Is(err, scans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Scan not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, generation.ErrUpstream):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Text generation failed", nil)
	case errors.Is(err, generation.ErrUnparseableResponse):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Could not read the generated response", nil)
	default:
		telemetry.Error("toolbox.failed", map[string]any{"operation": middleware.OperationFromContext(c), "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}
