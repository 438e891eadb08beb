package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramresume-backend/internal/generation"
	"ramresume-backend/internal/llm"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/usage"
)

type scriptedProvider struct {
	replies map[string]string
	err     error
	calls   int
}

func (p *scriptedProvider) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.replies[prompt.System], nil
}

type fixture struct {
	router   *gin.Engine
	provider *scriptedProvider
	usage    *usage.Service
	scans    *scans.Service
}

func newFixture(t *testing.T, userID string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &scriptedProvider{replies: map[string]string{
		generation.KeywordsPrompt("").System:        `["SQL","Python"]`,
		generation.BulletsPrompt("", "").System:     `[{"Acme":["Led analytics rollout"]}]`,
		generation.CoverLetterPrompt("", "").System: "Dear Hiring Manager,\n\nSincerely,",
	}}
	f := &fixture{
		provider: provider,
		usage:    usage.NewService(),
		scans:    scans.NewService(scans.NewMemoryRepo()),
	}

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: userID, TermsAccepted: true})
		c.Next()
	})
	NewHandler(generation.NewGateway(provider), f.usage, f.scans).RegisterRoutes(api)
	f.router = r
	return f
}

func (f *fixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), v))
}

func TestFullRunBillsOnce(t *testing.T) {
	f := newFixture(t, "google:1")
	ctx := context.Background()

	resp := f.post(t, "/api/extract-keywords", extractKeywordsRequest{
		JobDescription: "Data analyst with SQL",
		Company:        "Acme",
		JobTitle:       "Analyst",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var kw extractKeywordsResponse
	decode(t, resp, &kw)
	assert.Equal(t, []string{"SQL", "Python"}, kw.Keywords)
	require.NotEmpty(t, kw.ScanID)

	resp = f.post(t, "/api/resume", resumeRequest{Resume: "Acme analyst", JobDescription: "Data analyst with SQL", ScanID: kw.ScanID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var rr resumeResponse
	decode(t, resp, &rr)
	assert.Equal(t, kw.ScanID, rr.ScanID)
	assert.Equal(t, []generation.BulletGroup{{Company: "Acme", Bullets: []string{"Led analytics rollout"}}}, rr.FormattedBullets)

	resp = f.post(t, "/api/cover-letter", coverLetterRequest{Resume: "Acme analyst", JobDescription: "Data analyst with SQL", ScanID: kw.ScanID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var cl coverLetterResponse
	decode(t, resp, &cl)
	assert.Equal(t, "Dear Hiring Manager,\n\nSincerely,", cl.CoverLetter)

	ledger, err := f.usage.CheckUsage(ctx, "google:1")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultRemainingUses-1, ledger.RemainingUses)
	assert.Equal(t, 1, ledger.TotalScans)

	record, err := f.scans.Get(ctx, "google:1", kw.ScanID)
	require.NoError(t, err)
	assert.True(t, record.IsComplete)
	assert.Equal(t, "Acme analyst", record.OriginalResume)
	assert.Equal(t, cl.CoverLetter, record.CoverLetter)
	assert.Equal(t, "Analyst", record.JobTitle)
}

func exhaust(t *testing.T, f *fixture, userID string) {
	t.Helper()
	ctx := context.Background()
	ledger, err := f.usage.CheckUsage(ctx, userID)
	require.NoError(t, err)
	for ledger.RemainingUses > 0 {
		ledger, _, err = f.usage.DecrementUsage(ctx, ledger)
		require.NoError(t, err)
	}
}

func TestExtractKeywordsLimitReached(t *testing.T) {
	f := newFixture(t, "google:2")
	ctx := context.Background()
	exhaust(t, f, "google:2")

	resp := f.post(t, "/api/extract-keywords", extractKeywordsRequest{JobDescription: "Analyst"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		ResetDate     string `json:"resetDate"`
		RemainingUses int    `json:"remainingUses"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "usage_limit_exceeded", body.Error.Code)
	assert.NotEmpty(t, body.ResetDate)
	assert.Zero(t, body.RemainingUses)
	assert.Zero(t, f.provider.calls)

	history, err := f.scans.History(ctx, "google:2")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExtractKeywordsValidation(t *testing.T) {
	f := newFixture(t, "google:3")

	resp := f.post(t, "/api/extract-keywords", extractKeywordsRequest{JobDescription: "  "})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"field":"jobDescription"`)
	assert.Contains(t, resp.Body.String(), `"issue":"required"`)
	assert.Zero(t, f.provider.calls)

	ledger, err := f.usage.CheckUsage(context.Background(), "google:3")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultRemainingUses, ledger.RemainingUses)
}

func TestUpstreamFailureIsNotBilled(t *testing.T) {
	f := newFixture(t, "google:4")
	f.provider.err = errors.New("boom")

	resp := f.post(t, "/api/extract-keywords", extractKeywordsRequest{JobDescription: "Analyst"})
	require.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "upstream_error")

	ledger, err := f.usage.CheckUsage(context.Background(), "google:4")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultRemainingUses, ledger.RemainingUses)
	assert.Zero(t, ledger.TotalScans)
}

func TestResumeForeignScanIsNotFound(t *testing.T) {
	f := newFixture(t, "google:5")
	other, err := f.scans.Create(context.Background(), "google:other", "Analyst", "Acme", []string{"SQL"})
	require.NoError(t, err)

	resp := f.post(t, "/api/resume", resumeRequest{Resume: "resume", JobDescription: "job", ScanID: other.ID})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, f.provider.calls)

	resp = f.post(t, "/api/resume", resumeRequest{Resume: "resume", JobDescription: "job"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCoverLetterWithoutScan(t *testing.T) {
	f := newFixture(t, "google:6")

	resp := f.post(t, "/api/cover-letter", coverLetterRequest{Resume: "resume", JobDescription: "job"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, f.provider.calls)

	ledger, err := f.usage.CheckUsage(context.Background(), "google:6")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultRemainingUses, ledger.RemainingUses)
}

func TestCoverLetterUnparseableIsBadGateway(t *testing.T) {
	f := newFixture(t, "google:7")
	f.provider.replies[generation.CoverLetterPrompt("", "").System] = "   "

	resp := f.post(t, "/api/cover-letter", coverLetterRequest{Resume: "resume", JobDescription: "job"})
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestLaterStepsAreGatedWithoutBilling(t *testing.T) {
	f := newFixture(t, "google:8")
	ctx := context.Background()

	resp := f.post(t, "/api/extract-keywords", extractKeywordsRequest{JobDescription: "Data analyst"})
	require.Equal(t, http.StatusOK, resp.Code)
	var kw extractKeywordsResponse
	decode(t, resp, &kw)
	exhaust(t, f, "google:8")
	calls := f.provider.calls

	for i := 0; i < 3; i++ {
		resp = f.post(t, "/api/resume", resumeRequest{Resume: "resume", JobDescription: "job", ScanID: kw.ScanID})
		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Contains(t, resp.Body.String(), "usage_limit_exceeded")
		assert.Contains(t, resp.Body.String(), "resetDate")

		resp = f.post(t, "/api/cover-letter", coverLetterRequest{Resume: "resume", JobDescription: "job"})
		assert.Equal(t, http.StatusForbidden, resp.Code)

		resp = f.post(t, "/api/cover-letter", coverLetterRequest{Resume: "resume", JobDescription: "job", ScanID: kw.ScanID})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	}
	assert.Equal(t, calls, f.provider.calls, "no generation once exhausted")

	record, err := f.scans.Get(ctx, "google:8", kw.ScanID)
	require.NoError(t, err)
	assert.Empty(t, record.EnhancedBullets)
	assert.Empty(t, record.CoverLetter)
}
