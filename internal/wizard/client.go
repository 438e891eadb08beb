package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the RAMResume HTTP API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a Client. Generation calls can take a while, so the
// timeout is generous.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 150 * time.Second},
	}
}

// Usage mirrors GET /api/usage.
type Usage struct {
	RemainingUses int       `json:"remainingUses"`
	ResetDate     time.Time `json:"resetDate"`
	TotalScans    int       `json:"totalScans"`
}

// ScanSummary is one entry of GET /api/scan-history.
type ScanSummary struct {
	ID              string        `json:"_id"`
	JobTitle        string        `json:"jobTitle"`
	Company         string        `json:"company"`
	Keywords        []string      `json:"keywords"`
	EnhancedBullets []BulletGroup `json:"enhancedBullets"`
	CoverLetter     string        `json:"coverLetter"`
	IsComplete      bool          `json:"isComplete"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ExtractKeywords calls POST /api/extract-keywords.
func (c *Client) ExtractKeywords(ctx context.Context, jobDescription, company, jobTitle string) ([]string, string, error) {
	var out struct {
		Keywords []string `json:"keywords"`
		ScanID   string   `json:"scanId"`
	}
	err := c.do(ctx, http.MethodPost, "/api/extract-keywords", map[string]string{
		"jobDescription": jobDescription,
		"company":        company,
		"jobTitle":       jobTitle,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	return out.Keywords, out.ScanID, nil
}

// EnhanceResume calls POST /api/resume.
func (c *Client) EnhanceResume(ctx context.Context, resume, jobDescription, scanID string) ([]BulletGroup, error) {
	var out struct {
		FormattedBullets []BulletGroup `json:"formattedBullets"`
	}
	err := c.do(ctx, http.MethodPost, "/api/resume", map[string]string{
		"resume":         resume,
		"jobDescription": jobDescription,
		"scanId":         scanID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.FormattedBullets, nil
}

// DraftCoverLetter calls POST /api/cover-letter.
func (c *Client) DraftCoverLetter(ctx context.Context, resume, jobDescription, scanID string) (string, error) {
	var out struct {
		CoverLetter string `json:"coverLetter"`
	}
	err := c.do(ctx, http.MethodPost, "/api/cover-letter", map[string]string{
		"resume":         resume,
		"jobDescription": jobDescription,
		"scanId":         scanID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.CoverLetter, nil
}

// Usage calls GET /api/usage.
func (c *Client) Usage(ctx context.Context) (Usage, error) {
	var out Usage
	err := c.do(ctx, http.MethodGet, "/api/usage", nil, &out)
	return out, err
}

// History calls GET /api/scan-history.
func (c *Client) History(ctx context.Context) ([]ScanSummary, error) {
	var out []ScanSummary
	err := c.do(ctx, http.MethodGet, "/api/scan-history", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read: %w", method, path, err)
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// decodeAPIError reads both the nested {"error":{code,message}} shape and
// the flat {"error":"rate_limited"} shape.
func decodeAPIError(status int, raw []byte) *APIError {
	var envelope struct {
		Error        json.RawMessage `json:"error"`
		Message      string          `json:"message"`
		ResetDate    time.Time       `json:"resetDate"`
		RetryAfterMs int64           `json:"retryAfterMs"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		apiErr.Kind = kindForCode("", status)
		return apiErr
	}

	var nested struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	var flat string
	switch {
	case json.Unmarshal(envelope.Error, &nested) == nil:
		apiErr.Code = nested.Code
		apiErr.Message = nested.Message
	case json.Unmarshal(envelope.Error, &flat) == nil:
		apiErr.Code = flat
		apiErr.Message = envelope.Message
	}
	apiErr.ResetDate = envelope.ResetDate
	apiErr.RetryAfter = time.Duration(envelope.RetryAfterMs) * time.Millisecond
	apiErr.Kind = kindForCode(apiErr.Code, status)
	return apiErr
}

var _ Backend = (*Client)(nil)
