package toolbox

import "ramresume-backend/internal/generation"

type extractKeywordsRequest struct {
	JobDescription string `json:"jobDescription"`
	Company        string `json:"company"`
	JobTitle       string `json:"jobTitle"`
}

type extractKeywordsResponse struct {
	Keywords []string `json:"keywords"`
	ScanID   string   `json:"scanId"`
}

type resumeRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
	ScanID         string `json:"scanId"`
}

type resumeResponse struct {
	FormattedBullets []generation.BulletGroup `json:"formattedBullets"`
	ScanID           string                   `json:"scanId"`
}

type coverLetterRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
	ScanID         string `json:"scanId"`
}

type coverLetterResponse struct {
	CoverLetter string `json:"coverLetter"`
}
