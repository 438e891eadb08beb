package scans

import (
	"errors"
	"time"
)

// HistoryLimit caps how many completed scans the history lists.
const HistoryLimit = 10

// ErrNotFound is returned when a scan does not exist or belongs to another user.
var ErrNotFound = errors.New("scan not found")

// BulletGroup holds the rewritten bullets for one employer.
type BulletGroup struct {
	Company string   `json:"company"`
	Bullets []string `json:"bullets"`
}

// ScanRecord is one persisted toolbox run.
type ScanRecord struct {
	ID              string        `json:"_id"`
	UserID          string        `json:"userId"`
	JobTitle        string        `json:"jobTitle"`
	Company         string        `json:"company"`
	Keywords        []string      `json:"keywords"`
	OriginalResume  string        `json:"originalResume"`
	EnhancedBullets []BulletGroup `json:"enhancedBullets"`
	CoverLetter     string        `json:"coverLetter"`
	IsComplete      bool          `json:"isComplete"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// complete reports the derived completion flag.
func complete(bullets []BulletGroup) bool {
	return len(bullets) > 0
}
