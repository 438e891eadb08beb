package files

import (
	"errors"
	"time"
)

// MaxUploadSize caps a single upload.
const MaxUploadSize = 10 << 20 // 10MB

var (
	ErrNotFound     = errors.New("file not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("file exceeds upload limit")
	ErrNotPDF       = errors.New("file is not a PDF")
)

// StoredFile is the metadata for one uploaded resume. The bytes live in
// the object store under StorageKey.
type StoredFile struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	FileName    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"size"`
	StorageKey  string    `json:"-"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
