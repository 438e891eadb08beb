package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ramresume-backend/internal/shared/storage/object"
)

// MimePDF is the only document type the service accepts.
const MimePDF = "application/pdf"

// ErrUnsupported is returned for anything that is not a PDF.
var ErrUnsupported = errors.New("unsupported document type")

// IsPDF reports whether the declared type, the file name or the content
// itself identifies a PDF.
func IsPDF(contentType, fileName string, data []byte) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean == MimePDF {
		return true
	}
	if len(data) > 0 && http.DetectContentType(data) == MimePDF {
		return true
	}
	return len(data) == 0 && strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

// FromStore reads a stored object and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", key, err)
	}
	text, err := Text(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	return text, nil
}

// Text extracts plain text from an in-memory PDF.
func Text(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 || http.DetectContentType(data) != MimePDF {
		return "", ErrUnsupported
	}
	return extractPDF(data)
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
