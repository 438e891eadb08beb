package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
	"ramresume-backend/internal/shared/storage/object"
	"ramresume-backend/internal/shared/telemetry"
)

// Multipart framing on top of the file itself.
const formOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches metadata and download routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/files", h.list)
	rg.GET("/files/download", h.download)
	rg.DELETE("/files/:id", h.delete)
}

// RegisterUploadRoutes attaches the routes that accept file bodies.
// They carry their own rate limit group.
func (h *Handler) RegisterUploadRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.POST("/extract-text", h.extractText)
}

func (h *Handler) upload(c *gin.Context) {
	middleware.SetOperation(c, "upload")
	fileHeader, data, ok := readUpload(c)
	if !ok {
		return
	}

	f, err := h.Svc.Upload(c.Request.Context(), middleware.UserIDFromContext(c), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(c, err, "Error uploading file")
		return
	}

	respond.OK(c, gin.H{"message": "File uploaded successfully", "fileId": f.ID})
}

func (h *Handler) extractText(c *gin.Context) {
	middleware.SetOperation(c, "extract_text")
	fileHeader, data, ok := readUpload(c)
	if !ok {
		return
	}

	text, err := h.Svc.ExtractText(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(c, err, "Error extracting text from PDF")
		return
	}
	respond.OK(c, gin.H{"text": text})
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "Error retrieving files")
		return
	}
	respond.OK(c, list)
}

func (h *Handler) download(c *gin.Context) {
	f, body, err := h.Svc.Download(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "Error downloading file")
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.FileName))
	c.DataFromReader(http.StatusOK, f.SizeBytes, f.ContentType, body, nil)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "Error deleting file")
		return
	}
	respond.Success(c)
}

func readUpload(c *gin.Context) (*multipart.FileHeader, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+formOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(c, ErrTooLarge, "")
			return nil, nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded",
			[]map[string]string{{"field": "file", "issue": "required"}})
		return nil, nil, false
	}
	if fileHeader.Size > MaxUploadSize {
		writeError(c, ErrTooLarge, "")
		return nil, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return nil, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return nil, nil, false
	}
	return fileHeader, data, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "validation_error", "File size cannot exceed 10MB",
			[]map[string]string{{"field": "file", "issue": "too_large"}})
	case errors.Is(err, ErrNotPDF):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please upload a PDF file",
			[]map[string]string{{"field": "file", "issue": "unsupported_type"}})
	case errors.Is(err, object.ErrInvalidName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid file name",
			[]map[string]string{{"field": "file", "issue": "invalid_name"}})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		telemetry.Error("files.failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
