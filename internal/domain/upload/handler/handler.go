// Package handler exposes the statement upload endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FACorreiaa/subscription-finder/internal/domain/classify"
	"github.com/FACorreiaa/subscription-finder/internal/domain/upload"
	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
)

const formField = "file"

// UploadHandler serves POST /upload and POST /api/upload.
type UploadHandler struct {
	orchestrator *upload.Orchestrator
	maxBytes     int64
	logger       *slog.Logger
}

// NewUploadHandler constructs a new handler. maxBytes caps the request body.
func NewUploadHandler(o *upload.Orchestrator, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{orchestrator: o, maxBytes: maxBytes, logger: logger}
}

// Anonymous classifies a statement without storing anything.
func (h *UploadHandler) Anonymous(c *gin.Context) {
	out, ok := h.handle(c, nil)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// Authenticated classifies a statement and ingests it for the caller.
func (h *UploadHandler) Authenticated(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	out, ok := h.handle(c, &userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, authenticatedResponse{Result: out.Result, SubscriptionsAdded: out.Added})
}

func (h *UploadHandler) handle(c *gin.Context, userID *uuid.UUID) (*upload.Outcome, bool) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	fh, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return nil, false
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return nil, false
	}
	if err := upload.ValidateFilename(fh.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to open multipart file", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	defer f.Close()

	out, err := h.orchestrator.Handle(c.Request.Context(), userID, fh.Filename, f)
	switch {
	case err == nil:
		return out, true
	case errors.Is(err, upload.ErrExtractionEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not extract text from PDF"})
	case errors.Is(err, upload.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.ErrorContext(c.Request.Context(), "upload failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return nil, false
}

type authenticatedResponse struct {
	Result             classify.Result
	SubscriptionsAdded int
}

// MarshalJSON flattens the result and adds subscriptions_added next to it.
func (r authenticatedResponse) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(r.Result)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	added, err := json.Marshal(r.SubscriptionsAdded)
	if err != nil {
		return nil, err
	}
	fields["subscriptions_added"] = added
	return json.Marshal(fields)
}
