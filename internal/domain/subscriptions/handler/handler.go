// Package handler exposes subscriptions, analytics and upload history over HTTP.
package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/repository"
	"github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
	"github.com/FACorreiaa/subscription-finder/pkg/money"
)

const dateLayout = "2006-01-02"

// SubscriptionsHandler serves the /api/subscriptions family of routes.
type SubscriptionsHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewSubscriptionsHandler constructs a new handler
func NewSubscriptionsHandler(svc *service.Service, logger *slog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{svc: svc, logger: logger}
}

type subscriptionResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billing_cycle"`
	Category        string  `json:"category"`
	NextBillingDate *string `json:"next_billing_date"`
	IsActive        bool    `json:"is_active"`
	LogoURL         *string `json:"logo_url"`
	DetectedFrom    string  `json:"detected_from"`
	Confidence      float64 `json:"confidence"`
}

func toResponse(sub *repository.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:           sub.ID.String(),
		Name:         sub.Name,
		Amount:       money.New(sub.AmountMinor, sub.CurrencyCode).ToFloat64(),
		Currency:     sub.CurrencyCode,
		BillingCycle: sub.BillingCycle,
		Category:     sub.Category,
		IsActive:     sub.IsActive,
		LogoURL:      sub.LogoURL,
		DetectedFrom: string(sub.DetectedFrom),
		Confidence:   sub.Confidence,
	}
	if sub.NextBillingDate != nil {
		d := sub.NextBillingDate.Format(dateLayout)
		resp.NextBillingDate = &d
	}
	return resp
}

type createRequest struct {
	Name            string           `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	Currency        string           `json:"currency"`
	BillingCycle    string           `json:"billing_cycle"`
	NextBillingDate string           `json:"next_billing_date"`
	IsActive        *bool            `json:"is_active"`
	DetectedFrom    string           `json:"detected_from"`
	Confidence      *float64         `json:"confidence"`
}

type updateRequest struct {
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	BillingCycle    *string          `json:"billing_cycle"`
	Category        *string          `json:"category"`
	IsActive        *bool            `json:"is_active"`
	NextBillingDate string           `json:"next_billing_date"`
}

// List returns every subscription of the caller.
func (h *SubscriptionsHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	subs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "failed to list subscriptions", err)
		return
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toResponse(sub))
	}
	c.JSON(http.StatusOK, out)
}

// Create adds a manual subscription.
func (h *SubscriptionsHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	next, err := parseDate(req.NextBillingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "next_billing_date must be YYYY-MM-DD"})
		return
	}

	sub, err := h.svc.Create(c.Request.Context(), userID, service.CreateInput{
		Name:            req.Name,
		Amount:          req.Amount,
		Currency:        req.Currency,
		BillingCycle:    req.BillingCycle,
		NextBillingDate: next,
		IsActive:        req.IsActive,
		DetectedFrom:    req.DetectedFrom,
		Confidence:      req.Confidence,
	})
	if errors.Is(err, service.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "failed to create subscription", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": sub.ID.String(), "message": "Subscription added successfully"})
}

// Update patches a subscription owned by the caller.
func (h *SubscriptionsHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	next, err := parseDate(req.NextBillingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "next_billing_date must be YYYY-MM-DD"})
		return
	}

	_, err = h.svc.Update(c.Request.Context(), userID, id, service.UpdateInput{
		Name:            req.Name,
		Amount:          req.Amount,
		BillingCycle:    req.BillingCycle,
		Category:        req.Category,
		IsActive:        req.IsActive,
		NextBillingDate: next,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "failed to update subscription", err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Subscription updated successfully"})
	}
}

// Delete removes a subscription owned by the caller.
func (h *SubscriptionsHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.svc.Delete(c.Request.Context(), userID, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case err != nil:
		h.internalError(c, "failed to delete subscription", err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted successfully"})
	}
}

// Export downloads the caller's subscriptions as CSV (default) or XLSX.
func (h *SubscriptionsHandler) Export(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	subs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "failed to list subscriptions", err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
		filename    string
	)
	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		err = service.WriteCSV(&buf, subs)
		contentType, filename = "text/csv", "subscriptions.csv"
	case "xlsx":
		err = service.WriteXLSX(&buf, subs)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "subscriptions.xlsx"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	if err != nil {
		h.internalError(c, "failed to export subscriptions", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// Analytics returns spend totals over active subscriptions.
func (h *SubscriptionsHandler) Analytics(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := h.svc.Analytics(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "failed to compute analytics", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type uploadResponse struct {
	ID                 string    `json:"id"`
	Filename           string    `json:"filename"`
	UploadedAt         time.Time `json:"uploaded_at"`
	Processed          bool      `json:"processed"`
	SubscriptionsFound int       `json:"subscriptions_found"`
}

// Uploads lists the caller's statement upload history.
func (h *SubscriptionsHandler) Uploads(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	uploads, err := h.svc.Uploads(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "failed to list uploads", err)
		return
	}

	out := make([]uploadResponse, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, uploadResponse{
			ID:                 u.ID.String(),
			Filename:           u.Filename,
			UploadedAt:         u.UploadedAt,
			Processed:          u.Processed,
			SubscriptionsFound: u.SubscriptionsFound,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *SubscriptionsHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.ErrorContext(c.Request.Context(), msg, slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return userID, ok
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Unknown ids and foreign ids look the same to the caller.
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
