package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler handles receipt attachment HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptResponse represents a receipt's presigned URLs in API responses
type ReceiptResponse struct {
	TransactionID int32  `json:"transactionId"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	DisplayURL    string `json:"displayUrl"`
	OriginalURL   string `json:"originalUrl"`
	ExpiresAt     string `json:"expiresAt"`
}

// UploadReceipt handles POST /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	// Parse multipart form
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	// Open the file
	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// Read all data for processing
	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	metadata, err := h.receiptService.AttachReceipt(c.Request().Context(), workspaceID, int32(id), data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return NewNotFoundError(c, "Transaction not found")
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrReceiptTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case errors.Is(err, service.ErrInvalidReceiptData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to upload receipt")
			return NewInternalError(c, "Failed to upload receipt")
		}
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("transaction_id", id).
		Msg("Receipt uploaded successfully")

	return c.JSON(http.StatusCreated, toReceiptResponse(metadata))
}

// GetReceipt handles GET /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	metadata, err := h.receiptService.GetReceipt(c.Request().Context(), workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Transaction has no receipt")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	return c.JSON(http.StatusOK, toReceiptResponse(metadata))
}

// DeleteReceipt handles DELETE /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt deletion is disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.receiptService.DeleteReceipt(c.Request().Context(), workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Transaction has no receipt")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to delete receipt")
		return NewInternalError(c, "Failed to delete receipt")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("transaction_id", id).
		Msg("Receipt deleted successfully")

	return c.NoContent(http.StatusNoContent)
}

// Helper function to convert service.ReceiptMetadata to ReceiptResponse
func toReceiptResponse(metadata *service.ReceiptMetadata) ReceiptResponse {
	return ReceiptResponse{
		TransactionID: metadata.TransactionID,
		ThumbnailURL:  metadata.ThumbnailURL,
		DisplayURL:    metadata.DisplayURL,
		OriginalURL:   metadata.OriginalURL,
		ExpiresAt:     metadata.ExpiresAt.Format(time.RFC3339),
	}
}
