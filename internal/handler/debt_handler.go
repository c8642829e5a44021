package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DebtHandler handles debt ledger HTTP requests
type DebtHandler struct {
	debtService *service.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *service.DebtService) *DebtHandler {
	return &DebtHandler{
		debtService: debtService,
	}
}

// DebtEntryResponse represents a debt entry in API responses
type DebtEntryResponse struct {
	ID            int32   `json:"id"`
	WorkspaceID   int32   `json:"workspaceId"`
	TransactionID int32   `json:"transactionId"`
	Name          string  `json:"name"`
	Amount        string  `json:"amount"`
	EntryDate     string  `json:"entryDate"`
	Settled       bool    `json:"settled"`
	SettledAt     *string `json:"settledAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// GetDebts handles GET /api/v1/debts
func (h *DebtHandler) GetDebts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	// Check for includeSettled query param
	includeSettled := c.QueryParam("includeSettled") == "true"

	entries, err := h.debtService.ListDebts(workspaceID, includeSettled)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get debts")
		return NewInternalError(c, "Failed to get debts")
	}

	response := make([]DebtEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = toDebtEntryResponse(entry)
	}

	return c.JSON(http.StatusOK, response)
}

// SettleDebt handles PATCH /api/v1/debts/:id/settle
func (h *DebtHandler) SettleDebt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid debt entry ID", nil)
	}

	entry, err := h.debtService.SettleDebt(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrDebtEntryNotFound) {
			return NewNotFoundError(c, "Debt entry not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("debt_id", id).Msg("Failed to settle debt")
		return NewInternalError(c, "Failed to settle debt")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("debt_id", entry.ID).Msg("Debt settled")
	return c.JSON(http.StatusOK, toDebtEntryResponse(entry))
}

// ReopenDebt handles PATCH /api/v1/debts/:id/reopen
func (h *DebtHandler) ReopenDebt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid debt entry ID", nil)
	}

	entry, err := h.debtService.ReopenDebt(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrDebtEntryNotFound) {
			return NewNotFoundError(c, "Debt entry not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("debt_id", id).Msg("Failed to reopen debt")
		return NewInternalError(c, "Failed to reopen debt")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("debt_id", entry.ID).Msg("Debt reopened")
	return c.JSON(http.StatusOK, toDebtEntryResponse(entry))
}

// Helper function to convert domain.DebtEntry to DebtEntryResponse
func toDebtEntryResponse(entry *domain.DebtEntry) DebtEntryResponse {
	resp := DebtEntryResponse{
		ID:            entry.ID,
		WorkspaceID:   entry.WorkspaceID,
		TransactionID: entry.TransactionID,
		Name:          entry.Name,
		Amount:        entry.Amount.StringFixed(2),
		EntryDate:     entry.EntryDate.Format("2006-01-02"),
		Settled:       entry.Settled,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.SettledAt != nil {
		settledAt := entry.SettledAt.Format(time.RFC3339)
		resp.SettledAt = &settledAt
	}
	return resp
}
