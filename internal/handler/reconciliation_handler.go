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

// ReconciliationHandler serves the expected-versus-actual views that
// classify every occurrence of the lookback window.
type ReconciliationHandler struct {
	reconciliationService *service.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// OccurrenceResponse represents one classified occurrence in API responses
type OccurrenceResponse struct {
	RuleID        int32  `json:"ruleId"`
	RuleName      string `json:"ruleName"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	AccountID     int32  `json:"accountId"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	TransactionID *int32 `json:"transactionId,omitempty"`
}

// RuleReconciliationResponse represents one rule's reconciliation in API responses
type RuleReconciliationResponse struct {
	RuleID      int32                `json:"ruleId"`
	RuleName    string               `json:"ruleName"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
	PaidCount   int32                `json:"paidCount"`
	MissedCount int32                `json:"missedCount"`
	DueCount    int32                `json:"dueCount"`
	FutureCount int32                `json:"futureCount"`
}

// ReconciliationReportResponse represents the workspace report in API responses
type ReconciliationReportResponse struct {
	GeneratedAt string                       `json:"generatedAt"`
	Rules       []RuleReconciliationResponse `json:"rules"`
	TotalMissed int32                        `json:"totalMissed"`
	TotalDue    int32                        `json:"totalDue"`
}

// GetReport handles GET /api/v1/reconciliation
func (h *ReconciliationHandler) GetReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	report, err := h.reconciliationService.Reconcile(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to reconcile workspace")
		return NewInternalError(c, "Failed to reconcile workspace")
	}

	response := ReconciliationReportResponse{
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Rules:       make([]RuleReconciliationResponse, len(report.Rules)),
		TotalMissed: report.TotalMissed,
		TotalDue:    report.TotalDue,
	}
	for i := range report.Rules {
		response.Rules[i] = toRuleReconciliationResponse(&report.Rules[i])
	}

	return c.JSON(http.StatusOK, response)
}

// GetRuleReport handles GET /api/v1/reconciliation/rules/:id
func (h *ReconciliationHandler) GetRuleReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	report, err := h.reconciliationService.ReconcileRule(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to reconcile rule")
		return NewInternalError(c, "Failed to reconcile rule")
	}

	return c.JSON(http.StatusOK, toRuleReconciliationResponse(report))
}

// Helper function to convert domain.RuleReconciliation to RuleReconciliationResponse
func toRuleReconciliationResponse(rec *domain.RuleReconciliation) RuleReconciliationResponse {
	resp := RuleReconciliationResponse{
		RuleID:      rec.RuleID,
		RuleName:    rec.RuleName,
		Occurrences: make([]OccurrenceResponse, len(rec.Occurrences)),
		PaidCount:   rec.PaidCount,
		MissedCount: rec.MissedCount,
		DueCount:    rec.DueCount,
		FutureCount: rec.FutureCount,
	}
	for i, occ := range rec.Occurrences {
		resp.Occurrences[i] = OccurrenceResponse{
			RuleID:        occ.RuleID,
			RuleName:      occ.RuleName,
			Date:          occ.Date.Format("2006-01-02"),
			Amount:        occ.Amount.StringFixed(2),
			AccountID:     occ.AccountID,
			Type:          string(occ.Type),
			Status:        string(occ.Status),
			TransactionID: occ.TransactionID,
		}
	}
	return resp
}
