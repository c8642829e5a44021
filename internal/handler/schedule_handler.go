package handler

import (
	"net/http"
	"time"

	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Default window for the upcoming view when the caller gives no range.
const defaultUpcomingDays = 30

// ScheduleHandler exposes the materialized schedule: the upcoming view
// and an on-demand workspace sync.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

// GetUpcoming handles GET /api/v1/schedule/upcoming
func (h *ScheduleHandler) GetUpcoming(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	from := util.DateOnly(time.Now().UTC())
	if fromStr := c.QueryParam("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return NewValidationError(c, "Invalid from format (use YYYY-MM-DD)", nil)
		}
		from = parsed
	}

	to := from.AddDate(0, 0, defaultUpcomingDays)
	if toStr := c.QueryParam("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return NewValidationError(c, "Invalid to format (use YYYY-MM-DD)", nil)
		}
		to = parsed
	}

	if to.Before(from) {
		return NewValidationError(c, "to must not be before from", nil)
	}

	occurrences, err := h.scheduleService.UpcomingOccurrences(workspaceID, from, to)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get upcoming occurrences")
		return NewInternalError(c, "Failed to get upcoming occurrences")
	}

	response := make([]TransactionResponse, len(occurrences))
	for i, occurrence := range occurrences {
		response[i] = toTransactionResponse(occurrence)
	}

	return c.JSON(http.StatusOK, response)
}

// SyncSchedule handles POST /api/v1/schedule/sync
func (h *ScheduleHandler) SyncSchedule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	result, err := h.scheduleService.SyncWorkspace(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to sync schedule")
		return NewInternalError(c, "Failed to sync schedule")
	}

	// Per-rule failures are reported, not fatal; the sweep retries them
	if len(result.Errors) > 0 {
		log.Warn().Int32("workspace_id", workspaceID).Int("failed_rules", len(result.Errors)).Msg("Schedule sync finished with failures")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rules", result.RulesProcessed).Int("created", result.Created).Int("deleted", result.Deleted).Msg("Schedule synced")
	return c.JSON(http.StatusOK, SyncResultResponse{
		RulesProcessed: result.RulesProcessed,
		Created:        result.Created,
		Deleted:        result.Deleted,
	})
}
