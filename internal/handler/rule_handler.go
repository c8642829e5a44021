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
	"github.com/shopspring/decimal"
)

// RuleHandler handles recurring rule HTTP requests, including the
// occurrence operations (pay, skip, delete future) that bridge rules
// and the ledger.
type RuleHandler struct {
	ruleService     *service.RuleService
	ledgerService   *service.LedgerService
	scheduleService *service.ScheduleService
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(ruleService *service.RuleService, ledgerService *service.LedgerService, scheduleService *service.ScheduleService) *RuleHandler {
	return &RuleHandler{
		ruleService:     ruleService,
		ledgerService:   ledgerService,
		scheduleService: scheduleService,
	}
}

// CreateRuleRequest represents the create rule request body
type CreateRuleRequest struct {
	Name        string  `json:"name"`
	Amount      string  `json:"amount"`
	AccountID   int32   `json:"accountId"`
	ToAccountID *int32  `json:"toAccountId,omitempty"`
	Type        string  `json:"type"`
	Frequency   string  `json:"frequency"`
	Interval    int32   `json:"interval,omitempty"`
	Weekdays    []int   `json:"weekdays,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateRuleRequest represents the update rule request body
type UpdateRuleRequest struct {
	Name        string  `json:"name"`
	Amount      string  `json:"amount"`
	AccountID   int32   `json:"accountId"`
	ToAccountID *int32  `json:"toAccountId,omitempty"`
	Type        string  `json:"type"`
	Frequency   string  `json:"frequency"`
	Interval    int32   `json:"interval,omitempty"`
	Weekdays    []int   `json:"weekdays,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	IsActive    bool    `json:"isActive"`
	Notes       *string `json:"notes,omitempty"`
}

// RuleResponse represents a recurring rule in API responses
type RuleResponse struct {
	ID           int32    `json:"id"`
	WorkspaceID  int32    `json:"workspaceId"`
	Name         string   `json:"name"`
	Amount       string   `json:"amount"`
	AccountID    int32    `json:"accountId"`
	ToAccountID  *int32   `json:"toAccountId,omitempty"`
	Type         string   `json:"type"`
	Frequency    string   `json:"frequency"`
	Interval     int32    `json:"interval"`
	Weekdays     []int    `json:"weekdays,omitempty"`
	StartDate    string   `json:"startDate"`
	EndDate      *string  `json:"endDate,omitempty"`
	SkippedDates []string `json:"skippedDates,omitempty"`
	IsActive     bool     `json:"isActive"`
	Notes        *string  `json:"notes,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// CreateRule godoc
// @Summary Create a recurring rule
// @Description Create a recurring rule and materialize its upcoming occurrences
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRuleRequest true "Rule creation request"
// @Success 201 {object} RuleResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /rules [post]
func (h *RuleHandler) CreateRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateRuleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	// Validate accountId early to avoid unnecessary database lookup
	if req.AccountID <= 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account ID is required"},
		})
	}

	// Parse amount
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	// Parse start date
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	// Parse end date if provided
	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return NewValidationError(c, "Invalid endDate", []ValidationError{
				{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		endDate = &parsed
	}

	input := service.CreateRuleInput{
		Name:        req.Name,
		Amount:      amount,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Type:        domain.TransactionType(req.Type),
		Frequency:   domain.Frequency(req.Frequency),
		Interval:    req.Interval,
		Weekdays:    toWeekdays(req.Weekdays),
		StartDate:   startDate,
		EndDate:     endDate,
		Notes:       req.Notes,
	}

	rule, err := h.ruleService.CreateRule(workspaceID, input)
	if err != nil {
		if resp := ruleValidationError(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create rule")
		return NewInternalError(c, "Failed to create rule")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("rule_id", rule.ID).Str("name", rule.Name).Msg("Rule created")

	return c.JSON(http.StatusCreated, toRuleResponse(rule))
}

// GetRules godoc
// @Summary List recurring rules
// @Description Get all recurring rules, optionally filtered by active state
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Filter by active state"
// @Success 200 {array} RuleResponse
// @Failure 401 {object} ProblemDetails
// @Router /rules [get]
func (h *RuleHandler) GetRules(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var activeOnly *bool
	switch c.QueryParam("active") {
	case "":
	case "true":
		t := true
		activeOnly = &t
	case "false":
		f := false
		activeOnly = &f
	default:
		return NewValidationError(c, "Invalid active (must be 'true' or 'false')", nil)
	}

	rules, err := h.ruleService.ListRules(workspaceID, activeOnly)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get rules")
		return NewInternalError(c, "Failed to get rules")
	}

	response := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		response[i] = toRuleResponse(rule)
	}

	return c.JSON(http.StatusOK, response)
}

// GetRule handles GET /api/v1/rules/:id
func (h *RuleHandler) GetRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	rule, err := h.ruleService.GetRuleByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to get rule")
		return NewInternalError(c, "Failed to get rule")
	}

	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

// UpdateRule godoc
// @Summary Update a recurring rule
// @Description Update a rule and rebuild its materialized occurrences
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rule ID"
// @Param request body UpdateRuleRequest true "Rule update request"
// @Success 200 {object} RuleResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /rules/{id} [put]
func (h *RuleHandler) UpdateRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	var req UpdateRuleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	// Validate accountId early
	if req.AccountID <= 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account ID is required"},
		})
	}

	// Parse amount
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	// Parse start date
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	// Parse end date if provided
	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return NewValidationError(c, "Invalid endDate", []ValidationError{
				{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		endDate = &parsed
	}

	input := service.UpdateRuleInput{
		Name:        req.Name,
		Amount:      amount,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Type:        domain.TransactionType(req.Type),
		Frequency:   domain.Frequency(req.Frequency),
		Interval:    req.Interval,
		Weekdays:    toWeekdays(req.Weekdays),
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    req.IsActive,
		Notes:       req.Notes,
	}

	rule, err := h.ruleService.UpdateRule(workspaceID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		if resp := ruleValidationError(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to update rule")
		return NewInternalError(c, "Failed to update rule")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("rule_id", rule.ID).Msg("Rule updated")
	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

// SetRuleActiveRequest represents the request body for pausing or resuming a rule
type SetRuleActiveRequest struct {
	Active *bool `json:"active"`
}

// SetRuleActive handles PATCH /api/v1/rules/:id/active
func (h *RuleHandler) SetRuleActive(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	var req SetRuleActiveRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.Active == nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "active", Message: "Active is required"},
		})
	}

	rule, err := h.ruleService.SetRuleActive(workspaceID, int32(id), *req.Active)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to set rule active state")
		return NewInternalError(c, "Failed to set rule active state")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("rule_id", rule.ID).Bool("active", rule.IsActive).Msg("Rule active state changed")
	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

// DeleteRule godoc
// @Summary Delete a recurring rule
// @Description Delete a rule together with every scheduled row it materialized
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rule ID"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	if err := h.ruleService.DeleteRule(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to delete rule")
		return NewInternalError(c, "Failed to delete rule")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Rule deleted")
	return c.NoContent(http.StatusNoContent)
}

// PayOccurrenceRequest represents the request body for paying one occurrence
type PayOccurrenceRequest struct {
	Date     string  `json:"date"`
	PaidDate *string `json:"paidDate,omitempty"`
	Amount   *string `json:"amount,omitempty"`
}

// PayOccurrence godoc
// @Summary Pay an occurrence
// @Description Post a real transaction for one occurrence of a rule and retire its scheduled row
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rule ID"
// @Param request body PayOccurrenceRequest true "Occurrence payment request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /rules/{id}/pay [post]
func (h *RuleHandler) PayOccurrence(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	var req PayOccurrenceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	// Parse occurrence date
	occurrenceDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	// Parse paid date if provided
	var paidDate *time.Time
	if req.PaidDate != nil && *req.PaidDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PaidDate)
		if err != nil {
			return NewValidationError(c, "Invalid paidDate", []ValidationError{
				{Field: "paidDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		paidDate = &parsed
	}

	// Parse amount override if provided
	var amount *decimal.Decimal
	if req.Amount != nil && *req.Amount != "" {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		amount = &parsed
	}

	input := service.PayOccurrenceInput{
		OccurrenceDate: occurrenceDate,
		PaidDate:       paidDate,
		Amount:         amount,
	}

	transaction, err := h.ledgerService.PayOccurrence(workspaceID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		if errors.Is(err, domain.ErrOccurrenceSkipped) {
			return NewConflictError(c, "Occurrence was skipped and can not be paid")
		}
		if errors.Is(err, domain.ErrAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date", Message: "Occurrence date is required"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to pay occurrence")
		return NewInternalError(c, "Failed to pay occurrence")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rule_id", id).Int32("transaction_id", transaction.ID).Str("date", req.Date).Msg("Occurrence paid")
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// SkipOccurrenceRequest represents the request body for skipping one occurrence
type SkipOccurrenceRequest struct {
	Date string `json:"date"`
}

// SkipOccurrence handles POST /api/v1/rules/:id/skip
func (h *RuleHandler) SkipOccurrence(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	var req SkipOccurrenceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	occurrenceDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	if err := h.scheduleService.DeleteOccurrence(workspaceID, int32(id), occurrenceDate); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to skip occurrence")
		return NewInternalError(c, "Failed to skip occurrence")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rule_id", id).Str("date", req.Date).Msg("Occurrence skipped")
	return c.NoContent(http.StatusNoContent)
}

// DeletedRowsResponse reports how many scheduled rows a bulk deletion removed
type DeletedRowsResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteFutureOccurrences handles DELETE /api/v1/rules/:id/future
func (h *RuleHandler) DeleteFutureOccurrences(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	fromStr := c.QueryParam("from")
	if fromStr == "" {
		return NewValidationError(c, "from query parameter is required (YYYY-MM-DD)", nil)
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return NewValidationError(c, "Invalid from format (use YYYY-MM-DD)", nil)
	}

	deleted, err := h.scheduleService.DeleteAllFuture(workspaceID, int32(id), from)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to delete future occurrences")
		return NewInternalError(c, "Failed to delete future occurrences")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rule_id", id).Int("deleted", deleted).Str("from", fromStr).Msg("Future occurrences deleted")
	return c.JSON(http.StatusOK, DeletedRowsResponse{Deleted: deleted})
}

// SyncResultResponse reports the writes performed by one materialization pass
type SyncResultResponse struct {
	RulesProcessed int `json:"rulesProcessed"`
	Created        int `json:"created"`
	Deleted        int `json:"deleted"`
}

// RefreshRule handles POST /api/v1/rules/:id/refresh
func (h *RuleHandler) RefreshRule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid rule ID", nil)
	}

	result, err := h.scheduleService.RefreshRule(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NewNotFoundError(c, "Rule not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("rule_id", id).Msg("Failed to refresh rule")
		return NewInternalError(c, "Failed to refresh rule")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("rule_id", id).Int("created", result.Created).Int("deleted", result.Deleted).Msg("Rule rows rebuilt")
	return c.JSON(http.StatusOK, SyncResultResponse{
		RulesProcessed: result.RulesProcessed,
		Created:        result.Created,
		Deleted:        result.Deleted,
	})
}

// ruleValidationError maps rule validation failures to problem responses.
// Returns nil for errors that are not validation failures.
func ruleValidationError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNameRequired) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	}
	if errors.Is(err, domain.ErrNameTooLong) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	}
	if errors.Is(err, domain.ErrAmountInvalid) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	}
	if errors.Is(err, domain.ErrInvalidTransactionType) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense, transfer, debt"},
		})
	}
	if errors.Is(err, domain.ErrInvalidTransfer) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "toAccountId", Message: "Transfers require a distinct destination account"},
		})
	}
	if errors.Is(err, domain.ErrInvalidRecurrenceRule) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "frequency", Message: "Recurrence is invalid (check frequency, interval, weekdays and dates)"},
		})
	}
	if errors.Is(err, domain.ErrAccountNotFound) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account not found"},
		})
	}
	if errors.Is(err, domain.ErrNotesTooLong) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "notes", Message: "Notes must be 1000 characters or less"},
		})
	}
	return nil
}

// toWeekdays converts wire weekday numbers (0 = Sunday) to time.Weekday.
// Range checking happens in rule validation.
func toWeekdays(days []int) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	weekdays := make([]time.Weekday, len(days))
	for i, d := range days {
		weekdays[i] = time.Weekday(d)
	}
	return weekdays
}

// Helper function to convert domain.RecurringRule to RuleResponse
func toRuleResponse(rule *domain.RecurringRule) RuleResponse {
	resp := RuleResponse{
		ID:          rule.ID,
		WorkspaceID: rule.WorkspaceID,
		Name:        rule.Name,
		Amount:      rule.Amount.StringFixed(2),
		AccountID:   rule.AccountID,
		Type:        string(rule.Type),
		Frequency:   string(rule.Frequency),
		Interval:    rule.Interval,
		StartDate:   rule.StartDate.Format("2006-01-02"),
		IsActive:    rule.IsActive,
		CreatedAt:   rule.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   rule.UpdatedAt.Format(time.RFC3339),
	}
	if rule.ToAccountID != nil {
		resp.ToAccountID = rule.ToAccountID
	}
	if len(rule.Weekdays) > 0 {
		days := make([]int, len(rule.Weekdays))
		for i, wd := range rule.Weekdays {
			days[i] = int(wd)
		}
		resp.Weekdays = days
	}
	if rule.EndDate != nil {
		endDate := rule.EndDate.Format("2006-01-02")
		resp.EndDate = &endDate
	}
	if len(rule.SkippedDates) > 0 {
		skipped := make([]string, len(rule.SkippedDates))
		for i, d := range rule.SkippedDates {
			skipped[i] = d.Format("2006-01-02")
		}
		resp.SkippedDates = skipped
	}
	if rule.Notes != nil {
		resp.Notes = rule.Notes
	}
	return resp
}
