package service

import (
	"strings"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RuleMaterializer accepts deferred materialization requests for edited
// rules. Satisfied by ScheduleWorker. A service without one refreshes
// synchronously instead.
type RuleMaterializer interface {
	Enqueue(workspaceID int32, ruleID int32)
}

// RuleService handles recurring rule business logic
type RuleService struct {
	ruleRepo        domain.RuleRepository
	accountRepo     domain.AccountRepository
	scheduleService *ScheduleService
	ledgerService   *LedgerService
	materializer    RuleMaterializer
	eventPublisher  websocket.EventPublisher
}

// NewRuleService creates a new RuleService
func NewRuleService(
	ruleRepo domain.RuleRepository,
	accountRepo domain.AccountRepository,
	scheduleService *ScheduleService,
	ledgerService *LedgerService,
) *RuleService {
	return &RuleService{
		ruleRepo:        ruleRepo,
		accountRepo:     accountRepo,
		scheduleService: scheduleService,
		ledgerService:   ledgerService,
	}
}

// SetMaterializer routes edit-triggered materialization through the given
// queue so bursts of edits to one rule coalesce into a single rebuild
func (s *RuleService) SetMaterializer(m RuleMaterializer) {
	s.materializer = m
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RuleService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *RuleService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreateRuleInput holds the input for creating a recurring rule
type CreateRuleInput struct {
	Name        string
	Amount      decimal.Decimal
	AccountID   int32
	ToAccountID *int32
	Type        domain.TransactionType
	Frequency   domain.Frequency
	Interval    int32
	Weekdays    []time.Weekday
	StartDate   time.Time
	EndDate     *time.Time
	Notes       *string
}

// CreateRule creates a new recurring rule and materializes its upcoming
// occurrences immediately
func (s *RuleService) CreateRule(workspaceID int32, input CreateRuleInput) (*domain.RecurringRule, error) {
	interval := input.Interval
	if interval == 0 {
		interval = 1 // Default to every occurrence if not provided
	}

	notes, err := trimNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	rule := &domain.RecurringRule{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(input.Name),
		Amount:      input.Amount,
		AccountID:   input.AccountID,
		Type:        input.Type,
		Frequency:   input.Frequency,
		Interval:    interval,
		Weekdays:    input.Weekdays,
		StartDate:   util.DateOnly(input.StartDate),
		IsActive:    true,
		Notes:       notes,
	}
	if input.Type == domain.TransactionTypeTransfer {
		rule.ToAccountID = input.ToAccountID
	}
	if input.EndDate != nil {
		end := util.DateOnly(*input.EndDate)
		rule.EndDate = &end
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	// Validate accounts exist and belong to workspace
	if _, err := s.accountRepo.GetByID(workspaceID, rule.AccountID); err != nil {
		return nil, domain.ErrAccountNotFound
	}
	if rule.ToAccountID != nil {
		if _, err := s.accountRepo.GetByID(workspaceID, *rule.ToAccountID); err != nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	created, err := s.ruleRepo.Create(rule)
	if err != nil {
		return nil, err
	}

	// First materialization happens inline; a failure here is not fatal
	// because the periodic sweep picks the rule up
	if _, err := s.scheduleService.SyncRule(workspaceID, created.ID); err != nil {
		log.Error().
			Err(err).
			Int32("ruleID", created.ID).
			Msg("Failed to materialize new rule")
	}

	s.publishEvent(workspaceID, websocket.RuleCreated(created))
	return created, nil
}

// ListRules retrieves all recurring rules for a workspace
func (s *RuleService) ListRules(workspaceID int32, activeOnly *bool) ([]*domain.RecurringRule, error) {
	return s.ruleRepo.ListByWorkspace(workspaceID, activeOnly)
}

// GetRuleByID retrieves a recurring rule by ID
func (s *RuleService) GetRuleByID(workspaceID int32, id int32) (*domain.RecurringRule, error) {
	return s.ruleRepo.GetByID(workspaceID, id)
}

// UpdateRuleInput holds the input for updating a recurring rule
type UpdateRuleInput struct {
	Name        string
	Amount      decimal.Decimal
	AccountID   int32
	ToAccountID *int32
	Type        domain.TransactionType
	Frequency   domain.Frequency
	Interval    int32
	Weekdays    []time.Weekday
	StartDate   time.Time
	EndDate     *time.Time
	IsActive    bool
	Notes       *string
}

// UpdateRule updates an existing recurring rule. The skip list is not
// editable through this path; it only grows through occurrence deletion.
// Materialized rows are rebuilt afterwards, coalesced per rule when a
// materializer queue is attached.
func (s *RuleService) UpdateRule(workspaceID int32, id int32, input UpdateRuleInput) (*domain.RecurringRule, error) {
	existing, err := s.ruleRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	interval := input.Interval
	if interval == 0 {
		interval = 1
	}

	notes, err := trimNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Amount = input.Amount
	existing.AccountID = input.AccountID
	existing.Type = input.Type
	existing.Frequency = input.Frequency
	existing.Interval = interval
	existing.Weekdays = input.Weekdays
	existing.StartDate = util.DateOnly(input.StartDate)
	existing.IsActive = input.IsActive
	existing.Notes = notes
	existing.ToAccountID = nil
	if input.Type == domain.TransactionTypeTransfer {
		existing.ToAccountID = input.ToAccountID
	}
	existing.EndDate = nil
	if input.EndDate != nil {
		end := util.DateOnly(*input.EndDate)
		existing.EndDate = &end
	}
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	// Validate accounts exist and belong to workspace
	if _, err := s.accountRepo.GetByID(workspaceID, existing.AccountID); err != nil {
		return nil, domain.ErrAccountNotFound
	}
	if existing.ToAccountID != nil {
		if _, err := s.accountRepo.GetByID(workspaceID, *existing.ToAccountID); err != nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	updated, err := s.ruleRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.materialize(workspaceID, id)
	s.publishEvent(workspaceID, websocket.RuleUpdated(updated))
	return updated, nil
}

// SetRuleActive pauses or resumes a rule. Resuming materializes upcoming
// occurrences again; pausing removes the not-yet-due rows.
func (s *RuleService) SetRuleActive(workspaceID int32, id int32, active bool) (*domain.RecurringRule, error) {
	updated, err := s.ruleRepo.SetActive(workspaceID, id, active)
	if err != nil {
		return nil, err
	}

	s.materialize(workspaceID, id)
	s.publishEvent(workspaceID, websocket.RuleUpdated(updated))
	return updated, nil
}

// DeleteRule removes a rule together with every transaction row it
// spawned. Paid occurrences were decoupled when they were posted and
// survive. Rows go first: a half-finished delete leaves an intact rule
// whose rows the next sweep rebuilds, never orphan rows. The rule itself
// is soft-deleted so past occurrences stay auditable.
func (s *RuleService) DeleteRule(workspaceID int32, id int32) error {
	if _, err := s.ruleRepo.GetByID(workspaceID, id); err != nil {
		return err
	}

	removed, err := s.ledgerService.DeleteTransactionChain(workspaceID, id)
	if err != nil {
		return err
	}

	if err := s.ruleRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}

	s.publishEvent(workspaceID, websocket.RuleDeleted(map[string]interface{}{
		"id":          id,
		"rowsRemoved": removed,
	}))
	return nil
}

// materialize rebuilds one rule's rows, through the coalescing queue when
// one is attached
func (s *RuleService) materialize(workspaceID int32, ruleID int32) {
	if s.materializer != nil {
		s.materializer.Enqueue(workspaceID, ruleID)
		return
	}
	if _, err := s.scheduleService.RefreshRule(workspaceID, ruleID); err != nil {
		log.Error().
			Err(err).
			Int32("ruleID", ruleID).
			Msg("Failed to refresh rule rows")
	}
}
