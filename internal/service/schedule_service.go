package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/recurrence"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// DefaultScheduleHorizonMonths is the forward window over which upcoming
// occurrences are materialized as scheduled rows.
const DefaultScheduleHorizonMonths = 12

// ScheduleService materializes upcoming rule occurrences as scheduled
// transaction rows and keeps the materialized set consistent with the
// rules. A sync against an unchanged rule set performs zero writes.
type ScheduleService struct {
	ruleRepo        domain.RuleRepository
	transactionRepo domain.TransactionRepository
	locks           *EntityLocks
	horizonMonths   int
	eventPublisher  websocket.EventPublisher
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(
	ruleRepo domain.RuleRepository,
	transactionRepo domain.TransactionRepository,
	locks *EntityLocks,
	horizonMonths int,
) *ScheduleService {
	if horizonMonths <= 0 {
		horizonMonths = DefaultScheduleHorizonMonths
	}
	return &ScheduleService{
		ruleRepo:        ruleRepo,
		transactionRepo: transactionRepo,
		locks:           locks,
		horizonMonths:   horizonMonths,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ScheduleService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *ScheduleService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// SyncResult reports the writes performed by one materialization pass
type SyncResult struct {
	RulesProcessed int
	Created        int
	Deleted        int
	Errors         []error
}

// SyncAllActive materializes every active rule across all workspaces. A
// failing rule is logged and skipped; it never aborts the rest of the
// sweep.
func (s *ScheduleService) SyncAllActive() (*SyncResult, error) {
	start := time.Now()
	log.Info().Msg("Starting schedule sync for all active rules")

	rules, err := s.ruleRepo.ListAllActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	result := &SyncResult{}
	for _, rule := range rules {
		created, deleted, err := s.syncRule(rule)
		if err != nil {
			log.Error().
				Err(err).
				Int32("ruleID", rule.ID).
				Int32("workspaceID", rule.WorkspaceID).
				Str("name", rule.Name).
				Msg("Failed to materialize rule")
			result.Errors = append(result.Errors, fmt.Errorf("rule %d: %w", rule.ID, err))
			continue
		}
		result.RulesProcessed++
		result.Created += created
		result.Deleted += deleted
	}

	log.Info().
		Int("rulesProcessed", result.RulesProcessed).
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("errorsCount", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Schedule sync completed")

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("sync completed with %d errors out of %d rules", len(result.Errors), len(rules))
	}
	return result, nil
}

// SyncWorkspace materializes every active rule of one workspace
func (s *ScheduleService) SyncWorkspace(workspaceID int32) (*SyncResult, error) {
	activeOnly := true
	rules, err := s.ruleRepo.ListByWorkspace(workspaceID, &activeOnly)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, rule := range rules {
		created, deleted, err := s.syncRule(rule)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("rule %d: %w", rule.ID, err))
			continue
		}
		result.RulesProcessed++
		result.Created += created
		result.Deleted += deleted
	}

	if result.Created > 0 || result.Deleted > 0 {
		s.publishEvent(workspaceID, websocket.ScheduleSynced(map[string]interface{}{
			"rulesProcessed": result.RulesProcessed,
			"created":        result.Created,
			"deleted":        result.Deleted,
		}))
	}
	return result, nil
}

// SyncRule materializes a single rule immediately
func (s *ScheduleService) SyncRule(workspaceID int32, ruleID int32) (*SyncResult, error) {
	rule, err := s.ruleRepo.GetByID(workspaceID, ruleID)
	if err != nil {
		return nil, err
	}

	created, deleted, err := s.syncRule(rule)
	if err != nil {
		return nil, err
	}

	if created > 0 || deleted > 0 {
		s.publishEvent(workspaceID, websocket.ScheduleSynced(map[string]interface{}{
			"ruleId":  ruleID,
			"created": created,
			"deleted": deleted,
		}))
	}
	return &SyncResult{RulesProcessed: 1, Created: created, Deleted: deleted}, nil
}

// syncRule diffs the wanted occurrence set against the materialized rows
// under the rule's lock
func (s *ScheduleService) syncRule(rule *domain.RecurringRule) (created, deleted int, err error) {
	s.locks.Rules.Lock(rule.ID)
	defer s.locks.Rules.Unlock(rule.ID)
	return s.syncRuleLocked(rule)
}

func (s *ScheduleService) syncRuleLocked(rule *domain.RecurringRule) (created, deleted int, err error) {
	today := util.DateOnly(time.Now().UTC())

	// Rows of an inactive or deleted rule must not linger in the future
	if !rule.IsActive || rule.DeletedAt != nil {
		deleted, err = s.deleteRowsFrom(rule.WorkspaceID, rule.ID, today)
		return 0, deleted, err
	}

	horizon := today.AddDate(0, s.horizonMonths, 0)

	// Forward-only window: past occurrences belong to reconciliation
	rangeStart := today
	if rule.StartDate.After(today) {
		rangeStart = util.DateOnly(rule.StartDate)
	}

	wanted := recurrence.Occurrences(rule, rangeStart, horizon)
	wantedSet := make(map[string]time.Time, len(wanted))
	for _, d := range wanted {
		wantedSet[d.Format("2006-01-02")] = d
	}

	existing, err := s.transactionRepo.GetBySource(rule.WorkspaceID, rule.ID)
	if err != nil {
		return 0, 0, err
	}
	existingSet := make(map[string]*domain.Transaction, len(existing))
	for _, tx := range existing {
		if tx.OccurrenceDate == nil {
			continue
		}
		existingSet[tx.OccurrenceDate.Format("2006-01-02")] = tx
	}

	// Insert occurrences that have no row yet
	var missing []*domain.Transaction
	for key, d := range wantedSet {
		if _, ok := existingSet[key]; ok {
			continue
		}
		missing = append(missing, scheduledRow(rule, d))
	}
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].OccurrenceDate.Before(*missing[j].OccurrenceDate)
	})
	if len(missing) > 0 {
		if err := s.transactionRepo.CreateBatch(missing); err != nil {
			return created, deleted, err
		}
		created = len(missing)
	}

	// Remove rows whose date was skipped or fell beyond a shortened end
	// date. Other stale rows are left alone here: rule edits refresh their
	// own rows, and past rows are reconciliation's concern.
	var stale []int32
	for key, tx := range existingSet {
		if _, ok := wantedSet[key]; ok {
			continue
		}
		occurrence := util.DateOnly(*tx.OccurrenceDate)
		if occurrence.Before(rangeStart) {
			continue
		}
		if rule.IsSkipped(occurrence) || afterEndDate(rule, occurrence) {
			stale = append(stale, tx.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.transactionRepo.DeleteBatch(rule.WorkspaceID, stale); err != nil {
			return created, deleted, err
		}
		deleted = len(stale)
	}

	return created, deleted, nil
}

// RefreshRule rebuilds the materialized rows of one rule from scratch:
// every not-yet-due row is removed and the current occurrence set is
// materialized again. Used after edits that change the shape of the
// sequence (frequency, interval, weekdays, dates).
func (s *ScheduleService) RefreshRule(workspaceID int32, ruleID int32) (*SyncResult, error) {
	rule, err := s.ruleRepo.GetByID(workspaceID, ruleID)
	if err != nil {
		return nil, err
	}

	s.locks.Rules.Lock(ruleID)
	defer s.locks.Rules.Unlock(ruleID)

	today := util.DateOnly(time.Now().UTC())
	deleted, err := s.deleteRowsFrom(workspaceID, ruleID, today)
	if err != nil {
		return nil, err
	}

	created, cleaned, err := s.syncRuleLocked(rule)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{RulesProcessed: 1, Created: created, Deleted: deleted + cleaned}
	if result.Created > 0 || result.Deleted > 0 {
		s.publishEvent(workspaceID, websocket.ScheduleSynced(map[string]interface{}{
			"ruleId":  ruleID,
			"created": result.Created,
			"deleted": result.Deleted,
		}))
	}
	return result, nil
}

// DeleteOccurrence retires a single occurrence. The date is recorded in
// the rule's skip list first so regeneration can never resurrect it, then
// the materialized row is removed if one exists. Missed occurrences have
// no row; for them the recorded skip is the whole deletion.
func (s *ScheduleService) DeleteOccurrence(workspaceID int32, ruleID int32, d time.Time) error {
	s.locks.Rules.Lock(ruleID)
	defer s.locks.Rules.Unlock(ruleID)

	if _, err := s.ruleRepo.GetByID(workspaceID, ruleID); err != nil {
		return err
	}
	occurrence := util.DateOnly(d)

	if err := s.ruleRepo.AddSkippedDate(workspaceID, ruleID, occurrence); err != nil {
		return err
	}

	row, err := s.transactionRepo.GetBySourceAndDate(workspaceID, ruleID, occurrence)
	switch {
	case err == nil:
		if err := s.transactionRepo.Delete(workspaceID, row.ID); err != nil {
			return err
		}
	case !errors.Is(err, domain.ErrTransactionNotFound):
		return err
	}

	s.publishEvent(workspaceID, websocket.OccurrenceSkipped(map[string]interface{}{
		"ruleId": ruleID,
		"date":   occurrence.Format("2006-01-02"),
	}))
	return nil
}

// DeleteAllFuture removes every materialized row of the rule with an
// occurrence date on or after fromDate and shortens the rule so the dates
// can not regenerate: the end date moves to the day before fromDate, or
// the rule is deactivated entirely when fromDate does not lie after the
// start date. The rule is shortened before rows are removed; rows beyond
// the new end date are cleaned up by the next sweep if this is
// interrupted.
func (s *ScheduleService) DeleteAllFuture(workspaceID int32, ruleID int32, fromDate time.Time) (int, error) {
	s.locks.Rules.Lock(ruleID)
	defer s.locks.Rules.Unlock(ruleID)

	rule, err := s.ruleRepo.GetByID(workspaceID, ruleID)
	if err != nil {
		return 0, err
	}
	from := util.DateOnly(fromDate)

	if from.After(util.DateOnly(rule.StartDate)) {
		endDate := from.AddDate(0, 0, -1)
		if _, err := s.ruleRepo.SetEndDate(workspaceID, ruleID, &endDate); err != nil {
			return 0, err
		}
	} else {
		if _, err := s.ruleRepo.SetActive(workspaceID, ruleID, false); err != nil {
			return 0, err
		}
	}

	deleted, err := s.deleteRowsFrom(workspaceID, ruleID, from)
	if err != nil {
		return deleted, err
	}

	s.publishEvent(workspaceID, websocket.RuleUpdated(map[string]interface{}{
		"ruleId":      ruleID,
		"rowsDeleted": deleted,
	}))
	return deleted, nil
}

// UpcomingOccurrences returns the materialized scheduled rows with due
// dates inside [from, to]
func (s *ScheduleService) UpcomingOccurrences(workspaceID int32, from, to time.Time) ([]*domain.Transaction, error) {
	return s.transactionRepo.ListScheduled(workspaceID, util.DateOnly(from), util.DateOnly(to))
}

// deleteRowsFrom removes materialized rows of one rule with occurrence
// dates on or after from. Returns the number of rows removed.
func (s *ScheduleService) deleteRowsFrom(workspaceID int32, ruleID int32, from time.Time) (int, error) {
	rows, err := s.transactionRepo.GetBySource(workspaceID, ruleID)
	if err != nil {
		return 0, err
	}

	var ids []int32
	for _, tx := range rows {
		if tx.OccurrenceDate != nil && !util.DateOnly(*tx.OccurrenceDate).Before(from) {
			ids = append(ids, tx.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.transactionRepo.DeleteBatch(workspaceID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// scheduledRow builds the unpaid transaction row for one occurrence
func scheduledRow(rule *domain.RecurringRule, occurrence time.Time) *domain.Transaction {
	ruleID := rule.ID
	due := occurrence
	return &domain.Transaction{
		WorkspaceID:     rule.WorkspaceID,
		AccountID:       rule.AccountID,
		ToAccountID:     rule.ToAccountID,
		Name:            rule.Name,
		Amount:          rule.Amount,
		Type:            rule.Type,
		TransactionDate: occurrence,
		SourceID:        &ruleID,
		OccurrenceDate:  &due,
		Notes:           rule.Notes,
	}
}

// afterEndDate reports whether d falls after the rule's end date
func afterEndDate(rule *domain.RecurringRule, d time.Time) bool {
	return rule.EndDate != nil && d.After(util.DateOnly(*rule.EndDate))
}
