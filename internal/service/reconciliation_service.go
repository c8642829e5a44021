package service

import (
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/recurrence"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/shopspring/decimal"
)

const matchWindowDays = 30

// matchEpsilon absorbs rounding differences between a rule's amount and
// the amount actually posted
var matchEpsilon = decimal.NewFromFloat(0.01)

// ReconciliationService classifies every expected occurrence of a
// workspace's rules against the posted transaction log: Paid when a
// matching posted transaction exists, otherwise Missed, DueToday or
// Future by date. The report is derived, never stored.
type ReconciliationService struct {
	ruleRepo        domain.RuleRepository
	transactionRepo domain.TransactionRepository
	horizonMonths   int
	now             func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	ruleRepo domain.RuleRepository,
	transactionRepo domain.TransactionRepository,
	horizonMonths int,
) *ReconciliationService {
	if horizonMonths <= 0 {
		horizonMonths = DefaultScheduleHorizonMonths
	}
	return &ReconciliationService{
		ruleRepo:        ruleRepo,
		transactionRepo: transactionRepo,
		horizonMonths:   horizonMonths,
		now:             time.Now,
	}
}

// Reconcile builds the full report for one workspace. Rules that have
// not started yet are left out. Paused rules are reconciled up to today
// only; they report no Future occurrences. A posted transaction is
// claimed by at most one occurrence across the whole report.
func (s *ReconciliationService) Reconcile(workspaceID int32) (*domain.ReconciliationReport, error) {
	rules, err := s.ruleRepo.ListByWorkspace(workspaceID, nil)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	today := util.DateOnly(generatedAt)

	report := &domain.ReconciliationReport{GeneratedAt: generatedAt}

	var started []*domain.RecurringRule
	for _, rule := range rules {
		if rule.StartDate.After(today) {
			continue
		}
		started = append(started, rule)
	}
	if len(started) == 0 {
		return report, nil
	}

	posted, err := s.postedCandidates(workspaceID, started, today)
	if err != nil {
		return nil, err
	}

	consumed := make(map[int32]bool)
	for _, rule := range started {
		rec := s.reconcileRule(rule, posted, consumed, today)
		report.Rules = append(report.Rules, *rec)
		report.TotalMissed += rec.MissedCount
		report.TotalDue += rec.DueCount
	}
	return report, nil
}

// ReconcileRule builds the report slice for a single rule. Matching runs
// against the full posted log of the workspace without cross-rule
// exclusion; the workspace-wide Reconcile is authoritative when two rules
// compete for the same posted transaction.
func (s *ReconciliationService) ReconcileRule(workspaceID int32, ruleID int32) (*domain.RuleReconciliation, error) {
	rule, err := s.ruleRepo.GetByID(workspaceID, ruleID)
	if err != nil {
		return nil, err
	}

	today := util.DateOnly(s.now().UTC())
	if rule.StartDate.After(today) {
		return &domain.RuleReconciliation{RuleID: rule.ID, RuleName: rule.Name}, nil
	}

	posted, err := s.postedCandidates(workspaceID, []*domain.RecurringRule{rule}, today)
	if err != nil {
		return nil, err
	}
	return s.reconcileRule(rule, posted, make(map[int32]bool), today), nil
}

// postedCandidates loads the decoupled transactions that could possibly
// match an occurrence of the given rules: dated no earlier than the
// match window before the earliest start, and never in the future.
func (s *ReconciliationService) postedCandidates(workspaceID int32, rules []*domain.RecurringRule, today time.Time) ([]*domain.Transaction, error) {
	earliest := util.DateOnly(rules[0].StartDate)
	for _, rule := range rules[1:] {
		start := util.DateOnly(rule.StartDate)
		if start.Before(earliest) {
			earliest = start
		}
	}
	return s.transactionRepo.ListPosted(workspaceID, earliest.AddDate(0, 0, -matchWindowDays), today)
}

func (s *ReconciliationService) reconcileRule(rule *domain.RecurringRule, posted []*domain.Transaction, consumed map[int32]bool, today time.Time) *domain.RuleReconciliation {
	end := today.AddDate(0, s.horizonMonths, 0)
	if !rule.IsActive {
		end = today
	}
	dates := recurrence.Occurrences(rule, rule.StartDate, end)

	rec := &domain.RuleReconciliation{RuleID: rule.ID, RuleName: rule.Name}
	for _, d := range dates {
		occ := domain.Occurrence{
			RuleID:    rule.ID,
			RuleName:  rule.Name,
			Date:      d,
			Amount:    rule.Amount,
			AccountID: rule.AccountID,
			Type:      rule.Type,
		}

		// An early payment within the window marks a Future occurrence
		// Paid, so a found match always wins over the date buckets
		if match := nearestMatch(rule, d, posted, consumed, today); match != nil {
			consumed[match.ID] = true
			id := match.ID
			occ.Status = domain.OccurrenceStatusPaid
			occ.TransactionID = &id
			rec.PaidCount++
		} else {
			switch {
			case d.Before(today):
				occ.Status = domain.OccurrenceStatusMissed
				rec.MissedCount++
			case util.SameDate(d, today):
				occ.Status = domain.OccurrenceStatusDueToday
				rec.DueCount++
			default:
				occ.Status = domain.OccurrenceStatusFuture
				rec.FutureCount++
			}
		}
		rec.Occurrences = append(rec.Occurrences, occ)
	}
	return rec
}

// nearestMatch returns the unclaimed posted transaction closest in date
// to d that looks like a payment of the rule: no source link, same name,
// same account, same type, amount within epsilon, dated within the match
// window and not after today. One posted row satisfies at most one
// occurrence; without that, a single payment would mark a whole run of
// adjacent occurrences Paid.
func nearestMatch(rule *domain.RecurringRule, d time.Time, posted []*domain.Transaction, consumed map[int32]bool, today time.Time) *domain.Transaction {
	var best *domain.Transaction
	bestGap := 0
	for _, tx := range posted {
		if consumed[tx.ID] {
			continue
		}
		if tx.Name != rule.Name || tx.AccountID != rule.AccountID || tx.Type != rule.Type {
			continue
		}
		if tx.Amount.Sub(rule.Amount).Abs().GreaterThan(matchEpsilon) {
			continue
		}
		txDate := util.DateOnly(tx.TransactionDate)
		if txDate.After(today) {
			continue
		}
		gap := daysApart(txDate, d)
		if gap > matchWindowDays {
			continue
		}
		if best == nil || gap < bestGap {
			best = tx
			bestGap = gap
		}
	}
	return best
}

// daysApart returns the absolute whole-day distance between two
// normalized dates
func daysApart(a, b time.Time) int {
	gap := int(b.Sub(a).Hours() / 24)
	if gap < 0 {
		return -gap
	}
	return gap
}
