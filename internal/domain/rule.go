package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringRule describes a repeating payment. StartDate anchors the
// sequence: its day-of-month is the anchor day monthly and yearly rules
// return to whenever the target month is long enough.
type RecurringRule struct {
	ID           int32           `json:"id"`
	WorkspaceID  int32           `json:"workspaceId"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	AccountID    int32           `json:"accountId"`
	ToAccountID  *int32          `json:"toAccountId,omitempty"` // transfer destination
	Type         TransactionType `json:"type"`
	Frequency    Frequency       `json:"frequency"`
	Interval     int32           `json:"interval"`
	Weekdays     []time.Weekday  `json:"weekdays,omitempty"` // weekly rules only
	StartDate    time.Time       `json:"startDate"`
	EndDate      *time.Time      `json:"endDate,omitempty"`
	SkippedDates []time.Time     `json:"skippedDates,omitempty"`
	IsActive     bool            `json:"isActive"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *time.Time      `json:"deletedAt,omitempty"`
}

// Validate checks the rule for the create/update paths. The occurrence
// engine itself is lenient and yields an empty sequence for malformed
// rules; rejecting bad input here keeps malformed rules out of storage.
func (r *RecurringRule) Validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	if len(r.Name) > MaxRuleNameLength {
		return ErrNameTooLong
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrAmountInvalid
	}
	if !r.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if r.Type == TransactionTypeTransfer {
		if r.ToAccountID == nil || *r.ToAccountID == r.AccountID {
			return ErrInvalidTransfer
		}
	}
	if !r.Frequency.Valid() {
		return ErrInvalidRecurrenceRule
	}
	if r.Interval < 1 {
		return ErrInvalidRecurrenceRule
	}
	if r.Weekdays != nil {
		if r.Frequency != FrequencyWeekly || len(r.Weekdays) == 0 {
			return ErrInvalidRecurrenceRule
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return ErrInvalidRecurrenceRule
			}
		}
	}
	if r.StartDate.IsZero() {
		return ErrInvalidRecurrenceRule
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ErrInvalidRecurrenceRule
	}
	return nil
}

// IsSkipped reports whether the calendar date of d was excluded from the
// rule. Skips are terminal: regeneration never resurrects a skipped date.
func (r *RecurringRule) IsSkipped(d time.Time) bool {
	y, m, day := d.Date()
	for _, s := range r.SkippedDates {
		sy, sm, sday := s.Date()
		if y == sy && m == sm && day == sday {
			return true
		}
	}
	return false
}

// WeekdayAllowed reports whether d falls on one of the rule's weekdays.
// A rule without a weekday set allows every day.
func (r *RecurringRule) WeekdayAllowed(d time.Time) bool {
	if len(r.Weekdays) == 0 {
		return true
	}
	for _, wd := range r.Weekdays {
		if d.Weekday() == wd {
			return true
		}
	}
	return false
}

type RuleRepository interface {
	Create(rule *RecurringRule) (*RecurringRule, error)
	GetByID(workspaceID int32, id int32) (*RecurringRule, error)
	ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*RecurringRule, error)
	// ListAllActive returns active, non-deleted rules across every
	// workspace. Used by the background sweep.
	ListAllActive() ([]*RecurringRule, error)
	Update(rule *RecurringRule) (*RecurringRule, error)
	SetActive(workspaceID int32, id int32, active bool) (*RecurringRule, error)
	SetEndDate(workspaceID int32, id int32, endDate *time.Time) (*RecurringRule, error)
	// AddSkippedDate records date in the rule's skip list. Idempotent.
	AddSkippedDate(workspaceID int32, id int32, date time.Time) error
	SoftDelete(workspaceID int32, id int32) error
}
