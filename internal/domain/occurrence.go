package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OccurrenceStatus classifies one expected occurrence of a recurring rule
// against the transaction log. Paid and Skipped are terminal; the other
// three shift as the calendar advances.
type OccurrenceStatus string

const (
	OccurrenceStatusFuture   OccurrenceStatus = "future"
	OccurrenceStatusDueToday OccurrenceStatus = "due_today"
	OccurrenceStatusMissed   OccurrenceStatus = "missed"
	OccurrenceStatusPaid     OccurrenceStatus = "paid"
	OccurrenceStatusSkipped  OccurrenceStatus = "skipped"
)

// Occurrence is a single expected payment date of a rule together with
// its classification. TransactionID points at the matched paid row when
// Status is Paid.
type Occurrence struct {
	RuleID        int32            `json:"ruleId"`
	RuleName      string           `json:"ruleName"`
	Date          time.Time        `json:"date"`
	Amount        decimal.Decimal  `json:"amount"`
	AccountID     int32            `json:"accountId"`
	Type          TransactionType  `json:"type"`
	Status        OccurrenceStatus `json:"status"`
	TransactionID *int32           `json:"transactionId,omitempty"`
}

// RuleReconciliation is the per-rule slice of the reconciliation report.
type RuleReconciliation struct {
	RuleID      int32        `json:"ruleId"`
	RuleName    string       `json:"ruleName"`
	Occurrences []Occurrence `json:"occurrences"`
	PaidCount   int32        `json:"paidCount"`
	MissedCount int32        `json:"missedCount"`
	DueCount    int32        `json:"dueCount"`
	FutureCount int32        `json:"futureCount"`
}

type ReconciliationReport struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Rules       []RuleReconciliation `json:"rules"`
	TotalMissed int32                `json:"totalMissed"`
	TotalDue    int32                `json:"totalDue"`
}
