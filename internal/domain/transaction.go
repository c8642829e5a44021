package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeDebt     TransactionType = "debt"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer, TransactionTypeDebt:
		return true
	}
	return false
}

type Transaction struct {
	ID              int32           `json:"id"`
	WorkspaceID     int32           `json:"workspaceId"`
	AccountID       int32           `json:"accountId"`
	ToAccountID     *int32          `json:"toAccountId,omitempty"` // transfer destination
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	TransactionDate time.Time       `json:"transactionDate"`
	SourceID        *int32          `json:"sourceId,omitempty"`       // rule that materialized this row
	OccurrenceDate  *time.Time      `json:"occurrenceDate,omitempty"` // due date for scheduled rows
	Notes           *string         `json:"notes,omitempty"`
	ReceiptPath     *string         `json:"receiptPath,omitempty"` // object storage base path
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Scheduled reports whether the transaction is an unpaid row materialized
// from a recurring rule. Scheduled rows carry no balance effect; paying an
// occurrence replaces the row with a decoupled transaction whose SourceID
// is nil.
func (t *Transaction) Scheduled() bool {
	return t.SourceID != nil
}

type TransactionFilters struct {
	AccountID *int32
	StartDate *time.Time
	EndDate   *time.Time
	Type      *TransactionType
	// ScheduledOnly limits results to rows materialized from rules;
	// PostedOnly limits to decoupled rows. At most one may be set.
	ScheduledOnly bool
	PostedOnly    bool
	Page          int32
	PageSize      int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	CreateBatch(transactions []*Transaction) error
	GetByID(workspaceID int32, id int32) (*Transaction, error)
	GetByWorkspace(workspaceID int32, filters *TransactionFilters) (*PaginatedTransactions, error)
	// GetBySource returns every scheduled row materialized from the given
	// rule, ordered by occurrence date ascending.
	GetBySource(workspaceID int32, sourceID int32) ([]*Transaction, error)
	// GetBySourceAndDate returns the scheduled row for one occurrence of
	// a rule, or ErrTransactionNotFound when none was materialized.
	GetBySourceAndDate(workspaceID int32, sourceID int32, occurrenceDate time.Time) (*Transaction, error)
	// ListScheduled returns scheduled rows with occurrence dates inside
	// [from, to], across all rules of the workspace.
	ListScheduled(workspaceID int32, from, to time.Time) ([]*Transaction, error)
	// ListPosted returns decoupled (sourceless) rows with transaction
	// dates inside [from, to].
	ListPosted(workspaceID int32, from, to time.Time) ([]*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	// SetReceiptPath points the row at its receipt objects, or clears
	// the link when path is nil.
	SetReceiptPath(workspaceID int32, id int32, path *string) error
	Delete(workspaceID int32, id int32) error
	DeleteBatch(workspaceID int32, ids []int32) error
}
