package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtEntry mirrors a debt transaction into a ledger of its own. Debt
// rows never adjust account balances; settling is tracked here instead.
type DebtEntry struct {
	ID            int32           `json:"id"`
	WorkspaceID   int32           `json:"workspaceId"`
	TransactionID int32           `json:"transactionId"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	EntryDate     time.Time       `json:"entryDate"`
	Settled       bool            `json:"settled"`
	SettledAt     *time.Time      `json:"settledAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type DebtRepository interface {
	Create(entry *DebtEntry) (*DebtEntry, error)
	GetByWorkspace(workspaceID int32, includeSettled bool) ([]*DebtEntry, error)
	GetByTransactionID(workspaceID int32, transactionID int32) (*DebtEntry, error)
	// UpdateFromTransaction refreshes the mirrored name, amount and date
	// after the backing transaction was edited.
	UpdateFromTransaction(workspaceID int32, transactionID int32, name string, amount decimal.Decimal, entryDate time.Time) error
	SetSettled(workspaceID int32, id int32, settled bool, settledAt *time.Time) (*DebtEntry, error)
	DeleteByTransactionID(workspaceID int32, transactionID int32) error
}
