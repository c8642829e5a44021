package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability:
		return true
	}
	return false
}

type Account struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"accountType"`
	Currency    string          `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}

// BalanceDelta is a signed balance adjustment against a single account.
type BalanceDelta struct {
	AccountID int32
	Amount    decimal.Decimal
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(workspaceID int32, id int32) (*Account, error)
	GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*Account, error)
	Update(workspaceID int32, id int32, name string) (*Account, error)
	SoftDelete(workspaceID int32, id int32) error
	// ApplyDeltas adjusts balances for every delta in a single database
	// transaction. Either all deltas land or none do.
	ApplyDeltas(workspaceID int32, deltas []BalanceDelta) error
}
