package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kassa-app/kassa-backend/internal/domain"
)

const accountColumns = `id, workspace_id, name, account_type, currency, balance, created_at, updated_at, deleted_at`

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (workspace_id, name, account_type, currency, balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		account.WorkspaceID, account.Name, string(account.AccountType), account.Currency, balance)

	return scanAccount(row)
}

// GetByID retrieves an account by its ID within a workspace
func (r *AccountRepository) GetByID(workspaceID int32, id int32) (*domain.Account, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllByWorkspace retrieves all accounts for a workspace
func (r *AccountRepository) GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	ctx := context.Background()

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY name ASC`
	if includeArchived {
		query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE workspace_id = $1
		ORDER BY name ASC`
	}

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

// Update updates an account's name
func (r *AccountRepository) Update(workspaceID int32, id int32, name string) (*domain.Account, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+accountColumns,
		workspaceID, id, name)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// SoftDelete marks an account as deleted (sets deleted_at timestamp)
func (r *AccountRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ApplyDeltas adjusts account balances inside a single database transaction.
// A delta against a missing or archived account rolls the whole set back.
func (r *AccountRepository) ApplyDeltas(workspaceID int32, deltas []domain.BalanceDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, delta := range deltas {
		amount, err := decimalToPgNumeric(delta.Amount)
		if err != nil {
			return fmt.Errorf("invalid delta amount: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET balance = balance + $3, updated_at = now()
			WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
			workspaceID, delta.AccountID, amount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAccountNotFound
		}
	}

	return tx.Commit(ctx)
}

// Helper functions

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account     domain.Account
		accountType string
		balance     pgtype.Numeric
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		deletedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.WorkspaceID,
		&account.Name,
		&accountType,
		&account.Currency,
		&balance,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	account.AccountType = domain.AccountType(accountType)
	account.Balance = pgNumericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}
	return &account, nil
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
