package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kassa-app/kassa-backend/internal/domain"
)

const debtColumns = `id, workspace_id, transaction_id, name, amount, entry_date, settled, settled_at, created_at, updated_at`

// DebtRepository implements domain.DebtRepository using PostgreSQL
type DebtRepository struct {
	pool *pgxpool.Pool
}

// NewDebtRepository creates a new DebtRepository
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{pool: pool}
}

// Create creates a new debt entry
func (r *DebtRepository) Create(entry *domain.DebtEntry) (*domain.DebtEntry, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO debt_entries (workspace_id, transaction_id, name, amount, entry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+debtColumns,
		entry.WorkspaceID,
		entry.TransactionID,
		entry.Name,
		amount,
		pgtype.Date{Time: entry.EntryDate, Valid: true},
	)

	created, err := scanDebtEntry(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByWorkspace retrieves debt entries for a workspace, open ones only
// unless includeSettled is set
func (r *DebtRepository) GetByWorkspace(workspaceID int32, includeSettled bool) ([]*domain.DebtEntry, error) {
	ctx := context.Background()

	query := `
		SELECT ` + debtColumns + `
		FROM debt_entries
		WHERE workspace_id = $1 AND NOT settled
		ORDER BY entry_date DESC, id DESC`
	if includeSettled {
		query = `
		SELECT ` + debtColumns + `
		FROM debt_entries
		WHERE workspace_id = $1
		ORDER BY entry_date DESC, id DESC`
	}

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.DebtEntry
	for rows.Next() {
		entry, err := scanDebtEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// GetByTransactionID retrieves the debt entry mirroring a transaction
func (r *DebtRepository) GetByTransactionID(workspaceID int32, transactionID int32) (*domain.DebtEntry, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+debtColumns+`
		FROM debt_entries
		WHERE workspace_id = $1 AND transaction_id = $2`,
		workspaceID, transactionID)

	entry, err := scanDebtEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDebtEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// UpdateFromTransaction refreshes the mirrored name, amount and date after
// the backing transaction was edited
func (r *DebtRepository) UpdateFromTransaction(workspaceID int32, transactionID int32, name string, amount decimal.Decimal, entryDate time.Time) error {
	ctx := context.Background()

	pgAmount, err := decimalToPgNumeric(amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE debt_entries
		SET name = $3, amount = $4, entry_date = $5, updated_at = now()
		WHERE workspace_id = $1 AND transaction_id = $2`,
		workspaceID, transactionID, name, pgAmount, pgtype.Date{Time: entryDate, Valid: true})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDebtEntryNotFound
	}
	return nil
}

// SetSettled marks a debt entry settled or reopens it
func (r *DebtRepository) SetSettled(workspaceID int32, id int32, settled bool, settledAt *time.Time) (*domain.DebtEntry, error) {
	ctx := context.Background()

	var pgSettledAt pgtype.Timestamptz
	if settledAt != nil {
		pgSettledAt = pgtype.Timestamptz{Time: *settledAt, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE debt_entries
		SET settled = $3, settled_at = $4, updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+debtColumns,
		workspaceID, id, settled, pgSettledAt)

	entry, err := scanDebtEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDebtEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// DeleteByTransactionID removes the debt entry mirroring a transaction
func (r *DebtRepository) DeleteByTransactionID(workspaceID int32, transactionID int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM debt_entries
		WHERE workspace_id = $1 AND transaction_id = $2`,
		workspaceID, transactionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDebtEntryNotFound
	}
	return nil
}

// Helper functions

func scanDebtEntry(row pgx.Row) (*domain.DebtEntry, error) {
	var (
		entry     domain.DebtEntry
		amount    pgtype.Numeric
		entryDate pgtype.Date
		settledAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.WorkspaceID,
		&entry.TransactionID,
		&entry.Name,
		&amount,
		&entryDate,
		&entry.Settled,
		&settledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = pgNumericToDecimal(amount)
	entry.EntryDate = entryDate.Time
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time
	if settledAt.Valid {
		entry.SettledAt = &settledAt.Time
	}
	return &entry, nil
}
