package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-app/kassa-backend/internal/domain"
)

const transactionColumns = `id, workspace_id, account_id, to_account_id, name, amount, type, transaction_date, source_id, occurrence_date, notes, receipt_path, created_at, updated_at`

const insertTransactionSQL = `
	INSERT INTO transactions (workspace_id, account_id, to_account_id, name, amount, type, transaction_date, source_id, occurrence_date, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	args, err := transactionInsertArgs(transaction)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, insertTransactionSQL+`
	RETURNING `+transactionColumns, args...)

	created, err := scanTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// CreateBatch creates several transactions inside one database transaction.
// The scheduler uses this to land a rule's rows atomically.
func (r *TransactionRepository) CreateBatch(transactions []*domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, transaction := range transactions {
		args, err := transactionInsertArgs(transaction)
		if err != nil {
			return err
		}
		batch.Queue(insertTransactionSQL, args...)
	}

	results := tx.SendBatch(ctx, batch)
	for range transactions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a transaction by its ID within a workspace
func (r *TransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)

	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByWorkspace retrieves transactions for a workspace with optional filters and pagination
func (r *TransactionRepository) GetByWorkspace(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	// Set default pagination values
	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)

	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}

	offset := (page - 1) * pageSize

	conditions := []string{"workspace_id = $1"}
	args := []any{workspaceID}

	appendCondition := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filters != nil {
		if filters.AccountID != nil {
			appendCondition("account_id = $%d", *filters.AccountID)
		}
		if filters.StartDate != nil {
			appendCondition("transaction_date >= $%d", pgtype.Date{Time: *filters.StartDate, Valid: true})
		}
		if filters.EndDate != nil {
			appendCondition("transaction_date <= $%d", pgtype.Date{Time: *filters.EndDate, Valid: true})
		}
		if filters.Type != nil {
			appendCondition("type = $%d", string(*filters.Type))
		}
		if filters.ScheduledOnly {
			conditions = append(conditions, "source_id IS NOT NULL")
		}
		if filters.PostedOnly {
			conditions = append(conditions, "source_id IS NULL")
		}
	}

	where := strings.Join(conditions, " AND ")

	// Get total count
	var totalItems int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE `+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	// Get the page
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY transaction_date DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	// Calculate total pages
	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       result,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetBySource retrieves every scheduled row materialized from a rule
func (r *TransactionRepository) GetBySource(workspaceID int32, sourceID int32) ([]*domain.Transaction, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE workspace_id = $1 AND source_id = $2
		ORDER BY occurrence_date ASC, id ASC`,
		workspaceID, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetBySourceAndDate retrieves the scheduled row for one occurrence of a rule
func (r *TransactionRepository) GetBySourceAndDate(workspaceID int32, sourceID int32, occurrenceDate time.Time) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE workspace_id = $1 AND source_id = $2 AND occurrence_date = $3`,
		workspaceID, sourceID, pgtype.Date{Time: occurrenceDate, Valid: true})

	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// ListScheduled retrieves scheduled rows with occurrence dates inside [from, to]
func (r *TransactionRepository) ListScheduled(workspaceID int32, from, to time.Time) ([]*domain.Transaction, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE workspace_id = $1
		  AND source_id IS NOT NULL
		  AND occurrence_date BETWEEN $2 AND $3
		ORDER BY occurrence_date ASC, id ASC`,
		workspaceID, pgtype.Date{Time: from, Valid: true}, pgtype.Date{Time: to, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPosted retrieves decoupled rows with transaction dates inside [from, to]
func (r *TransactionRepository) ListPosted(workspaceID int32, from, to time.Time) ([]*domain.Transaction, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE workspace_id = $1
		  AND source_id IS NULL
		  AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date ASC, id ASC`,
		workspaceID, pgtype.Date{Time: from, Valid: true}, pgtype.Date{Time: to, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Update updates a transaction's details
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET account_id = $3,
		    to_account_id = $4,
		    name = $5,
		    amount = $6,
		    type = $7,
		    transaction_date = $8,
		    source_id = $9,
		    occurrence_date = $10,
		    notes = $11,
		    receipt_path = $12,
		    updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		transaction.WorkspaceID,
		transaction.ID,
		transaction.AccountID,
		int4PtrToPgInt4(transaction.ToAccountID),
		transaction.Name,
		amount,
		string(transaction.Type),
		pgtype.Date{Time: transaction.TransactionDate, Valid: true},
		int4PtrToPgInt4(transaction.SourceID),
		datePtrToPgDate(transaction.OccurrenceDate),
		stringPtrToPgText(transaction.Notes),
		stringPtrToPgText(transaction.ReceiptPath),
	)

	updated, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SetReceiptPath points the row at its receipt objects, or clears the link
func (r *TransactionRepository) SetReceiptPath(workspaceID int32, id int32, path *string) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET receipt_path = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id, stringPtrToPgText(path))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM transactions
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// DeleteBatch removes several transactions at once. Rows already gone are
// skipped, so a concurrent delete does not fail the batch.
func (r *TransactionRepository) DeleteBatch(workspaceID int32, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		DELETE FROM transactions
		WHERE workspace_id = $1 AND id = ANY($2)`,
		workspaceID, ids)
	return err
}

// Helper functions

func transactionInsertArgs(transaction *domain.Transaction) ([]any, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	return []any{
		transaction.WorkspaceID,
		transaction.AccountID,
		int4PtrToPgInt4(transaction.ToAccountID),
		transaction.Name,
		amount,
		string(transaction.Type),
		pgtype.Date{Time: transaction.TransactionDate, Valid: true},
		int4PtrToPgInt4(transaction.SourceID),
		datePtrToPgDate(transaction.OccurrenceDate),
		stringPtrToPgText(transaction.Notes),
	}, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		transaction     domain.Transaction
		toAccountID     pgtype.Int4
		amount          pgtype.Numeric
		txType          string
		transactionDate pgtype.Date
		sourceID        pgtype.Int4
		occurrenceDate  pgtype.Date
		notes           pgtype.Text
		receiptPath     pgtype.Text
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&transaction.ID,
		&transaction.WorkspaceID,
		&transaction.AccountID,
		&toAccountID,
		&transaction.Name,
		&amount,
		&txType,
		&transactionDate,
		&sourceID,
		&occurrenceDate,
		&notes,
		&receiptPath,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	transaction.ToAccountID = pgInt4ToInt32Ptr(toAccountID)
	transaction.Amount = pgNumericToDecimal(amount)
	transaction.Type = domain.TransactionType(txType)
	transaction.TransactionDate = transactionDate.Time
	transaction.SourceID = pgInt4ToInt32Ptr(sourceID)
	transaction.OccurrenceDate = pgDateToTimePtr(occurrenceDate)
	transaction.Notes = pgTextToStringPtr(notes)
	transaction.ReceiptPath = pgTextToStringPtr(receiptPath)
	transaction.CreatedAt = createdAt.Time
	transaction.UpdatedAt = updatedAt.Time
	return &transaction, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, transaction)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func int4PtrToPgInt4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}

func pgInt4ToInt32Ptr(v pgtype.Int4) *int32 {
	if !v.Valid {
		return nil
	}
	return &v.Int32
}

func datePtrToPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func pgDateToTimePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	return &d.Time
}
