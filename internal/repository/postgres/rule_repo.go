package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-app/kassa-backend/internal/domain"
)

// "interval" is quoted because of the Postgres type of the same name.
const ruleColumns = `id, workspace_id, name, amount, account_id, to_account_id, type, frequency, "interval", weekdays, start_date, end_date, skipped_dates, is_active, notes, created_at, updated_at, deleted_at`

// RuleRepository implements domain.RuleRepository using PostgreSQL
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new RuleRepository
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// Create creates a new recurring rule
func (r *RuleRepository) Create(rule *domain.RecurringRule) (*domain.RecurringRule, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(rule.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO recurring_rules (workspace_id, name, amount, account_id, to_account_id, type, frequency, "interval", weekdays, start_date, end_date, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+ruleColumns,
		rule.WorkspaceID,
		rule.Name,
		amount,
		rule.AccountID,
		int4PtrToPgInt4(rule.ToAccountID),
		string(rule.Type),
		string(rule.Frequency),
		rule.Interval,
		weekdaysToInt16(rule.Weekdays),
		pgtype.Date{Time: rule.StartDate, Valid: true},
		datePtrToPgDate(rule.EndDate),
		rule.IsActive,
		stringPtrToPgText(rule.Notes),
	)

	return scanRule(row)
}

// GetByID retrieves a rule by its ID within a workspace
func (r *RuleRepository) GetByID(workspaceID int32, id int32) (*domain.RecurringRule, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM recurring_rules
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	rule, err := scanRule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// ListByWorkspace retrieves rules for a workspace, optionally filtered on
// the active flag
func (r *RuleRepository) ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*domain.RecurringRule, error) {
	ctx := context.Background()

	var (
		rows pgx.Rows
		err  error
	)
	if activeOnly != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+ruleColumns+`
			FROM recurring_rules
			WHERE workspace_id = $1 AND is_active = $2 AND deleted_at IS NULL
			ORDER BY name ASC`,
			workspaceID, *activeOnly)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+ruleColumns+`
			FROM recurring_rules
			WHERE workspace_id = $1 AND deleted_at IS NULL
			ORDER BY name ASC`,
			workspaceID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

// ListAllActive retrieves active rules across every workspace for the
// background sweep
func (r *RuleRepository) ListAllActive() ([]*domain.RecurringRule, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM recurring_rules
		WHERE is_active AND deleted_at IS NULL
		ORDER BY workspace_id ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

// Update updates a rule's shape. The skip list is owned by AddSkippedDate
// and left untouched here.
func (r *RuleRepository) Update(rule *domain.RecurringRule) (*domain.RecurringRule, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(rule.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE recurring_rules
		SET name = $3,
		    amount = $4,
		    account_id = $5,
		    to_account_id = $6,
		    type = $7,
		    frequency = $8,
		    "interval" = $9,
		    weekdays = $10,
		    start_date = $11,
		    end_date = $12,
		    is_active = $13,
		    notes = $14,
		    updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+ruleColumns,
		rule.WorkspaceID,
		rule.ID,
		rule.Name,
		amount,
		rule.AccountID,
		int4PtrToPgInt4(rule.ToAccountID),
		string(rule.Type),
		string(rule.Frequency),
		rule.Interval,
		weekdaysToInt16(rule.Weekdays),
		pgtype.Date{Time: rule.StartDate, Valid: true},
		datePtrToPgDate(rule.EndDate),
		rule.IsActive,
		stringPtrToPgText(rule.Notes),
	)

	updated, err := scanRule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SetActive pauses or resumes a rule
func (r *RuleRepository) SetActive(workspaceID int32, id int32, active bool) (*domain.RecurringRule, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE recurring_rules
		SET is_active = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+ruleColumns,
		workspaceID, id, active)

	rule, err := scanRule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// SetEndDate changes or clears a rule's end date
func (r *RuleRepository) SetEndDate(workspaceID int32, id int32, endDate *time.Time) (*domain.RecurringRule, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE recurring_rules
		SET end_date = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+ruleColumns,
		workspaceID, id, datePtrToPgDate(endDate))

	rule, err := scanRule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// AddSkippedDate records a date in the rule's skip list. A date already
// recorded leaves the list unchanged.
func (r *RuleRepository) AddSkippedDate(workspaceID int32, id int32, date time.Time) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE recurring_rules
		SET skipped_dates = CASE
		        WHEN $3::date = ANY(skipped_dates) THEN skipped_dates
		        ELSE array_append(skipped_dates, $3::date)
		    END,
		    updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id, pgtype.Date{Time: date, Valid: true})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

// SoftDelete marks a rule as deleted (sets deleted_at timestamp)
func (r *RuleRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE recurring_rules
		SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

// Helper functions

func scanRule(row pgx.Row) (*domain.RecurringRule, error) {
	var (
		rule         domain.RecurringRule
		amount       pgtype.Numeric
		toAccountID  pgtype.Int4
		txType       string
		frequency    string
		weekdays     []int16
		startDate    pgtype.Date
		endDate      pgtype.Date
		skippedDates []time.Time
		notes        pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		deletedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&rule.ID,
		&rule.WorkspaceID,
		&rule.Name,
		&amount,
		&rule.AccountID,
		&toAccountID,
		&txType,
		&frequency,
		&rule.Interval,
		&weekdays,
		&startDate,
		&endDate,
		&skippedDates,
		&rule.IsActive,
		&notes,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Amount = pgNumericToDecimal(amount)
	rule.ToAccountID = pgInt4ToInt32Ptr(toAccountID)
	rule.Type = domain.TransactionType(txType)
	rule.Frequency = domain.Frequency(frequency)
	rule.Weekdays = int16ToWeekdays(weekdays)
	rule.StartDate = startDate.Time
	rule.EndDate = pgDateToTimePtr(endDate)
	rule.SkippedDates = skippedDates
	rule.Notes = pgTextToStringPtr(notes)
	rule.CreatedAt = createdAt.Time
	rule.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		rule.DeletedAt = &deletedAt.Time
	}
	return &rule, nil
}

func collectRules(rows pgx.Rows) ([]*domain.RecurringRule, error) {
	var result []*domain.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func weekdaysToInt16(weekdays []time.Weekday) []int16 {
	if len(weekdays) == 0 {
		return nil
	}
	out := make([]int16, len(weekdays))
	for i, wd := range weekdays {
		out[i] = int16(wd)
	}
	return out
}

func int16ToWeekdays(values []int16) []time.Weekday {
	if len(values) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(values))
	for i, v := range values {
		out[i] = time.Weekday(v)
	}
	return out
}
