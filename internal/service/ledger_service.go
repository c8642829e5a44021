package service

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// LedgerService owns every balance-affecting mutation of the transaction
// log. Applying and reversing a transaction go through the same effect
// function, so a reversed transaction always restores the balances it
// changed. Operations that touch the same accounts or the same rule are
// serialized through EntityLocks.
type LedgerService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	ruleRepo        domain.RuleRepository
	debtRepo        domain.DebtRepository
	locks           *EntityLocks
	eventPublisher  websocket.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	transactionRepo domain.TransactionRepository,
	accountRepo domain.AccountRepository,
	ruleRepo domain.RuleRepository,
	debtRepo domain.DebtRepository,
	locks *EntityLocks,
) *LedgerService {
	return &LedgerService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		ruleRepo:        ruleRepo,
		debtRepo:        debtRepo,
		locks:           locks,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *LedgerService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	AccountID       int32
	ToAccountID     *int32
	Name            string
	Amount          decimal.Decimal
	Type            domain.TransactionType
	TransactionDate *time.Time
	Notes           *string
}

// CreateTransaction persists a posted transaction and applies its balance
// effect. Both legs of a transfer are validated before either balance
// moves, so a failed lookup never leaves a half-applied transfer.
func (s *LedgerService) CreateTransaction(workspaceID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate amount
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrAmountInvalid
	}

	// Validate transaction type
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidTransactionType
	}

	// Validate source account exists and belongs to workspace
	if _, err := s.accountRepo.GetByID(workspaceID, input.AccountID); err != nil {
		return nil, domain.ErrAccountNotFound
	}

	// Validate transfer destination; non-transfers ignore any provided value
	var toAccountID *int32
	if input.Type == domain.TransactionTypeTransfer {
		if input.ToAccountID == nil || *input.ToAccountID == input.AccountID {
			return nil, domain.ErrInvalidTransfer
		}
		if _, err := s.accountRepo.GetByID(workspaceID, *input.ToAccountID); err != nil {
			return nil, domain.ErrAccountNotFound
		}
		toAccountID = input.ToAccountID
	}

	// Default transaction date to today
	transactionDate := util.DateOnly(time.Now().UTC())
	if input.TransactionDate != nil {
		transactionDate = util.DateOnly(*input.TransactionDate)
	}

	notes, err := trimNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	transaction := &domain.Transaction{
		WorkspaceID:     workspaceID,
		AccountID:       input.AccountID,
		ToAccountID:     toAccountID,
		Name:            name,
		Amount:          input.Amount,
		Type:            input.Type,
		TransactionDate: transactionDate,
		Notes:           notes,
	}

	deltas, err := domain.EffectsOf(transaction)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Accounts.LockAll(deltaAccountIDs(deltas)...)
	defer unlock()

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		return nil, err
	}

	if len(deltas) > 0 {
		if err := s.accountRepo.ApplyDeltas(workspaceID, deltas); err != nil {
			// Remove the row so no persisted transaction exists without its effect
			_ = s.transactionRepo.Delete(workspaceID, created.ID)
			return nil, err
		}
	}

	if created.Type == domain.TransactionTypeDebt {
		if err := s.mirrorDebt(created); err != nil {
			_ = s.transactionRepo.Delete(workspaceID, created.ID)
			return nil, err
		}
	}

	s.publishEvent(workspaceID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransactions retrieves transactions for a workspace with optional filters and pagination
func (s *LedgerService) GetTransactions(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	return s.transactionRepo.GetByWorkspace(workspaceID, filters)
}

// GetTransactionByID retrieves a transaction by ID within a workspace
func (s *LedgerService) GetTransactionByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(workspaceID, id)
}

// UpdateTransactionInput holds the input for updating a transaction
type UpdateTransactionInput struct {
	AccountID       int32
	ToAccountID     *int32
	Name            string
	Amount          decimal.Decimal
	Type            domain.TransactionType
	TransactionDate time.Time
	Notes           *string
}

// UpdateTransaction replaces a transaction's fields and adjusts balances by
// the difference between the old and new effects. The reversal of the old
// effect and the application of the new one are merged into one adjustment,
// so no intermediate balance state is ever visible.
func (s *LedgerService) UpdateTransaction(workspaceID int32, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	old, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate amount
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrAmountInvalid
	}

	// Validate transaction type
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidTransactionType
	}

	// Validate source account exists and belongs to workspace
	if _, err := s.accountRepo.GetByID(workspaceID, input.AccountID); err != nil {
		return nil, domain.ErrAccountNotFound
	}

	// Validate transfer destination; non-transfers ignore any provided value
	var toAccountID *int32
	if input.Type == domain.TransactionTypeTransfer {
		if input.ToAccountID == nil || *input.ToAccountID == input.AccountID {
			return nil, domain.ErrInvalidTransfer
		}
		if _, err := s.accountRepo.GetByID(workspaceID, *input.ToAccountID); err != nil {
			return nil, domain.ErrAccountNotFound
		}
		toAccountID = input.ToAccountID
	}

	notes, err := trimNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	// Scheduling linkage and the receipt link are never editable
	// through this path
	updated := &domain.Transaction{
		ID:              id,
		WorkspaceID:     workspaceID,
		AccountID:       input.AccountID,
		ToAccountID:     toAccountID,
		Name:            name,
		Amount:          input.Amount,
		Type:            input.Type,
		TransactionDate: util.DateOnly(input.TransactionDate),
		SourceID:        old.SourceID,
		OccurrenceDate:  old.OccurrenceDate,
		Notes:           notes,
		ReceiptPath:     old.ReceiptPath,
	}

	oldDeltas, err := domain.EffectsOf(old)
	if err != nil {
		return nil, err
	}
	newDeltas, err := domain.EffectsOf(updated)
	if err != nil {
		return nil, err
	}
	merged := domain.MergeDeltas(domain.ReverseOf(oldDeltas), newDeltas)

	unlock := s.locks.Accounts.LockAll(append(deltaAccountIDs(oldDeltas), deltaAccountIDs(newDeltas)...)...)
	defer unlock()

	saved, err := s.transactionRepo.Update(updated)
	if err != nil {
		return nil, err
	}

	if len(merged) > 0 {
		if err := s.accountRepo.ApplyDeltas(workspaceID, merged); err != nil {
			// Restore the previous row; balances were not touched
			_, _ = s.transactionRepo.Update(old)
			return nil, err
		}
	}

	if err := s.syncDebtMirror(old, saved); err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionUpdated(saved))
	return saved, nil
}

// DeleteTransaction reverses a transaction's balance effect and removes the
// row. The effect is reversed first: a row may briefly survive with its
// effect already reversed, but a deleted row never leaves its effect behind.
func (s *LedgerService) DeleteTransaction(workspaceID int32, id int32) error {
	tx, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	deltas, err := domain.EffectsOf(tx)
	if err != nil {
		return err
	}
	reversed := domain.ReverseOf(deltas)

	unlock := s.locks.Accounts.LockAll(deltaAccountIDs(deltas)...)
	defer unlock()

	if len(reversed) > 0 {
		if err := s.accountRepo.ApplyDeltas(workspaceID, reversed); err != nil {
			return err
		}
	}

	if err := s.transactionRepo.Delete(workspaceID, id); err != nil {
		// The row is still there; put its effect back
		if len(deltas) > 0 {
			_ = s.accountRepo.ApplyDeltas(workspaceID, deltas)
		}
		return err
	}

	if tx.Type == domain.TransactionTypeDebt && !tx.Scheduled() {
		if err := s.debtRepo.DeleteByTransactionID(workspaceID, id); err != nil && !errors.Is(err, domain.ErrDebtEntryNotFound) {
			return err
		}
	}

	s.publishEvent(workspaceID, websocket.TransactionDeleted(tx))
	return nil
}

// DeleteTransactionChain removes every transaction materialized from one
// rule. Effects are reversed most recent first, and rows are deleted only
// after every effect is reversed, so an interruption partway can not leave
// a deleted row whose effect is still applied. An empty chain succeeds
// without any writes.
func (s *LedgerService) DeleteTransactionChain(workspaceID int32, sourceID int32) (int, error) {
	s.locks.Rules.Lock(sourceID)
	defer s.locks.Rules.Unlock(sourceID)

	chain, err := s.transactionRepo.GetBySource(workspaceID, sourceID)
	if err != nil {
		return 0, err
	}
	if len(chain) == 0 {
		return 0, nil
	}

	// Collect effects up front so a malformed row aborts before any write
	effects := make([][]domain.BalanceDelta, len(chain))
	var accountIDs []int32
	for i, tx := range chain {
		deltas, err := domain.EffectsOf(tx)
		if err != nil {
			return 0, err
		}
		effects[i] = deltas
		accountIDs = append(accountIDs, deltaAccountIDs(deltas)...)
	}

	unlock := s.locks.Accounts.LockAll(accountIDs...)
	defer unlock()

	order := make([]int, len(chain))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return chain[order[a]].TransactionDate.After(chain[order[b]].TransactionDate)
	})

	for _, i := range order {
		reversed := domain.ReverseOf(effects[i])
		if len(reversed) == 0 {
			continue
		}
		if err := s.accountRepo.ApplyDeltas(workspaceID, reversed); err != nil {
			return 0, err
		}
	}

	ids := make([]int32, len(chain))
	for i, tx := range chain {
		ids[i] = tx.ID
	}
	if err := s.transactionRepo.DeleteBatch(workspaceID, ids); err != nil {
		return 0, err
	}

	s.publishEvent(workspaceID, websocket.TransactionDeleted(map[string]interface{}{
		"sourceId": sourceID,
		"count":    len(chain),
	}))
	return len(chain), nil
}

// PayOccurrenceInput holds the input for paying one occurrence of a rule
type PayOccurrenceInput struct {
	OccurrenceDate time.Time
	PaidDate       *time.Time       // defaults to today
	Amount         *decimal.Decimal // defaults to the rule amount
}

// PayOccurrence posts a real transaction for one occurrence of a rule and
// removes the matching scheduled row if one was materialized. The posted
// transaction is decoupled: it carries no SourceID, so deleting the rule
// or its chain later never reverses an already-paid occurrence. The
// scheduled row is removed before posting; if posting fails, the next
// materializer sweep restores the row.
func (s *LedgerService) PayOccurrence(workspaceID int32, ruleID int32, input PayOccurrenceInput) (*domain.Transaction, error) {
	s.locks.Rules.Lock(ruleID)
	defer s.locks.Rules.Unlock(ruleID)

	rule, err := s.ruleRepo.GetByID(workspaceID, ruleID)
	if err != nil {
		return nil, err
	}

	if input.OccurrenceDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	occurrenceDate := util.DateOnly(input.OccurrenceDate)
	if rule.IsSkipped(occurrenceDate) {
		return nil, domain.ErrOccurrenceSkipped
	}

	amount := rule.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrAmountInvalid
	}

	paidDate := util.DateOnly(time.Now().UTC())
	if input.PaidDate != nil {
		paidDate = util.DateOnly(*input.PaidDate)
	}

	posted := &domain.Transaction{
		WorkspaceID:     workspaceID,
		AccountID:       rule.AccountID,
		ToAccountID:     rule.ToAccountID,
		Name:            rule.Name,
		Amount:          amount,
		Type:            rule.Type,
		TransactionDate: paidDate,
		Notes:           rule.Notes,
	}

	deltas, err := domain.EffectsOf(posted)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Accounts.LockAll(deltaAccountIDs(deltas)...)
	defer unlock()

	// Remove the materialized row first; missed occurrences never had one
	scheduled, err := s.transactionRepo.GetBySourceAndDate(workspaceID, ruleID, occurrenceDate)
	switch {
	case err == nil:
		if err := s.transactionRepo.Delete(workspaceID, scheduled.ID); err != nil {
			return nil, err
		}
	case !errors.Is(err, domain.ErrTransactionNotFound):
		return nil, err
	}

	created, err := s.transactionRepo.Create(posted)
	if err != nil {
		return nil, err
	}

	if len(deltas) > 0 {
		if err := s.accountRepo.ApplyDeltas(workspaceID, deltas); err != nil {
			_ = s.transactionRepo.Delete(workspaceID, created.ID)
			return nil, err
		}
	}

	if created.Type == domain.TransactionTypeDebt {
		if err := s.mirrorDebt(created); err != nil {
			_ = s.transactionRepo.Delete(workspaceID, created.ID)
			return nil, err
		}
	}

	s.publishEvent(workspaceID, websocket.OccurrencePaid(map[string]interface{}{
		"ruleId":        ruleID,
		"date":          occurrenceDate.Format("2006-01-02"),
		"transactionId": created.ID,
	}))
	return created, nil
}

// mirrorDebt inserts the debt-ledger entry for a posted debt transaction
func (s *LedgerService) mirrorDebt(tx *domain.Transaction) error {
	_, err := s.debtRepo.Create(&domain.DebtEntry{
		WorkspaceID:   tx.WorkspaceID,
		TransactionID: tx.ID,
		Name:          tx.Name,
		Amount:        tx.Amount,
		EntryDate:     tx.TransactionDate,
	})
	return err
}

// syncDebtMirror keeps the debt ledger aligned after an update changed the
// transaction's type or mirrored fields. Scheduled rows are never mirrored.
func (s *LedgerService) syncDebtMirror(old, updated *domain.Transaction) error {
	wasDebt := old.Type == domain.TransactionTypeDebt && !old.Scheduled()
	isDebt := updated.Type == domain.TransactionTypeDebt && !updated.Scheduled()
	switch {
	case isDebt && wasDebt:
		return s.debtRepo.UpdateFromTransaction(updated.WorkspaceID, updated.ID, updated.Name, updated.Amount, updated.TransactionDate)
	case isDebt && !wasDebt:
		return s.mirrorDebt(updated)
	case !isDebt && wasDebt:
		return s.debtRepo.DeleteByTransactionID(updated.WorkspaceID, updated.ID)
	}
	return nil
}

// deltaAccountIDs returns the account IDs touched by a delta set
func deltaAccountIDs(deltas []domain.BalanceDelta) []int32 {
	ids := make([]int32, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.AccountID)
	}
	return ids
}

// trimNotes normalizes optional notes: whitespace is trimmed and empty
// notes collapse to nil
func trimNotes(notes *string) (*string, error) {
	if notes == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > domain.MaxNotesLength {
		return nil, domain.ErrNotesTooLong
	}
	return &trimmed, nil
}
