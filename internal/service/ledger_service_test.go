package service

import (
	"errors"
	"testing"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupLedgerServiceTest() (*LedgerService, *testutil.MockTransactionRepository, *testutil.MockAccountRepository, *testutil.MockRuleRepository, *testutil.MockDebtRepository) {
	transactionRepo := testutil.NewMockTransactionRepository()
	accountRepo := testutil.NewMockAccountRepository()
	ruleRepo := testutil.NewMockRuleRepository()
	debtRepo := testutil.NewMockDebtRepository()
	service := NewLedgerService(transactionRepo, accountRepo, ruleRepo, debtRepo, NewEntityLocks())
	return service, transactionRepo, accountRepo, ruleRepo, debtRepo
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func int32Ptr(v int32) *int32 {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func addAccountWithBalance(repo *testutil.MockAccountRepository, workspaceID, id int32, balance decimal.Decimal) {
	repo.AddAccount(&domain.Account{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        "Account",
		AccountType: domain.AccountTypeAsset,
		Currency:    "EUR",
		Balance:     balance,
	})
}

// CreateTransaction tests

func TestCreateTransaction_IncomeAppliesPositiveDelta(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:       1,
		Name:            "Salary",
		Amount:          decimal.NewFromInt(100),
		Type:            domain.TransactionTypeIncome,
		TransactionDate: timePtr(date(2025, time.March, 1)),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if tx.SourceID != nil {
		t.Error("Expected posted transaction to have no source")
	}
	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected balance 600, got %s", account.Balance.String())
	}
}

func TestCreateTransaction_ExpenseAppliesNegativeDelta(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Groceries",
		Amount:    decimal.NewFromFloat(49.99),
		Type:      domain.TransactionTypeExpense,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromFloat(450.01)) {
		t.Errorf("Expected balance 450.01, got %s", account.Balance.String())
	}
}

func TestCreateTransaction_TransferMovesBothLegs(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))
	addAccountWithBalance(accountRepo, 1, 2, decimal.NewFromInt(100))

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:   1,
		ToAccountID: int32Ptr(2),
		Name:        "To savings",
		Amount:      decimal.NewFromInt(200),
		Type:        domain.TransactionTypeTransfer,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	from, _ := accountRepo.GetByID(1, 1)
	to, _ := accountRepo.GetByID(1, 2)
	if !from.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected source balance 300, got %s", from.Balance.String())
	}
	if !to.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected destination balance 300, got %s", to.Balance.String())
	}
}

func TestCreateTransaction_TransferWithoutDestination(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Broken transfer",
		Amount:    decimal.NewFromInt(50),
		Type:      domain.TransactionTypeTransfer,
	})
	if !errors.Is(err, domain.ErrInvalidTransfer) {
		t.Errorf("Expected ErrInvalidTransfer, got %v", err)
	}
}

func TestCreateTransaction_TransferToSameAccount(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:   1,
		ToAccountID: int32Ptr(1),
		Name:        "Self transfer",
		Amount:      decimal.NewFromInt(50),
		Type:        domain.TransactionTypeTransfer,
	})
	if !errors.Is(err, domain.ErrInvalidTransfer) {
		t.Errorf("Expected ErrInvalidTransfer, got %v", err)
	}
}

func TestCreateTransaction_TransferUnknownDestinationLeavesBalancesUntouched(t *testing.T) {
	service, transactionRepo, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:   1,
		ToAccountID: int32Ptr(99),
		Name:        "To nowhere",
		Amount:      decimal.NewFromInt(50),
		Type:        domain.TransactionTypeTransfer,
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("Expected ErrAccountNotFound, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected source balance unchanged at 500, got %s", account.Balance.String())
	}
	if transactionRepo.Writes != 0 {
		t.Errorf("Expected zero transaction writes, got %d", transactionRepo.Writes)
	}
}

func TestCreateTransaction_EmptyName(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.Zero)

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "   ",
		Amount:    decimal.NewFromInt(10),
		Type:      domain.TransactionTypeExpense,
	})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestCreateTransaction_NonPositiveAmount(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.Zero)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := service.CreateTransaction(1, CreateTransactionInput{
			AccountID: 1,
			Name:      "Bad amount",
			Amount:    amount,
			Type:      domain.TransactionTypeExpense,
		})
		if !errors.Is(err, domain.ErrAmountInvalid) {
			t.Errorf("Amount %s: expected ErrAmountInvalid, got %v", amount.String(), err)
		}
	}
}

func TestCreateTransaction_UnknownAccount(t *testing.T) {
	service, _, _, _, _ := setupLedgerServiceTest()

	_, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 42,
		Name:      "Orphan",
		Amount:    decimal.NewFromInt(10),
		Type:      domain.TransactionTypeExpense,
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateTransaction_DebtHasNoBalanceEffect(t *testing.T) {
	service, _, accountRepo, _, debtRepo := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:       1,
		Name:            "Lent to Sam",
		Amount:          decimal.NewFromInt(75),
		Type:            domain.TransactionTypeDebt,
		TransactionDate: timePtr(date(2025, time.February, 1)),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance unchanged at 500, got %s", account.Balance.String())
	}
	if accountRepo.ApplyDeltasCalls != 0 {
		t.Errorf("Expected no balance adjustments, got %d", accountRepo.ApplyDeltasCalls)
	}

	entry, err := debtRepo.GetByTransactionID(1, tx.ID)
	if err != nil {
		t.Fatalf("Expected mirrored debt entry, got %v", err)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(75)) {
		t.Errorf("Expected mirrored amount 75, got %s", entry.Amount.String())
	}
	if entry.Settled {
		t.Error("Expected new debt entry to be unsettled")
	}
}

// UpdateTransaction tests

func TestUpdateTransaction_AdjustsBalanceByDifference(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, err := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Salary",
		Amount:    decimal.NewFromInt(100),
		Type:      domain.TransactionTypeIncome,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = service.UpdateTransaction(1, tx.ID, UpdateTransactionInput{
		AccountID:       1,
		Name:            "Salary",
		Amount:          decimal.NewFromInt(150),
		Type:            domain.TransactionTypeIncome,
		TransactionDate: date(2025, time.March, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(650)) {
		t.Errorf("Expected balance 650 after amount change, got %s", account.Balance.String())
	}
}

func TestUpdateTransaction_TypeChangeFlipsEffect(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Mislabeled",
		Amount:    decimal.NewFromInt(100),
		Type:      domain.TransactionTypeIncome,
	})

	_, err := service.UpdateTransaction(1, tx.ID, UpdateTransactionInput{
		AccountID:       1,
		Name:            "Mislabeled",
		Amount:          decimal.NewFromInt(100),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: date(2025, time.March, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected balance 400 after type flip, got %s", account.Balance.String())
	}
}

func TestUpdateTransaction_MoveToAnotherAccount(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))
	addAccountWithBalance(accountRepo, 1, 2, decimal.NewFromInt(500))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Rent",
		Amount:    decimal.NewFromInt(100),
		Type:      domain.TransactionTypeExpense,
	})

	_, err := service.UpdateTransaction(1, tx.ID, UpdateTransactionInput{
		AccountID:       2,
		Name:            "Rent",
		Amount:          decimal.NewFromInt(100),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: date(2025, time.March, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	first, _ := accountRepo.GetByID(1, 1)
	second, _ := accountRepo.GetByID(1, 2)
	if !first.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected original account restored to 500, got %s", first.Balance.String())
	}
	if !second.Balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected new account charged to 400, got %s", second.Balance.String())
	}
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.Zero)

	_, err := service.UpdateTransaction(1, 999, UpdateTransactionInput{
		AccountID:       1,
		Name:            "Ghost",
		Amount:          decimal.NewFromInt(10),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: date(2025, time.March, 1),
	})
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestUpdateTransaction_DebtMirrorFollowsTypeChange(t *testing.T) {
	service, _, accountRepo, _, debtRepo := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Dinner",
		Amount:    decimal.NewFromInt(60),
		Type:      domain.TransactionTypeExpense,
	})

	// Reclassify as debt: expense effect reversed, debt entry appears
	_, err := service.UpdateTransaction(1, tx.ID, UpdateTransactionInput{
		AccountID:       1,
		Name:            "Dinner (fronted)",
		Amount:          decimal.NewFromInt(60),
		Type:            domain.TransactionTypeDebt,
		TransactionDate: date(2025, time.March, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance restored to 500, got %s", account.Balance.String())
	}
	if _, err := debtRepo.GetByTransactionID(1, tx.ID); err != nil {
		t.Fatalf("Expected debt entry after reclassification, got %v", err)
	}

	// Reclassify back: entry removed, expense effect applied again
	_, err = service.UpdateTransaction(1, tx.ID, UpdateTransactionInput{
		AccountID:       1,
		Name:            "Dinner",
		Amount:          decimal.NewFromInt(60),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: date(2025, time.March, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := debtRepo.GetByTransactionID(1, tx.ID); !errors.Is(err, domain.ErrDebtEntryNotFound) {
		t.Errorf("Expected debt entry removed, got %v", err)
	}
	account, _ = accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(440)) {
		t.Errorf("Expected balance 440, got %s", account.Balance.String())
	}
}

// DeleteTransaction tests

func TestDeleteTransaction_RestoresBalance(t *testing.T) {
	service, transactionRepo, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Refundable",
		Amount:    decimal.NewFromInt(120),
		Type:      domain.TransactionTypeExpense,
	})

	if err := service.DeleteTransaction(1, tx.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance restored to 500, got %s", account.Balance.String())
	}
	if _, err := transactionRepo.GetByID(1, tx.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected row removed, got %v", err)
	}
}

func TestDeleteTransaction_TransferRestoresBothLegs(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))
	addAccountWithBalance(accountRepo, 1, 2, decimal.NewFromInt(100))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:   1,
		ToAccountID: int32Ptr(2),
		Name:        "To savings",
		Amount:      decimal.NewFromInt(200),
		Type:        domain.TransactionTypeTransfer,
	})

	if err := service.DeleteTransaction(1, tx.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	from, _ := accountRepo.GetByID(1, 1)
	to, _ := accountRepo.GetByID(1, 2)
	if !from.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected source balance restored to 500, got %s", from.Balance.String())
	}
	if !to.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected destination balance restored to 100, got %s", to.Balance.String())
	}
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	service, _, _, _, _ := setupLedgerServiceTest()

	err := service.DeleteTransaction(1, 404)
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestDeleteTransaction_DebtRemovesMirrorEntry(t *testing.T) {
	service, _, accountRepo, _, debtRepo := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	tx, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID: 1,
		Name:      "Lent to Sam",
		Amount:    decimal.NewFromInt(75),
		Type:      domain.TransactionTypeDebt,
	})

	if err := service.DeleteTransaction(1, tx.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := debtRepo.GetByTransactionID(1, tx.ID); !errors.Is(err, domain.ErrDebtEntryNotFound) {
		t.Errorf("Expected mirrored entry removed, got %v", err)
	}
}

// DeleteTransactionChain tests

func TestDeleteTransactionChain_EmptyChainIsZeroWrites(t *testing.T) {
	service, transactionRepo, accountRepo, _, _ := setupLedgerServiceTest()

	count, err := service.DeleteTransactionChain(1, 77)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected zero deletions, got %d", count)
	}
	if transactionRepo.Writes != 0 {
		t.Errorf("Expected zero transaction writes, got %d", transactionRepo.Writes)
	}
	if accountRepo.ApplyDeltasCalls != 0 {
		t.Errorf("Expected zero balance adjustments, got %d", accountRepo.ApplyDeltasCalls)
	}
}

func TestDeleteTransactionChain_RemovesAllRows(t *testing.T) {
	service, transactionRepo, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	sourceID := int32(7)
	for month := time.January; month <= time.March; month++ {
		d := date(2025, month, 15)
		transactionRepo.AddTransaction(&domain.Transaction{
			WorkspaceID:     1,
			AccountID:       1,
			Name:            "Gym",
			Amount:          decimal.NewFromInt(30),
			Type:            domain.TransactionTypeExpense,
			TransactionDate: d,
			SourceID:        &sourceID,
			OccurrenceDate:  timePtr(d),
		})
	}

	count, err := service.DeleteTransactionChain(1, sourceID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 deletions, got %d", count)
	}

	remaining, _ := transactionRepo.GetBySource(1, sourceID)
	if len(remaining) != 0 {
		t.Errorf("Expected no remaining rows, got %d", len(remaining))
	}

	// Scheduled rows carry no effect, so balances must be untouched
	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance unchanged at 500, got %s", account.Balance.String())
	}
}

func TestDeleteTransactionChain_LeavesDecoupledRows(t *testing.T) {
	service, transactionRepo, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(500))

	sourceID := int32(7)
	d := date(2025, time.January, 15)
	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		AccountID:       1,
		Name:            "Gym",
		Amount:          decimal.NewFromInt(30),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: d,
		SourceID:        &sourceID,
		OccurrenceDate:  timePtr(d),
	})
	paid, _ := service.CreateTransaction(1, CreateTransactionInput{
		AccountID:       1,
		Name:            "Gym",
		Amount:          decimal.NewFromInt(30),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: timePtr(date(2025, time.February, 15)),
	})

	if _, err := service.DeleteTransactionChain(1, sourceID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := transactionRepo.GetByID(1, paid.ID); err != nil {
		t.Errorf("Expected decoupled transaction to survive, got %v", err)
	}
	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(470)) {
		t.Errorf("Expected paid effect retained at 470, got %s", account.Balance.String())
	}
}

// PayOccurrence tests

func payTestRule(ruleRepo *testutil.MockRuleRepository, workspaceID int32) *domain.RecurringRule {
	rule, _ := ruleRepo.Create(&domain.RecurringRule{
		WorkspaceID: workspaceID,
		Name:        "Rent",
		Amount:      decimal.NewFromInt(900),
		AccountID:   1,
		Type:        domain.TransactionTypeExpense,
		Frequency:   domain.FrequencyMonthly,
		Interval:    1,
		StartDate:   date(2025, time.January, 31),
		IsActive:    true,
	})
	return rule
}

func TestPayOccurrence_PostsDecoupledTransactionAndRemovesRow(t *testing.T) {
	service, transactionRepo, accountRepo, ruleRepo, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(2000))
	rule := payTestRule(ruleRepo, 1)

	due := date(2025, time.February, 28)
	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		AccountID:       1,
		Name:            "Rent",
		Amount:          decimal.NewFromInt(900),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: due,
		SourceID:        &rule.ID,
		OccurrenceDate:  timePtr(due),
	})

	posted, err := service.PayOccurrence(1, rule.ID, PayOccurrenceInput{
		OccurrenceDate: due,
		PaidDate:       timePtr(date(2025, time.February, 27)),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if posted.SourceID != nil {
		t.Error("Expected paid transaction to be decoupled from the rule")
	}
	if _, err := transactionRepo.GetBySourceAndDate(1, rule.ID, due); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected scheduled row removed, got %v", err)
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Expected balance 1100 after paying, got %s", account.Balance.String())
	}
}

func TestPayOccurrence_MissedOccurrenceWithoutRow(t *testing.T) {
	service, transactionRepo, accountRepo, ruleRepo, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(2000))
	rule := payTestRule(ruleRepo, 1)

	// No materialized row for this date: occurrence was already missed
	posted, err := service.PayOccurrence(1, rule.ID, PayOccurrenceInput{
		OccurrenceDate: date(2025, time.January, 31),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if posted.SourceID != nil {
		t.Error("Expected paid transaction to be decoupled from the rule")
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Expected balance 1100 after paying, got %s", account.Balance.String())
	}
	if len(transactionRepo.Transactions) != 1 {
		t.Errorf("Expected exactly one row, got %d", len(transactionRepo.Transactions))
	}
}

func TestPayOccurrence_SkippedDateRejected(t *testing.T) {
	service, _, accountRepo, ruleRepo, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(2000))
	rule := payTestRule(ruleRepo, 1)
	rule.SkippedDates = []time.Time{date(2025, time.March, 31)}

	_, err := service.PayOccurrence(1, rule.ID, PayOccurrenceInput{
		OccurrenceDate: date(2025, time.March, 31),
	})
	if !errors.Is(err, domain.ErrOccurrenceSkipped) {
		t.Errorf("Expected ErrOccurrenceSkipped, got %v", err)
	}
}

func TestPayOccurrence_RuleNotFound(t *testing.T) {
	service, _, _, _, _ := setupLedgerServiceTest()

	_, err := service.PayOccurrence(1, 404, PayOccurrenceInput{
		OccurrenceDate: date(2025, time.January, 31),
	})
	if !errors.Is(err, domain.ErrRuleNotFound) {
		t.Errorf("Expected ErrRuleNotFound, got %v", err)
	}
}

func TestPayOccurrence_AmountOverride(t *testing.T) {
	service, _, accountRepo, ruleRepo, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(2000))
	rule := payTestRule(ruleRepo, 1)

	posted, err := service.PayOccurrence(1, rule.ID, PayOccurrenceInput{
		OccurrenceDate: date(2025, time.January, 31),
		Amount:         decPtr(decimal.NewFromFloat(925.50)),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !posted.Amount.Equal(decimal.NewFromFloat(925.50)) {
		t.Errorf("Expected overridden amount 925.50, got %s", posted.Amount.String())
	}

	account, _ := accountRepo.GetByID(1, 1)
	if !account.Balance.Equal(decimal.NewFromFloat(1074.50)) {
		t.Errorf("Expected balance 1074.50, got %s", account.Balance.String())
	}
}

// Inverse law: applying a transaction's effect and then reversing it leaves
// every touched balance exactly where it started.

func TestCreateThenDelete_BalancesRoundTrip(t *testing.T) {
	service, _, accountRepo, _, _ := setupLedgerServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromFloat(123.45))
	addAccountWithBalance(accountRepo, 1, 2, decimal.NewFromFloat(-67.89))

	inputs := []CreateTransactionInput{
		{AccountID: 1, Name: "Income", Amount: decimal.NewFromFloat(10.01), Type: domain.TransactionTypeIncome},
		{AccountID: 1, Name: "Expense", Amount: decimal.NewFromFloat(33.33), Type: domain.TransactionTypeExpense},
		{AccountID: 1, ToAccountID: int32Ptr(2), Name: "Transfer", Amount: decimal.NewFromFloat(99.99), Type: domain.TransactionTypeTransfer},
	}

	for _, input := range inputs {
		tx, err := service.CreateTransaction(1, input)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", input.Name, err)
		}
		if err := service.DeleteTransaction(1, tx.ID); err != nil {
			t.Fatalf("%s: expected no error, got %v", input.Name, err)
		}

		first, _ := accountRepo.GetByID(1, 1)
		second, _ := accountRepo.GetByID(1, 2)
		if !first.Balance.Equal(decimal.NewFromFloat(123.45)) {
			t.Errorf("%s: expected first balance 123.45, got %s", input.Name, first.Balance.String())
		}
		if !second.Balance.Equal(decimal.NewFromFloat(-67.89)) {
			t.Errorf("%s: expected second balance -67.89, got %s", input.Name, second.Balance.String())
		}
	}
}
