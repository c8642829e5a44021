package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupAccountServiceTest() (*AccountService, *testutil.MockAccountRepository) {
	accountRepo := testutil.NewMockAccountRepository()
	service := NewAccountService(accountRepo)
	return service, accountRepo
}

func TestCreateAccount_Success(t *testing.T) {
	service, _ := setupAccountServiceTest()

	account, err := service.CreateAccount(1, CreateAccountInput{
		Name:           "Checking",
		AccountType:    domain.AccountTypeAsset,
		Currency:       "eur",
		InitialBalance: decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.ID == 0 {
		t.Error("Expected account to receive an ID")
	}
	if account.Currency != "EUR" {
		t.Errorf("Expected currency normalized to EUR, got %s", account.Currency)
	}
	if !account.Balance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected opening balance 1500, got %s", account.Balance.String())
	}
}

func TestCreateAccount_DefaultsTypeAndCurrency(t *testing.T) {
	service, _ := setupAccountServiceTest()

	account, err := service.CreateAccount(1, CreateAccountInput{Name: "Wallet"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.AccountType != domain.AccountTypeAsset {
		t.Errorf("Expected asset type by default, got %s", account.AccountType)
	}
	if account.Currency != "EUR" {
		t.Errorf("Expected EUR by default, got %s", account.Currency)
	}
}

func TestCreateAccount_TrimsName(t *testing.T) {
	service, _ := setupAccountServiceTest()

	account, err := service.CreateAccount(1, CreateAccountInput{Name: "  Savings  "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.Name != "Savings" {
		t.Errorf("Expected trimmed name, got %q", account.Name)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	service, _ := setupAccountServiceTest()

	tests := []struct {
		name    string
		input   CreateAccountInput
		wantErr error
	}{
		{"empty name", CreateAccountInput{Name: "   "}, domain.ErrNameRequired},
		{"name too long", CreateAccountInput{Name: strings.Repeat("a", domain.MaxAccountNameLength+1)}, domain.ErrNameTooLong},
		{"bad type", CreateAccountInput{Name: "X", AccountType: "crypto"}, domain.ErrInvalidAccountType},
		{"currency too short", CreateAccountInput{Name: "X", Currency: "EU"}, domain.ErrInvalidCurrency},
		{"currency with digits", CreateAccountInput{Name: "X", Currency: "EU1"}, domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateAccount(1, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetAccounts_ScopedToWorkspace(t *testing.T) {
	service, accountRepo := setupAccountServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(10))
	addAccountWithBalance(accountRepo, 1, 2, decimal.NewFromInt(20))
	addAccountWithBalance(accountRepo, 2, 3, decimal.NewFromInt(30))

	accounts, err := service.GetAccounts(1, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("Expected 2 accounts for workspace 1, got %d", len(accounts))
	}
}

func TestUpdateAccount_RenamesOnly(t *testing.T) {
	service, accountRepo := setupAccountServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(10))

	updated, err := service.UpdateAccount(1, 1, "Renamed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Expected renamed account, got %q", updated.Name)
	}
	if !updated.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected balance untouched, got %s", updated.Balance.String())
	}
}

func TestUpdateAccount_NotFound(t *testing.T) {
	service, _ := setupAccountServiceTest()

	_, err := service.UpdateAccount(1, 404, "Name")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	service, accountRepo := setupAccountServiceTest()
	addAccountWithBalance(accountRepo, 1, 1, decimal.NewFromInt(10))

	if err := service.DeleteAccount(1, 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := accountRepo.GetByID(1, 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected deleted account invisible, got %v", err)
	}

	if err := service.DeleteAccount(1, 404); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}
