package service

import (
	"strings"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// AccountService handles account-related business logic. Balances are
// not editable here: they move only through the ledger.
type AccountService struct {
	accountRepo    domain.AccountRepository
	eventPublisher websocket.EventPublisher
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AccountService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *AccountService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	AccountType    domain.AccountType
	Currency       string
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account. The initial balance is the only
// balance write that bypasses the ledger.
func (s *AccountService) CreateAccount(workspaceID int32, input CreateAccountInput) (*domain.Account, error) {
	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate type
	accountType := input.AccountType
	if accountType == "" {
		accountType = domain.AccountTypeAsset
	}
	if !accountType.Valid() {
		return nil, domain.ErrInvalidAccountType
	}

	// Validate currency
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		WorkspaceID: workspaceID,
		Name:        name,
		AccountType: accountType,
		Currency:    currency,
		Balance:     input.InitialBalance,
	}

	created, err := s.accountRepo.Create(account)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.AccountCreated(created))
	return created, nil
}

// GetAccounts retrieves all accounts for a workspace
func (s *AccountService) GetAccounts(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	return s.accountRepo.GetAllByWorkspace(workspaceID, includeArchived)
}

// GetAccountByID retrieves an account by ID within a workspace
func (s *AccountService) GetAccountByID(workspaceID int32, id int32) (*domain.Account, error) {
	return s.accountRepo.GetByID(workspaceID, id)
}

// UpdateAccount updates an account's name (only the name is editable)
func (s *AccountService) UpdateAccount(workspaceID int32, id int32, name string) (*domain.Account, error) {
	// Validate name
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}

	updated, err := s.accountRepo.Update(workspaceID, id, name)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.AccountUpdated(updated))
	return updated, nil
}

// DeleteAccount soft-deletes an account (sets deleted_at timestamp)
func (s *AccountService) DeleteAccount(workspaceID int32, id int32) error {
	// SoftDelete atomically checks existence and deletes, returning
	// ErrAccountNotFound if not found
	if err := s.accountRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}

	s.publishEvent(workspaceID, websocket.AccountDeleted(map[string]interface{}{"id": id}))
	return nil
}

// normalizeCurrency upper-cases a three-letter currency code. An empty
// code falls back to EUR.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "EUR", nil
	}
	if len(code) != 3 {
		return "", domain.ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", domain.ErrInvalidCurrency
		}
	}
	return code, nil
}
