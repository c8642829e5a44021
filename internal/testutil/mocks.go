package testutil

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserID retrieves a workspace by user ID
func (m *MockWorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserAuth0ID retrieves a workspace by the owning user's Auth0 ID
func (m *MockWorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	workspace.ID = m.NextID
	m.NextID++
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	return workspace, nil
}

// AddWorkspace adds a workspace to the mock repository (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace, auth0ID string) {
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	if auth0ID != "" {
		m.ByUserAuth0ID[auth0ID] = workspace
	}
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts    map[int32]*domain.Account
	ByWorkspace map[int32][]*domain.Account
	NextID      int32
	// ApplyDeltasCalls counts balance adjustments, including empty ones.
	ApplyDeltasCalls int
	CreateFn         func(account *domain.Account) (*domain.Account, error)
	GetByIDFn        func(workspaceID int32, id int32) (*domain.Account, error)
	ApplyDeltasFn    func(workspaceID int32, deltas []domain.BalanceDelta) error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts:    make(map[int32]*domain.Account),
		ByWorkspace: make(map[int32][]*domain.Account),
		NextID:      1,
	}
}

// Create creates a new account
func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	account.ID = m.NextID
	m.NextID++
	m.Accounts[account.ID] = account
	m.ByWorkspace[account.WorkspaceID] = append(m.ByWorkspace[account.WorkspaceID], account)
	return account, nil
}

// GetByID retrieves an account by its ID within a workspace
func (m *MockAccountRepository) GetByID(workspaceID int32, id int32) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	account, ok := m.Accounts[id]
	if !ok || account.WorkspaceID != workspaceID || account.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// GetAllByWorkspace retrieves all accounts for a workspace
func (m *MockAccountRepository) GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	accounts := m.ByWorkspace[workspaceID]
	if includeArchived {
		if accounts == nil {
			return []*domain.Account{}, nil
		}
		return accounts, nil
	}
	active := []*domain.Account{}
	for _, acc := range accounts {
		if acc.DeletedAt == nil {
			active = append(active, acc)
		}
	}
	return active, nil
}

// Update updates an account's name
func (m *MockAccountRepository) Update(workspaceID int32, id int32, name string) (*domain.Account, error) {
	account, ok := m.Accounts[id]
	if !ok || account.WorkspaceID != workspaceID || account.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	account.Name = name
	return account, nil
}

// SoftDelete marks an account as deleted
func (m *MockAccountRepository) SoftDelete(workspaceID int32, id int32) error {
	account, ok := m.Accounts[id]
	if !ok || account.WorkspaceID != workspaceID || account.DeletedAt != nil {
		return domain.ErrAccountNotFound
	}
	now := time.Now()
	account.DeletedAt = &now
	return nil
}

// ApplyDeltas adjusts balances for every delta. Mirrors the all-or-nothing
// behavior of the real repository: every account is resolved before any
// balance changes.
func (m *MockAccountRepository) ApplyDeltas(workspaceID int32, deltas []domain.BalanceDelta) error {
	m.ApplyDeltasCalls++
	if m.ApplyDeltasFn != nil {
		return m.ApplyDeltasFn(workspaceID, deltas)
	}
	for _, d := range deltas {
		account, ok := m.Accounts[d.AccountID]
		if !ok || account.WorkspaceID != workspaceID || account.DeletedAt != nil {
			return domain.ErrAccountNotFound
		}
	}
	for _, d := range deltas {
		account := m.Accounts[d.AccountID]
		account.Balance = account.Balance.Add(d.Amount)
	}
	return nil
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.Accounts[account.ID] = account
	m.ByWorkspace[account.WorkspaceID] = append(m.ByWorkspace[account.WorkspaceID], account)
	if account.ID >= m.NextID {
		m.NextID = account.ID + 1
	}
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	ByWorkspace  map[int32][]*domain.Transaction
	NextID       int32
	// Writes counts every mutating call that changed at least one row.
	// Idempotency tests assert it stays flat across a second sweep.
	Writes    int
	CreateFn  func(transaction *domain.Transaction) (*domain.Transaction, error)
	GetByIDFn func(workspaceID int32, id int32) (*domain.Transaction, error)
	UpdateFn  func(transaction *domain.Transaction) (*domain.Transaction, error)
	DeleteFn  func(workspaceID int32, id int32) error
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		ByWorkspace:  make(map[int32][]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	m.Writes++
	transaction.ID = m.NextID
	m.NextID++
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	m.Transactions[transaction.ID] = transaction
	m.ByWorkspace[transaction.WorkspaceID] = append(m.ByWorkspace[transaction.WorkspaceID], transaction)
	return transaction, nil
}

// CreateBatch creates several transactions at once
func (m *MockTransactionRepository) CreateBatch(transactions []*domain.Transaction) error {
	for _, tx := range transactions {
		if _, err := m.Create(tx); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a transaction by its ID within a workspace
func (m *MockTransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	transaction, ok := m.Transactions[id]
	if !ok || transaction.WorkspaceID != workspaceID {
		return nil, domain.ErrTransactionNotFound
	}
	return transaction, nil
}

// GetByWorkspace retrieves transactions for a workspace with filters and pagination
func (m *MockTransactionRepository) GetByWorkspace(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	filtered := []*domain.Transaction{}
	for _, t := range m.ByWorkspace[workspaceID] {
		if filters != nil {
			if filters.AccountID != nil && t.AccountID != *filters.AccountID {
				continue
			}
			if filters.StartDate != nil && t.TransactionDate.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && t.TransactionDate.After(*filters.EndDate) {
				continue
			}
			if filters.Type != nil && t.Type != *filters.Type {
				continue
			}
			if filters.ScheduledOnly && !t.Scheduled() {
				continue
			}
			if filters.PostedOnly && t.Scheduled() {
				continue
			}
		}
		filtered = append(filtered, t)
	}

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
		}
	}

	totalItems := int64(len(filtered))
	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start >= int32(len(filtered)) {
		filtered = []*domain.Transaction{}
	} else {
		if end > int32(len(filtered)) {
			end = int32(len(filtered))
		}
		filtered = filtered[start:end]
	}

	return &domain.PaginatedTransactions{
		Data:       filtered,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetBySource retrieves scheduled rows for a rule, ordered by occurrence date
func (m *MockTransactionRepository) GetBySource(workspaceID int32, sourceID int32) ([]*domain.Transaction, error) {
	result := []*domain.Transaction{}
	for _, t := range m.ByWorkspace[workspaceID] {
		if t.SourceID != nil && *t.SourceID == sourceID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurrenceDate.Before(*result[j].OccurrenceDate)
	})
	return result, nil
}

// GetBySourceAndDate retrieves the scheduled row for one occurrence of a rule
func (m *MockTransactionRepository) GetBySourceAndDate(workspaceID int32, sourceID int32, occurrenceDate time.Time) (*domain.Transaction, error) {
	for _, t := range m.ByWorkspace[workspaceID] {
		if t.SourceID != nil && *t.SourceID == sourceID &&
			t.OccurrenceDate != nil && util.SameDate(*t.OccurrenceDate, occurrenceDate) {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// ListScheduled retrieves scheduled rows with occurrence dates inside [from, to]
func (m *MockTransactionRepository) ListScheduled(workspaceID int32, from, to time.Time) ([]*domain.Transaction, error) {
	result := []*domain.Transaction{}
	for _, t := range m.ByWorkspace[workspaceID] {
		if !t.Scheduled() || t.OccurrenceDate == nil {
			continue
		}
		if t.OccurrenceDate.Before(from) || t.OccurrenceDate.After(to) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurrenceDate.Before(*result[j].OccurrenceDate)
	})
	return result, nil
}

// ListPosted retrieves decoupled rows with transaction dates inside [from, to]
func (m *MockTransactionRepository) ListPosted(workspaceID int32, from, to time.Time) ([]*domain.Transaction, error) {
	result := []*domain.Transaction{}
	for _, t := range m.ByWorkspace[workspaceID] {
		if t.Scheduled() {
			continue
		}
		if t.TransactionDate.Before(from) || t.TransactionDate.After(to) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// Update updates a transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(transaction)
	}
	existing, ok := m.Transactions[transaction.ID]
	if !ok || existing.WorkspaceID != transaction.WorkspaceID {
		return nil, domain.ErrTransactionNotFound
	}
	m.Writes++
	*existing = *transaction
	return existing, nil
}

// SetReceiptPath links or unlinks a transaction's receipt objects
func (m *MockTransactionRepository) SetReceiptPath(workspaceID int32, id int32, path *string) error {
	transaction, ok := m.Transactions[id]
	if !ok || transaction.WorkspaceID != workspaceID {
		return domain.ErrTransactionNotFound
	}
	m.Writes++
	transaction.ReceiptPath = path
	return nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(workspaceID int32, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	transaction, ok := m.Transactions[id]
	if !ok || transaction.WorkspaceID != workspaceID {
		return domain.ErrTransactionNotFound
	}
	m.Writes++
	delete(m.Transactions, id)
	list := m.ByWorkspace[workspaceID]
	for i, t := range list {
		if t.ID == id {
			m.ByWorkspace[workspaceID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteBatch removes several transactions at once. Rows already gone
// are skipped.
func (m *MockTransactionRepository) DeleteBatch(workspaceID int32, ids []int32) error {
	for _, id := range ids {
		if err := m.Delete(workspaceID, id); err != nil && err != domain.ErrTransactionNotFound {
			return err
		}
	}
	return nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	if transaction.ID == 0 {
		transaction.ID = m.NextID
	}
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
	m.Transactions[transaction.ID] = transaction
	m.ByWorkspace[transaction.WorkspaceID] = append(m.ByWorkspace[transaction.WorkspaceID], transaction)
}

// MockRuleRepository is a mock implementation of domain.RuleRepository
type MockRuleRepository struct {
	Rules       map[int32]*domain.RecurringRule
	ByWorkspace map[int32][]*domain.RecurringRule
	NextID      int32
	Writes      int
	CreateFn    func(rule *domain.RecurringRule) (*domain.RecurringRule, error)
	GetByIDFn   func(workspaceID int32, id int32) (*domain.RecurringRule, error)
	UpdateFn    func(rule *domain.RecurringRule) (*domain.RecurringRule, error)
}

// NewMockRuleRepository creates a new MockRuleRepository
func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{
		Rules:       make(map[int32]*domain.RecurringRule),
		ByWorkspace: make(map[int32][]*domain.RecurringRule),
		NextID:      1,
	}
}

// Create creates a new rule
func (m *MockRuleRepository) Create(rule *domain.RecurringRule) (*domain.RecurringRule, error) {
	if m.CreateFn != nil {
		return m.CreateFn(rule)
	}
	m.Writes++
	rule.ID = m.NextID
	m.NextID++
	m.Rules[rule.ID] = rule
	m.ByWorkspace[rule.WorkspaceID] = append(m.ByWorkspace[rule.WorkspaceID], rule)
	return rule, nil
}

// GetByID retrieves a rule by its ID within a workspace
func (m *MockRuleRepository) GetByID(workspaceID int32, id int32) (*domain.RecurringRule, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	rule, ok := m.Rules[id]
	if !ok || rule.WorkspaceID != workspaceID || rule.DeletedAt != nil {
		return nil, domain.ErrRuleNotFound
	}
	return rule, nil
}

// ListByWorkspace retrieves rules for a workspace
func (m *MockRuleRepository) ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*domain.RecurringRule, error) {
	result := []*domain.RecurringRule{}
	for _, r := range m.ByWorkspace[workspaceID] {
		if r.DeletedAt != nil {
			continue
		}
		if activeOnly != nil && *activeOnly != r.IsActive {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// ListAllActive retrieves active rules across every workspace
func (m *MockRuleRepository) ListAllActive() ([]*domain.RecurringRule, error) {
	result := []*domain.RecurringRule{}
	for _, r := range m.Rules {
		if r.DeletedAt == nil && r.IsActive {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update updates a rule
func (m *MockRuleRepository) Update(rule *domain.RecurringRule) (*domain.RecurringRule, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(rule)
	}
	existing, ok := m.Rules[rule.ID]
	if !ok || existing.WorkspaceID != rule.WorkspaceID || existing.DeletedAt != nil {
		return nil, domain.ErrRuleNotFound
	}
	m.Writes++
	*existing = *rule
	return existing, nil
}

// SetActive flips the active flag of a rule
func (m *MockRuleRepository) SetActive(workspaceID int32, id int32, active bool) (*domain.RecurringRule, error) {
	rule, ok := m.Rules[id]
	if !ok || rule.WorkspaceID != workspaceID || rule.DeletedAt != nil {
		return nil, domain.ErrRuleNotFound
	}
	m.Writes++
	rule.IsActive = active
	return rule, nil
}

// SetEndDate updates the end date of a rule
func (m *MockRuleRepository) SetEndDate(workspaceID int32, id int32, endDate *time.Time) (*domain.RecurringRule, error) {
	rule, ok := m.Rules[id]
	if !ok || rule.WorkspaceID != workspaceID || rule.DeletedAt != nil {
		return nil, domain.ErrRuleNotFound
	}
	m.Writes++
	rule.EndDate = endDate
	return rule, nil
}

// AddSkippedDate records a skipped date for a rule (idempotent)
func (m *MockRuleRepository) AddSkippedDate(workspaceID int32, id int32, date time.Time) error {
	rule, ok := m.Rules[id]
	if !ok || rule.WorkspaceID != workspaceID || rule.DeletedAt != nil {
		return domain.ErrRuleNotFound
	}
	if rule.IsSkipped(date) {
		return nil
	}
	m.Writes++
	rule.SkippedDates = append(rule.SkippedDates, util.DateOnly(date))
	return nil
}

// SoftDelete marks a rule as deleted
func (m *MockRuleRepository) SoftDelete(workspaceID int32, id int32) error {
	rule, ok := m.Rules[id]
	if !ok || rule.WorkspaceID != workspaceID || rule.DeletedAt != nil {
		return domain.ErrRuleNotFound
	}
	m.Writes++
	now := time.Now()
	rule.DeletedAt = &now
	return nil
}

// AddRule adds a rule to the mock repository (helper for tests)
func (m *MockRuleRepository) AddRule(rule *domain.RecurringRule) {
	if rule.ID == 0 {
		rule.ID = m.NextID
	}
	if rule.ID >= m.NextID {
		m.NextID = rule.ID + 1
	}
	m.Rules[rule.ID] = rule
	m.ByWorkspace[rule.WorkspaceID] = append(m.ByWorkspace[rule.WorkspaceID], rule)
}

// MockDebtRepository is a mock implementation of domain.DebtRepository
type MockDebtRepository struct {
	Entries         map[int32]*domain.DebtEntry
	ByTransactionID map[int32]*domain.DebtEntry
	NextID          int32
}

// NewMockDebtRepository creates a new MockDebtRepository
func NewMockDebtRepository() *MockDebtRepository {
	return &MockDebtRepository{
		Entries:         make(map[int32]*domain.DebtEntry),
		ByTransactionID: make(map[int32]*domain.DebtEntry),
		NextID:          1,
	}
}

// Create creates a new debt entry
func (m *MockDebtRepository) Create(entry *domain.DebtEntry) (*domain.DebtEntry, error) {
	entry.ID = m.NextID
	m.NextID++
	m.Entries[entry.ID] = entry
	m.ByTransactionID[entry.TransactionID] = entry
	return entry, nil
}

// GetByWorkspace retrieves debt entries for a workspace
func (m *MockDebtRepository) GetByWorkspace(workspaceID int32, includeSettled bool) ([]*domain.DebtEntry, error) {
	result := []*domain.DebtEntry{}
	for _, e := range m.Entries {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if !includeSettled && e.Settled {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetByTransactionID retrieves the debt entry mirroring a transaction
func (m *MockDebtRepository) GetByTransactionID(workspaceID int32, transactionID int32) (*domain.DebtEntry, error) {
	entry, ok := m.ByTransactionID[transactionID]
	if !ok || entry.WorkspaceID != workspaceID {
		return nil, domain.ErrDebtEntryNotFound
	}
	return entry, nil
}

// UpdateFromTransaction refreshes the mirrored fields of a debt entry
func (m *MockDebtRepository) UpdateFromTransaction(workspaceID int32, transactionID int32, name string, amount decimal.Decimal, entryDate time.Time) error {
	entry, ok := m.ByTransactionID[transactionID]
	if !ok || entry.WorkspaceID != workspaceID {
		return domain.ErrDebtEntryNotFound
	}
	entry.Name = name
	entry.Amount = amount
	entry.EntryDate = entryDate
	return nil
}

// SetSettled flips the settled flag of a debt entry
func (m *MockDebtRepository) SetSettled(workspaceID int32, id int32, settled bool, settledAt *time.Time) (*domain.DebtEntry, error) {
	entry, ok := m.Entries[id]
	if !ok || entry.WorkspaceID != workspaceID {
		return nil, domain.ErrDebtEntryNotFound
	}
	entry.Settled = settled
	entry.SettledAt = settledAt
	return entry, nil
}

// DeleteByTransactionID removes the debt entry mirroring a transaction
func (m *MockDebtRepository) DeleteByTransactionID(workspaceID int32, transactionID int32) error {
	entry, ok := m.ByTransactionID[transactionID]
	if !ok || entry.WorkspaceID != workspaceID {
		return domain.ErrDebtEntryNotFound
	}
	delete(m.ByTransactionID, transactionID)
	delete(m.Entries, entry.ID)
	return nil
}

// AddDebtEntry adds a debt entry to the mock repository (helper for tests)
func (m *MockDebtRepository) AddDebtEntry(entry *domain.DebtEntry) {
	if entry.ID == 0 {
		entry.ID = m.NextID
	}
	if entry.ID >= m.NextID {
		m.NextID = entry.ID + 1
	}
	m.Entries[entry.ID] = entry
	m.ByTransactionID[entry.TransactionID] = entry
}
