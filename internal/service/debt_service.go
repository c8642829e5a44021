package service

import (
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/websocket"
)

// DebtService handles the debt ledger. Entries are created and kept in
// sync by the ledger when debt transactions are written; this service
// only reads them and tracks settling.
type DebtService struct {
	debtRepo       domain.DebtRepository
	eventPublisher websocket.EventPublisher
}

// NewDebtService creates a new DebtService
func NewDebtService(debtRepo domain.DebtRepository) *DebtService {
	return &DebtService{debtRepo: debtRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *DebtService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *DebtService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// ListDebts retrieves the workspace's debt entries, open ones only unless
// includeSettled is set
func (s *DebtService) ListDebts(workspaceID int32, includeSettled bool) ([]*domain.DebtEntry, error) {
	return s.debtRepo.GetByWorkspace(workspaceID, includeSettled)
}

// SettleDebt marks a debt entry as settled. The backing transaction is
// untouched: settling is bookkeeping on the debt ledger, not a balance
// movement.
func (s *DebtService) SettleDebt(workspaceID int32, id int32) (*domain.DebtEntry, error) {
	now := time.Now().UTC()
	entry, err := s.debtRepo.SetSettled(workspaceID, id, true, &now)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.DebtSettled(entry))
	return entry, nil
}

// ReopenDebt clears the settled flag of a debt entry
func (s *DebtService) ReopenDebt(workspaceID int32, id int32) (*domain.DebtEntry, error) {
	entry, err := s.debtRepo.SetSettled(workspaceID, id, false, nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.DebtSettled(entry))
	return entry, nil
}
