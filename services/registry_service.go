package services

import (
	"context"
	"fmt"
	"sync"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"

	"github.com/google/uuid"
)

// RegistryService is the flat event registry: it creates one LedgerService
// per event and exposes enumeration in creation order.
type RegistryService struct {
	mu      sync.Mutex
	ledgers map[string]*LedgerService
	order   []string

	notifier Notifier
}

func NewRegistryService(notifier Notifier) *RegistryService {
	return &RegistryService{
		ledgers:  make(map[string]*LedgerService),
		notifier: notifier,
	}
}

// CreateLedger creates the ledger for a new event. The caller becomes the
// immutable organizer. Royalty is in basis points of the resale price.
func (s *RegistryService) CreateLedger(ctx context.Context, organizer, name, symbol, royaltyReceiver string, royaltyBps, unitPrice int64) (*LedgerService, error) {
	if organizer == "" || name == "" || symbol == "" {
		return nil, fmt.Errorf("registry: organizer, name and symbol are required")
	}
	if royaltyBps < 0 || royaltyBps > 10000 {
		return nil, status.ErrInvalidRoyalty
	}
	if unitPrice < 0 {
		return nil, status.ErrInvalidPrice
	}

	id := uuid.NewString()
	ledger := NewLedgerService(id, name, symbol, organizer, royaltyReceiver, royaltyBps, unitPrice, s.notifier)

	s.mu.Lock()
	s.ledgers[id] = ledger
	s.order = append(s.order, id)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Publish(ctx, registryChannel, map[string]any{
			"type":      NotifLedgerCreated,
			"ledger_id": id,
			"name":      name,
			"symbol":    symbol,
			"organizer": organizer,
		})
	}
	return ledger, nil
}

func (s *RegistryService) GetLedger(id string) (*LedgerService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return ledger, nil
}

// GetAllLedgers returns every ledger in creation order.
func (s *RegistryService) GetAllLedgers() []*LedgerService {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*LedgerService, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.ledgers[id])
	}
	return out
}

// Snapshot captures every ledger for restart recovery.
func (s *RegistryService) Snapshot() []models.LedgerSnapshot {
	snaps := make([]models.LedgerSnapshot, 0)
	for _, ledger := range s.GetAllLedgers() {
		snaps = append(snaps, ledger.Snapshot())
	}
	return snaps
}

// RestoreSnapshot rebuilds all ledgers from a snapshot, replacing any
// current state.
func (s *RegistryService) RestoreSnapshot(snaps []models.LedgerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers = make(map[string]*LedgerService, len(snaps))
	s.order = s.order[:0]
	for _, snap := range snaps {
		s.ledgers[snap.ID] = NewLedgerFromSnapshot(snap, s.notifier)
		s.order = append(s.order, snap.ID)
	}
}
