package services

import (
	"context"
	"sort"
	"sync"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"
)

// LedgerService is the per-event ticket ledger: the sole source of truth for
// ownership and usage of one event's tickets, and the enforcement point for
// the anti-scalping transfer policy. Every mutating call commits or fails as
// one unit under the ledger mutex; no partial state is ever observable.
type LedgerService struct {
	id              string
	name            string
	symbol          string
	organizer       string
	royaltyReceiver string
	royaltyBps      int64
	unitPrice       int64

	mu      sync.Mutex
	nextID  uint64
	tickets map[uint64]*models.Ticket
	agents  map[string]bool

	notifier Notifier
}

func NewLedgerService(id, name, symbol, organizer, royaltyReceiver string, royaltyBps, unitPrice int64, notifier Notifier) *LedgerService {
	return &LedgerService{
		id:              id,
		name:            name,
		symbol:          symbol,
		organizer:       organizer,
		royaltyReceiver: royaltyReceiver,
		royaltyBps:      royaltyBps,
		unitPrice:       unitPrice,
		tickets:         make(map[uint64]*models.Ticket),
		agents:          make(map[string]bool),
		notifier:        notifier,
	}
}

func (s *LedgerService) ID() string        { return s.id }
func (s *LedgerService) Name() string      { return s.name }
func (s *LedgerService) Symbol() string    { return s.symbol }
func (s *LedgerService) Organizer() string { return s.organizer }
func (s *LedgerService) UnitPrice() int64  { return s.unitPrice }

// RoyaltyInfo returns the royalty receiver and the royalty amount due on the
// given sale price, in smallest units. The multiplication is split so prices
// near the int64 ceiling cannot overflow.
func (s *LedgerService) RoyaltyInfo(salePrice int64) (string, int64) {
	royalty := salePrice/10000*s.royaltyBps + salePrice%10000*s.royaltyBps/10000
	return s.royaltyReceiver, royalty
}

// Mint creates a new ticket owned by recipient. Organizer-only. Ticket ids
// are sequential and never reused, even after a burn.
func (s *LedgerService) Mint(ctx context.Context, caller, recipient, metadataURI string) (uint64, error) {
	s.mu.Lock()
	if caller != s.organizer {
		s.mu.Unlock()
		return 0, status.ErrUnauthorized
	}

	id := s.nextID
	s.nextID++
	s.tickets[id] = &models.Ticket{
		ID:          id,
		Owner:       recipient,
		MetadataURI: metadataURI,
	}
	s.mu.Unlock()

	s.notify(ctx, map[string]any{
		"type":      NotifTicketMinted,
		"ledger_id": s.id,
		"ticket_id": id,
		"recipient": recipient,
	})
	return id, nil
}

// SetAuthorizedAgent adds or removes an address from the transfer allowlist.
// Organizer-only. Setting an already-set value is a no-op success.
func (s *LedgerService) SetAuthorizedAgent(ctx context.Context, caller, agent string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.organizer {
		return status.ErrUnauthorized
	}
	if enabled {
		s.agents[agent] = true
	} else {
		delete(s.agents, agent)
	}
	return nil
}

func (s *LedgerService) IsAuthorizedAgent(agent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents[agent]
}

// RestrictedTransfer moves a ticket from its current owner to a new one.
// This is the only ownership-mutating path besides mint and burn: the caller
// must be on the organizer's allowlist, and from must match the recorded
// owner at the moment of the call.
func (s *LedgerService) RestrictedTransfer(ctx context.Context, caller, from, to string, ticketID uint64) error {
	s.mu.Lock()
	if !s.agents[caller] {
		s.mu.Unlock()
		return status.ErrUnauthorized
	}
	ticket, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return status.ErrNotFound
	}
	if ticket.Owner != from {
		s.mu.Unlock()
		return status.ErrOwnerMismatch
	}

	ticket.Owner = to
	s.mu.Unlock()

	s.notify(ctx, map[string]any{
		"type":      NotifTicketTransfer,
		"ledger_id": s.id,
		"ticket_id": ticketID,
		"from":      from,
		"to":        to,
	})
	return nil
}

// MarkUsed flips the ticket's used flag. Organizer-only, irreversible.
func (s *LedgerService) MarkUsed(ctx context.Context, caller string, ticketID uint64) error {
	s.mu.Lock()
	if caller != s.organizer {
		s.mu.Unlock()
		return status.ErrUnauthorized
	}
	ticket, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return status.ErrNotFound
	}
	if ticket.Used {
		s.mu.Unlock()
		return status.ErrAlreadyUsed
	}

	ticket.Used = true
	s.mu.Unlock()

	s.notify(ctx, map[string]any{
		"type":      NotifTicketUsed,
		"ledger_id": s.id,
		"ticket_id": ticketID,
	})
	return nil
}

// Verify reports whether the ticket exists and has not been used.
func (s *LedgerService) Verify(ticketID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	return ok && !ticket.Used
}

// Burn removes an unused ticket entirely. Organizer-only. Used tickets can
// never be burned; their entry is the proof of attendance.
func (s *LedgerService) Burn(ctx context.Context, caller string, ticketID uint64) error {
	s.mu.Lock()
	if caller != s.organizer {
		s.mu.Unlock()
		return status.ErrUnauthorized
	}
	ticket, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return status.ErrNotFound
	}
	if ticket.Used {
		s.mu.Unlock()
		return status.ErrCannotBurnUsed
	}

	delete(s.tickets, ticketID)
	s.mu.Unlock()

	s.notify(ctx, map[string]any{
		"type":      NotifTicketBurned,
		"ledger_id": s.id,
		"ticket_id": ticketID,
	})
	return nil
}

func (s *LedgerService) OwnerOf(ticketID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return "", status.ErrNotFound
	}
	return ticket.Owner, nil
}

func (s *LedgerService) TokenURI(ticketID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return "", status.ErrNotFound
	}
	return ticket.MetadataURI, nil
}

// GetTicket returns a copy of the ticket record.
func (s *LedgerService) GetTicket(ticketID uint64) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return models.Ticket{}, status.ErrNotFound
	}
	return *ticket, nil
}

// BalanceOf counts the tickets currently owned by owner.
func (s *LedgerService) BalanceOf(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ticket := range s.tickets {
		if ticket.Owner == owner {
			count++
		}
	}
	return count
}

// TicketsOf returns copies of the tickets owned by owner, ascending by id.
func (s *LedgerService) TicketsOf(owner string) []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make([]models.Ticket, 0)
	for _, ticket := range s.tickets {
		if ticket.Owner == owner {
			owned = append(owned, *ticket)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned
}

func (s *LedgerService) Info() models.LedgerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.LedgerInfo{
		ID:              s.id,
		Name:            s.name,
		Symbol:          s.symbol,
		Organizer:       s.organizer,
		RoyaltyReceiver: s.royaltyReceiver,
		RoyaltyBps:      s.royaltyBps,
		UnitPrice:       s.unitPrice,
		NextID:          s.nextID,
		TicketCount:     len(s.tickets),
	}
}

// Snapshot captures the full ledger state for restart recovery.
func (s *LedgerService) Snapshot() models.LedgerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := make([]models.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		tickets = append(tickets, *ticket)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })

	agents := make([]string, 0, len(s.agents))
	for agent := range s.agents {
		agents = append(agents, agent)
	}
	sort.Strings(agents)

	return models.LedgerSnapshot{
		ID:              s.id,
		Name:            s.name,
		Symbol:          s.symbol,
		Organizer:       s.organizer,
		RoyaltyReceiver: s.royaltyReceiver,
		RoyaltyBps:      s.royaltyBps,
		UnitPrice:       s.unitPrice,
		NextID:          s.nextID,
		Tickets:         tickets,
		Agents:          agents,
	}
}

// NewLedgerFromSnapshot rebuilds a ledger from a snapshot taken by Snapshot.
func NewLedgerFromSnapshot(snap models.LedgerSnapshot, notifier Notifier) *LedgerService {
	s := NewLedgerService(snap.ID, snap.Name, snap.Symbol, snap.Organizer, snap.RoyaltyReceiver, snap.RoyaltyBps, snap.UnitPrice, notifier)
	s.nextID = snap.NextID
	for i := range snap.Tickets {
		ticket := snap.Tickets[i]
		s.tickets[ticket.ID] = &ticket
	}
	for _, agent := range snap.Agents {
		s.agents[agent] = true
	}
	return s
}

func (s *LedgerService) notify(ctx context.Context, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, ledgerChannel(s.id), payload)
}
