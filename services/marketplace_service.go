package services

import (
	"context"
	"fmt"
	"sync"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"
)

// MarketplaceService is the cross-event escrow and resale engine. Listing a
// ticket moves it into true custodial escrow: the marketplace address
// becomes the recorded owner on the ledger, so the ledger's restricted
// transfer path stays the single choke point for all movement. One mutex
// covers every mutating operation end to end, so a sale's payment split,
// custody release and listing update commit or revert together.
type MarketplaceService struct {
	address  string
	registry *RegistryService
	balances *BalanceService
	notifier Notifier

	mu             sync.Mutex
	nextListingID  uint64
	listings       map[uint64]*models.Listing
	order          []uint64
	activeByTicket map[string]uint64
}

func NewMarketplaceService(address string, registry *RegistryService, balances *BalanceService, notifier Notifier) *MarketplaceService {
	return &MarketplaceService{
		address:        address,
		registry:       registry,
		balances:       balances,
		notifier:       notifier,
		listings:       make(map[uint64]*models.Listing),
		activeByTicket: make(map[string]uint64),
	}
}

// Address is the marketplace's own ledger address; organizers allowlist it
// as a transfer agent to sanction resale of their event's tickets.
func (s *MarketplaceService) Address() string { return s.address }

func ticketKey(ledgerID string, ticketID uint64) string {
	return fmt.Sprintf("%s:%d", ledgerID, ticketID)
}

// ListTicket puts a ticket up for sale at a fixed price and takes custody of
// it. The seller must be the current owner, the ticket must be unused, have
// no active listing, and the marketplace must already be allowlisted on the
// ledger.
func (s *MarketplaceService) ListTicket(ctx context.Context, seller, ledgerID string, ticketID uint64, price int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if price <= 0 {
		return 0, status.ErrInvalidPrice
	}
	ledger, err := s.registry.GetLedger(ledgerID)
	if err != nil {
		return 0, err
	}
	owner, err := ledger.OwnerOf(ticketID)
	if err != nil {
		return 0, err
	}
	if owner != seller {
		return 0, status.ErrOwnerMismatch
	}
	if !ledger.Verify(ticketID) {
		return 0, status.ErrAlreadyUsed
	}
	if _, exists := s.activeByTicket[ticketKey(ledgerID, ticketID)]; exists {
		return 0, status.ErrAlreadyListed
	}
	// Checked up front so the caller sees a clear error instead of an
	// opaque transfer failure.
	if !ledger.IsAuthorizedAgent(s.address) {
		return 0, status.ErrMarketplaceNotAuthorized
	}

	if err := ledger.RestrictedTransfer(ctx, s.address, seller, s.address, ticketID); err != nil {
		return 0, err
	}

	id := s.nextListingID
	s.nextListingID++
	listing := &models.Listing{
		ID:       id,
		LedgerID: ledgerID,
		TicketID: ticketID,
		Seller:   seller,
		Price:    price,
		Active:   true,
		Status:   models.ListingStatusActive,
	}
	s.listings[id] = listing
	s.order = append(s.order, id)
	s.activeByTicket[ticketKey(ledgerID, ticketID)] = id

	s.notify(ctx, map[string]any{
		"type":       NotifListingCreated,
		"listing_id": id,
		"ledger_id":  ledgerID,
		"ticket_id":  ticketID,
		"seller":     seller,
		"price":      price,
	})
	return id, nil
}

// BuyTicket settles an active listing: exact payment in, royalty split out,
// custody released to the buyer, listing closed. If any step fails the
// whole settlement is undone and the listing stays active with the ticket
// still in escrow.
func (s *MarketplaceService) BuyTicket(ctx context.Context, buyer string, listingID uint64, paidAmount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return status.ErrNotFound
	}
	if !listing.Active {
		return status.ErrNotActive
	}
	if paidAmount != listing.Price {
		return status.ErrInsufficientPayment
	}
	ledger, err := s.registry.GetLedger(listing.LedgerID)
	if err != nil {
		return err
	}
	// The organizer may have voided the ticket while it sat in escrow.
	if !ledger.Verify(listing.TicketID) {
		return status.ErrAlreadyUsed
	}

	receiver, royalty := ledger.RoyaltyInfo(listing.Price)
	payees := map[string]int64{}
	payees[listing.Seller] += listing.Price - royalty
	if royalty > 0 {
		payees[receiver] += royalty
	}

	if err := s.balances.Settle(buyer, listing.Price, payees); err != nil {
		return err
	}
	if err := ledger.RestrictedTransfer(ctx, s.address, s.address, buyer, listing.TicketID); err != nil {
		s.balances.Revert(buyer, listing.Price, payees)
		return err
	}

	listing.Active = false
	listing.Status = models.ListingStatusSold
	listing.Buyer = buyer
	delete(s.activeByTicket, ticketKey(listing.LedgerID, listing.TicketID))

	s.notify(ctx, map[string]any{
		"type":       NotifListingSold,
		"listing_id": listingID,
		"buyer":      buyer,
		"price":      listing.Price,
		"royalty":    royalty,
	})
	return nil
}

// CancelListing returns custody to the seller and closes the listing.
// Seller-only.
func (s *MarketplaceService) CancelListing(ctx context.Context, caller string, listingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return status.ErrNotFound
	}
	if !listing.Active {
		return status.ErrNotActive
	}
	if caller != listing.Seller {
		return status.ErrUnauthorized
	}
	ledger, err := s.registry.GetLedger(listing.LedgerID)
	if err != nil {
		return err
	}
	if err := ledger.RestrictedTransfer(ctx, s.address, s.address, listing.Seller, listing.TicketID); err != nil {
		return err
	}

	listing.Active = false
	listing.Status = models.ListingStatusCancelled
	delete(s.activeByTicket, ticketKey(listing.LedgerID, listing.TicketID))

	s.notify(ctx, map[string]any{
		"type":       NotifListingCancelled,
		"listing_id": listingID,
	})
	return nil
}

// GetActiveListings returns active listing ids in ascending order. It is
// always a non-nil slice: the zero-listings case is an empty sequence, not
// an error, because the presentation layer degrades badly on anything else.
func (s *MarketplaceService) GetActiveListings() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0)
	for _, id := range s.order {
		if s.listings[id].Active {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetListing returns a copy of the listing record, active or settled.
func (s *MarketplaceService) GetListing(listingID uint64) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return models.Listing{}, status.ErrNotFound
	}
	return *listing, nil
}

// Snapshot captures listings and the id counter for restart recovery.
func (s *MarketplaceService) Snapshot() models.MarketplaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	listings := make([]models.Listing, 0, len(s.order))
	for _, id := range s.order {
		listings = append(listings, *s.listings[id])
	}
	return models.MarketplaceSnapshot{
		NextListingID: s.nextListingID,
		Listings:      listings,
	}
}

// RestoreSnapshot rebuilds the marketplace from a snapshot, replacing any
// current state.
func (s *MarketplaceService) RestoreSnapshot(snap models.MarketplaceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListingID = snap.NextListingID
	s.listings = make(map[uint64]*models.Listing, len(snap.Listings))
	s.order = s.order[:0]
	s.activeByTicket = make(map[string]uint64)
	for i := range snap.Listings {
		listing := snap.Listings[i]
		s.listings[listing.ID] = &listing
		s.order = append(s.order, listing.ID)
		if listing.Active {
			s.activeByTicket[ticketKey(listing.LedgerID, listing.TicketID)] = listing.ID
		}
	}
}

func (s *MarketplaceService) notify(ctx context.Context, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, marketplaceChannel, payload)
}
