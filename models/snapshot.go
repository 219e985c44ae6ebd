package models

import "time"

// Snapshot types serialize the full in-memory state of the ledger core for
// Redis-backed restart recovery.

type LedgerSnapshot struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Organizer       string   `json:"organizer"`
	RoyaltyReceiver string   `json:"royalty_receiver"`
	RoyaltyBps      int64    `json:"royalty_bps"`
	UnitPrice       int64    `json:"unit_price"`
	NextID          uint64   `json:"next_id"`
	Tickets         []Ticket `json:"tickets"`
	Agents          []string `json:"agents"`
}

type MarketplaceSnapshot struct {
	NextListingID uint64    `json:"next_listing_id"`
	Listings      []Listing `json:"listings"`
}

type StateSnapshot struct {
	Ledgers     []LedgerSnapshot    `json:"ledgers"`
	Marketplace MarketplaceSnapshot `json:"marketplace"`
	Balances    map[string]int64    `json:"balances"`
	TakenAt     time.Time           `json:"taken_at"`
}
