package models

const (
	ListingStatusActive    = "active"
	ListingStatusSold      = "sold"
	ListingStatusCancelled = "cancelled"
)

// Listing is a fixed-price resale offer backed by custodial escrow: while
// the listing is active the marketplace itself is the recorded owner of the
// ticket. Settled and cancelled listings are retained for history with
// Active set to false.
type Listing struct {
	ID       uint64 `json:"id"`
	LedgerID string `json:"ledger_id"`
	TicketID uint64 `json:"ticket_id"`
	Seller   string `json:"seller"`
	Price    int64  `json:"price"`
	Active   bool   `json:"active"`
	Status   string `json:"status"`
	Buyer    string `json:"buyer,omitempty"`
}
