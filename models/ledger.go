package models

// LedgerInfo is a read-only view of one event ledger.
type LedgerInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Organizer       string `json:"organizer"`
	RoyaltyReceiver string `json:"royalty_receiver"`
	RoyaltyBps      int64  `json:"royalty_bps"`
	UnitPrice       int64  `json:"unit_price"`
	NextID          uint64 `json:"next_id"`
	TicketCount     int    `json:"ticket_count"`
}
