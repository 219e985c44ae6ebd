package models

// Ticket is one entry in a per-event ledger. The ID is assigned at mint
// time and never reused, even after the ticket is burned.
type Ticket struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	Used        bool   `json:"used"`
	MetadataURI string `json:"metadata_uri"`
}
