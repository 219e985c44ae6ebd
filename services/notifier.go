package services

import (
	"context"
	"log"
	"ticket-ledger/utils"

	pubnub "github.com/pubnub/go"
)

// Notification types published for off-chain consumers (indexers, the
// presentation layer). These are the only way observers learn of state
// changes without polling.
const (
	NotifLedgerCreated    = "ledger_created"
	NotifTicketMinted     = "ticket_minted"
	NotifTicketUsed       = "ticket_used"
	NotifTicketTransfer   = "ticket_transferred"
	NotifTicketBurned     = "ticket_burned"
	NotifListingCreated   = "listing_created"
	NotifListingSold      = "listing_sold"
	NotifListingCancelled = "listing_cancelled"
)

// Notifier fans out state-change notifications. Implementations must be
// fire-and-forget: a failed publish never affects ledger state, which has
// already committed by the time the notifier runs.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload map[string]any)
}

func ledgerChannel(ledgerID string) string {
	return "ledger-" + ledgerID
}

const marketplaceChannel = "marketplace"
const registryChannel = "registry"

// PubNubNotifier publishes notifications over PubNub. Publishes go through
// a circuit breaker so a PubNub outage cannot stall settlement paths.
type PubNubNotifier struct {
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

func (n *PubNubNotifier) Publish(ctx context.Context, channel string, payload map[string]any) {
	_, err := n.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := n.pubnub.Publish().
			Channel(channel).
			Message(payload).
			Execute()
		return nil, err
	})
	if err != nil {
		log.Printf("Error publishing %v to %s: %v", payload["type"], channel, err)
	}
}
