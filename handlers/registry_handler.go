package handlers

import (
	"log"
	"net/http"
	"ticket-ledger/models"
	"ticket-ledger/monitoring"
	"ticket-ledger/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type RegistryHandler struct {
	app      *pocketbase.PocketBase
	registry *services.RegistryService
	monitor  *monitoring.Monitor
	decimals int32
}

func NewRegistryHandler(app *pocketbase.PocketBase, registry *services.RegistryService, monitor *monitoring.Monitor, decimals int) *RegistryHandler {
	return &RegistryHandler{
		app:      app,
		registry: registry,
		monitor:  monitor,
		decimals: int32(decimals),
	}
}

// CreateEvent - Create an event and its ticket ledger; the caller becomes
// the organizer
func (h *RegistryHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name            string `json:"name"`
		Symbol          string `json:"symbol"`
		Description     string `json:"description"`
		RoyaltyReceiver string `json:"royalty_receiver"`
		RoyaltyBps      int64  `json:"royalty_bps"`
		UnitPrice       string `json:"unit_price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	unitPrice, err := models.ParseAmount(req.UnitPrice, h.decimals)
	if err != nil {
		return apis.NewBadRequestError("Invalid unit price", err)
	}

	ctx := e.Request.Context()
	ledger, err := h.registry.CreateLedger(ctx, e.Auth.Id, req.Name, req.Symbol, req.RoyaltyReceiver, req.RoyaltyBps, unitPrice)
	if err != nil {
		h.monitor.TrackOperation("create_event", "error")
		return apiError("Failed to create event", err)
	}
	h.monitor.TrackOperation("create_event", "success")

	// The events collection is the presentation read model; the ledger is
	// already live even if this write fails.
	if err := h.saveEventRecord(ledger, req.Description); err != nil {
		log.Printf("Error saving event record for ledger %s: %v", ledger.ID(), err)
	}

	return e.JSON(http.StatusOK, h.eventResponse(ledger, req.Description))
}

// ListEvents - List all ledgers in creation order
func (h *RegistryHandler) ListEvents(e *core.RequestEvent) error {
	ledgers := h.registry.GetAllLedgers()

	events := make([]map[string]any, 0, len(ledgers))
	for _, ledger := range ledgers {
		events = append(events, h.eventResponse(ledger, h.eventDescription(ledger.ID())))
	}

	return e.JSON(http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (h *RegistryHandler) saveEventRecord(ledger *services.LedgerService, description string) error {
	collection, err := h.app.FindCollectionByNameOrId("events")
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("ledger_id", ledger.ID())
	record.Set("name", ledger.Name())
	record.Set("symbol", ledger.Symbol())
	record.Set("organizer", ledger.Organizer())
	record.Set("description", description)

	return h.app.Save(record)
}

func (h *RegistryHandler) eventDescription(ledgerID string) string {
	record, err := h.app.FindFirstRecordByFilter(
		"events",
		"ledger_id = {:ledgerId}",
		dbx.Params{"ledgerId": ledgerID},
	)
	if err != nil {
		return ""
	}
	return record.GetString("description")
}

func (h *RegistryHandler) eventResponse(ledger *services.LedgerService, description string) map[string]any {
	info := ledger.Info()
	return map[string]any{
		"ledger_id":          info.ID,
		"name":               info.Name,
		"symbol":             info.Symbol,
		"description":        description,
		"organizer":          info.Organizer,
		"royalty_receiver":   info.RoyaltyReceiver,
		"royalty_bps":        info.RoyaltyBps,
		"unit_price":         info.UnitPrice,
		"unit_price_display": models.FormatAmount(info.UnitPrice, h.decimals),
		"ticket_count":       info.TicketCount,
	}
}
