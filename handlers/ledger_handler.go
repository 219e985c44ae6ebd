package handlers

import (
	"net/http"
	"strconv"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type LedgerHandler struct {
	app         *pocketbase.PocketBase
	registry    *services.RegistryService
	scannerKeys *security.ScannerKeyStore
	monitor     *monitoring.Monitor
}

func NewLedgerHandler(app *pocketbase.PocketBase, registry *services.RegistryService, scannerKeys *security.ScannerKeyStore, monitor *monitoring.Monitor) *LedgerHandler {
	return &LedgerHandler{
		app:         app,
		registry:    registry,
		scannerKeys: scannerKeys,
		monitor:     monitor,
	}
}

func (h *LedgerHandler) ledgerFromPath(e *core.RequestEvent) (*services.LedgerService, error) {
	ledger, err := h.registry.GetLedger(e.Request.PathValue("ledgerId"))
	if err != nil {
		return nil, apiError("Ledger not found", err)
	}
	return ledger, nil
}

func ticketIDFromPath(e *core.RequestEvent) (uint64, error) {
	id, err := strconv.ParseUint(e.Request.PathValue("ticketId"), 10, 64)
	if err != nil {
		return 0, apis.NewBadRequestError("Invalid ticket id", err)
	}
	return id, nil
}

// GetLedger - Ledger info for the presentation read path
func (h *LedgerHandler) GetLedger(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, ledger.Info())
}

// Mint - Organizer-only ticket allocation
func (h *LedgerHandler) Mint(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}

	var req struct {
		Recipient   string `json:"recipient"`
		MetadataURI string `json:"metadata_uri"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Recipient == "" {
		return apis.NewBadRequestError("Recipient is required", nil)
	}

	ticketID, err := ledger.Mint(e.Request.Context(), e.Auth.Id, req.Recipient, req.MetadataURI)
	if err != nil {
		h.monitor.TrackOperation("mint", "error")
		return apiError("Failed to mint ticket", err)
	}
	h.monitor.TrackOperation("mint", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"recipient": req.Recipient,
	})
}

// SetAgent - Organizer-only transfer allowlist update
func (h *LedgerHandler) SetAgent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}

	var req struct {
		Agent   string `json:"agent"`
		Enabled bool   `json:"enabled"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Agent == "" {
		return apis.NewBadRequestError("Agent is required", nil)
	}

	if err := ledger.SetAuthorizedAgent(e.Request.Context(), e.Auth.Id, req.Agent, req.Enabled); err != nil {
		h.monitor.TrackOperation("set_agent", "error")
		return apiError("Failed to update agent", err)
	}
	h.monitor.TrackOperation("set_agent", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"agent":   req.Agent,
		"enabled": req.Enabled,
	})
}

// IsAgent - Pre-flight check used by the marketplace UI before listing
func (h *LedgerHandler) IsAgent(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	address := e.Request.PathValue("address")
	return e.JSON(http.StatusOK, map[string]any{
		"address":    address,
		"authorized": ledger.IsAuthorizedAgent(address),
	})
}

// GetTicket - Owner, usage state and metadata URI of one ticket
func (h *LedgerHandler) GetTicket(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDFromPath(e)
	if err != nil {
		return err
	}

	ticket, err := ledger.GetTicket(ticketID)
	if err != nil {
		return apiError("Ticket not found", err)
	}
	return e.JSON(http.StatusOK, ticket)
}

// VerifyTicket - True iff the ticket exists and is unused
func (h *LedgerHandler) VerifyTicket(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDFromPath(e)
	if err != nil {
		return err
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"valid":     ledger.Verify(ticketID),
	})
}

// UseTicket - Mark a ticket used at the gate. Accepts the organizer's own
// session or a scanner key issued for this ledger.
func (h *LedgerHandler) UseTicket(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDFromPath(e)
	if err != nil {
		return err
	}

	caller := ""
	if e.Auth != nil {
		caller = e.Auth.Id
	}

	keyID := e.Request.Header.Get("X-Scanner-Key")
	secret := e.Request.Header.Get("X-Scanner-Secret")
	if caller != ledger.Organizer() && keyID != "" {
		if err := h.scannerKeys.Verify(e.Request.Context(), ledger.ID(), keyID, secret); err != nil {
			return apiError("Invalid scanner key", err)
		}
		// A verified scanner acts with the organizer's authority.
		caller = ledger.Organizer()
	}
	if caller == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	if err := ledger.MarkUsed(e.Request.Context(), caller, ticketID); err != nil {
		h.monitor.TrackOperation("mark_used", "error")
		return apiError("Failed to mark ticket used", err)
	}
	h.monitor.TrackOperation("mark_used", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"used":      true,
	})
}

// BurnTicket - Organizer-only removal of an unused ticket
func (h *LedgerHandler) BurnTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDFromPath(e)
	if err != nil {
		return err
	}

	if err := ledger.Burn(e.Request.Context(), e.Auth.Id, ticketID); err != nil {
		h.monitor.TrackOperation("burn", "error")
		return apiError("Failed to burn ticket", err)
	}
	h.monitor.TrackOperation("burn", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"burned":    true,
	})
}

// GetOwnedTickets - Tickets held by one address on this ledger
func (h *LedgerHandler) GetOwnedTickets(e *core.RequestEvent) error {
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	owner := e.Request.PathValue("address")
	tickets := ledger.TicketsOf(owner)

	return e.JSON(http.StatusOK, map[string]any{
		"owner":   owner,
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// IssueScannerKey - Organizer-only issuance of gate-scanner credentials.
// The secret is returned once and stored only as a hash.
func (h *LedgerHandler) IssueScannerKey(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ledger, err := h.ledgerFromPath(e)
	if err != nil {
		return err
	}
	if e.Auth.Id != ledger.Organizer() {
		return apis.NewForbiddenError("Organizer access required", nil)
	}

	keyID, secret, err := h.scannerKeys.Issue(e.Request.Context(), ledger.ID())
	if err != nil {
		return apis.NewBadRequestError("Failed to issue scanner key", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"key_id": keyID,
		"secret": secret,
	})
}
