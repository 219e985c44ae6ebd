package handlers

import (
	"net/http"
	"strconv"
	"ticket-ledger/models"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type MarketplaceHandler struct {
	app      *pocketbase.PocketBase
	market   *services.MarketplaceService
	registry *services.RegistryService
	limiter  *security.PurchaseLimiter
	monitor  *monitoring.Monitor
	decimals int32
}

func NewMarketplaceHandler(app *pocketbase.PocketBase, market *services.MarketplaceService, registry *services.RegistryService, limiter *security.PurchaseLimiter, monitor *monitoring.Monitor, decimals int) *MarketplaceHandler {
	return &MarketplaceHandler{
		app:      app,
		market:   market,
		registry: registry,
		limiter:  limiter,
		monitor:  monitor,
		decimals: int32(decimals),
	}
}

func listingIDFromPath(e *core.RequestEvent) (uint64, error) {
	id, err := strconv.ParseUint(e.Request.PathValue("listingId"), 10, 64)
	if err != nil {
		return 0, apis.NewBadRequestError("Invalid listing id", err)
	}
	return id, nil
}

// CreateListing - List a ticket for resale; the marketplace takes custody
func (h *MarketplaceHandler) CreateListing(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		LedgerID string `json:"ledger_id"`
		TicketID uint64 `json:"ticket_id"`
		Price    string `json:"price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	price, err := models.ParseAmount(req.Price, h.decimals)
	if err != nil {
		return apis.NewBadRequestError("Invalid price", err)
	}

	listingID, err := h.market.ListTicket(e.Request.Context(), e.Auth.Id, req.LedgerID, req.TicketID, price)
	if err != nil {
		h.monitor.TrackOperation("list_ticket", "error")
		return apiError("Failed to list ticket", err)
	}
	h.monitor.TrackOperation("list_ticket", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"listing_id": listingID,
		"price":      price,
	})
}

// GetActiveListings - Active listings in ascending id order, joined with
// ledger metadata. Always returns a listings array, empty when nothing is
// for sale.
func (h *MarketplaceHandler) GetActiveListings(e *core.RequestEvent) error {
	ids := h.market.GetActiveListings()

	listings := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		listing, err := h.market.GetListing(id)
		if err != nil {
			continue
		}
		listings = append(listings, h.listingResponse(listing))
	}

	return e.JSON(http.StatusOK, map[string]any{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetListing - One listing record, active or settled
func (h *MarketplaceHandler) GetListing(e *core.RequestEvent) error {
	listingID, err := listingIDFromPath(e)
	if err != nil {
		return err
	}
	listing, err := h.market.GetListing(listingID)
	if err != nil {
		return apiError("Listing not found", err)
	}
	return e.JSON(http.StatusOK, h.listingResponse(listing))
}

// Buy - Settle an active listing with exact payment
func (h *MarketplaceHandler) Buy(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if !h.limiter.Allow(e.Request.Context(), e.Auth.Id) {
		return e.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Too many purchase attempts. Please try again later.",
		})
	}

	listingID, err := listingIDFromPath(e)
	if err != nil {
		return err
	}

	var req struct {
		PaidAmount string `json:"paid_amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	paidAmount, err := models.ParseAmount(req.PaidAmount, h.decimals)
	if err != nil {
		return apis.NewBadRequestError("Invalid paid amount", err)
	}

	if err := h.market.BuyTicket(e.Request.Context(), e.Auth.Id, listingID, paidAmount); err != nil {
		h.monitor.TrackOperation("buy_ticket", "error")
		return apiError("Failed to buy ticket", err)
	}
	h.monitor.TrackOperation("buy_ticket", "success")

	if listing, err := h.market.GetListing(listingID); err == nil {
		h.monitor.TrackSale(listing.LedgerID, listing.Price)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"listing_id": listingID,
		"status":     models.ListingStatusSold,
	})
}

// Cancel - Seller-initiated cancellation; custody returns to the seller
func (h *MarketplaceHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	listingID, err := listingIDFromPath(e)
	if err != nil {
		return err
	}

	if err := h.market.CancelListing(e.Request.Context(), e.Auth.Id, listingID); err != nil {
		h.monitor.TrackOperation("cancel_listing", "error")
		return apiError("Failed to cancel listing", err)
	}
	h.monitor.TrackOperation("cancel_listing", "success")

	return e.JSON(http.StatusOK, map[string]any{
		"listing_id": listingID,
		"status":     models.ListingStatusCancelled,
	})
}

func (h *MarketplaceHandler) listingResponse(listing models.Listing) map[string]any {
	resp := map[string]any{
		"listing_id":    listing.ID,
		"ledger_id":     listing.LedgerID,
		"ticket_id":     listing.TicketID,
		"seller":        listing.Seller,
		"price":         listing.Price,
		"price_display": models.FormatAmount(listing.Price, h.decimals),
		"active":        listing.Active,
		"status":        listing.Status,
	}
	if ledger, err := h.registry.GetLedger(listing.LedgerID); err == nil {
		resp["event_name"] = ledger.Name()
		resp["event_symbol"] = ledger.Symbol()
	}
	return resp
}
