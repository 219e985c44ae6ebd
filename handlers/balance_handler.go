package handlers

import (
	"net/http"
	"ticket-ledger/models"
	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BalanceHandler struct {
	app      *pocketbase.PocketBase
	balances *services.BalanceService
	decimals int32
}

func NewBalanceHandler(app *pocketbase.PocketBase, balances *services.BalanceService, decimals int) *BalanceHandler {
	return &BalanceHandler{
		app:      app,
		balances: balances,
		decimals: int32(decimals),
	}
}

// GetBalance - Native-currency balance of one address
func (h *BalanceHandler) GetBalance(e *core.RequestEvent) error {
	address := e.Request.PathValue("address")
	balance := h.balances.BalanceOf(address)

	return e.JSON(http.StatusOK, map[string]any{
		"address":         address,
		"balance":         balance,
		"balance_display": models.FormatAmount(balance, h.decimals),
	})
}

// Deposit - Development faucet crediting the caller's balance
func (h *BalanceHandler) Deposit(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	amount, err := models.ParseAmount(req.Amount, h.decimals)
	if err != nil {
		return apis.NewBadRequestError("Invalid amount", err)
	}

	if err := h.balances.Deposit(e.Auth.Id, amount); err != nil {
		return apiError("Failed to deposit", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"address": e.Auth.Id,
		"balance": h.balances.BalanceOf(e.Auth.Id),
	})
}
