package status

import "errors"

var (
	ErrUnauthorized             = errors.New("ledger: caller not authorized")
	ErrNotFound                 = errors.New("ledger: not found")
	ErrOwnerMismatch            = errors.New("ledger: transfer from incorrect owner")
	ErrAlreadyUsed              = errors.New("ledger: ticket already used")
	ErrCannotBurnUsed           = errors.New("ledger: cannot burn a used ticket")
	ErrInvalidRoyalty           = errors.New("registry: royalty basis points out of range")
	ErrInvalidPrice             = errors.New("marketplace: price must be positive")
	ErrAlreadyListed            = errors.New("marketplace: ticket already has an active listing")
	ErrNotActive                = errors.New("marketplace: listing is not active")
	ErrInsufficientPayment      = errors.New("marketplace: payment must match listing price exactly")
	ErrMarketplaceNotAuthorized = errors.New("marketplace: not allowlisted as transfer agent on ledger")
	ErrInsufficientFunds        = errors.New("balance: insufficient funds")
	ErrInvalidAmount            = errors.New("balance: amount must be positive")
	ErrScannerKeyInvalid        = errors.New("scanner: invalid scanner key")
)
