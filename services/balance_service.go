package services

import (
	"sync"
	"ticket-ledger/internal/status"
)

// BalanceService is the native-currency account book, in integer smallest
// units. Settlement moves money through Settle/Revert so a sale's payment
// split is applied or undone as one unit.
type BalanceService struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewBalanceService() *BalanceService {
	return &BalanceService{balances: make(map[string]int64)}
}

func (s *BalanceService) BalanceOf(address string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[address]
}

func (s *BalanceService) Deposit(address string, amount int64) error {
	if amount <= 0 {
		return status.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[address] += amount
	return nil
}

func (s *BalanceService) Withdraw(address string, amount int64) error {
	if amount <= 0 {
		return status.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[address] < amount {
		return status.ErrInsufficientFunds
	}
	s.balances[address] -= amount
	return nil
}

// Settle debits payer by amount and credits each payee its share, all under
// one lock. The payee shares must sum to amount. Fails without any effect if
// the payer cannot cover the amount.
func (s *BalanceService) Settle(payer string, amount int64, payees map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, share := range payees {
		total += share
	}
	if total != amount {
		return status.ErrInvalidAmount
	}
	if s.balances[payer] < amount {
		return status.ErrInsufficientFunds
	}

	s.balances[payer] -= amount
	for payee, share := range payees {
		s.balances[payee] += share
	}
	return nil
}

// Revert undoes a previous Settle with the same arguments. Payee debits are
// forced even if a payee spent in between: the book stays consistent in
// aggregate, and the only caller holds the marketplace lock for the whole
// settle/revert window.
func (s *BalanceService) Revert(payer string, amount int64, payees map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[payer] += amount
	for payee, share := range payees {
		s.balances[payee] -= share
	}
}

// RestoreSnapshot replaces the whole book, used on restart recovery.
func (s *BalanceService) RestoreSnapshot(balances map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = make(map[string]int64, len(balances))
	for address, amount := range balances {
		s.balances[address] = amount
	}
}

// Snapshot copies the whole book, used by the snapshot loop.
func (s *BalanceService) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.balances))
	for address, amount := range s.balances {
		out[address] = amount
	}
	return out
}
