package services

import (
	"testing"
	"ticket-ledger/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceService_DepositWithdraw(t *testing.T) {
	balances := NewBalanceService()

	require.NoError(t, balances.Deposit("alice", 1000))
	assert.Equal(t, int64(1000), balances.BalanceOf("alice"))

	require.NoError(t, balances.Withdraw("alice", 400))
	assert.Equal(t, int64(600), balances.BalanceOf("alice"))

	err := balances.Withdraw("alice", 601)
	assert.ErrorIs(t, err, status.ErrInsufficientFunds)
	assert.Equal(t, int64(600), balances.BalanceOf("alice"))
}

func TestBalanceService_RejectsNonPositiveAmounts(t *testing.T) {
	balances := NewBalanceService()

	assert.ErrorIs(t, balances.Deposit("alice", 0), status.ErrInvalidAmount)
	assert.ErrorIs(t, balances.Deposit("alice", -5), status.ErrInvalidAmount)
	assert.ErrorIs(t, balances.Withdraw("alice", 0), status.ErrInvalidAmount)
}

func TestBalanceService_Settle(t *testing.T) {
	balances := NewBalanceService()
	balances.Deposit("buyer", 1_000_000)

	err := balances.Settle("buyer", 1_000_000, map[string]int64{
		"seller":    950_000,
		"royalties": 50_000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), balances.BalanceOf("buyer"))
	assert.Equal(t, int64(950_000), balances.BalanceOf("seller"))
	assert.Equal(t, int64(50_000), balances.BalanceOf("royalties"))
}

func TestBalanceService_Settle_SharesMustSumToAmount(t *testing.T) {
	balances := NewBalanceService()
	balances.Deposit("buyer", 1000)

	err := balances.Settle("buyer", 1000, map[string]int64{"seller": 999})
	assert.ErrorIs(t, err, status.ErrInvalidAmount)
	assert.Equal(t, int64(1000), balances.BalanceOf("buyer"))
}

func TestBalanceService_Settle_InsufficientFunds(t *testing.T) {
	balances := NewBalanceService()
	balances.Deposit("buyer", 100)

	err := balances.Settle("buyer", 1000, map[string]int64{"seller": 1000})
	assert.ErrorIs(t, err, status.ErrInsufficientFunds)

	// No partial effect on any account.
	assert.Equal(t, int64(100), balances.BalanceOf("buyer"))
	assert.Equal(t, int64(0), balances.BalanceOf("seller"))
}

func TestBalanceService_Revert(t *testing.T) {
	balances := NewBalanceService()
	balances.Deposit("buyer", 1000)

	payees := map[string]int64{"seller": 900, "royalties": 100}
	require.NoError(t, balances.Settle("buyer", 1000, payees))
	balances.Revert("buyer", 1000, payees)

	assert.Equal(t, int64(1000), balances.BalanceOf("buyer"))
	assert.Equal(t, int64(0), balances.BalanceOf("seller"))
	assert.Equal(t, int64(0), balances.BalanceOf("royalties"))
}

func TestBalanceService_SnapshotRoundTrip(t *testing.T) {
	balances := NewBalanceService()
	balances.Deposit("alice", 100)
	balances.Deposit("bob", 200)

	restored := NewBalanceService()
	restored.RestoreSnapshot(balances.Snapshot())

	assert.Equal(t, int64(100), restored.BalanceOf("alice"))
	assert.Equal(t, int64(200), restored.BalanceOf("bob"))
}
