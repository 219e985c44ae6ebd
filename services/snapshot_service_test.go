package services

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"testing"
	"ticket-ledger/models"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regexpArgsMatch matches expected string args as regular expressions
// against the actual args positionally. redismock's built-in Regexp()
// cannot match []byte values: it formats them as a number slice before
// applying the pattern.
func regexpArgsMatch(expected, actual []interface{}) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("parameters do not match, expectation '%+v', but call to cmd '%+v'", expected, actual)
	}
	for i := range expected {
		expr, ok := expected[i].(string)
		if !ok {
			if !reflect.DeepEqual(expected[i], actual[i]) {
				return fmt.Errorf("args not `DeepEqual`, expectation: '%+v', but gave: '%+v'", expected[i], actual[i])
			}
			continue
		}
		var value string
		if b, ok := actual[i].([]byte); ok {
			value = string(b)
		} else {
			value = fmt.Sprint(actual[i])
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return err
		}
		if !re.MatchString(value) {
			return fmt.Errorf("args not match, expectation regular: '%s', but gave: '%s'", expr, value)
		}
	}
	return nil
}

func TestSnapshotService_Save(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	registry := NewRegistryService(nil)
	balances := NewBalanceService()
	market := NewMarketplaceService("marketplace", registry, balances, nil)
	snapshots := NewSnapshotService(db, registry, market, balances, "ledger:snapshot", time.Minute)

	registry.CreateLedger(context.Background(), "organizer", "Show", "SHW", "r", 500, 100)

	// The payload embeds a capture timestamp, so match by pattern.
	redisMock.CustomMatch(regexpArgsMatch).ExpectSet("ledger:snapshot", `.*"ledgers":.*`, 0).SetVal("OK")

	err := snapshots.Save(context.Background())
	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestSnapshotService_Restore(t *testing.T) {
	ctx := context.Background()

	// Build a populated state and serialize it the way Save does.
	srcRegistry := NewRegistryService(nil)
	srcBalances := NewBalanceService()
	srcMarket := NewMarketplaceService("marketplace", srcRegistry, srcBalances, nil)

	ledger, err := srcRegistry.CreateLedger(ctx, "organizer", "Show", "SHW", "royalties", 500, 1_000_000)
	require.NoError(t, err)
	_, err = ledger.Mint(ctx, "organizer", "seller", "ipfs://meta/0")
	require.NoError(t, err)
	require.NoError(t, ledger.SetAuthorizedAgent(ctx, "organizer", "marketplace", true))
	require.NoError(t, srcBalances.Deposit("buyer", 2_000_000))
	_, err = srcMarket.ListTicket(ctx, "seller", ledger.ID(), 0, 1_000_000)
	require.NoError(t, err)

	data, err := json.Marshal(models.StateSnapshot{
		Ledgers:     srcRegistry.Snapshot(),
		Marketplace: srcMarket.Snapshot(),
		Balances:    srcBalances.Snapshot(),
		TakenAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	db, redisMock := redismock.NewClientMock()
	registry := NewRegistryService(nil)
	balances := NewBalanceService()
	market := NewMarketplaceService("marketplace", registry, balances, nil)
	snapshots := NewSnapshotService(db, registry, market, balances, "ledger:snapshot", time.Minute)

	redisMock.ExpectGet("ledger:snapshot").SetVal(string(data))
	require.NoError(t, snapshots.Restore(ctx))
	assert.NoError(t, redisMock.ExpectationsWereMet())

	// The restored process can finish the sale the old one started.
	restored, err := registry.GetLedger(ledger.ID())
	require.NoError(t, err)
	owner, err := restored.OwnerOf(0)
	require.NoError(t, err)
	assert.Equal(t, "marketplace", owner)
	assert.Equal(t, int64(2_000_000), balances.BalanceOf("buyer"))

	require.NoError(t, market.BuyTicket(ctx, "buyer", 0, 1_000_000))
	owner, _ = restored.OwnerOf(0)
	assert.Equal(t, "buyer", owner)
}

func TestSnapshotService_Restore_ColdStart(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	registry := NewRegistryService(nil)
	balances := NewBalanceService()
	market := NewMarketplaceService("marketplace", registry, balances, nil)
	snapshots := NewSnapshotService(db, registry, market, balances, "ledger:snapshot", time.Minute)

	redisMock.ExpectGet("ledger:snapshot").RedisNil()

	require.NoError(t, snapshots.Restore(context.Background()))
	assert.Empty(t, registry.GetAllLedgers())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
