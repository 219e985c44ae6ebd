package services

import (
	"context"
	"testing"
	"ticket-ledger/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryService_CreateLedger(t *testing.T) {
	notifier := &recordingNotifier{}
	registry := NewRegistryService(notifier)
	ctx := context.Background()

	ledger, err := registry.CreateLedger(ctx, "organizer", "Test Concert", "TCKT", "royalties", 500, 1_000_000)
	require.NoError(t, err)
	assert.NotEmpty(t, ledger.ID())
	assert.Equal(t, "organizer", ledger.Organizer())
	assert.Equal(t, int64(1_000_000), ledger.UnitPrice())

	found, err := registry.GetLedger(ledger.ID())
	require.NoError(t, err)
	assert.Same(t, ledger, found)

	assert.Equal(t, []string{NotifLedgerCreated}, notifier.typesSeen())
	assert.Equal(t, []string{"registry"}, notifier.channels)
}

func TestRegistryService_CreateLedger_Validation(t *testing.T) {
	registry := NewRegistryService(nil)
	ctx := context.Background()

	_, err := registry.CreateLedger(ctx, "", "Name", "SYM", "r", 0, 0)
	assert.Error(t, err)

	_, err = registry.CreateLedger(ctx, "organizer", "", "SYM", "r", 0, 0)
	assert.Error(t, err)

	_, err = registry.CreateLedger(ctx, "organizer", "Name", "SYM", "r", -1, 0)
	assert.ErrorIs(t, err, status.ErrInvalidRoyalty)

	_, err = registry.CreateLedger(ctx, "organizer", "Name", "SYM", "r", 10001, 0)
	assert.ErrorIs(t, err, status.ErrInvalidRoyalty)

	_, err = registry.CreateLedger(ctx, "organizer", "Name", "SYM", "r", 0, -5)
	assert.ErrorIs(t, err, status.ErrInvalidPrice)

	// 100% royalty is the inclusive upper bound.
	_, err = registry.CreateLedger(ctx, "organizer", "Name", "SYM", "r", 10000, 0)
	assert.NoError(t, err)
}

func TestRegistryService_GetLedger_NotFound(t *testing.T) {
	registry := NewRegistryService(nil)

	_, err := registry.GetLedger("missing")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestRegistryService_GetAllLedgers_CreationOrder(t *testing.T) {
	registry := NewRegistryService(nil)
	ctx := context.Background()

	first, _ := registry.CreateLedger(ctx, "organizer", "First", "EV1", "r", 500, 100)
	second, _ := registry.CreateLedger(ctx, "organizer", "Second", "EV2", "r", 1000, 200)

	all := registry.GetAllLedgers()
	require.Len(t, all, 2)
	assert.Same(t, first, all[0])
	assert.Same(t, second, all[1])
}

func TestRegistryService_SnapshotRoundTrip(t *testing.T) {
	registry := NewRegistryService(nil)
	ctx := context.Background()

	a, _ := registry.CreateLedger(ctx, "organizer", "A", "A", "r", 500, 100)
	b, _ := registry.CreateLedger(ctx, "organizer", "B", "B", "r", 250, 200)
	a.Mint(ctx, "organizer", "alice", "")

	restored := NewRegistryService(nil)
	restored.RestoreSnapshot(registry.Snapshot())

	all := restored.GetAllLedgers()
	require.Len(t, all, 2)
	assert.Equal(t, a.Info(), all[0].Info())
	assert.Equal(t, b.Info(), all[1].Info())
}
