package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"ticket-ledger/models"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotService persists the full ledger core (ledgers, listings,
// balances) into Redis so a restart resumes where the process left off. The
// in-memory state stays authoritative; Redis is the durability layer.
type SnapshotService struct {
	Redis    *redis.Client
	registry *RegistryService
	market   *MarketplaceService
	balances *BalanceService
	key      string
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSnapshotService(redisClient *redis.Client, registry *RegistryService, market *MarketplaceService, balances *BalanceService, key string, interval time.Duration) *SnapshotService {
	return &SnapshotService{
		Redis:    redisClient,
		registry: registry,
		market:   market,
		balances: balances,
		key:      key,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *SnapshotService) buildSnapshot() models.StateSnapshot {
	return models.StateSnapshot{
		Ledgers:     s.registry.Snapshot(),
		Marketplace: s.market.Snapshot(),
		Balances:    s.balances.Snapshot(),
		TakenAt:     time.Now().UTC(),
	}
}

// Save writes the current state under the snapshot key.
func (s *SnapshotService) Save(ctx context.Context) error {
	data, err := json.Marshal(s.buildSnapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.Redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Restore loads the latest snapshot, if any, into the services. A missing
// key is a cold start, not an error.
func (s *SnapshotService) Restore(ctx context.Context) error {
	data, err := s.Redis.Get(ctx, s.key).Result()
	if err == redis.Nil {
		log.Println("No snapshot found, starting with empty state")
		return nil
	} else if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var snap models.StateSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	s.registry.RestoreSnapshot(snap.Ledgers)
	s.market.RestoreSnapshot(snap.Marketplace)
	s.balances.RestoreSnapshot(snap.Balances)

	log.Printf("Restored snapshot from %s: %d ledgers, %d listings",
		snap.TakenAt.Format(time.RFC3339), len(snap.Ledgers), len(snap.Marketplace.Listings))
	return nil
}

// Run periodically saves snapshots until Stop is called.
func (s *SnapshotService) Run(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(ctx); err != nil {
					log.Printf("Error saving snapshot: %v", err)
				}
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and writes one final snapshot.
func (s *SnapshotService) Stop() {
	close(s.stopChan)
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		log.Printf("Error saving final snapshot: %v", err)
	}
}
