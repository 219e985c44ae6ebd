package main

import (
	"context"
	"log"
	"ticket-ledger/config"
	"ticket-ledger/handlers"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/services"
	"ticket-ledger/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	_ "ticket-ledger/migrations"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)
	notifier := services.NewPubNubNotifier(pn)

	// Initialize core services
	registry := services.NewRegistryService(notifier)
	balances := services.NewBalanceService()
	marketplace := services.NewMarketplaceService(cfg.MarketplaceAddress, registry, balances, notifier)
	snapshots := services.NewSnapshotService(redisClient, registry, marketplace, balances, cfg.SnapshotKey, cfg.SnapshotInterval)

	// Initialize security services
	limiter := security.NewPurchaseLimiter(redisClient, cfg.PurchaseRateLimit, cfg.PurchaseRateWindow)
	scannerKeys := security.NewScannerKeyStore(redisClient)

	// Initialize monitoring
	monitor := monitoring.NewMonitor(&coreState{registry: registry, market: marketplace})

	// Initialize handlers
	registryHandler := handlers.NewRegistryHandler(app, registry, monitor, cfg.CurrencyDecimals)
	ledgerHandler := handlers.NewLedgerHandler(app, registry, scannerKeys, monitor)
	marketplaceHandler := handlers.NewMarketplaceHandler(app, marketplace, registry, limiter, monitor, cfg.CurrencyDecimals)
	balanceHandler := handlers.NewBalanceHandler(app, balances, cfg.CurrencyDecimals)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore state before serving so no request sees a cold ledger
	if err := snapshots.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore snapshot: %v", err)
	}
	snapshots.Run(ctx)

	if cfg.EnableMetrics {
		monitoring.StartOpsServer(cfg.MetricsPort, redisClient)
	}

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Event registry endpoints
		e.Router.POST("/api/events", registryHandler.CreateEvent)
		e.Router.GET("/api/events", registryHandler.ListEvents)

		// Ledger endpoints
		e.Router.GET("/api/ledgers/{ledgerId}", ledgerHandler.GetLedger)
		e.Router.POST("/api/ledgers/{ledgerId}/mint", ledgerHandler.Mint)
		e.Router.POST("/api/ledgers/{ledgerId}/agents", ledgerHandler.SetAgent)
		e.Router.GET("/api/ledgers/{ledgerId}/agents/{address}", ledgerHandler.IsAgent)
		e.Router.GET("/api/ledgers/{ledgerId}/tickets/{ticketId}", ledgerHandler.GetTicket)
		e.Router.GET("/api/ledgers/{ledgerId}/tickets/{ticketId}/verify", ledgerHandler.VerifyTicket)
		e.Router.POST("/api/ledgers/{ledgerId}/tickets/{ticketId}/use", ledgerHandler.UseTicket)
		e.Router.POST("/api/ledgers/{ledgerId}/tickets/{ticketId}/burn", ledgerHandler.BurnTicket)
		e.Router.GET("/api/ledgers/{ledgerId}/owners/{address}/tickets", ledgerHandler.GetOwnedTickets)
		e.Router.POST("/api/ledgers/{ledgerId}/scanner-keys", ledgerHandler.IssueScannerKey)

		// Marketplace endpoints
		e.Router.POST("/api/marketplace/listings", marketplaceHandler.CreateListing)
		e.Router.GET("/api/marketplace/listings", marketplaceHandler.GetActiveListings)
		e.Router.GET("/api/marketplace/listings/{listingId}", marketplaceHandler.GetListing)
		e.Router.POST("/api/marketplace/listings/{listingId}/buy", marketplaceHandler.Buy)
		e.Router.POST("/api/marketplace/listings/{listingId}/cancel", marketplaceHandler.Cancel)

		// Balance endpoints
		e.Router.GET("/api/balances/{address}", balanceHandler.GetBalance)

		// Test endpoint for funding balances
		if cfg.Environment == "development" {
			e.Router.POST("/api/balances/deposit", balanceHandler.Deposit)
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Final snapshot on shutdown
	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		log.Println("Shutdown signal received, saving final snapshot...")
		snapshots.Stop()
		cancel()
		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// coreState adapts the registry and marketplace to the metrics collector.
type coreState struct {
	registry *services.RegistryService
	market   *services.MarketplaceService
}

func (s *coreState) LedgerCounts() map[string]int {
	counts := make(map[string]int)
	for _, ledger := range s.registry.GetAllLedgers() {
		counts[ledger.ID()] = ledger.Info().TicketCount
	}
	return counts
}

func (s *coreState) ActiveListingCount() int {
	return len(s.market.GetActiveListings())
}
