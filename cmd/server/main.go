package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/vervegrand/sentos-sync/config"
	httpDelivery "github.com/vervegrand/sentos-sync/internal/delivery/http"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/cache"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/sentos"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/shopify"
	"github.com/vervegrand/sentos-sync/internal/usecase"
)

func main() {
	// Local .env is optional; real deployments set env vars directly
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Sentos Sync v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	sentosClient := sentos.NewClient(cfg.Sentos.FeedURL)
	shopifyClient := shopify.NewClient(cfg.Shopify.StoreURL, cfg.Shopify.AccessToken)
	shopifyClient.SetPagePacing(cfg.Sync.PagesPerSecond)
	shopifyClient.SetMaxPages(cfg.Sync.MaxPages)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		sentosClient.SetDebug(true)
		shopifyClient.SetDebug(true)
		log.Printf("Client debug mode enabled")
	}

	if cfg.Sentos.FeedURL != "" {
		log.Printf("Sentos feed configured: %s", cfg.Sentos.FeedURL)
	} else {
		log.Printf("WARNING: Sentos feed URL not configured - feed endpoints will fail!")
	}
	if cfg.Shopify.StoreURL != "" {
		log.Printf("Shopify store configured: %s", cfg.Shopify.StoreURL)
	} else {
		log.Printf("WARNING: Shopify store not configured - sync endpoints will fail!")
	}

	reportStore := cache.NewReportStore(cfg.Sync.ReportTTL)
	log.Printf("Report history TTL: %s", cfg.Sync.ReportTTL)

	// Initialize usecase layer
	syncService := usecase.NewSyncService(
		sentosClient,
		shopifyClient,
		reportStore,
		usecase.SyncServiceConfig{
			BoundaryTag:         cfg.Sentos.BoundaryTag,
			FetchTimeout:        cfg.Sentos.FetchTimeout,
			WritesPerSecond:     cfg.Sync.WritesPerSecond,
			SimilarityThreshold: cfg.Matching.SimilarityThreshold,
			EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
		},
	)

	analysisService := usecase.NewAnalysisService(
		sentosClient,
		cfg.Sentos.BoundaryTag,
		cfg.Sentos.SampleBytes,
		cfg.Sentos.FetchTimeout,
	)

	log.Printf("Matching: similarity=%.2f, debug=%v",
		cfg.Matching.SimilarityThreshold,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(syncService, analysisService, shopifyClient, reportStore)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
