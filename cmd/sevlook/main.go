package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sevlook/sevlook/internal/lookup"
	"github.com/sevlook/sevlook/internal/notifications"
	"github.com/sevlook/sevlook/internal/sevco"
	"github.com/sevlook/sevlook/internal/storage"
	"github.com/sevlook/sevlook/internal/webserver"
)

func main() {
	ctx := context.Background()

	// Initialize Logrus
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// One-shot mode: look up a single term, print the result, exit.
	termFlag := flag.String("t", "", "Look up a single term and exit")
	flag.Parse()

	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found. Proceeding with environment variables.")
	}

	lookupCfg, err := lookup.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load lookup configuration: %v", err)
	}

	storageCfg, err := storage.LoadStorageConfig()
	if err != nil {
		logger.Fatalf("Failed to load storage configuration: %v", err)
	}

	// Initialize Store
	var store storage.Store
	switch storageCfg.Type {
	case "bolt":
		store, err = storage.NewBoltStore(storageCfg.Path)
		if err != nil {
			logger.Fatalf("Failed to initialize BoltDB store: %v", err)
		}
		defer store.Close(ctx)
		logger.Info("BoltDB store initialized successfully")
	case "redis":
		store, err = storage.NewRedisStore(storageCfg)
		if err != nil {
			logger.Fatalf("Failed to initialize Redis store: %v", err)
		}
		defer store.Close(ctx)
		logger.Info("Redis store initialized successfully")
	default:
		logger.Fatalf("Unsupported storage type: %s", storageCfg.Type)
	}

	// Seed credentials from the environment when the store is empty.
	creds, err := store.GetCredentials(ctx)
	if err != nil {
		logger.Fatalf("Failed to read credentials: %v", err)
	}
	if !creds.Complete() && lookupCfg.SeedCredentials.APIKey != "" {
		if err := store.SaveCredentials(ctx, lookupCfg.SeedCredentials); err != nil {
			logger.Fatalf("Failed to seed credentials: %v", err)
		}
		logger.Info("Seeded credentials from environment")
	}

	// Initialize the API client
	client := sevco.NewClient()
	if lookupCfg.Rate > 0 {
		limiter := &sevco.RateLimiter{
			Limiter: rate.NewLimiter(lookupCfg.Rate, lookupCfg.Burst),
			Rate:    lookupCfg.Rate,
			Burst:   lookupCfg.Burst,
		}
		logger.Infof("Setting API rate limiter: %v req/s, burst %d", lookupCfg.Rate, lookupCfg.Burst)
		client.SetRateLimiter(limiter)
	}

	// Initialize the optional notifier
	var notifier *notifications.Notifier
	notificationCfg := notifications.LoadNotificationConfig()
	if len(notificationCfg.ShoutrrrURLs) > 0 {
		notifier, err = notifications.NewNotifier(notificationCfg.ShoutrrrURLs)
		if err != nil {
			logger.Fatalf("Failed to initialize notifier: %v", err)
		}
		logger.Info("Notifier initialized successfully")
	}

	// Initialize the lookup service
	service := lookup.NewService(lookup.ServiceConfig{
		Client:   client,
		Store:    store,
		Notifier: notifier,
	}, lookupCfg.MaxConcurrency)

	if *termFlag != "" {
		runOnce(ctx, logger, service, *termFlag)
		return
	}

	webServerConfig, err := webserver.NewWebserverConfig()
	if err != nil {
		logger.Fatalf("Failed to load webserver configuration: %v", err)
	}

	webServer := webserver.NewWebServer(service, store, client, webServerConfig, logger)

	ctxCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	server, err := webserver.StartWebServer(ctxCancel, webServer)
	if err != nil {
		logger.Fatalf("Failed to start web server: %v", err)
	}

	// Listen for OS signals to handle graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	logger.Infof("Received signal: %s. Initiating shutdown...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Failed to gracefully shutdown the server: %v", err)
	}

	logger.Info("Shutdown complete. Exiting.")
}

// runOnce performs a single lookup and prints the published result.
func runOnce(ctx context.Context, logger *logrus.Logger, service *lookup.Service, term string) {
	result, err := service.Do(ctx, term)
	if err != nil {
		logger.Fatalf("Lookup failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("Failed to encode result: %v", err)
	}
}
