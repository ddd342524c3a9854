package main

import (
	"context"                            // context package is needed for Redis operations and shutdown
	"errors"                             // Server close detection
	"net/http"                           // HTTP server
	"os"                                 // Signals
	"os/signal"                          // Graceful shutdown
	"syscall"                            // SIGTERM
	"time"                               // Shutdown deadline
	"trading_simulator/internal/account" // Credential store
	"trading_simulator/internal/api"     // Custom package for API handlers
	"trading_simulator/internal/config"  // Custom package for configuration
	"trading_simulator/internal/db"      // Database bootstrap
	"trading_simulator/internal/events"  // Trade events
	"trading_simulator/internal/ledger"  // Trading ledger
	"trading_simulator/internal/quote"   // Quote providers
	"trading_simulator/internal/utils"   // Cache implementations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.DBAutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("failed to migrate DB: %v", err)
		}
	}

	cache := newCache(cfg)
	quotes := newQuoter(cfg)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logrus.WithFields(logrus.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic}).Info("Publishing trade events")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(api.Options{
		Accounts:      account.NewService(gdb, cfg.InitialCash),
		Ledger:        ledger.NewEngine(gdb, quotes, publisher),
		Cache:         cache,
		CacheTTL:      cfg.CacheTTL,
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.IsProd, // Production is served over HTTPS
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	server := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("shutdown: %v", err)
	}
	logrus.Info("Shutdown complete")
}

// newCache connects to Redis when configured, otherwise keeps cached views in process
func newCache(cfg *config.Config) utils.Cache {
	if cfg.RedisAddr == "" {
		local, err := utils.NewLocalCache(64 << 20)
		if err != nil {
			logrus.Fatalf("failed to create cache: %v", err)
		}
		return local
	}
	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	return utils.NewRedisCache(redisClient)
}

// newQuoter selects the quote provider
func newQuoter(cfg *config.Config) quote.Quoter {
	switch cfg.QuoteProvider {
	case "fixed":
		fixed, err := quote.NewFixed(cfg.FixedQuotes)
		if err != nil {
			logrus.Fatalf("invalid QUOTE_FIXED_PRICES: %v", err)
		}
		return fixed
	case "eodhd", "":
		return quote.NewClient(cfg.QuoteBaseURL, cfg.QuoteAPIKey, cfg.QuoteTimeout)
	default:
		logrus.Fatalf("unsupported QUOTE_PROVIDER %q", cfg.QuoteProvider)
		return nil
	}
}
