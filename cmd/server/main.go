package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/valueband/vr-service/internal/api"
	"github.com/valueband/vr-service/internal/config"
	"github.com/valueband/vr-service/internal/database"
	"github.com/valueband/vr-service/internal/history"
	"github.com/valueband/vr-service/internal/kafka"
	"github.com/valueband/vr-service/internal/ledger"
	"github.com/valueband/vr-service/internal/marketdata"
	"github.com/valueband/vr-service/internal/redis"
	"github.com/valueband/vr-service/internal/refresh"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	cfg := config.Load()

	// Connect to database and run migrations
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database.MigrationsURL(), cfg.Database.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}
	log.Info().Msg("connected to PostgreSQL database")

	// Connect to Redis (optional cache)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("connected to Redis cache")
	}

	// Kafka producer for position mutation events
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PositionsTopic, log)
	defer producer.Close()
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka producer initialized")

	// Market data and exchange rates
	market := marketdata.NewClient(cfg.Market, log)
	var rateStore marketdata.RateStore
	if redisClient != nil {
		rateStore = redisClient
	}
	rates := marketdata.NewRateCache(market, rateStore, cfg.Market.BaseCurrency, cfg.Market.QuoteCacheTTL, log)

	// Services
	historySvc := history.New(db, rates, log)
	ledgerSvc := ledger.New(db, historySvc, producer, log)

	var quoteCache refresh.QuoteCache
	if redisClient != nil {
		quoteCache = redisClient
	}
	refresher := refresh.New(db, market, quoteCache, historySvc, cfg.Market.QuoteCacheTTL, log)

	// Scheduled price refresh
	scheduler := refresh.NewScheduler(refresher, log)
	if err := scheduler.Schedule(cfg.Market.RefreshSchedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Market.RefreshSchedule).Msg("invalid refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// External price tick consumer
	pricesConsumer := kafka.NewPricesConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PriceTicksTopic,
		cfg.Kafka.ConsumerGroup,
		db,
		log,
	)
	go func() {
		if err := pricesConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("price tick consumer error")
		}
	}()

	// HTTP server
	handler := api.NewHandler(db, ledgerSvc, historySvc, refresher, market, redisClient, log)
	router := api.SetupRoutes(handler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	if err := pricesConsumer.Close(); err != nil {
		log.Error().Err(err).Msg("error closing price tick consumer")
	}

	log.Info().Msg("server stopped")
}
