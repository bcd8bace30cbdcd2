package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/api"
	"github.com/trogers1052/oms-service/internal/config"
	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/holdings"
	"github.com/trogers1052/oms-service/internal/kafka"
	"github.com/trogers1052/oms-service/internal/refdata"
	"github.com/trogers1052/oms-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Service exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}

	policy := access.NewPolicy(nil)
	if err := policy.Reload(ctx, db); err != nil {
		return err
	}

	var fetcher refdata.Fetcher = refdata.NewClient(cfg.RefData.BaseURL, cfg.RefData.Timeout, log)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, reference data cache will miss")
		}
		fetcher = refdata.NewCachedFetcher(fetcher, rdb, cfg.Redis.TTL, log)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Reference data cache enabled")
	}

	var publisher api.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, log)
		defer producer.Close()
		publisher = producer

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TradesTopic, cfg.Kafka.GroupID, db, cfg.Trades.StrictDirection, log)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("Booked trade consumer stopped")
			}
		}()
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka enabled")
	}

	handler := api.NewHandler(
		db,
		publisher,
		holdings.NewService(db, policy, log),
		refdata.NewService(fetcher, log),
		policy,
		api.Options{StrictDirection: cfg.Trades.StrictDirection},
		log,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.SetupRoutes(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Service stopped")
	return nil
}
