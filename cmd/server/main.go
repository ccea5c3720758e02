package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/logger"
	kafkaqueue "github.com/sheikh-saqib/double-entry-ledger/internal/queue/kafka"
	"github.com/sheikh-saqib/double-entry-ledger/internal/server"
	"github.com/sheikh-saqib/double-entry-ledger/internal/server/middleware"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Str("host", cfg.PostgresHost).Str("db", cfg.PostgresDB).Msg("connected to postgres")

	// Rate limiting is optional; without Redis the limiter is a no-op.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, rate limiting disabled")
			rdb = nil
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
		}
	}

	publisher := kafkaqueue.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	store := postgres.NewStore(db)
	svc := ledger.NewService(store, log)
	handler := server.NewHandler(svc, publisher)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(log))
	server.SetupRoutes(engine, handler,
		middleware.RateLimit(rdb, cfg.RateLimitLimit, cfg.RateLimitTTL, log))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting ledger API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
