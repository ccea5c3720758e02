package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/logger"
	kafkaqueue "github.com/sheikh-saqib/double-entry-ledger/internal/queue/kafka"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/double-entry-ledger/internal/worker"
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

	store := postgres.NewStore(db)
	svc := ledger.NewService(store, log)
	processor := worker.NewProcessor(svc, log)

	consumer := kafkaqueue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down worker")
		cancel()
	}()

	log.Info().
		Strs("brokers", cfg.KafkaBrokers).
		Str("topic", cfg.KafkaTopic).
		Str("group", cfg.KafkaGroupID).
		Msg("worker started, waiting for transaction jobs")

	if err := consumer.Run(ctx, processor.Process); err != nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}

	log.Info().Msg("worker exited")
}
