// Command migrate applies the database schema and seeds the standard
// chart of accounts.
package main

import (
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/logger"
)

//go:embed schema.sql
var schema string

var seedAccounts = []string{"Cash", "Revenue", "Expense", "Liabilities", "Equity", "Bank"}

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

	if _, err := db.Exec(schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	log.Info().Msg("schema applied")

	const insert = `INSERT INTO accounts (id, name, balance, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (name) DO NOTHING`

	for _, name := range seedAccounts {
		res, err := db.Exec(insert, uuid.New().String(), name, time.Now().UTC())
		if err != nil {
			log.Fatal().Err(err).Str("account", name).Msg("failed to seed account")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Info().Str("account", name).Msg("created account")
		} else {
			log.Info().Str("account", name).Msg("account already exists")
		}
	}

	log.Info().Msg("seeding complete")
}
