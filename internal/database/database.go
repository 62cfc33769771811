// Package database opens the PostgreSQL pool backing the ledger and the
// learned description mappings, and applies the embedded schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

const pingTimeout = 5 * time.Second

// New opens the pool and waits for the server to answer. Every ledger write
// holds one connection for its whole locked read-sum-write scope, so the pool
// caps how many items can be written concurrently.
func New(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.FromContext(ctx).Debug().Msg("database connection established")

	return db, nil
}
