// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info().Msg("✅ Connected to database")
	return conn, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              SERIAL PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		smtp_email      TEXT,
		smtp_password   TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS prospects (
		id              SERIAL PRIMARY KEY,
		owner_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		first_name      TEXT NOT NULL,
		last_name       TEXT NOT NULL,
		email           TEXT NOT NULL,
		linkedin_url    TEXT,
		company_name    TEXT NOT NULL,
		company_website TEXT,
		job_title       TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, email)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prospects_owner ON prospects(owner_id)`,
	`CREATE TABLE IF NOT EXISTS email_logs (
		id                   SERIAL PRIMARY KEY,
		prospect_id          INTEGER NOT NULL REFERENCES prospects(id) ON DELETE CASCADE,
		personalized_opening TEXT NOT NULL DEFAULT '',
		subject              TEXT NOT NULL DEFAULT '',
		full_body            TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL DEFAULT 'draft'
		                     CHECK (status IN ('draft', 'sending', 'sent', 'opened', 'replied', 'failed')),
		tracking_token       TEXT NOT NULL UNIQUE,
		last_error           TEXT NOT NULL DEFAULT '',
		sent_at              TIMESTAMPTZ,
		opened_at            TIMESTAMPTZ,
		replied_at           TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_prospect ON email_logs(prospect_id)`,
}

// Migrate creates the tables if they don't exist yet.
func Migrate(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports a Postgres unique constraint error (23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
