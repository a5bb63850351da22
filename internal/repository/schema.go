package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id                    BIGSERIAL    PRIMARY KEY,
		expires_date          TEXT         NOT NULL,
		expires_timezone_type INT          NOT NULL,
		expires_timezone      TEXT         NOT NULL,
		created_at            TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS datasets_expires_idx ON datasets (expires_date)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id          BIGSERIAL  PRIMARY KEY,
		dataset_id  BIGINT     NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		external_id TEXT       NOT NULL,
		from_id     TEXT       NOT NULL,
		from_name   TEXT       NOT NULL,
		to_id       TEXT       NOT NULL,
		to_name     TEXT       NOT NULL,
		distance    INT        NOT NULL,
		UNIQUE (dataset_id, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS routes_dataset_idx ON routes (dataset_id)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id                  BIGSERIAL         PRIMARY KEY,
		route_id            BIGINT            NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		external_id         TEXT              NOT NULL,
		price               DOUBLE PRECISION  NOT NULL,
		start_date          TEXT              NOT NULL,
		start_timezone_type INT               NOT NULL,
		start_timezone      TEXT              NOT NULL,
		end_date            TEXT              NOT NULL,
		end_timezone_type   INT               NOT NULL,
		end_timezone        TEXT              NOT NULL,
		company_id          TEXT              NOT NULL,
		company_state       TEXT              NOT NULL,
		UNIQUE (route_id, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS schedules_route_idx ON schedules (route_id)`,
	// dataset_id is a freshness key only, bookings outlive their dataset
	`CREATE TABLE IF NOT EXISTS bookings (
		id                  BIGSERIAL         PRIMARY KEY,
		reference           TEXT              NOT NULL UNIQUE,
		dataset_id          BIGINT            NOT NULL,
		first_name          TEXT              NOT NULL,
		last_name           TEXT              NOT NULL,
		from_name           TEXT              NOT NULL,
		to_name             TEXT              NOT NULL,
		start_date          TEXT              NOT NULL,
		start_timezone_type INT               NOT NULL,
		start_timezone      TEXT              NOT NULL,
		end_date            TEXT              NOT NULL,
		end_timezone_type   INT               NOT NULL,
		end_timezone        TEXT              NOT NULL,
		price               DOUBLE PRECISION  NOT NULL,
		operator_name       TEXT              NOT NULL,
		created_at          TIMESTAMPTZ       NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
