package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

// databases holds the two handles: pgx for snapshots, database/sql for the outbox.
type databases struct {
	pool *pgxpool.Pool
	sql  *sql.DB
}

func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*databases, error) {
	pool, err := store.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		pool.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("user", cfg.User).
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("connected to database")
	return &databases{pool: pool, sql: db}, nil
}

func (d *databases) Close() {
	d.pool.Close()
	if err := d.sql.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
