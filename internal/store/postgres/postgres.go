// Package postgres stores the history table in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/store"
)

// Driver is the name this package registers under.
const Driver = "postgres"

func init() {
	store.Register(Driver, Open)
}

// Store implements store.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses cfg.URL, sizes the pool from cfg, verifies the connection and
// creates the history table when missing.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The caller owns the schema; see Migrate.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the history table and its period index.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// LoadHistory reads every stored row in insertion order.
func (s *Store) LoadHistory(ctx context.Context) (core.Table, error) {
	rows, err := s.pool.Query(ctx, selectQuery())
	if err != nil {
		return core.Table{}, fmt.Errorf("load history: %w", err)
	}

	loaded, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Row, error) {
		var r core.Row
		err := row.Scan(store.ScanTargets(&r)...)
		return r, err
	})
	if err != nil {
		return core.Table{}, fmt.Errorf("load history: %w", err)
	}
	return store.NewTable(loaded), nil
}

// ReplacePeriod deletes the periods present in rows and bulk-copies rows in,
// in one transaction.
func (s *Store) ReplacePeriod(ctx context.Context, rows []core.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var deleted int64
	for _, p := range store.Periods(rows) {
		tag, err := tx.Exec(ctx, deleteQuery(), p.Year, p.Month)
		if err != nil {
			return fmt.Errorf("delete period %s: %w", p, err)
		}
		deleted += tag.RowsAffected()
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{store.TableName},
		store.ColumnNames(),
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return store.Values(rows[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Info("history periods replaced",
		"driver", Driver,
		"deleted", deleted,
		"inserted", copied,
	)
	return nil
}
