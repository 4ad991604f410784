// Package sqlite stores the history table in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/store"
)

// Driver is the name this package registers under.
const Driver = "sqlite"

func init() {
	store.Register(Driver, Open)
}

// Store implements store.Store on a single SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens the database file named by cfg.URL. A "sqlite://" or "file:"
// prefix is accepted.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	path := strings.TrimPrefix(cfg.URL, "sqlite://")
	return New(ctx, path)
}

// New opens path and creates the history table when missing.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadHistory reads every stored row in insertion order.
func (s *Store) LoadHistory(ctx context.Context) (core.Table, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		store.QuotedColumns(), store.QuoteIdentifier(store.TableName)))
	if err != nil {
		return core.Table{}, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var loaded []core.Row
	for rows.Next() {
		var r core.Row
		if err := rows.Scan(store.ScanTargets(&r)...); err != nil {
			return core.Table{}, fmt.Errorf("load history: %w", err)
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("load history: %w", err)
	}
	return store.NewTable(loaded), nil
}

// ReplacePeriod deletes the periods present in rows and inserts rows, in one
// transaction.
func (s *Store) ReplacePeriod(ctx context.Context, rows []core.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	table := store.QuoteIdentifier(store.TableName)

	var deleted int64
	for _, p := range store.Periods(rows) {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE tahun = ? AND nbulan = ?", table), p.Year, p.Month)
		if err != nil {
			return fmt.Errorf("delete period %s: %w", p, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(store.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, store.QuotedColumns(), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range rows {
		if _, err = stmt.ExecContext(ctx, store.Values(rows[i])...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	slog.Info("history periods replaced",
		"driver", Driver,
		"deleted", deleted,
		"inserted", len(rows),
	)
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tahun INTEGER NOT NULL,
			bulan TEXT NOT NULL,
			nbulan INTEGER NOT NULL,
			daerah TEXT NOT NULL,
			pulau TEXT NOT NULL,
			produsen TEXT NOT NULL,
			total REAL NOT NULL,
			kemasan TEXT NOT NULL,
			negara TEXT NOT NULL,
			holding TEXT NOT NULL,
			merk TEXT NOT NULL,
			segment TEXT,
			area_ap TEXT
		);`, store.QuoteIdentifier(store.TableName)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (tahun, nbulan);`,
			store.QuoteIdentifier(store.TableName+"_period_idx"), store.QuoteIdentifier(store.TableName)),
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
