// Package store persists market snapshot history in a local SQLite
// database so fetched data can be replayed without hitting remote APIs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"polysim/internal/types"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	market_id TEXT NOT NULL,
	ts        INTEGER NOT NULL,
	price     REAL NOT NULL,
	volume    REAL NOT NULL DEFAULT 0,
	liquidity REAL NOT NULL DEFAULT 0,
	resolved  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (market_id, ts)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_market_ts ON snapshots (market_id, ts);
`

// Store is a snapshot history database. Timestamps are stored as unix
// seconds in UTC; one row per (market, instant).
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshots upserts a batch of snapshots inside one transaction. A row
// already present for the same (market, timestamp) is replaced.
func (s *Store) SaveSnapshots(ctx context.Context, snapshots []types.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO snapshots (market_id, ts, price, volume, liquidity, resolved)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		resolved := 0
		if snap.Resolved {
			resolved = 1
		}
		if _, err := stmt.ExecContext(ctx, snap.MarketID, snap.Timestamp.UTC().Unix(),
			snap.Price, snap.Volume, snap.Liquidity, resolved); err != nil {
			return fmt.Errorf("failed to insert snapshot for %s: %w", snap.MarketID, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshots returns the stored snapshots for one market ordered by
// time ascending. Zero bounds leave the corresponding side open.
func (s *Store) LoadSnapshots(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	query := `SELECT market_id, ts, price, volume, liquidity, resolved
		FROM snapshots WHERE market_id = ?`
	args := []interface{}{marketID}

	if !start.IsZero() {
		query += " AND ts >= ?"
		args = append(args, start.UTC().Unix())
	}
	if !end.IsZero() {
		query += " AND ts <= ?"
		args = append(args, end.UTC().Unix())
	}
	query += " ORDER BY ts ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", marketID, err)
	}
	defer rows.Close()

	var snapshots []types.Snapshot
	for rows.Next() {
		var snap types.Snapshot
		var ts int64
		var resolved int
		if err := rows.Scan(&snap.MarketID, &ts, &snap.Price, &snap.Volume, &snap.Liquidity, &resolved); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.Timestamp = time.Unix(ts, 0).UTC()
		snap.Resolved = resolved != 0
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Markets lists the distinct market ids present in the store
func (s *Store) Markets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT market_id FROM snapshots ORDER BY market_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	defer rows.Close()

	var markets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan market id: %w", err)
		}
		markets = append(markets, id)
	}
	return markets, rows.Err()
}

// Count returns the number of stored snapshots for a market
func (s *Store) Count(ctx context.Context, marketID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE market_id = ?`, marketID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots for %s: %w", marketID, err)
	}
	return n, nil
}
