package provider

import (
	"context"
	"fmt"
	"time"

	"polysim/internal/store"
	"polysim/internal/types"
)

// SQLiteProvider serves snapshots from the local snapshot store,
// typically populated ahead of time by the fetch command.
type SQLiteProvider struct {
	store *store.Store
}

// NewSQLiteProvider opens the snapshot database at path
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite provider requires a database path")
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteProvider{store: s}, nil
}

// GetHistoricalData loads one market's stored snapshots in the window
func (p *SQLiteProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	return p.store.LoadSnapshots(ctx, marketID, start, end)
}

// Close releases the underlying database
func (p *SQLiteProvider) Close() error {
	return p.store.Close()
}
