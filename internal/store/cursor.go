package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// Cursor returns the denom of the last selected action.
// The second return value is false when no action has been selected yet.
//
// The cursor may name a denom that no longer exists in the ledger
// (actions can be unset between cranks); that is harmless, the selector
// resumes from the first key greater than the stale value.
func (s *Store) Cursor(ctx context.Context) (asset.Denom, bool, error) {
	var denom string
	err := s.db.QueryRowContext(ctx, `
		SELECT denom FROM cursor WHERE id = 1
	`).Scan(&denom)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cursor: %w", err)
	}
	return asset.Denom(denom), true, nil
}

// SaveCursor persists the cursor. Called by the selector once per crank
// in which at least one action exists, before any external operation is
// issued, so a crank that later fails still advances past the attempted
// action instead of retrying it forever.
func (s *Store) SaveCursor(ctx context.Context, denom asset.Denom) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursor (id, denom) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET denom = excluded.denom
	`, string(denom))
	if err != nil {
		return fmt.Errorf("save cursor %s: %w", denom, err)
	}
	return nil
}
