package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// ErrNotInitialized is returned when configuration is read before the
// store has been initialized (revcon init).
var ErrNotInitialized = errors.New("store not initialized: no configuration")

// SaveConfig writes the full configuration in a single transaction,
// replacing any existing configuration. The sweep denom and target
// orders are preserved via explicit positions.
func (s *Store) SaveConfig(ctx context.Context, cfg asset.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save config: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO config (id, owner, executor)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET owner = excluded.owner, executor = excluded.executor
	`, cfg.Owner, cfg.Executor)
	if err != nil {
		return fmt.Errorf("save config: write identities: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sweep_denoms`); err != nil {
		return fmt.Errorf("save config: clear sweep denoms: %w", err)
	}
	for i, d := range cfg.SweepDenoms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sweep_denoms (position, denom) VALUES (?, ?)
		`, i, string(d))
		if err != nil {
			return fmt.Errorf("save config: write sweep denom %s: %w", d, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("save config: clear targets: %w", err)
	}
	for i, t := range cfg.Targets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO targets (position, address, weight) VALUES (?, ?, ?)
		`, i, t.Address, int64(t.Weight))
		if err != nil {
			return fmt.Errorf("save config: write target %s: %w", t.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save config: commit: %w", err)
	}
	return nil
}

// ReadConfig loads the full configuration.
// Returns ErrNotInitialized when no configuration has been saved yet.
func (s *Store) ReadConfig(ctx context.Context) (asset.Config, error) {
	var cfg asset.Config

	err := s.db.QueryRowContext(ctx, `
		SELECT owner, executor FROM config WHERE id = 1
	`).Scan(&cfg.Owner, &cfg.Executor)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Config{}, ErrNotInitialized
	}
	if err != nil {
		return asset.Config{}, fmt.Errorf("read config: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT denom FROM sweep_denoms ORDER BY position
	`)
	if err != nil {
		return asset.Config{}, fmt.Errorf("read config: sweep denoms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return asset.Config{}, fmt.Errorf("read config: scan sweep denom: %w", err)
		}
		cfg.SweepDenoms = append(cfg.SweepDenoms, asset.Denom(d))
	}
	if err := rows.Err(); err != nil {
		return asset.Config{}, fmt.Errorf("read config: iterate sweep denoms: %w", err)
	}

	trows, err := s.db.QueryContext(ctx, `
		SELECT address, weight FROM targets ORDER BY position
	`)
	if err != nil {
		return asset.Config{}, fmt.Errorf("read config: targets: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var (
			addr   string
			weight int64
		)
		if err := trows.Scan(&addr, &weight); err != nil {
			return asset.Config{}, fmt.Errorf("read config: scan target: %w", err)
		}
		cfg.Targets = append(cfg.Targets, asset.DistributionTarget{
			Address: addr,
			Weight:  uint64(weight),
		})
	}
	if err := trows.Err(); err != nil {
		return asset.Config{}, fmt.Errorf("read config: iterate targets: %w", err)
	}

	return cfg, nil
}
