package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// SetAction upserts an action keyed by its denom.
// Setting the same denom twice overwrites the previous action.
func (s *Store) SetAction(ctx context.Context, a asset.Action) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("set action: %w", err)
	}

	var msg any
	if len(a.Msg) > 0 {
		msg = string(a.Msg)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (denom, contract, limit_amount, msg)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(denom) DO UPDATE SET
			contract = excluded.contract,
			limit_amount = excluded.limit_amount,
			msg = excluded.msg
	`, string(a.Denom), a.Contract, formatAmount(a.Limit), msg)
	if err != nil {
		return fmt.Errorf("set action %s: %w", a.Denom, err)
	}
	return nil
}

// UnsetAction removes the action for a denom.
// Removing an absent denom is not an error.
func (s *Store) UnsetAction(ctx context.Context, denom asset.Denom) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM actions WHERE denom = ?
	`, string(denom))
	if err != nil {
		return fmt.Errorf("unset action %s: %w", denom, err)
	}
	return nil
}

// GetAction looks up a single action by denom.
// The second return value reports whether the action exists.
func (s *Store) GetAction(ctx context.Context, denom asset.Denom) (asset.Action, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT denom, contract, limit_amount, msg FROM actions WHERE denom = ?
	`, string(denom))

	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Action{}, false, nil
	}
	if err != nil {
		return asset.Action{}, false, fmt.Errorf("get action %s: %w", denom, err)
	}
	return a, true, nil
}

// AllActions returns every action in ascending denom order.
func (s *Store) AllActions(ctx context.Context) ([]asset.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT denom, contract, limit_amount, msg FROM actions ORDER BY denom
	`)
	if err != nil {
		return nil, fmt.Errorf("all actions: %w", err)
	}
	defer rows.Close()

	var actions []asset.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("all actions: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all actions: iterate: %w", err)
	}
	return actions, nil
}

// FirstAction returns the action with the smallest denom.
// The second return value is false when the ledger is empty.
func (s *Store) FirstAction(ctx context.Context) (asset.Action, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT denom, contract, limit_amount, msg FROM actions
		ORDER BY denom LIMIT 1
	`)

	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Action{}, false, nil
	}
	if err != nil {
		return asset.Action{}, false, fmt.Errorf("first action: %w", err)
	}
	return a, true, nil
}

// NextActionAfter returns the action with the smallest denom strictly
// greater than the given denom. This is the range query behind the
// round-robin cursor: callers resume from a possibly-stale cursor value
// without holding any reference into the ledger between cranks.
func (s *Store) NextActionAfter(ctx context.Context, denom asset.Denom) (asset.Action, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT denom, contract, limit_amount, msg FROM actions
		WHERE denom > ?
		ORDER BY denom LIMIT 1
	`, string(denom))

	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Action{}, false, nil
	}
	if err != nil {
		return asset.Action{}, false, fmt.Errorf("next action after %s: %w", denom, err)
	}
	return a, true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (asset.Action, error) {
	var (
		denom    string
		contract string
		limit    string
		msg      sql.NullString
	)
	if err := row.Scan(&denom, &contract, &limit, &msg); err != nil {
		return asset.Action{}, err
	}

	limitAmount, err := parseAmount(limit)
	if err != nil {
		return asset.Action{}, fmt.Errorf("action %s: %w", denom, err)
	}

	a := asset.Action{
		Denom:    asset.Denom(denom),
		Contract: contract,
		Limit:    limitAmount,
	}
	if msg.Valid && msg.String != "" {
		a.Msg = json.RawMessage(msg.String)
	}
	return a, nil
}
