package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// ErrInsufficientBalance is returned by Send when the custody account
// holds less than the requested amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Balance returns the custody account's current balance of a denom.
// Unknown denoms have a zero balance.
func (s *Store) Balance(ctx context.Context, denom asset.Denom) (uint64, error) {
	var amount string
	err := s.db.QueryRowContext(ctx, `
		SELECT amount FROM balances WHERE denom = ?
	`, string(denom)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", denom, err)
	}
	return parseAmount(amount)
}

// Fund credits the custody account. Used by deposits (revcon fund) and
// by tests seeding balances.
func (s *Store) Fund(ctx context.Context, c asset.Coin) error {
	if c.IsZero() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fund: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := balanceTx(ctx, tx, c.Denom)
	if err != nil {
		return fmt.Errorf("fund: %w", err)
	}

	if err := writeBalance(ctx, tx, c.Denom, current+c.Amount); err != nil {
		return fmt.Errorf("fund: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("fund: commit: %w", err)
	}
	return nil
}

// Send debits the custody account and appends a transfer record, both in
// one transaction. Either the balance moves and the payout is logged, or
// nothing happens.
func (s *Store) Send(ctx context.Context, address string, c asset.Coin) error {
	if c.IsZero() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("send: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := balanceTx(ctx, tx, c.Denom)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if current < c.Amount {
		return fmt.Errorf("send %s to %s: %w (have %d)", c, address, ErrInsufficientBalance, current)
	}

	if err := writeBalance(ctx, tx, c.Denom, current-c.Amount); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transfers (seq, address, denom, amount)
		VALUES (?, ?, ?, ?)
	`, seq, address, string(c.Denom), formatAmount(c.Amount))
	if err != nil {
		return fmt.Errorf("send: write transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send: commit: %w", err)
	}
	return nil
}

// Transfers returns all applied payouts in sequence order.
func (s *Store) Transfers(ctx context.Context) ([]asset.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, denom, amount FROM transfers ORDER BY seq, id
	`)
	if err != nil {
		return nil, fmt.Errorf("transfers: %w", err)
	}
	defer rows.Close()

	var transfers []asset.Transfer
	for rows.Next() {
		var (
			address string
			denom   string
			amount  string
		)
		if err := rows.Scan(&address, &denom, &amount); err != nil {
			return nil, fmt.Errorf("transfers: scan: %w", err)
		}
		a, err := parseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("transfers: %w", err)
		}
		transfers = append(transfers, asset.Transfer{
			Address: address,
			Coin:    asset.NewCoin(asset.Denom(denom), a),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfers: iterate: %w", err)
	}
	return transfers, nil
}

func balanceTx(ctx context.Context, tx *sql.Tx, denom asset.Denom) (uint64, error) {
	var amount string
	err := tx.QueryRowContext(ctx, `
		SELECT amount FROM balances WHERE denom = ?
	`, string(denom)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", denom, err)
	}
	return parseAmount(amount)
}

func writeBalance(ctx context.Context, tx *sql.Tx, denom asset.Denom, amount uint64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (denom, amount) VALUES (?, ?)
		ON CONFLICT(denom) DO UPDATE SET amount = excluded.amount
	`, string(denom), formatAmount(amount))
	if err != nil {
		return fmt.Errorf("write balance %s: %w", denom, err)
	}
	return nil
}

// nextSeq allocates the next sequence number across both append-only
// logs (transfers and cranks) so a combined trace has a total order.
func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM transfers), 0),
			COALESCE((SELECT MAX(seq) FROM cranks), 0)
		) + 1
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
