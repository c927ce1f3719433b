package store

import (
	"context"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// Crank phases for the two-phase issue/complete protocol.
const (
	CrankPhaseIssued    = "issued"
	CrankPhaseCompleted = "completed"
)

// CrankRecord is one audit row for a crank that issued an external
// operation. The record is written in the "issued" phase before the
// operation goes out and flipped to "completed" when the completion
// sweep runs, so an operator can spot operations whose completion never
// arrived.
type CrankRecord struct {
	Token  string // uuid v7 crank token
	Denom  asset.Denom
	Amount uint64
	Phase  string
	Seq    int64
}

// RecordCrank appends a crank record.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - replaying the
// same crank token is silently ignored.
func (s *Store) RecordCrank(ctx context.Context, rec CrankRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cranks (token, denom, amount, phase, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, rec.Token, string(rec.Denom), formatAmount(rec.Amount), rec.Phase, rec.Seq)
	if err != nil {
		return fmt.Errorf("record crank %s: %w", rec.Token, err)
	}
	return nil
}

// MarkCrankCompleted flips a crank record to the completed phase.
// Unknown tokens are ignored (the sweep branch runs without a record).
func (s *Store) MarkCrankCompleted(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cranks SET phase = ? WHERE token = ?
	`, CrankPhaseCompleted, token)
	if err != nil {
		return fmt.Errorf("mark crank completed %s: %w", token, err)
	}
	return nil
}

// Cranks returns all crank records in sequence order.
func (s *Store) Cranks(ctx context.Context) ([]CrankRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, denom, amount, phase, seq FROM cranks ORDER BY seq, id
	`)
	if err != nil {
		return nil, fmt.Errorf("cranks: %w", err)
	}
	defer rows.Close()

	var records []CrankRecord
	for rows.Next() {
		var (
			rec    CrankRecord
			denom  string
			amount string
		)
		if err := rows.Scan(&rec.Token, &denom, &amount, &rec.Phase, &rec.Seq); err != nil {
			return nil, fmt.Errorf("cranks: scan: %w", err)
		}
		a, err := parseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("cranks: %w", err)
		}
		rec.Denom = asset.Denom(denom)
		rec.Amount = a
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cranks: iterate: %w", err)
	}
	return records, nil
}

// LastSeq returns the highest sequence number across the transfer and
// crank logs. Used to seed the engine's logical clock on startup.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM transfers), 0),
			COALESCE((SELECT MAX(seq) FROM cranks), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
