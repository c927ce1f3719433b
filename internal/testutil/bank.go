// Package testutil provides in-memory collaborators for engine tests:
// a fake bank holding custody balances and a recording issuer that
// captures issued requests instead of calling out.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/engine"
)

// FakeBank is an in-memory engine.Bank.
//
// Balances are seeded directly; Send debits the custody balance and
// records the transfer in order. Thread-safe via internal mutex, though
// engine cranks are serialized anyway.
type FakeBank struct {
	mu        sync.Mutex
	balances  map[asset.Denom]uint64
	transfers []asset.Transfer
}

// NewFakeBank creates a fake bank with the given initial balances.
func NewFakeBank(balances map[asset.Denom]uint64) *FakeBank {
	b := &FakeBank{balances: make(map[asset.Denom]uint64, len(balances))}
	for d, a := range balances {
		b.balances[d] = a
	}
	return b
}

// Balance implements engine.Bank.
func (b *FakeBank) Balance(_ context.Context, denom asset.Denom) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[denom], nil
}

// Send implements engine.Bank.
func (b *FakeBank) Send(_ context.Context, address string, c asset.Coin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[c.Denom] < c.Amount {
		return errors.New("fake bank: insufficient balance")
	}
	b.balances[c.Denom] -= c.Amount
	b.transfers = append(b.transfers, asset.Transfer{Address: address, Coin: c})
	return nil
}

// SetBalance overwrites a balance directly.
func (b *FakeBank) SetBalance(denom asset.Denom, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[denom] = amount
}

// Transfers returns the recorded transfers in send order.
func (b *FakeBank) Transfers() []asset.Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]asset.Transfer, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// RecordingIssuer is an engine.Issuer that captures requests.
//
// Set Err to make every Issue call fail; the engine's "always" semantics
// mean the completion sweep must still run, which tests assert.
type RecordingIssuer struct {
	mu       sync.Mutex
	requests []engine.Request

	// Err, when non-nil, is returned by every Issue call.
	Err error

	// Deliver, when non-nil, runs on each issued request before Issue
	// returns. Harness scenarios use it to simulate the external swap
	// crediting the custody account.
	Deliver func(req engine.Request)
}

// Issue implements engine.Issuer.
func (r *RecordingIssuer) Issue(_ context.Context, req engine.Request) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	deliver := r.Deliver
	r.mu.Unlock()

	if deliver != nil {
		deliver(req)
	}
	return r.Err
}

// Requests returns the captured requests in issue order.
func (r *RecordingIssuer) Requests() []engine.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Request, len(r.requests))
	copy(out, r.requests)
	return out
}
