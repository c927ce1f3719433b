// Package store provides durable SQLite-backed storage for the revcon
// engine.
//
// The store holds six kinds of state:
//
//   - config: singleton owner/executor identities plus the ordered sweep
//     denom and weighted target lists
//   - actions: the conversion action ledger, keyed by denom
//   - cursor: the round-robin resume point (last selected denom)
//   - balances: the custody account's holdings
//   - transfers: append-only log of applied payouts
//   - cranks: append-only log of cranks that issued an external operation
//
// Writes are idempotent where the engine replays them (ON CONFLICT DO
// NOTHING / DO UPDATE); multi-row mutations run in transactions so a
// failed crank leaves no partial effects.
//
// Amounts are stored as decimal TEXT rather than INTEGER so the full
// uint64 range survives SQLite's signed 64-bit affinity.
package store
