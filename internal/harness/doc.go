// Package harness runs YAML-defined conformance scenarios against the
// engine.
//
// A scenario seeds a fresh in-memory store (configuration, action
// ledger, custody balances), drives the engine through funds, cranks,
// and completion sweeps, and records every issued operation and payout
// as a trace. Traces are deterministic - fixed crank tokens, a fresh
// store per run, single-threaded execution - so they can be compared
// byte-for-byte against golden files.
package harness
