// Package engine implements the crank orchestrator and its two core
// algorithms.
//
// Selection: a resumable round-robin over the action ledger, backed by a
// persisted resume key (the cursor) and an ordered next-key-greater-than
// range query. Each crank advances exactly one position and wraps after
// the last key; insertions and removals between cranks are tolerated.
//
// Distribution: exact integer splitting of a balance across weighted
// recipients. All targets but the last take floor shares; the last
// target takes the remainder, so the shares always conserve the balance
// and rounding dust lands on the last configured target.
//
// A crank takes one of two branches: issue a single capped external
// operation for the selected action and sweep afterwards (always,
// whether the operation succeeded), or sweep immediately when no
// runnable action exists.
package engine
