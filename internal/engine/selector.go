package engine

import (
	"context"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/store"
)

// Selector advances the round-robin cursor over the action ledger.
//
// The cursor is an index-free resume key: selection scans for the
// smallest ledger key strictly greater than the stored cursor and wraps
// to the smallest key when none remains. No iterator state is held
// between cranks, so actions can be set and unset freely in between -
// a stale cursor simply resumes from the next surviving key.
//
// INVARIANT: the cursor is persisted as part of Next, before the caller
// issues any external operation. A crank that fails after selection
// still advances past the attempted action on the following crank.
type Selector struct {
	store *store.Store
}

// NewSelector creates a selector over the given store.
func NewSelector(s *store.Store) *Selector {
	return &Selector{store: s}
}

// Next returns the next action in ascending-key cyclic order and
// persists the cursor at it. The second return value is false when the
// ledger is empty; the cursor is then left unchanged.
//
// Selection is single-shot: the action is returned whether or not it is
// currently inert (capped amount zero). The orchestrator skips the
// external call for inert actions, but the cursor has still advanced,
// giving every action exactly one slot per full rotation.
func (s *Selector) Next(ctx context.Context) (asset.Action, bool, error) {
	cursor, hasCursor, err := s.store.Cursor(ctx)
	if err != nil {
		return asset.Action{}, false, fmt.Errorf("selector: %w", err)
	}

	var (
		action asset.Action
		found  bool
	)
	if hasCursor {
		action, found, err = s.store.NextActionAfter(ctx, cursor)
		if err != nil {
			return asset.Action{}, false, fmt.Errorf("selector: %w", err)
		}
	}
	if !found {
		// End of ledger reached, or no cursor yet - wrap to the start.
		action, found, err = s.store.FirstAction(ctx)
		if err != nil {
			return asset.Action{}, false, fmt.Errorf("selector: %w", err)
		}
	}
	if !found {
		return asset.Action{}, false, nil
	}

	if err := s.store.SaveCursor(ctx, action.Denom); err != nil {
		return asset.Action{}, false, fmt.Errorf("selector: %w", err)
	}
	return action, true, nil
}
