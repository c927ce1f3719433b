package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/revcon/internal/asset"
)

// Admin operations: owner-gated configuration and ledger mutations.
// Each operation loads the configuration, checks the caller against the
// owner identity, and aborts fully on a mismatch - no state is mutated
// by an unauthorized call.

// SetOwner rotates the owner identity.
func (e *Engine) SetOwner(ctx context.Context, caller, owner string) error {
	cfg, err := e.ownerGate(ctx, caller)
	if err != nil {
		return err
	}

	cfg.Owner = owner
	if err := e.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	slog.Info("owner rotated", "owner", owner)
	return nil
}

// SetExecutor rotates the executor identity.
func (e *Engine) SetExecutor(ctx context.Context, caller, executor string) error {
	cfg, err := e.ownerGate(ctx, caller)
	if err != nil {
		return err
	}

	cfg.Executor = executor
	if err := e.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set executor: %w", err)
	}
	slog.Info("executor rotated", "executor", executor)
	return nil
}

// SetAction upserts an action in the ledger, keyed by denom.
func (e *Engine) SetAction(ctx context.Context, caller string, a asset.Action) error {
	if _, err := e.ownerGate(ctx, caller); err != nil {
		return err
	}

	if err := e.store.SetAction(ctx, a); err != nil {
		return err
	}
	slog.Info("action set", "denom", a.Denom, "contract", a.Contract, "limit", a.Limit)
	return nil
}

// UnsetAction removes an action from the ledger.
// Removing an absent denom is not an error.
func (e *Engine) UnsetAction(ctx context.Context, caller string, denom asset.Denom) error {
	if _, err := e.ownerGate(ctx, caller); err != nil {
		return err
	}

	if err := e.store.UnsetAction(ctx, denom); err != nil {
		return err
	}
	slog.Info("action unset", "denom", denom)
	return nil
}

// ownerGate loads the configuration and verifies the caller is the owner.
func (e *Engine) ownerGate(ctx context.Context, caller string) (asset.Config, error) {
	cfg, err := e.store.ReadConfig(ctx)
	if err != nil {
		return asset.Config{}, err
	}
	if caller != cfg.Owner {
		return asset.Config{}, NewUnauthorizedError(caller, "owner")
	}
	return cfg, nil
}
