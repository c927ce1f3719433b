package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/store"
)

// Bank is the balance lookup and value-transfer collaborator.
// The store implements it for the standalone binary; tests use a fake.
type Bank interface {
	// Balance returns the custody account's holding of a denom.
	Balance(ctx context.Context, denom asset.Denom) (uint64, error)

	// Send transfers a coin from the custody account to an address.
	Send(ctx context.Context, address string, c asset.Coin) error
}

// Issuer fires an external-operation request at an action's contract.
// The engine runs its completion sweep after Issue returns, whatever
// the outcome ("always" semantics) - an issuer must not assume a failed
// request stalls distribution.
type Issuer interface {
	Issue(ctx context.Context, req Request) error
}

// Engine orchestrates one crank: advance the round-robin selector, issue
// at most one capped external operation, and sweep the custody balances
// to the weighted targets afterwards.
//
// Execution is single-threaded and host-serialized: cranks never
// overlap, so the engine takes no locks. Each crank either applies fully
// or leaves the cursor wherever the last successful selection put it.
type Engine struct {
	store    *store.Store
	bank     Bank
	issuer   Issuer
	tokens   TokenGenerator
	clock    *Clock
	selector *Selector
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's logical clock.
// Used on startup to resume from the store's last recorded seq:
//
//	eng := engine.New(st, st, issuer, gen, engine.WithClock(engine.NewClockAt(seq)))
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over the given store and collaborators.
func New(s *store.Store, bank Bank, issuer Issuer, tokens TokenGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		bank:     bank,
		issuer:   issuer,
		tokens:   tokens,
		clock:    NewClock(),
		selector: NewSelector(s),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's logical clock.
// Used for testing and diagnostics.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Crank runs one discrete invocation of the engine.
//
// The caller must be the configured executor. The selector advances the
// cursor by exactly one position (when the ledger is non-empty) and the
// engine then takes one of two branches:
//
//   - Action branch: the selected action has a non-zero capped amount.
//     One external operation is issued, and the completion sweep runs
//     afterwards regardless of the operation's own success or failure.
//   - Sweep branch: the ledger is empty or the selected action is inert.
//     The sweep runs immediately in the same crank.
//
// Only one action is ever processed per crank; full coverage of N
// configured actions takes N cranks.
func (e *Engine) Crank(ctx context.Context, caller string) error {
	cfg, err := e.store.ReadConfig(ctx)
	if err != nil {
		return fmt.Errorf("crank: %w", err)
	}
	if caller != cfg.Executor {
		return NewUnauthorizedError(caller, "executor")
	}

	action, found, err := e.selector.Next(ctx)
	if err != nil {
		return fmt.Errorf("crank: %w", err)
	}

	if found {
		balance, err := e.bank.Balance(ctx, action.Denom)
		if err != nil {
			return fmt.Errorf("crank: balance %s: %w", action.Denom, err)
		}

		req, err := BuildRequest(action, asset.NewCoin(action.Denom, balance))
		if err != nil {
			return fmt.Errorf("crank: %w", err)
		}

		if req != nil {
			req.Token = e.tokens.Generate()
			rec := store.CrankRecord{
				Token:  req.Token,
				Denom:  action.Denom,
				Amount: req.Funds.Amount,
				Phase:  store.CrankPhaseIssued,
				Seq:    e.clock.Next(),
			}
			if err := e.store.RecordCrank(ctx, rec); err != nil {
				return fmt.Errorf("crank: %w", err)
			}

			slog.Info("crank: action issued",
				"denom", action.Denom,
				"contract", action.Contract,
				"amount", req.Funds.Amount,
				"token", req.Token,
			)

			// "Always" semantics: a failed external operation is logged
			// and the completion sweep still runs, so distribution
			// progress never stalls behind a reverting contract.
			if err := e.issuer.Issue(ctx, *req); err != nil {
				slog.Warn("crank: external operation failed",
					"denom", action.Denom,
					"token", req.Token,
					"error", err,
				)
			}

			return e.complete(ctx, cfg, req.Token)
		}

		slog.Debug("crank: action inert", "denom", action.Denom)
	}

	// No runnable action - sweep immediately in the same crank.
	return e.sweep(ctx, cfg)
}

// Complete is the completion callback: invoked by the host after an
// external operation issued by this engine resolves. It re-reads the
// current balances and distributes them; it never re-attempts the
// action.
func (e *Engine) Complete(ctx context.Context) error {
	cfg, err := e.store.ReadConfig(ctx)
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return e.sweep(ctx, cfg)
}

// complete marks the crank record completed and runs the sweep.
func (e *Engine) complete(ctx context.Context, cfg asset.Config, token string) error {
	if err := e.store.MarkCrankCompleted(ctx, token); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return e.sweep(ctx, cfg)
}

// sweep distributes the custody balance of every configured sweep denom
// across the weighted targets.
//
// An undefined split (zero total weight with a non-zero balance) skips
// that denomination with a warning rather than failing the crank; the
// balance stays in custody until the target list is fixed.
func (e *Engine) sweep(ctx context.Context, cfg asset.Config) error {
	for _, denom := range cfg.SweepDenoms {
		balance, err := e.bank.Balance(ctx, denom)
		if err != nil {
			return fmt.Errorf("sweep: balance %s: %w", denom, err)
		}

		shares, err := Split(denom, balance, cfg.Targets)
		if IsUndefinedSplit(err) {
			slog.Warn("sweep: undefined split, skipping denom",
				"denom", denom,
				"balance", balance,
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}

		for _, share := range shares {
			if err := e.bank.Send(ctx, share.Address, share.Coin); err != nil {
				return fmt.Errorf("sweep: send %s to %s: %w", share.Coin, share.Address, err)
			}
		}

		if len(shares) > 0 {
			slog.Info("sweep: distributed",
				"denom", denom,
				"balance", balance,
				"recipients", len(shares),
			)
		}
	}
	return nil
}
