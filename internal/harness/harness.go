package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/engine"
	"github.com/roach88/revcon/internal/store"
)

// TraceEvent is one entry in a scenario's execution trace.
// Field order matters: the JSON serialization of the trace is compared
// byte-for-byte against golden files.
type TraceEvent struct {
	Type     string `json:"type"` // "fund" | "crank" | "complete" | "issue" | "transfer"
	Caller   string `json:"caller,omitempty"`
	Token    string `json:"token,omitempty"`
	Contract string `json:"contract,omitempty"`
	Address  string `json:"address,omitempty"`
	Denom    string `json:"denom,omitempty"`
	Amount   uint64 `json:"amount,omitempty"`
	Cursor   string `json:"cursor,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IssuedOp is one external operation issued during the run.
type IssuedOp struct {
	Token    string
	Denom    string
	Contract string
	Amount   uint64
}

// Result captures the outcome of a scenario run.
type Result struct {
	Trace     []TraceEvent
	Cursor    string
	Issued    []IssuedOp
	Transfers []asset.Transfer
	Balances  map[string]uint64 // final custody balance per sweep denom
}

// recorder captures issued operations for the trace.
type recorder struct {
	issued []IssuedOp
}

func (r *recorder) Issue(_ context.Context, req engine.Request) error {
	r.issued = append(r.issued, IssuedOp{
		Token:    req.Token,
		Denom:    string(req.Funds.Denom),
		Contract: req.Contract,
		Amount:   req.Funds.Amount,
	})
	return nil
}

// Run executes a scenario against a fresh in-memory store and returns
// the trace and final state. Engine-level failures inside a step (e.g.
// an unauthorized crank) are recorded as trace events, not returned as
// errors; Run fails only on setup or infrastructure problems.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := seed(ctx, st, scenario); err != nil {
		return nil, err
	}

	rec := &recorder{}
	eng := engine.New(st, st, rec, engine.NewFixedGenerator(scenarioTokens(scenario)...))

	result := &Result{Balances: make(map[string]uint64)}
	for i, step := range scenario.Steps {
		if err := runStep(ctx, st, eng, rec, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	if err := snapshotFinalState(ctx, st, scenario, result); err != nil {
		return nil, err
	}
	result.Issued = rec.issued
	return result, nil
}

// seed writes the scenario's configuration, ledger, and balances.
func seed(ctx context.Context, st *store.Store, scenario *Scenario) error {
	cfg := asset.Config{
		Owner:    scenario.Config.Owner,
		Executor: scenario.Config.Executor,
	}
	for _, d := range scenario.Config.SweepDenoms {
		cfg.SweepDenoms = append(cfg.SweepDenoms, asset.Denom(d))
	}
	for _, tg := range scenario.Config.Targets {
		cfg.Targets = append(cfg.Targets, asset.DistributionTarget{
			Address: tg.Address,
			Weight:  tg.Weight,
		})
	}
	if err := st.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("seeding config: %w", err)
	}

	for _, as := range scenario.Actions {
		a := asset.Action{
			Denom:    asset.Denom(as.Denom),
			Contract: as.Contract,
			Limit:    math.MaxUint64,
		}
		if as.Limit != nil {
			a.Limit = *as.Limit
		}
		if as.Msg != nil {
			msg, err := json.Marshal(as.Msg)
			if err != nil {
				return fmt.Errorf("seeding action %s: %w", as.Denom, err)
			}
			a.Msg = msg
		}
		if err := st.SetAction(ctx, a); err != nil {
			return fmt.Errorf("seeding action %s: %w", as.Denom, err)
		}
	}

	for denom, amount := range scenario.Balances {
		if err := st.Fund(ctx, asset.NewCoin(asset.Denom(denom), amount)); err != nil {
			return fmt.Errorf("seeding balance %s: %w", denom, err)
		}
	}
	return nil
}

// runStep executes one step and appends its trace events.
func runStep(ctx context.Context, st *store.Store, eng *engine.Engine, rec *recorder, step Step, result *Result) error {
	switch {
	case step.Fund != nil:
		coin := asset.NewCoin(asset.Denom(step.Fund.Denom), step.Fund.Amount)
		if err := st.Fund(ctx, coin); err != nil {
			return err
		}
		result.Trace = append(result.Trace, TraceEvent{
			Type:   "fund",
			Denom:  step.Fund.Denom,
			Amount: step.Fund.Amount,
		})
		return nil

	case step.Crank != nil:
		issuedBefore := len(rec.issued)
		transfersBefore, err := st.Transfers(ctx)
		if err != nil {
			return err
		}

		event := TraceEvent{Type: "crank", Caller: step.Crank.As}
		crankErr := eng.Crank(ctx, step.Crank.As)
		if crankErr != nil {
			event.Error = crankErrorCode(crankErr)
			result.Trace = append(result.Trace, event)
			return nil
		}
		if cursor, has, err := st.Cursor(ctx); err != nil {
			return err
		} else if has {
			event.Cursor = string(cursor)
		}
		result.Trace = append(result.Trace, event)

		for _, op := range rec.issued[issuedBefore:] {
			result.Trace = append(result.Trace, TraceEvent{
				Type:     "issue",
				Token:    op.Token,
				Contract: op.Contract,
				Denom:    op.Denom,
				Amount:   op.Amount,
			})
		}
		return appendTransferEvents(ctx, st, len(transfersBefore), result)

	case step.Complete != nil:
		transfersBefore, err := st.Transfers(ctx)
		if err != nil {
			return err
		}
		if err := eng.Complete(ctx); err != nil {
			result.Trace = append(result.Trace, TraceEvent{
				Type:  "complete",
				Error: crankErrorCode(err),
			})
			return nil
		}
		result.Trace = append(result.Trace, TraceEvent{Type: "complete"})
		return appendTransferEvents(ctx, st, len(transfersBefore), result)
	}
	return fmt.Errorf("empty step")
}

// appendTransferEvents records the transfers added since the step began.
func appendTransferEvents(ctx context.Context, st *store.Store, before int, result *Result) error {
	transfers, err := st.Transfers(ctx)
	if err != nil {
		return err
	}
	for _, tr := range transfers[before:] {
		result.Trace = append(result.Trace, TraceEvent{
			Type:    "transfer",
			Address: tr.Address,
			Denom:   string(tr.Coin.Denom),
			Amount:  tr.Coin.Amount,
		})
	}
	return nil
}

// snapshotFinalState fills the result's cursor, transfer log, and
// custody balances.
func snapshotFinalState(ctx context.Context, st *store.Store, scenario *Scenario, result *Result) error {
	if cursor, has, err := st.Cursor(ctx); err != nil {
		return err
	} else if has {
		result.Cursor = string(cursor)
	}

	transfers, err := st.Transfers(ctx)
	if err != nil {
		return err
	}
	result.Transfers = transfers

	for _, d := range scenario.Config.SweepDenoms {
		balance, err := st.Balance(ctx, asset.Denom(d))
		if err != nil {
			return err
		}
		result.Balances[d] = balance
	}
	return nil
}

// scenarioTokens returns the fixed token list, defaulting to one
// generated token per step.
func scenarioTokens(scenario *Scenario) []string {
	if len(scenario.Tokens) > 0 {
		return scenario.Tokens
	}
	tokens := make([]string, len(scenario.Steps))
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i+1)
	}
	return tokens
}

// crankErrorCode reduces an engine error to its stable code for traces.
func crankErrorCode(err error) string {
	switch {
	case engine.IsUnauthorized(err):
		return string(engine.ErrCodeUnauthorized)
	case engine.IsInvalidDenom(err):
		return string(engine.ErrCodeInvalidDenom)
	case engine.IsUndefinedSplit(err):
		return string(engine.ErrCodeUndefinedSplit)
	default:
		return err.Error()
	}
}

// Verify checks a result against the scenario's expect section.
func Verify(scenario *Scenario, result *Result) error {
	if scenario.Expect == nil {
		return nil
	}
	exp := scenario.Expect

	if exp.Cursor != result.Cursor {
		return fmt.Errorf("cursor: want %q, got %q", exp.Cursor, result.Cursor)
	}

	if exp.Transfers != nil {
		if len(exp.Transfers) != len(result.Transfers) {
			return fmt.Errorf("transfers: want %d, got %d", len(exp.Transfers), len(result.Transfers))
		}
		for i, want := range exp.Transfers {
			got := result.Transfers[i]
			if want.Address != got.Address || want.Denom != string(got.Coin.Denom) || want.Amount != got.Coin.Amount {
				return fmt.Errorf("transfers[%d]: want %d%s to %s, got %s to %s",
					i, want.Amount, want.Denom, want.Address, got.Coin, got.Address)
			}
		}
	}

	if exp.Issued != nil {
		if len(exp.Issued) != len(result.Issued) {
			return fmt.Errorf("issued: want %d, got %d", len(exp.Issued), len(result.Issued))
		}
		for i, want := range exp.Issued {
			got := result.Issued[i]
			if want.Denom != got.Denom || want.Contract != got.Contract || want.Amount != got.Amount {
				return fmt.Errorf("issued[%d]: want %d%s to %s, got %d%s to %s",
					i, want.Amount, want.Denom, want.Contract, got.Amount, got.Denom, got.Contract)
			}
			if want.Token != "" && want.Token != got.Token {
				return fmt.Errorf("issued[%d]: want token %q, got %q", i, want.Token, got.Token)
			}
		}
	}

	for denom, want := range exp.Balances {
		got, ok := result.Balances[denom]
		if !ok {
			return fmt.Errorf("balances: denom %s not tracked (not a sweep denom?)", denom)
		}
		if want != got {
			return fmt.Errorf("balances[%s]: want %d, got %d", denom, want, got)
		}
	}

	return nil
}
