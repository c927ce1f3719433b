package cli

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/engine"
	"github.com/roach88/revcon/internal/store"
)

// issuedOperation is the externally visible shape of one issued
// external-operation request.
type issuedOperation struct {
	Token    string          `json:"token"`
	Contract string          `json:"contract"`
	Denom    string          `json:"denom"`
	Amount   uint64          `json:"amount"`
	Msg      json.RawMessage `json:"msg,omitempty"`
}

// captureIssuer collects issued requests so the command can surface
// them to the operator. The standalone binary has no transport to a
// contract host; the operator relays the request out of band.
type captureIssuer struct {
	issued []issuedOperation
}

func (c *captureIssuer) Issue(_ context.Context, req engine.Request) error {
	c.issued = append(c.issued, issuedOperation{
		Token:    req.Token,
		Contract: req.Contract,
		Denom:    string(req.Funds.Denom),
		Amount:   req.Funds.Amount,
		Msg:      req.Msg,
	})
	return nil
}

// openStore opens the SQLite store at the given path.
func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newEngine builds an engine over the store, resuming the logical
// clock from the last recorded seq.
func newEngine(ctx context.Context, st *store.Store, issuer engine.Issuer) (*engine.Engine, error) {
	seq, err := st.LastSeq(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read last seq", err)
	}
	return engine.New(st, st, issuer, engine.UUIDv7Generator{},
		engine.WithClock(engine.NewClockAt(seq))), nil
}

// cmdContext returns the command's context, falling back to Background.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

// runGatedMutation wires an engine over the store, applies an
// identity-gated mutation, and reports the outcome.
func runGatedMutation(rootOpts *RootOptions, database string, cmd *cobra.Command, mutate func(*engine.Engine) error, okMsg string) error {
	out := newFormatter(rootOpts, cmd)

	st, err := openStore(database)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng, err := newEngine(cmdContext(cmd), st, &captureIssuer{})
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}

	if err := mutate(eng); err != nil {
		if engine.IsUnauthorized(err) {
			_ = out.Error(ErrCodeUnauthorized, err.Error(), nil)
			return WrapExitError(ExitFailure, "unauthorized", err)
		}
		_ = out.Error(ErrCodeEngine, err.Error(), nil)
		return WrapExitError(ExitFailure, "mutation failed", err)
	}

	return out.Success(okMsg)
}
