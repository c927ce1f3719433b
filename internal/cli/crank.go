package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/engine"
)

// CrankOptions holds flags for the crank command.
type CrankOptions struct {
	*RootOptions
	Database string
	Caller   string
}

// NewCrankCommand creates the crank command.
func NewCrankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CrankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "crank",
		Short: "Run one crank of the engine",
		Long: `Run one discrete crank of the engine.

The caller must be the configured executor. One crank advances the
round-robin cursor by a single position, issues at most one capped
external operation, and sweeps the custody balances to the weighted
targets. Full coverage of N configured actions takes N cranks.

Issued operations are printed for the operator to relay; the sweep has
already run by the time the command returns.

Example:
  revcon crank --as kujira1executor --db ./revcon.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrank(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

type crankResult struct {
	Cursor string            `json:"cursor,omitempty"`
	Issued []issuedOperation `json:"issued,omitempty"`
}

func runCrank(opts *CrankOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmdContext(cmd)
	issuer := &captureIssuer{}
	eng, err := newEngine(ctx, st, issuer)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}

	if err := eng.Crank(ctx, opts.Caller); err != nil {
		if engine.IsUnauthorized(err) {
			_ = out.Error(ErrCodeUnauthorized, err.Error(), nil)
			return WrapExitError(ExitFailure, "unauthorized", err)
		}
		_ = out.Error(ErrCodeEngine, err.Error(), nil)
		return WrapExitError(ExitFailure, "crank failed", err)
	}

	result := crankResult{Issued: issuer.issued}
	if cursor, has, err := st.Cursor(ctx); err == nil && has {
		result.Cursor = string(cursor)
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	if len(result.Issued) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Crank complete: no action issued (swept custody balances).")
	} else {
		for _, op := range result.Issued {
			fmt.Fprintf(cmd.OutOrStdout(), "Issued %s %s -> %s (token %s)\n",
				FormatAmount(op.Amount), op.Denom, op.Contract, op.Token)
		}
	}
	if result.Cursor != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Cursor: %s\n", result.Cursor)
	}
	return nil
}

// NewCompleteCommand creates the complete command.
//
// Complete is the host-side completion callback: after an issued
// external operation resolves and its proceeds land in custody, this
// re-runs the distribution sweep over the current balances.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CrankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "complete",
		Short:         "Sweep custody balances after an external operation resolves",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runComplete(opts *CrankOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmdContext(cmd)
	eng, err := newEngine(ctx, st, &captureIssuer{})
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return err
	}

	if err := eng.Complete(ctx); err != nil {
		_ = out.Error(ErrCodeEngine, err.Error(), nil)
		return WrapExitError(ExitFailure, "completion sweep failed", err)
	}

	return out.Success("completion sweep finished")
}
