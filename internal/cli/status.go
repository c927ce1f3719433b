package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show cursor position, custody balances, and crank history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

type balanceRow struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

type crankRow struct {
	Token  string `json:"token"`
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
	Phase  string `json:"phase"`
	Seq    int64  `json:"seq"`
}

type statusResult struct {
	Cursor   string       `json:"cursor,omitempty"`
	Actions  int          `json:"actions"`
	Balances []balanceRow `json:"balances"`
	Last     *crankRow    `json:"last,omitempty"`
	Cranks   []crankRow   `json:"cranks,omitempty"`
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
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

	cfg, err := st.ReadConfig(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "store not initialized", err)
	}

	result := statusResult{}

	if cursor, has, err := st.Cursor(ctx); err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "cursor read failed", err)
	} else if has {
		result.Cursor = string(cursor)
	}

	actions, err := st.AllActions(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "action read failed", err)
	}
	result.Actions = len(actions)

	for _, denom := range cfg.SweepDenoms {
		balance, err := st.Balance(ctx, denom)
		if err != nil {
			_ = out.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitFailure, "balance read failed", err)
		}
		result.Balances = append(result.Balances, balanceRow{Denom: string(denom), Amount: balance})
	}

	cranks, err := st.Cranks(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "crank read failed", err)
	}
	for _, rec := range cranks {
		result.Cranks = append(result.Cranks, toCrankRow(rec))
	}
	if rec, ok := lastCrank(cranks); ok {
		row := toCrankRow(rec)
		result.Last = &row
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	return printStatusText(cmd, result)
}

func printStatusText(cmd *cobra.Command, result statusResult) error {
	w := cmd.OutOrStdout()

	cursor := result.Cursor
	if cursor == "" {
		cursor = "(unset)"
	}
	fmt.Fprintf(w, "Cursor:  %s\n", cursor)
	fmt.Fprintf(w, "Actions: %d\n", result.Actions)

	fmt.Fprintln(w, "Custody balances:")
	if len(result.Balances) == 0 {
		fmt.Fprintln(w, "  (no sweep denoms configured)")
	}
	for _, b := range result.Balances {
		fmt.Fprintf(w, "  %-16s %s\n", b.Denom, FormatAmount(b.Amount))
	}

	if len(result.Cranks) > 0 {
		fmt.Fprintln(w, "Cranks:")
		for _, c := range result.Cranks {
			fmt.Fprintf(w, "  seq=%d %s %s %s (%s)\n",
				c.Seq, c.Denom, FormatAmount(c.Amount), c.Phase, c.Token)
		}
	}
	return nil
}

func toCrankRow(rec store.CrankRecord) crankRow {
	return crankRow{
		Token:  rec.Token,
		Denom:  string(rec.Denom),
		Amount: rec.Amount,
		Phase:  rec.Phase,
		Seq:    rec.Seq,
	}
}

// lastCrank returns the most recent crank record, if any.
func lastCrank(records []store.CrankRecord) (store.CrankRecord, bool) {
	if len(records) == 0 {
		return store.CrankRecord{}, false
	}
	return records[len(records)-1], true
}
