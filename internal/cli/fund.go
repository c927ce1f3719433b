package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/asset"
)

// FundOptions holds flags for the fund command.
type FundOptions struct {
	*RootOptions
	Database string
}

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FundOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fund <denom> <amount>",
		Short: "Credit the custody account",
		Long: `Credit the custody account with an amount of a denomination.

This mirrors revenue arriving in custody: deposits are unsolicited, so
no identity gate applies.

Example:
  revcon fund ukuji 1000000 --db ./revcon.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFund(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

type fundResult struct {
	Denom   string `json:"denom"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}

func runFund(opts *FundOptions, denom, amountArg string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	amount, err := strconv.ParseUint(amountArg, 10, 64)
	if err != nil {
		_ = out.Error(ErrCodeGeneric, fmt.Sprintf("invalid amount %q", amountArg), nil)
		return WrapExitError(ExitCommandError, "invalid amount", err)
	}

	coin := asset.NewCoin(asset.Denom(denom), amount)
	if err := coin.Denom.Validate(); err != nil {
		_ = out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid denom", err)
	}

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
	if err := st.Fund(ctx, coin); err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "fund failed", err)
	}

	balance, err := st.Balance(ctx, coin.Denom)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "balance read failed", err)
	}

	if opts.Format == "json" {
		return out.Success(fundResult{Denom: denom, Amount: amount, Balance: balance})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Funded %s %s (balance now %s)\n",
		FormatAmount(amount), denom, FormatAmount(balance))
	return nil
}
