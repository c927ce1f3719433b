package cli

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/engine"
)

// ActionOptions holds flags shared by the action subcommands.
type ActionOptions struct {
	*RootOptions
	Database string
	Caller   string
}

// NewActionCommand creates the action command and its subcommands.
func NewActionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "action",
		Short: "Manage the action ledger",
		Long: `Manage the denomination-keyed action ledger.

Mutations are owner-gated: set and unset require --as to name the
configured owner identity.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newActionSetCommand(opts))
	cmd.AddCommand(newActionUnsetCommand(opts))
	cmd.AddCommand(newActionListCommand(opts))

	return cmd
}

func newActionSetCommand(opts *ActionOptions) *cobra.Command {
	var (
		limit uint64
		msg   string
	)

	cmd := &cobra.Command{
		Use:   "set <denom> <contract>",
		Short: "Create or replace the action for a denom",
		Long: `Create or replace the action for a denom.

An existing action for the same denom is overwritten. Without --limit
the action is uncapped.

Example:
  revcon action set uatom kujira1fin --limit 1000000 --msg '{"swap":{}}' --as kujira1owner --db ./revcon.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := asset.Action{
				Denom:    asset.Denom(args[0]),
				Contract: args[1],
				Limit:    limit,
			}
			if msg != "" {
				if !json.Valid([]byte(msg)) {
					return WrapExitError(ExitCommandError, "invalid --msg JSON", nil)
				}
				a.Msg = json.RawMessage(msg)
			}
			return runActionMutation(opts, cmd, func(eng *engine.Engine) error {
				return eng.SetAction(cmdContext(cmd), opts.Caller, a)
			}, fmt.Sprintf("action set: %s -> %s", a.Denom, a.Contract))
		},
	}

	cmd.Flags().Uint64Var(&limit, "limit", math.MaxUint64, "per-crank amount cap (default: unlimited)")
	cmd.Flags().StringVar(&msg, "msg", "", "contract payload as JSON")
	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func newActionUnsetCommand(opts *ActionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "unset <denom>",
		Short:         "Remove the action for a denom",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			denom := asset.Denom(args[0])
			return runActionMutation(opts, cmd, func(eng *engine.Engine) error {
				return eng.UnsetAction(cmdContext(cmd), opts.Caller, denom)
			}, fmt.Sprintf("action unset: %s", denom))
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

type actionRow struct {
	Denom    string          `json:"denom"`
	Contract string          `json:"contract"`
	Limit    uint64          `json:"limit"`
	Msg      json.RawMessage `json:"msg,omitempty"`
}

func newActionListCommand(opts *ActionOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List actions in selection order",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts.RootOptions, cmd)

			st, err := openStore(opts.Database)
			if err != nil {
				_ = out.Error(ErrCodeStore, err.Error(), nil)
				return err
			}
			defer st.Close()

			actions, err := st.AllActions(cmdContext(cmd))
			if err != nil {
				_ = out.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to list actions", err)
			}

			rows := make([]actionRow, 0, len(actions))
			for _, a := range actions {
				rows = append(rows, actionRow{
					Denom:    string(a.Denom),
					Contract: a.Contract,
					Limit:    a.Limit,
					Msg:      a.Msg,
				})
			}

			if opts.Format == "json" {
				return out.Success(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No actions configured.")
				return nil
			}
			for _, r := range rows {
				limit := "unlimited"
				if r.Limit != math.MaxUint64 {
					limit = FormatAmount(r.Limit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (limit %s)\n", r.Denom, r.Contract, limit)
			}
			return nil
		},
	}
}

// runActionMutation applies an owner-gated ledger mutation.
func runActionMutation(opts *ActionOptions, cmd *cobra.Command, mutate func(*engine.Engine) error, okMsg string) error {
	return runGatedMutation(opts.RootOptions, opts.Database, cmd, mutate, okMsg)
}
