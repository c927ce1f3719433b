package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/revcon/internal/engine"
)

// ConfigOptions holds flags shared by the config subcommands.
type ConfigOptions struct {
	*RootOptions
	Database string
	Caller   string
}

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the engine configuration",
		Long: `Show or change the engine configuration.

Identity rotations are owner-gated: set-owner and set-executor require
--as to name the configured owner.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newConfigShowCommand(opts))
	cmd.AddCommand(newConfigSetOwnerCommand(opts))
	cmd.AddCommand(newConfigSetExecutorCommand(opts))

	return cmd
}

type targetRow struct {
	Address string `json:"address"`
	Weight  uint64 `json:"weight"`
}

type configResult struct {
	Owner       string      `json:"owner"`
	Executor    string      `json:"executor"`
	SweepDenoms []string    `json:"sweep_denoms"`
	Targets     []targetRow `json:"targets"`
}

func newConfigShowCommand(opts *ConfigOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the current configuration",
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

			cfg, err := st.ReadConfig(cmdContext(cmd))
			if err != nil {
				_ = out.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "store not initialized", err)
			}

			result := configResult{Owner: cfg.Owner, Executor: cfg.Executor}
			for _, d := range cfg.SweepDenoms {
				result.SweepDenoms = append(result.SweepDenoms, string(d))
			}
			for _, tg := range cfg.Targets {
				result.Targets = append(result.Targets, targetRow{Address: tg.Address, Weight: tg.Weight})
			}

			if opts.Format == "json" {
				return out.Success(result)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Owner:    %s\n", result.Owner)
			fmt.Fprintf(w, "Executor: %s\n", result.Executor)
			fmt.Fprintf(w, "Sweep denoms: %v\n", result.SweepDenoms)
			fmt.Fprintln(w, "Targets:")
			for _, tg := range result.Targets {
				fmt.Fprintf(w, "  %-44s weight %d\n", tg.Address, tg.Weight)
			}
			return nil
		},
	}
}

func newConfigSetOwnerCommand(opts *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "set-owner <address>",
		Short:         "Rotate the owner identity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigMutation(opts, cmd, func(eng *engine.Engine) error {
				return eng.SetOwner(cmdContext(cmd), opts.Caller, args[0])
			}, fmt.Sprintf("owner rotated to %s", args[0]))
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func newConfigSetExecutorCommand(opts *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "set-executor <address>",
		Short:         "Rotate the executor identity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigMutation(opts, cmd, func(eng *engine.Engine) error {
				return eng.SetExecutor(cmdContext(cmd), opts.Caller, args[0])
			}, fmt.Sprintf("executor rotated to %s", args[0]))
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

// runConfigMutation applies an owner-gated identity rotation.
func runConfigMutation(opts *ConfigOptions, cmd *cobra.Command, mutate func(*engine.Engine) error, okMsg string) error {
	return runGatedMutation(opts.RootOptions, opts.Database, cmd, mutate, okMsg)
}
