package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <config-file>",
		Short: "Initialize the store from a YAML config file",
		Long: `Initialize the store from a YAML config file.

The file names the owner and executor identities, the denominations to
sweep, the weighted distribution targets, and optionally a set of seed
actions. It is validated against an embedded CUE schema before any
state is written.

Example:
  revcon init --db ./revcon.db ./config.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

type initResult struct {
	Owner    string `json:"owner"`
	Executor string `json:"executor"`
	Denoms   int    `json:"sweep_denoms"`
	Targets  int    `json:"targets"`
	Actions  int    `json:"actions"`
}

func runInit(opts *InitOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	ic, err := LoadInitConfig(path)
	if err != nil {
		_ = out.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
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

	// Bootstrap writes go straight to the store; ownership gating only
	// applies once an owner exists.
	if err := st.SaveConfig(ctx, ic.Config); err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}
	for _, a := range ic.Actions {
		if err := st.SetAction(ctx, a); err != nil {
			_ = out.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to seed action", err)
		}
	}

	result := initResult{
		Owner:    ic.Config.Owner,
		Executor: ic.Config.Executor,
		Denoms:   len(ic.Config.SweepDenoms),
		Targets:  len(ic.Config.Targets),
		Actions:  len(ic.Actions),
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", opts.Database)
	fmt.Fprintf(cmd.OutOrStdout(), "  Owner:        %s\n", result.Owner)
	fmt.Fprintf(cmd.OutOrStdout(), "  Executor:     %s\n", result.Executor)
	fmt.Fprintf(cmd.OutOrStdout(), "  Sweep denoms: %d\n", result.Denoms)
	fmt.Fprintf(cmd.OutOrStdout(), "  Targets:      %d\n", result.Targets)
	fmt.Fprintf(cmd.OutOrStdout(), "  Actions:      %d\n", result.Actions)
	return nil
}

// loadErrorCode extracts the error code from a loader error.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
