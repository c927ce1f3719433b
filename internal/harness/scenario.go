package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario seeds a fresh in-memory store with a configuration, an
// action ledger, and custody balances, then drives the engine through a
// list of steps and asserts on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario (also names the golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the engine configuration to initialize with.
	Config ConfigSpec `yaml:"config"`

	// Actions seeds the action ledger before the first step.
	Actions []ActionSpec `yaml:"actions,omitempty"`

	// Balances seeds the custody account before the first step.
	Balances map[string]uint64 `yaml:"balances,omitempty"`

	// Tokens are the fixed crank tokens handed out in order.
	// If empty, tokens default to "tok-1", "tok-2", ... one per step,
	// which keeps golden traces deterministic.
	Tokens []string `yaml:"tokens,omitempty"`

	// Steps is the sequence of operations to execute.
	Steps []Step `yaml:"steps"`

	// Expect validates the final state after all steps have run.
	Expect *Expect `yaml:"expect,omitempty"`
}

// ConfigSpec mirrors the engine configuration in scenario YAML.
type ConfigSpec struct {
	Owner       string       `yaml:"owner"`
	Executor    string       `yaml:"executor"`
	SweepDenoms []string     `yaml:"sweep_denoms"`
	Targets     []TargetSpec `yaml:"targets"`
}

// TargetSpec is one weighted payout recipient.
type TargetSpec struct {
	Address string `yaml:"address"`
	Weight  uint64 `yaml:"weight"`
}

// ActionSpec seeds one action in the ledger.
type ActionSpec struct {
	Denom    string         `yaml:"denom"`
	Contract string         `yaml:"contract"`
	Limit    *uint64        `yaml:"limit,omitempty"` // absent means unlimited
	Msg      map[string]any `yaml:"msg,omitempty"`
}

// Step is one operation in the scenario flow. Exactly one field must be
// set.
type Step struct {
	// Fund credits the custody account mid-flow.
	Fund *FundStep `yaml:"fund,omitempty"`

	// Crank runs one crank as the named caller.
	Crank *CrankStep `yaml:"crank,omitempty"`

	// Complete runs the completion sweep without advancing the cursor.
	Complete *CompleteStep `yaml:"complete,omitempty"`
}

// FundStep credits the custody account.
type FundStep struct {
	Denom  string `yaml:"denom"`
	Amount uint64 `yaml:"amount"`
}

// CrankStep runs one crank.
type CrankStep struct {
	// As is the caller identity; the engine rejects non-executors.
	As string `yaml:"as"`
}

// CompleteStep runs the completion sweep.
type CompleteStep struct{}

// Expect validates the final state of the run.
type Expect struct {
	// Cursor is the expected cursor position ("" means unset).
	Cursor string `yaml:"cursor,omitempty"`

	// Transfers is the full expected transfer log, in order.
	Transfers []TransferSpec `yaml:"transfers,omitempty"`

	// Issued is the full expected list of issued operations, in order.
	Issued []IssueSpec `yaml:"issued,omitempty"`

	// Balances are expected final custody balances. Subset match - only
	// listed denoms are checked.
	Balances map[string]uint64 `yaml:"balances,omitempty"`
}

// TransferSpec is one expected payout.
type TransferSpec struct {
	Address string `yaml:"address"`
	Denom   string `yaml:"denom"`
	Amount  uint64 `yaml:"amount"`
}

// IssueSpec is one expected issued operation.
type IssueSpec struct {
	Token    string `yaml:"token,omitempty"`
	Denom    string `yaml:"denom"`
	Contract string `yaml:"contract"`
	Amount   uint64 `yaml:"amount"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "step:" vs "steps:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.Owner == "" || s.Config.Executor == "" {
		return fmt.Errorf("config.owner and config.executor are required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		set := 0
		if step.Fund != nil {
			set++
			if step.Fund.Denom == "" {
				return fmt.Errorf("steps[%d].fund: denom is required", i)
			}
		}
		if step.Crank != nil {
			set++
			if step.Crank.As == "" {
				return fmt.Errorf("steps[%d].crank: as is required", i)
			}
		}
		if step.Complete != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of fund, crank, complete is required", i)
		}
	}

	for i, a := range s.Actions {
		if a.Denom == "" || a.Contract == "" {
			return fmt.Errorf("actions[%d]: denom and contract are required", i)
		}
	}

	return nil
}
