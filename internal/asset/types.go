package asset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Denom identifies a token denomination (e.g. "ukuji", "uatom").
// Denoms are compared and ordered bytewise; the action ledger and the
// cursor both rely on that ordering being stable.
type Denom string

func (d Denom) String() string { return string(d) }

// Validate checks that the denom is a plausible identifier.
// Denoms must be non-empty and free of whitespace.
func (d Denom) Validate() error {
	if d == "" {
		return fmt.Errorf("denom is empty")
	}
	if strings.ContainsAny(string(d), " \t\n") {
		return fmt.Errorf("denom %q contains whitespace", d)
	}
	return nil
}

// Coin is an integer amount of a single denomination.
type Coin struct {
	Denom  Denom  `json:"denom"`
	Amount uint64 `json:"amount"`
}

// NewCoin constructs a Coin.
func NewCoin(denom Denom, amount uint64) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// IsZero reports whether the coin carries no value.
func (c Coin) IsZero() bool { return c.Amount == 0 }

func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

// Action is one configured conversion rule: when the crank selects this
// action, up to Limit of Denom currently held by the custody account is
// sent to Contract along with the opaque Msg payload.
//
// Denom is the unique ledger key - the ledger never holds two actions
// for the same denomination. Actions are immutable between cranks; they
// change only through explicit owner-gated set/unset operations.
type Action struct {
	// Denom is the denomination this action consumes (ledger key).
	Denom Denom `json:"denom"`

	// Contract is the address of the external operation target.
	Contract string `json:"contract"`

	// Limit caps the amount included in any single invocation.
	Limit uint64 `json:"limit"`

	// Msg is the opaque payload forwarded to the contract.
	Msg json.RawMessage `json:"msg,omitempty"`
}

// Validate checks the action is well formed.
func (a Action) Validate() error {
	if err := a.Denom.Validate(); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	if a.Contract == "" {
		return fmt.Errorf("action %s: contract address is empty", a.Denom)
	}
	return nil
}

// DistributionTarget is a weighted recipient in the payout list.
// Weights are relative; they are not required to sum to any fixed total.
type DistributionTarget struct {
	Address string `json:"address"`
	Weight  uint64 `json:"weight"`
}

// TotalWeight sums the weights of a target list.
func TotalWeight(targets []DistributionTarget) uint64 {
	var total uint64
	for _, t := range targets {
		total += t.Weight
	}
	return total
}

// Config is the process-wide configuration of the engine. It is owned
// exclusively by the engine and mutated only through owner-gated
// operations; it persists across all cranks.
type Config struct {
	// Owner may set actions and rotate owner/executor.
	Owner string `json:"owner"`

	// Executor may trigger the crank.
	Executor string `json:"executor"`

	// SweepDenoms are the denominations distributed after every crank,
	// in configured order.
	SweepDenoms []Denom `json:"sweep_denoms"`

	// Targets is the weighted payout list, in configured order.
	// The last target absorbs all rounding dust.
	Targets []DistributionTarget `json:"targets"`
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("config: owner is empty")
	}
	if c.Executor == "" {
		return fmt.Errorf("config: executor is empty")
	}
	seen := make(map[Denom]bool, len(c.SweepDenoms))
	for _, d := range c.SweepDenoms {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("config: sweep denom: %w", err)
		}
		if seen[d] {
			return fmt.Errorf("config: duplicate sweep denom %q", d)
		}
		seen[d] = true
	}
	for i, t := range c.Targets {
		if t.Address == "" {
			return fmt.Errorf("config: target %d: address is empty", i)
		}
	}
	return nil
}

// Transfer is one applied payout: Amount of Denom sent to Address.
type Transfer struct {
	Address string `json:"address"`
	Coin    Coin   `json:"coin"`
}
