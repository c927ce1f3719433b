package engine

import (
	"encoding/json"

	"github.com/roach88/revcon/internal/asset"
)

// Request is one external-operation call: the capped funds of an
// action's denom sent to its contract along with the action's payload.
type Request struct {
	// Token is the crank token correlating this request with its crank
	// record and completion.
	Token string `json:"token"`

	// Contract is the target address.
	Contract string `json:"contract"`

	// Msg is the opaque payload forwarded to the contract.
	Msg json.RawMessage `json:"msg,omitempty"`

	// Funds is the amount included, capped at the action's limit.
	Funds asset.Coin `json:"funds"`
}

// BuildRequest decides whether an action produces an external operation
// for the given balance.
//
// Returns an InvalidDenom error when the balance's denom does not match
// the action's denom - that indicates an internal inconsistency and
// aborts the crank. Returns (nil, nil) when min(balance, limit) is zero:
// the action is inert for this crank and no operation is issued.
//
// This is a pure function; the cursor mutation happens in the Selector.
func BuildRequest(a asset.Action, balance asset.Coin) (*Request, error) {
	if balance.Denom != a.Denom {
		return nil, NewInvalidDenomError(a.Denom, balance.Denom)
	}

	amount := min(balance.Amount, a.Limit)
	if amount == 0 {
		return nil, nil
	}

	return &Request{
		Contract: a.Contract,
		Msg:      a.Msg,
		Funds:    asset.NewCoin(a.Denom, amount),
	}, nil
}
