package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/revcon/internal/asset"
)

// CrankError represents an error detected during a crank.
//
// Crank errors include:
//   - Unauthorized: caller identity does not match the required role
//   - Invalid denom: a balance/denom mismatch inside the execution decision
//   - Undefined split: zero total weight with a non-zero balance
//
// All crank errors are local to a single crank: no state is mutated by
// the failing operation and no retry logic exists - callers retry by
// cranking again on a later trigger.
type CrankError struct {
	// Code identifies the error category.
	Code CrankErrorCode

	// Message is a human-readable description.
	Message string

	// Caller is the identity that attempted the operation (authz errors).
	Caller string

	// Denom is the affected denomination, when one applies.
	Denom asset.Denom
}

// CrankErrorCode categorizes crank errors.
type CrankErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller lacks the required role.
	ErrCodeUnauthorized CrankErrorCode = "UNAUTHORIZED"

	// ErrCodeInvalidDenom indicates a balance/denom mismatch in the
	// execution decision. This is an internal inconsistency.
	ErrCodeInvalidDenom CrankErrorCode = "INVALID_DENOM"

	// ErrCodeUndefinedSplit indicates a distribution over zero total
	// weight with a non-zero balance.
	ErrCodeUndefinedSplit CrankErrorCode = "UNDEFINED_SPLIT"
)

// Error implements the error interface.
func (e *CrankError) Error() string {
	if e.Denom != "" {
		return fmt.Sprintf("%s: %s (denom=%s)", e.Code, e.Message, e.Denom)
	}
	if e.Caller != "" {
		return fmt.Sprintf("%s: %s (caller=%s)", e.Code, e.Message, e.Caller)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnauthorized returns true if the error is an authorization failure.
// Uses errors.As to handle wrapped errors.
func IsUnauthorized(err error) bool {
	var ce *CrankError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeUnauthorized
	}
	return false
}

// IsInvalidDenom returns true if the error is a denom mismatch.
func IsInvalidDenom(err error) bool {
	var ce *CrankError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidDenom
	}
	return false
}

// IsUndefinedSplit returns true if the error is an undefined split.
func IsUndefinedSplit(err error) bool {
	var ce *CrankError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeUndefinedSplit
	}
	return false
}

// NewUnauthorizedError creates a CrankError for a caller that lacks the
// required role.
func NewUnauthorizedError(caller, role string) *CrankError {
	return &CrankError{
		Code:    ErrCodeUnauthorized,
		Message: fmt.Sprintf("caller is not the %s", role),
		Caller:  caller,
	}
}

// NewInvalidDenomError creates a CrankError for a balance/denom mismatch.
func NewInvalidDenomError(want, got asset.Denom) *CrankError {
	return &CrankError{
		Code:    ErrCodeInvalidDenom,
		Message: fmt.Sprintf("balance denom %s does not match action denom %s", got, want),
		Denom:   want,
	}
}

// NewUndefinedSplitError creates a CrankError for a zero-weight split.
func NewUndefinedSplitError(denom asset.Denom, balance uint64) *CrankError {
	return &CrankError{
		Code:    ErrCodeUndefinedSplit,
		Message: fmt.Sprintf("total target weight is zero with balance %d", balance),
		Denom:   denom,
	}
}
