package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error message string constants - single source of truth for error messages
const (
	ErrMsgNodeNotFound      = "node not found"
	ErrMsgTabNotFound       = "tab not found"
	ErrMsgPlayerNotFound    = "player not found"
	ErrMsgUnauthorized      = "missing permission"
	ErrMsgPrerequisiteUnmet = "prerequisites not met"
	ErrMsgInsufficientFunds = "insufficient funds"
	ErrMsgInvariant         = "invariant violation"
	ErrMsgConfigCorrupt     = "config corrupt"
)

// Sentinel errors for the engine's failure taxonomy.
// All layers wrap these with fmt.Errorf("...: %w", err) or with the typed
// errors below so callers can branch on errors.Is.
var (
	ErrNodeNotFound      = errors.New(ErrMsgNodeNotFound)
	ErrTabNotFound       = errors.New(ErrMsgTabNotFound)
	ErrPlayerNotFound    = errors.New(ErrMsgPlayerNotFound)
	ErrUnauthorized      = errors.New(ErrMsgUnauthorized)
	ErrPrerequisiteUnmet = errors.New(ErrMsgPrerequisiteUnmet)
	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)
	ErrInvariant         = errors.New(ErrMsgInvariant)
	ErrConfigCorrupt     = errors.New(ErrMsgConfigCorrupt)
)

// UnauthorizedError reports which permission key was missing.
type UnauthorizedError struct {
	Key PermissionKey
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMsgUnauthorized, e.Key)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// PrerequisiteError lists every unmet requirement so the caller can render a
// reason list rather than a bare boolean.
type PrerequisiteError struct {
	Target string   // node or tab id the check was for
	Unmet  []string // human-keyed reasons: "tab:x", "node:y", "permission:z"
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrMsgPrerequisiteUnmet, e.Target, strings.Join(e.Unmet, ", "))
}

func (e *PrerequisiteError) Unwrap() error { return ErrPrerequisiteUnmet }

// InsufficientFundsError reports the currency, the amount required, and the
// balance at the time of the failed debit.
type InsufficientFundsError struct {
	Currency PointsType
	Required int
	Balance  int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: need %d %s, have %d", ErrMsgInsufficientFunds, e.Required, e.Currency.DisplayName(), e.Balance)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InvariantError rejects a structurally illegal edit before any mutation.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMsgInvariant, e.Reason)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
