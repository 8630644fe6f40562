package brickfolio

import "errors"

// Error taxonomy. Every failure surfaced by the engine wraps exactly one of
// these sentinels, so callers can classify with errors.Is and correct their
// input before resubmitting. No failure leaves partial state behind.
var (
	// ErrValidation marks zero, empty or out-of-range input.
	ErrValidation = errors.New("invalid input")
	// ErrInsufficientFunds marks an attached value below the required price.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares marks a debit exceeding the holder's free balance.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrUnauthorized marks a caller lacking the required role or ownership.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFoundOrExpired marks an unknown id, or a listing/offer that is no
	// longer active or whose expiry has lapsed (expiry is evaluated lazily).
	ErrNotFoundOrExpired = errors.New("not found or expired")
	// ErrAlreadyExists marks a one-time creation attempted twice.
	ErrAlreadyExists = errors.New("already exists")
	// ErrReentrancy marks a nested mutating call issued while another
	// operation against the same engine is still executing.
	ErrReentrancy = errors.New("reentrant call rejected")
)
