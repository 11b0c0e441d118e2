package paper

import "github.com/pkg/errors"

// Sentinel errors for order rejection. Callers match with errors.Is and are
// expected to surface the full message verbatim.
var (
	// ErrInvalidOrder rejects malformed price, amount or symbol.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInsufficientBalance rejects a buy whose cost exceeds the cash balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientHoldings rejects a sell larger than the held quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInvalidHoldingsState rejects a bulk replace that violates the
	// non-negative quantity invariant.
	ErrInvalidHoldingsState = errors.New("invalid holdings state")
)
