package domain

import "github.com/shopspring/decimal"

// Holding is a single asset position tracked by the ledger.
type Holding struct {
	// Asset symbol, e.g. BTC.
	Asset string `json:"asset"`
	// Quantity currently held, never negative.
	Quantity decimal.Decimal `json:"quantity"`
	// AvgBuyPrice is the quantity-weighted average acquisition price in
	// quote-currency terms. Meaningful only while Quantity > 0.
	AvgBuyPrice decimal.Decimal `json:"avgBuyPrice"`
	// Active marks the holding as displayable and tradeable.
	Active bool `json:"active"`
}

// UnrealizedPnL returns the paper profit of the open position at the given
// reference price. Zero for empty positions.
func (h Holding) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	if !h.Quantity.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(h.AvgBuyPrice).Mul(h.Quantity)
}
