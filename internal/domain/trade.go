package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of an order, buy or sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType distinguishes market orders filled at the live reference price
// from limit orders filled at the user-specified price.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderRequest is a user-submitted buy or sell request.
type OrderRequest struct {
	Side      Side            `json:"side"`
	OrderType OrderType       `json:"orderType"`
	Symbol    string          `json:"symbol"`
	// Price is the limit price. Ignored for market orders, which fill at the
	// separately supplied reference price.
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// Trade is an immutable record of an executed order. It is created once by
// the session executor and only ever appended or bulk-cleared.
type Trade struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Side      Side            `json:"side"`
	Symbol    string          `json:"symbol"`
	OrderType OrderType       `json:"orderType"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	// RealizedPnL is set for sells only, nil for buys.
	RealizedPnL *decimal.Decimal `json:"realizedPnL"`
}

// String returns a human-readable representation.
func (t *Trade) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s", t.Side, t.Symbol, t.OrderType, t.Amount.String(), t.Price.String())
}
