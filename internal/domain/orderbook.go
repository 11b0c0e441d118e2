package domain

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceLevel is one [price, quantity] entry of an order book side. It
// marshals as a two-element JSON array to stay wire-compatible with the
// format exchanges and charting clients use.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// MarshalJSON encodes the level as [price, quantity].
func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]decimal.Decimal{l.Price, l.Quantity})
}

// UnmarshalJSON decodes a [price, quantity] array.
func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	var raw [2]decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode price level")
	}
	l.Price = raw[0]
	l.Quantity = raw[1]
	return nil
}

// OrderBook holds the outstanding bid and ask levels for a symbol at a point
// in time, best prices first.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// BookSnapshot is an order book observation captured verbatim for the
// scrubbing history. Timestamp is unix milliseconds.
type BookSnapshot struct {
	Timestamp int64        `json:"timestamp"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// Ticker is the latest market summary for a symbol.
type Ticker struct {
	Symbol string          `json:"symbol"`
	Last   decimal.Decimal `json:"last"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
}
