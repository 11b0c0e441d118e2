package paper

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

// dustEpsilon is the negligible quantity below which a position counts as
// fully closed.
var dustEpsilon = decimal.New(1, -8)

// Ledger tracks per-asset positions with a quantity-weighted average cost
// basis. It carries no lock of its own: the owning Session serializes access.
type Ledger struct {
	holdings map[string]domain.Holding
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{holdings: make(map[string]domain.Holding)}
}

// Get returns the holding for the asset, or a zero-valued inactive holding
// if the asset has never been seen. It never fails.
func (l *Ledger) Get(asset string) domain.Holding {
	if h, ok := l.holdings[asset]; ok {
		return h
	}
	return domain.Holding{Asset: asset}
}

// ApplyBuy adds a fill to the position and recomputes the average cost basis
// as the quantity-weighted mean of the prior position and the new fill.
func (l *Ledger) ApplyBuy(asset string, price, amount decimal.Decimal) error {
	if !price.IsPositive() || !amount.IsPositive() {
		return errors.Wrapf(ErrInvalidOrder, "buy %s: price and amount must be positive", asset)
	}

	h := l.Get(asset)
	newQty := h.Quantity.Add(amount)
	notional := h.Quantity.Mul(h.AvgBuyPrice).Add(amount.Mul(price))
	h.AvgBuyPrice = notional.Div(newQty)
	h.Quantity = newQty
	h.Active = true
	l.holdings[asset] = h

	return nil
}

// ApplySell removes quantity from the position and returns the realized PnL
// against the average cost basis. Positions reduced to dust are fully closed
// so no residual cost basis survives.
func (l *Ledger) ApplySell(asset string, price, amount decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() || !amount.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrInvalidOrder, "sell %s: price and amount must be positive", asset)
	}

	h := l.Get(asset)
	if amount.GreaterThan(h.Quantity) {
		return decimal.Zero, errors.Wrapf(ErrInsufficientHoldings, "have %s %s, want to sell %s",
			h.Quantity.String(), asset, amount.String())
	}

	pnl := price.Sub(h.AvgBuyPrice).Mul(amount)
	h.Quantity = h.Quantity.Sub(amount)
	if h.Quantity.LessThanOrEqual(dustEpsilon) {
		h.Quantity = decimal.Zero
		h.AvgBuyPrice = decimal.Zero
		h.Active = false
	}
	l.holdings[asset] = h

	return pnl, nil
}

// Reset clears all holdings.
func (l *Ledger) Reset() {
	l.holdings = make(map[string]domain.Holding)
}

// ReplaceAll overwrites the ledger with the given holdings. The batch is
// validated before commit: a single entry with a negative quantity or cost
// basis rejects the whole batch and leaves the ledger untouched.
func (l *Ledger) ReplaceAll(holdings []domain.Holding) error {
	for _, h := range holdings {
		if h.Asset == "" {
			return errors.Wrap(ErrInvalidHoldingsState, "holding without asset symbol")
		}
		if h.Quantity.IsNegative() {
			return errors.Wrapf(ErrInvalidHoldingsState, "%s: negative quantity %s", h.Asset, h.Quantity.String())
		}
		if h.AvgBuyPrice.IsNegative() {
			return errors.Wrapf(ErrInvalidHoldingsState, "%s: negative avg buy price %s", h.Asset, h.AvgBuyPrice.String())
		}
	}

	replaced := make(map[string]domain.Holding, len(holdings))
	for _, h := range holdings {
		h.Active = h.Quantity.GreaterThan(dustEpsilon)
		if !h.Active {
			h.Quantity = decimal.Zero
			h.AvgBuyPrice = decimal.Zero
		}
		replaced[h.Asset] = h
	}
	l.holdings = replaced

	return nil
}

// All returns copies of the active holdings sorted by asset symbol.
func (l *Ledger) All() []domain.Holding {
	out := make([]domain.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		if h.Active {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}
