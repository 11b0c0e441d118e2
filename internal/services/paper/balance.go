package paper

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Balance is the single quote-currency cash account. Like the ledger it is
// unlocked: the owning Session serializes access.
type Balance struct {
	amount decimal.Decimal
}

// NewBalance creates an account holding the seed amount.
func NewBalance(seed decimal.Decimal) *Balance {
	return &Balance{amount: seed}
}

// Get returns the current cash balance.
func (b *Balance) Get() decimal.Decimal {
	return b.amount
}

// Credit adds funds, e.g. sell proceeds.
func (b *Balance) Credit(amount decimal.Decimal) {
	b.amount = b.amount.Add(amount)
}

// Debit removes funds and fails without mutation when the amount exceeds the
// current balance.
func (b *Balance) Debit(amount decimal.Decimal) error {
	if amount.GreaterThan(b.amount) {
		return errors.Wrapf(ErrInsufficientBalance, "have %s, need %s", b.amount.String(), amount.String())
	}
	b.amount = b.amount.Sub(amount)
	return nil
}

// Reset restores the balance to the given seed value.
func (b *Balance) Reset(seed decimal.Decimal) {
	b.amount = seed
}
