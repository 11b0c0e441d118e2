// Package domain defines core data structures shared by the paperbook services.
package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pair is a trading pair split into its base and quote assets.
type Pair struct {
	// Base asset being bought or sold, e.g. BTC.
	Base string
	// Quote asset the base is priced in, e.g. USDT.
	Quote string
}

// PairFromSymbol parses a slash-separated symbol such as "BTC/USDT".
func PairFromSymbol(symbol string) (Pair, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, errors.Errorf("invalid symbol %q, expected BASE/QUOTE", symbol)
	}
	return Pair{Base: strings.ToUpper(parts[0]), Quote: strings.ToUpper(parts[1])}, nil
}

// String returns the slash-separated representation, e.g. "BTC/USDT".
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// Symbol returns the concatenated representation used by exchange APIs, e.g. "BTCUSDT".
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.Base, p.Quote)
}
