package paper

import "github.com/okulov/paperbook/internal/domain"

// TradeLog is the append-only in-memory record of executed trades,
// most-recent-last.
type TradeLog struct {
	trades []domain.Trade
}

// NewTradeLog creates an empty log.
func NewTradeLog() *TradeLog {
	return &TradeLog{}
}

// Append adds a trade to the end of the log.
func (l *TradeLog) Append(t domain.Trade) {
	l.trades = append(l.trades, t)
}

// All returns a copy of the log in insertion order.
func (l *TradeLog) All() []domain.Trade {
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Clear empties the log. Holdings and balance are unaffected.
func (l *TradeLog) Clear() {
	l.trades = nil
}
