// Package paper implements the paper-trading core: a holdings ledger with
// weighted average cost basis, a cash balance, an append-only trade log and
// the executor that moves all three atomically on each accepted order.
package paper

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okulov/paperbook/internal/domain"
	"github.com/okulov/paperbook/internal/storage/sessionstate"
	"github.com/okulov/paperbook/internal/storage/tradewal"
)

// DefaultSeedBalance is the quote-currency cash a fresh session starts with.
var DefaultSeedBalance = decimal.NewFromInt(100000)

// PortfolioView is the state returned after an accepted order.
type PortfolioView struct {
	Holdings []domain.Holding `json:"holdings"`
	Balance  decimal.Decimal  `json:"balance"`
}

// Session is an isolated paper-trading session. One mutex covers ledger,
// balance and trade log so every order transitions the triple atomically:
// concurrent requests never observe a half-applied mutation.
type Session struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	seed    decimal.Decimal
	ledger  *Ledger
	balance *Balance
	trades  *TradeLog
	state   *sessionstate.Store
	journal *tradewal.Store
}

// NewSession creates a session seeded with the given balance. The state
// store and trade journal are optional: when present, previously persisted
// holdings, balance and trade history are restored.
func NewSession(seed decimal.Decimal, logger *zap.Logger, state *sessionstate.Store, journal *tradewal.Store) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !seed.IsPositive() {
		seed = DefaultSeedBalance
	}

	s := &Session{
		logger:  logger,
		seed:    seed,
		ledger:  NewLedger(),
		balance: NewBalance(seed),
		trades:  NewTradeLog(),
		state:   state,
		journal: journal,
	}

	if err := s.restore(); err != nil {
		logger.Warn("failed to restore session state", zap.Error(err))
	}

	logger.Info("paper session init",
		zap.String("balance", s.balance.Get().String()),
		zap.Int("holdings", len(s.ledger.All())),
		zap.Int("trades", len(s.trades.All())))

	return s, nil
}

// SubmitOrder validates the request against the current ledger and balance
// state, simulates the fill and applies the mutation. Market orders fill at
// refPrice, the externally observed last price; limit orders fill
// immediately at the requested limit price. Any rejection leaves the session
// exactly as it was.
func (s *Session) SubmitOrder(req domain.OrderRequest, refPrice decimal.Decimal) (PortfolioView, error) {
	pair, err := domain.PairFromSymbol(req.Symbol)
	if err != nil {
		return PortfolioView{}, errors.Wrap(ErrInvalidOrder, err.Error())
	}

	var price decimal.Decimal
	switch req.OrderType {
	case domain.OrderTypeMarket:
		price = refPrice
	case domain.OrderTypeLimit:
		price = req.Price
	default:
		return PortfolioView{}, errors.Wrapf(ErrInvalidOrder, "unknown order type %q", req.OrderType)
	}

	if !price.IsPositive() || !req.Amount.IsPositive() {
		return PortfolioView{}, errors.Wrap(ErrInvalidOrder, "price and amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var realized *decimal.Decimal
	switch req.Side {
	case domain.SideBuy:
		cost := price.Mul(req.Amount)
		if err := s.balance.Debit(cost); err != nil {
			return PortfolioView{}, err
		}
		// The quote currency is tracked only through the balance account,
		// never as a ledger entry, to avoid double counting.
		if err := s.ledger.ApplyBuy(pair.Base, price, req.Amount); err != nil {
			s.balance.Credit(cost)
			return PortfolioView{}, err
		}
	case domain.SideSell:
		pnl, err := s.ledger.ApplySell(pair.Base, price, req.Amount)
		if err != nil {
			return PortfolioView{}, err
		}
		s.balance.Credit(price.Mul(req.Amount))
		realized = &pnl
	default:
		return PortfolioView{}, errors.Wrapf(ErrInvalidOrder, "unknown side %q", req.Side)
	}

	trade := domain.Trade{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Side:        req.Side,
		Symbol:      pair.String(),
		OrderType:   req.OrderType,
		Price:       price,
		Amount:      req.Amount,
		RealizedPnL: realized,
	}
	s.trades.Append(trade)
	s.journalAppend(trade)
	s.persist()

	fields := []zap.Field{
		zap.String("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.String("type", string(trade.OrderType)),
		zap.String("price", price.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("balance", s.balance.Get().String()),
	}
	if realized != nil {
		fields = append(fields, zap.String("realized_pnl", realized.String()))
	}
	s.logger.Info("paper "+string(req.Side)+" executed", fields...)

	return s.viewLocked(), nil
}

// Holdings returns the active holdings.
func (s *Session) Holdings() []domain.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.All()
}

// Holding returns the position for a single asset, zero-valued if unseen.
func (s *Session) Holding(asset string) domain.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Get(asset)
}

// Balance returns the current cash balance.
func (s *Session) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance.Get()
}

// Trades returns the trade history, most-recent-last.
func (s *Session) Trades() []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trades.All()
}

// View returns holdings and balance as one consistent snapshot.
func (s *Session) View() PortfolioView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() PortfolioView {
	return PortfolioView{Holdings: s.ledger.All(), Balance: s.balance.Get()}
}

// ReplaceHoldings bulk-overwrites the ledger. It exists for administrative
// corrections only; fills always go through SubmitOrder. The non-negative
// quantity invariant is enforced on the whole batch before commit.
func (s *Session) ReplaceHoldings(holdings []domain.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.ReplaceAll(holdings); err != nil {
		return err
	}
	s.persist()
	return nil
}

// ResetPortfolio clears all holdings. Idempotent.
func (s *Session) ResetPortfolio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Reset()
	s.persist()
	s.logger.Info("portfolio reset")
}

// ResetBalance restores the seed balance. Idempotent.
func (s *Session) ResetBalance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance.Reset(s.seed)
	s.persist()
	s.logger.Info("balance reset", zap.String("seed", s.seed.String()))
}

// ClearTrades empties the trade log without touching holdings or balance.
// Idempotent.
func (s *Session) ClearTrades() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades.Clear()
	if s.journal != nil {
		if err := s.journal.Reset(); err != nil {
			s.logger.Warn("failed to reset trade journal", zap.Error(err))
		}
	}
	s.logger.Info("trade log cleared")
}

func (s *Session) restore() error {
	if s.journal != nil {
		trades, err := s.journal.All()
		if err != nil {
			return errors.Wrap(err, "replay trade journal")
		}
		for _, t := range trades {
			s.trades.Append(t)
		}
	}

	if s.state == nil {
		return nil
	}
	state, err := s.state.Load()
	if err != nil || state == nil {
		return err
	}

	balance, holdings, err := state.Restore()
	if err != nil {
		return err
	}
	if err := s.ledger.ReplaceAll(holdings); err != nil {
		return err
	}
	s.balance.Reset(balance)
	return nil
}

func (s *Session) persist() {
	if s.state == nil {
		return
	}
	state := sessionstate.NewState(s.balance.Get(), s.ledger.All())
	if err := s.state.Save(state); err != nil {
		s.logger.Warn("failed to persist session state", zap.Error(err))
	}
}

func (s *Session) journalAppend(trade domain.Trade) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(trade); err != nil {
		s.logger.Warn("failed to journal trade", zap.Error(err))
	}
}
