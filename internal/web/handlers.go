package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okulov/paperbook/internal/domain"
	"github.com/okulov/paperbook/internal/services/market"
	"github.com/okulov/paperbook/internal/services/market/indicators"
	"github.com/okulov/paperbook/internal/services/paper"
)

// quoteFilter keeps the quote currencies the UI can actually browse.
var quoteFilter = []string{"/USDT", "/USD", "/BTC"}

// errBadParam marks malformed query parameters.
var errBadParam = errors.New("invalid request parameter")

func (s *Server) handleExchanges(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Exchanges())
}

func (s *Server) handleSymbols(c *gin.Context) {
	exchange := c.Query("exchange")
	if exchange == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchange required"})
		return
	}

	provider, err := s.registry.Get(exchange)
	if err != nil {
		s.respondError(c, err)
		return
	}

	symbols, err := provider.Symbols(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	filtered := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		for _, q := range quoteFilter {
			if strings.HasSuffix(sym, q) {
				filtered = append(filtered, sym)
				break
			}
		}
	}
	c.JSON(http.StatusOK, filtered)
}

func (s *Server) handleOrderBook(c *gin.Context) {
	exchange := c.Query("exchange")
	if exchange == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchange required"})
		return
	}

	book, err := s.fetchAndRecordBook(c, exchange, c.Query("symbol"), c.Query("depth"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// handleOrderBookStream pushes order book updates over SSE, polling the
// exchange at a fixed interval. Snapshots are recorded the same way a plain
// fetch records them.
func (s *Server) handleOrderBookStream(c *gin.Context) {
	exchange := c.Query("exchange")
	if exchange == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchange required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	poll := time.NewTicker(bookPollInterval)
	defer poll.Stop()
	// comment heartbeats keep proxies from dropping the connection.
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	send := func() {
		book, err := s.fetchAndRecordBook(c, exchange, c.Query("symbol"), c.Query("depth"))
		if err != nil {
			s.logger.Warn("order book stream fetch failed", zap.String("exchange", exchange), zap.Error(err))
			return
		}
		payload, err := json.Marshal(book)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	}

	send()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		case <-poll.C:
			send()
		}
	}
}

// fetchAndRecordBook fetches the order book and captures a scrubbing
// snapshot only when the caller named the symbol explicitly.
func (s *Server) fetchAndRecordBook(c *gin.Context, exchange, symbol, depthParam string) (domain.OrderBook, error) {
	provider, err := s.registry.Get(exchange)
	if err != nil {
		return domain.OrderBook{}, err
	}

	depth := s.cfg.BookDepth
	if depthParam != "" {
		d, err := strconv.Atoi(depthParam)
		if err != nil || d <= 0 {
			return domain.OrderBook{}, errors.Wrapf(errBadParam, "invalid depth %q", depthParam)
		}
		depth = d
	}

	requested := symbol
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	pair, err := domain.PairFromSymbol(symbol)
	if err != nil {
		return domain.OrderBook{}, errors.Wrap(errBadParam, err.Error())
	}

	book, err := provider.OrderBook(c.Request.Context(), pair, depth)
	if err != nil {
		return domain.OrderBook{}, err
	}

	if requested != "" {
		s.books.Record(exchange, requested, domain.BookSnapshot{
			Timestamp: time.Now().UnixMilli(),
			Bids:      book.Bids,
			Asks:      book.Asks,
		})
	}
	return book, nil
}

func (s *Server) handleSnapshots(c *gin.Context) {
	exchange := c.Query("exchange")
	symbol := c.Query("symbol")
	if exchange == "" || symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchange and symbol required"})
		return
	}
	c.JSON(http.StatusOK, s.books.History(exchange, symbol))
}

func (s *Server) handleTicker(c *gin.Context) {
	ticker, err := s.fetchTicker(c, c.Query("exchange"), c.Query("symbol"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticker)
}

func (s *Server) handleOHLCV(c *gin.Context) {
	klines, err := s.fetchKlines(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, klines)
}

func (s *Server) handleIndicators(c *gin.Context) {
	klines, err := s.fetchKlines(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	summary, err := indicators.Summarize(klines)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) fetchKlines(c *gin.Context) ([]domain.Kline, error) {
	exchange := c.Query("exchange")
	if exchange == "" {
		return nil, errors.Wrap(errBadParam, "exchange required")
	}
	provider, err := s.registry.Get(exchange)
	if err != nil {
		return nil, err
	}

	symbol := c.Query("symbol")
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	pair, err := domain.PairFromSymbol(symbol)
	if err != nil {
		return nil, errors.Wrap(errBadParam, err.Error())
	}

	interval := c.DefaultQuery("interval", "1h")
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l <= 0 {
			return nil, errors.Wrapf(errBadParam, "invalid limit %q", raw)
		}
		limit = l
	}

	return provider.Klines(c.Request.Context(), pair, interval, limit)
}

func (s *Server) fetchTicker(c *gin.Context, exchange, symbol string) (domain.Ticker, error) {
	if exchange == "" {
		exchange = s.cfg.DefaultExchange
	}
	provider, err := s.registry.Get(exchange)
	if err != nil {
		return domain.Ticker{}, err
	}
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	pair, err := domain.PairFromSymbol(symbol)
	if err != nil {
		return domain.Ticker{}, errors.Wrap(errBadParam, err.Error())
	}
	return provider.Ticker(c.Request.Context(), pair)
}

type orderPayload struct {
	Exchange  string          `json:"exchange"`
	Side      string          `json:"side"`
	OrderType string          `json:"orderType"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
}

// handleSubmitOrder executes a paper trade. Market orders fill at the live
// last price; the client-supplied price is only a fallback reference when
// the ticker is unavailable. Limit orders fill immediately at the limit
// price.
func (s *Server) handleSubmitOrder(c *gin.Context) {
	var payload orderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload: " + err.Error()})
		return
	}

	req := domain.OrderRequest{
		Side:      domain.Side(payload.Side),
		OrderType: domain.OrderType(payload.OrderType),
		Symbol:    payload.Symbol,
		Price:     payload.Price,
		Amount:    payload.Amount,
	}

	var refPrice decimal.Decimal
	if req.OrderType == domain.OrderTypeMarket {
		ticker, err := s.fetchTicker(c, payload.Exchange, payload.Symbol)
		switch {
		case err == nil:
			refPrice = ticker.Last
		case payload.Price.IsPositive():
			refPrice = payload.Price
		default:
			s.respondError(c, err)
			return
		}
	}

	view, err := s.session.SubmitOrder(req, refPrice)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Trades())
}

func (s *Server) handleClearTrades(c *gin.Context) {
	s.session.ClearTrades()
	c.Status(http.StatusNoContent)
}

// enrichedHolding augments a holding with live valuation when a reference
// price is available.
type enrichedHolding struct {
	domain.Holding
	CurrentPrice  *decimal.Decimal `json:"currentPrice,omitempty"`
	UnrealizedPnL *decimal.Decimal `json:"unrealizedPnL,omitempty"`
}

func (s *Server) handleHoldings(c *gin.Context) {
	holdings := s.session.Holdings()
	balance := s.session.Balance()

	exchange := c.Query("exchange")
	symbol := c.Query("symbol")
	if exchange == "" && symbol == "" {
		c.JSON(http.StatusOK, gin.H{"holdings": holdings, "balance": balance})
		return
	}

	// Valuation is best-effort: an upstream failure falls back to the plain
	// holdings view instead of erroring a read endpoint.
	ticker, err := s.fetchTicker(c, exchange, symbol)
	if err != nil {
		s.logger.Warn("holdings valuation unavailable", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"holdings": holdings, "balance": balance})
		return
	}

	enriched := make([]enrichedHolding, 0, len(holdings))
	portfolioValue := balance
	for _, h := range holdings {
		price := ticker.Last
		pnl := h.UnrealizedPnL(price)
		enriched = append(enriched, enrichedHolding{Holding: h, CurrentPrice: &price, UnrealizedPnL: &pnl})
		portfolioValue = portfolioValue.Add(h.Quantity.Mul(price))
	}
	c.JSON(http.StatusOK, gin.H{
		"holdings":       enriched,
		"balance":        balance,
		"portfolioValue": portfolioValue,
	})
}

type replaceHoldingsPayload struct {
	Holdings []domain.Holding `json:"holdings"`
}

func (s *Server) handleReplaceHoldings(c *gin.Context) {
	var payload replaceHoldingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holdings payload: " + err.Error()})
		return
	}

	if err := s.session.ReplaceHoldings(payload.Holdings); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": s.session.Holdings()})
}

func (s *Server) handleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": s.session.Balance()})
}

func (s *Server) handleResetBalance(c *gin.Context) {
	s.session.ResetBalance()
	c.JSON(http.StatusOK, gin.H{"balance": s.session.Balance()})
}

func (s *Server) handleResetPortfolio(c *gin.Context) {
	s.session.ResetPortfolio()
	s.session.ResetBalance()
	c.JSON(http.StatusOK, s.session.View())
}

// respondError maps the error taxonomy onto HTTP statuses; the reason text
// is passed through verbatim for the UI to display.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadParam),
		errors.Is(err, paper.ErrInvalidOrder),
		errors.Is(err, paper.ErrInsufficientBalance),
		errors.Is(err, paper.ErrInsufficientHoldings),
		errors.Is(err, paper.ErrInvalidHoldingsState),
		errors.Is(err, market.ErrUnknownExchange),
		errors.Is(err, market.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
