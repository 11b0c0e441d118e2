// Package web exposes the paperbook HTTP API: market data passthrough with
// snapshot capture, and the paper-trading endpoints.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/okulov/paperbook/internal/services/market"
	"github.com/okulov/paperbook/internal/services/paper"
	"github.com/okulov/paperbook/internal/storage/snapshots"
)

const (
	defaultBookDepth    = 20
	defaultSymbol       = "BTC/USDT"
	bookPollInterval    = 2 * time.Second
	streamHeartbeat     = 20 * time.Second
	shutdownGracePeriod = 5 * time.Second
)

// Config holds the server settings.
type Config struct {
	Addr            string
	DefaultExchange string
	DefaultSymbol   string
	BookDepth       int
}

// Server wires the trading session, the exchange registry and the snapshot
// store into an HTTP API.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	session  *paper.Session
	registry *market.Registry
	books    *snapshots.Store
}

// NewServer creates a new API server.
func NewServer(cfg Config, logger *zap.Logger, session *paper.Session, registry *market.Registry, books *snapshots.Store) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BookDepth <= 0 {
		cfg.BookDepth = defaultBookDepth
	}
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = defaultSymbol
	}
	return &Server{cfg: cfg, logger: logger, session: session, registry: registry, books: books}
}

// Handler builds the routed handler with CORS applied, the API serves
// browser frontends on other origins.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/exchanges", s.handleExchanges)
	api.GET("/symbols", s.handleSymbols)
	api.GET("/orderbook", s.handleOrderBook)
	api.GET("/orderbook/stream", s.handleOrderBookStream)
	api.GET("/snapshots", s.handleSnapshots)
	api.GET("/ticker", s.handleTicker)
	api.GET("/ohlcv", s.handleOHLCV)
	api.GET("/indicators", s.handleIndicators)

	api.POST("/trades", s.handleSubmitOrder)
	api.GET("/trades", s.handleTrades)
	api.DELETE("/trades", s.handleClearTrades)
	api.GET("/holdings", s.handleHoldings)
	api.PUT("/holdings", s.handleReplaceHoldings)
	api.GET("/balance", s.handleBalance)
	api.POST("/balance/reset", s.handleResetBalance)
	api.POST("/portfolio/reset", s.handleResetPortfolio)

	return cors.Default().Handler(r)
}

// Start runs the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", zap.String("addr", s.cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic ACME certificates,
// plus an HTTP server on port 80 for the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server error", zap.Error(err))
		}
	}()

	s.logger.Info("api server listening with auto TLS", zap.String("addr", s.cfg.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
