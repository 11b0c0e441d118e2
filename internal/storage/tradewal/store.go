// Package tradewal keeps a durable append-only journal of executed trades in
// a write-ahead log, so the trade history survives restarts.
package tradewal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/okulov/paperbook/internal/domain"
)

const (
	tradeSegmentLimit = 1000
	tradeMaxSegments  = 100
	tradeKeyPrefix    = "trade_"
)

// Store is a WAL-backed trade journal.
type Store struct {
	mu  sync.Mutex
	wal *gowal.Wal
	dir string
}

// NewStore initializes the trade journal under the provided directory. The
// WAL gets its own subdirectory so a journal reset cannot touch sibling
// state files.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("trade journal dir is required")
	}
	dir = filepath.Join(dir, "trades")

	wal, err := openWAL(dir)
	if err != nil {
		return nil, err
	}
	return &Store{wal: wal, dir: dir}, nil
}

func openWAL(dir string) (*gowal.Wal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create trade journal dir")
	}
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trades_",
		SegmentThreshold: tradeSegmentLimit,
		MaxSegments:      tradeMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}
	return wal, nil
}

// Append writes the trade to the journal.
func (s *Store) Append(trade domain.Trade) error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	payload, err := json.Marshal(trade)
	if err != nil {
		return errors.Wrap(err, "marshal trade")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, tradeKeyPrefix+trade.ID, payload)
}

// All replays every journaled trade in append order.
func (s *Store) All() ([]domain.Trade, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.wal.CurrentIndex()
	var trades []domain.Trade
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, tradeKeyPrefix) {
			continue
		}
		var trade domain.Trade
		if err := json.Unmarshal(payload, &trade); err != nil {
			return nil, errors.Wrap(err, "decode journaled trade")
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// Reset drops the journal contents, matching a trade-log clear.
func (s *Store) Reset() error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Close(); err != nil {
		return errors.Wrap(err, "close trade journal")
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Wrap(err, "remove trade journal dir")
	}

	wal, err := openWAL(s.dir)
	if err != nil {
		return err
	}
	s.wal = wal
	return nil
}

// Close releases the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}
