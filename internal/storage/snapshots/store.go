// Package snapshots keeps a bounded in-memory history of order book
// observations per exchange and symbol, letting clients scrub backward
// through recently seen market states.
package snapshots

import (
	"sync"

	"github.com/okulov/paperbook/internal/domain"
)

// historyCap bounds the retained observations per key, oldest evicted first.
const historyCap = 10

// Store is the snapshot ring buffer keyed by exchange and symbol. It is
// safe for concurrent use and independent of the trading state.
type Store struct {
	mu   sync.RWMutex
	data map[string][]domain.BookSnapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{data: make(map[string][]domain.BookSnapshot)}
}

func key(exchange, symbol string) string {
	return exchange + "_" + symbol
}

// Record appends an observation for the key, evicting from the front once
// the bound is exceeded. Observations without an explicit exchange and
// symbol are not recorded: only per-symbol scrubbing history is remembered.
func (s *Store) Record(exchange, symbol string, snap domain.BookSnapshot) {
	if exchange == "" || symbol == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(exchange, symbol)
	history := append(s.data[k], snap)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	s.data[k] = history
}

// History returns a copy of the retained snapshots for the key, oldest
// first. Unseen keys yield an empty slice.
func (s *Store) History(exchange, symbol string) []domain.BookSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key(exchange, symbol)]
	out := make([]domain.BookSnapshot, len(history))
	copy(out, history)
	return out
}
