// Package sessionstate persists trading session state so restarts keep the
// cash balance and open holdings.
package sessionstate

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

const stateFileName = "session.json"

// Store writes session state to a single JSON file.
type Store struct {
	path string
}

// NewStore creates a session state store under the given directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("state dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create session state dir")
	}
	return &Store{path: filepath.Join(dir, stateFileName)}, nil
}

// State is the persisted session data. Decimals are stored as strings to
// survive JSON round trips without precision loss.
type State struct {
	Balance  string          `json:"balance"`
	Holdings []StoredHolding `json:"holdings"`
}

// StoredHolding is a serializable snapshot of domain.Holding.
type StoredHolding struct {
	Asset       string `json:"asset"`
	Quantity    string `json:"quantity"`
	AvgBuyPrice string `json:"avg_buy_price"`
	Active      bool   `json:"active"`
}

// Load reads session state from disk. A missing or empty file yields nil
// state and no error.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read session state")
	}
	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode session state")
	}
	return &state, nil
}

// Save writes session state to disk atomically via a temp file.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write session state temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist session state")
	}
	return nil
}

// NewState converts live session data into its stored representation.
func NewState(balance decimal.Decimal, holdings []domain.Holding) State {
	state := State{
		Balance:  balance.String(),
		Holdings: make([]StoredHolding, 0, len(holdings)),
	}
	for _, h := range holdings {
		state.Holdings = append(state.Holdings, StoredHolding{
			Asset:       h.Asset,
			Quantity:    h.Quantity.String(),
			AvgBuyPrice: h.AvgBuyPrice.String(),
			Active:      h.Active,
		})
	}
	return state
}

// Restore converts stored state back into live values.
func (st *State) Restore() (decimal.Decimal, []domain.Holding, error) {
	balance, err := decimal.NewFromString(st.Balance)
	if err != nil {
		return decimal.Zero, nil, errors.Wrap(err, "decode balance")
	}

	holdings := make([]domain.Holding, 0, len(st.Holdings))
	for _, sh := range st.Holdings {
		qty, err := decimal.NewFromString(sh.Quantity)
		if err != nil {
			return decimal.Zero, nil, errors.Wrapf(err, "decode %s quantity", sh.Asset)
		}
		avg, err := decimal.NewFromString(sh.AvgBuyPrice)
		if err != nil {
			return decimal.Zero, nil, errors.Wrapf(err, "decode %s avg buy price", sh.Asset)
		}
		holdings = append(holdings, domain.Holding{
			Asset:       sh.Asset,
			Quantity:    qty,
			AvgBuyPrice: avg,
			Active:      sh.Active,
		})
	}
	return balance, holdings, nil
}
