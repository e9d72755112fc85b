// Package state persists engine snapshots between runs. Cash and open
// positions live in separate files so corruption of one never blocks
// loading the other; the strategy document and the trade journal have their
// own homes already.
package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/akhlistunov-sys/config-ai-meme-bot/engine"
)

const (
	cashFile      = "cash.json"
	positionsFile = "positions.json"
)

type cashState struct {
	FreeCash float64 `json:"free_cash"`
}

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// SaveCash writes the free cash balance.
func (s *Store) SaveCash(cash float64) error {
	return s.save(cashFile, cashState{FreeCash: cash})
}

// LoadCash returns the persisted balance, or fallback when no snapshot
// exists yet.
func (s *Store) LoadCash(fallback float64) (float64, error) {
	var st cashState
	ok, err := s.load(cashFile, &st)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	return st.FreeCash, nil
}

// SavePositions writes the open position set.
func (s *Store) SavePositions(positions []engine.Position) error {
	return s.save(positionsFile, positions)
}

// LoadPositions returns the persisted open positions, or nil when no
// snapshot exists yet.
func (s *Store) LoadPositions() ([]engine.Position, error) {
	var positions []engine.Position
	if _, err := s.load(positionsFile, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Reset removes all snapshot files.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{cashFile, positionsFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Store) save(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		return errors.New("empty state dir")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// load reports whether the file existed and held data.
func (s *Store) load(name string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		return false, errors.New("empty state dir")
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}
