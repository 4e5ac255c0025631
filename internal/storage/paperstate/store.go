// Package paperstate persists the paper exchange so restarts keep balances and resting orders.
package paperstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	snapshotKey      = "paper_state"
	segmentThreshold = 1000
	maxSegments      = 10
	dirPermissions   = 0o755
)

// State all persisted paper exchange data. Decimals are stored as strings.
type State struct {
	Pair    string            `json:"pair"`
	Wallet  map[string]string `json:"wallet"`
	Locked  map[string]string `json:"locked"`
	Orders  []StoredOrder     `json:"orders"`
	Trades  []StoredTrade     `json:"trades"`
	SavedAt time.Time         `json:"saved_at"`
}

// StoredOrder serializable paper order.
type StoredOrder struct {
	ID        string    `json:"id"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Volume    string    `json:"volume"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredTrade serializable paper trade.
type StoredTrade struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Side       string    `json:"side"`
	Price      string    `json:"price"`
	Volume     string    `json:"volume"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Store appends state snapshots to a WAL; the latest snapshot wins on load.
type Store struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewStore opens the store of pairID under dir.
func NewStore(dir, pairID string) (*Store, error) {
	name := sanitize(pairID)
	if name == "" {
		return nil, errors.New("pair is required")
	}

	walDir := filepath.Join(dir, name)
	if err := os.MkdirAll(walDir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure paper state directory %s", walDir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              walDir,
		Prefix:           "paper_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init paper state WAL")
	}

	return &Store{wal: wal}, nil
}

// Load returns the latest saved state, nil when nothing was saved yet.
func (s *Store) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest []byte
	for msg := range s.wal.Iterator() {
		if msg.Key == snapshotKey {
			latest = msg.Value
		}
	}
	if latest == nil {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(latest, &state); err != nil {
		return nil, errors.Wrap(err, "decode paper state")
	}

	return &state, nil
}

// Save appends a snapshot of the state.
func (s *Store) Save(state State) error {
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode paper state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, snapshotKey, payload)
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	return s.wal.Close()
}

func sanitize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))

	var b strings.Builder
	prevUnderscore := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
