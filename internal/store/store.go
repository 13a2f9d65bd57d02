package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/clock"
)

// DefaultFuel is recorded when a station config carries no fuel code.
const DefaultFuel = "SP98"

// Config captures the parameters for the flat-file price store.
type Config struct {
	// Path is the JSON file holding the full entry collection.
	Path string `mapstructure:"path"`
	// Location is the static display label stamped on new entries.
	Location string `mapstructure:"location"`
}

// Store holds the in-memory entry collection and persists it to a single
// JSON file. Every mutation rewrites the whole file; there is no locking,
// so concurrent writers race and the last full write wins.
type Store struct {
	path     string
	location string
	clock    clock.Clock
	logger   *zap.Logger
	entries  []PriceEntry
}

// New creates a store and loads the persisted collection. A missing file
// yields an empty store; an unreadable or corrupt file is logged and also
// yields an empty store, never an error.
func New(cfg Config, clk clock.Clock, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	s := &Store{
		path:     cfg.Path,
		location: cfg.Location,
		clock:    clk,
		logger:   logger,
	}
	s.entries = s.load()
	return s, nil
}

func (s *Store) load() []PriceEntry {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to read price store", zap.String("path", s.path), zap.Error(err))
		}
		return []PriceEntry{}
	}
	var entries []PriceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Error("Failed to parse price store, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return []PriceEntry{}
	}
	return entries
}

// AddPrice records a new observation for a station. Any existing entry for
// the same calendar day, station and postal code is replaced; the
// collection is re-sorted and persisted before returning. Persistence
// failures are logged and the in-memory state is kept.
func (s *Store) AddPrice(price float64, postal, station, fuel string) PriceEntry {
	if fuel == "" {
		fuel = DefaultFuel
	}
	entry := PriceEntry{
		Date:     s.clock.Now(),
		Price:    price,
		Fuel:     fuel,
		Postal:   postal,
		Station:  station,
		Location: s.location,
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.SameSlot(entry) {
			kept = append(kept, e)
		}
	}
	s.entries = append(kept, entry)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Date.Before(s.entries[j].Date)
	})

	s.Save()
	s.logger.Info("Recorded price entry",
		zap.Float64("price", price),
		zap.String("station", station),
		zap.String("postal", postal),
		zap.String("fuel", fuel),
	)
	return entry
}

// Save rewrites the whole collection to disk. Errors are logged, not
// returned; callers proceed with the in-memory state intact.
func (s *Store) Save() {
	payload, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal price store", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		s.logger.Error("Failed to write price store", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Debug("Price store saved", zap.Int("entries", len(s.entries)))
}

// GetLatest returns the chronologically last entry, if any.
func (s *Store) GetLatest() (PriceEntry, bool) {
	if len(s.entries) == 0 {
		return PriceEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// GetHistory returns the full collection in ascending timestamp order.
func (s *Store) GetHistory() []PriceEntry {
	out := make([]PriceEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports the number of persisted entries.
func (s *Store) Len() int {
	return len(s.entries)
}
