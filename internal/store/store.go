// Package store persists the journal's state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-journal-go/internal/models"
)

// ErrNotFound is returned when a key has never been saved.
var ErrNotFound = errors.New("store: not found")

const (
	keyTrades         = "trades"
	keySettings       = "portfolio_settings"
	keyPortfolioValue = "portfolio_value"
)

// Store loads and saves the journal's persistent state.
type Store interface {
	// LoadTrades returns an empty slice when nothing was saved yet.
	LoadTrades(ctx context.Context) ([]models.Trade, error)
	SaveTrades(ctx context.Context, trades []models.Trade) error
	// LoadSettings returns ErrNotFound when nothing was saved yet.
	LoadSettings(ctx context.Context) (models.PortfolioSettings, error)
	SaveSettings(ctx context.Context, settings models.PortfolioSettings) error
	// LoadPortfolioValue returns ErrNotFound when nothing was saved yet.
	LoadPortfolioValue(ctx context.Context) (float64, error)
	SavePortfolioValue(ctx context.Context, value float64) error
}

// KVStore keeps each piece of state as a JSON document in one gorm table.
type KVStore struct {
	db *gorm.DB
}

// ensure KVStore implements the interface
var _ Store = (*KVStore)(nil)

// NewKVStore returns a store over a migrated database.
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) LoadTrades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.get(ctx, keyTrades, &trades); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.Trade{}, nil
		}
		return nil, err
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

func (s *KVStore) SaveTrades(ctx context.Context, trades []models.Trade) error {
	if trades == nil {
		trades = []models.Trade{}
	}
	return s.put(ctx, keyTrades, trades)
}

func (s *KVStore) LoadSettings(ctx context.Context) (models.PortfolioSettings, error) {
	var settings models.PortfolioSettings
	err := s.get(ctx, keySettings, &settings)
	return settings, err
}

func (s *KVStore) SaveSettings(ctx context.Context, settings models.PortfolioSettings) error {
	return s.put(ctx, keySettings, settings)
}

func (s *KVStore) LoadPortfolioValue(ctx context.Context) (float64, error) {
	var value float64
	err := s.get(ctx, keyPortfolioValue, &value)
	return value, err
}

func (s *KVStore) SavePortfolioValue(ctx context.Context, value float64) error {
	return s.put(ctx, keyPortfolioValue, value)
}

func (s *KVStore) get(ctx context.Context, key string, dst any) error {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(entry.Value), dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	entry := models.KVEntry{Key: key, Value: string(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
