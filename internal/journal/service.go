// Package journal ties the ledger, the calculations and persistence together
// behind one service used by the CLI and the HTTP API.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/benchmark"
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/exchange"
	"trade-journal-go/internal/ledger"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/performance"
	"trade-journal-go/internal/risk"
	"trade-journal-go/internal/store"
	"trade-journal-go/internal/valuation"
)

// ErrInvalidSettings is returned by UpdateSettings for unusable settings.
var ErrInvalidSettings = errors.New("invalid portfolio settings")

// Service is the journal's single logical writer.
type Service struct {
	ledger *ledger.Ledger
	solver *risk.Solver
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	settings models.PortfolioSettings

	persister *persister
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now      func() time.Time
	ledgerOp []ledger.Option
}

// WithClock replaces time.Now for the service and its ledger.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
		o.ledgerOp = append(o.ledgerOp, ledger.WithClock(now))
	}
}

// WithIDGenerator replaces the ULID generator used for new trades and exits.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.ledgerOp = append(o.ledgerOp, ledger.WithIDGenerator(newID)) }
}

// Open loads the journal from st. defaults are used until settings have been
// saved; a zero start date becomes today.
func Open(ctx context.Context, st store.Store, defaults models.PortfolioSettings, logger *zap.Logger, opts ...Option) (*Service, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.Named("journal")

	trades, err := st.LoadTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	settings, err := st.LoadSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		settings = defaults
		logger.Info("No saved portfolio settings, using defaults",
			zap.Stringer("start_date", settings.StartDate),
			zap.Float64("initial_balance", settings.InitialBalance),
		)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load portfolio settings: %w", err)
	}
	if settings.StartDate.IsZero() {
		settings.StartDate = date.FromTime(o.now())
	}

	s := &Service{
		ledger:    ledger.New(trades, o.ledgerOp...),
		solver:    risk.NewSolver(logger),
		logger:    logger,
		now:       o.now,
		settings:  settings,
		persister: newPersister(st, logger),
	}
	logger.Debug("Journal opened", zap.Int("trades", len(trades)))
	return s, nil
}

// Close waits for pending writes to finish. The service must not be mutated
// afterwards.
func (s *Service) Close() error {
	s.persister.close()
	return nil
}

// save hands the current state to the background writer.
func (s *Service) save() {
	trades := s.ledger.Trades()
	settings := s.Settings()
	s.persister.enqueue(snapshot{
		trades:   trades,
		settings: settings,
		value:    valuation.CurrentPortfolioValue(trades, settings),
	})
}

func (s *Service) Trades() []models.Trade { return s.ledger.Trades() }

func (s *Service) Trade(id string) (models.Trade, error) { return s.ledger.Trade(id) }

func (s *Service) AddTrade(data ledger.NewTrade) models.Trade {
	t := s.ledger.AddTrade(data)
	s.logger.Info("Trade added",
		zap.String("id", t.ID),
		zap.String("asset", t.Asset),
		zap.Float64("entry_price", t.EntryPrice),
		zap.Float64("quantity", t.Quantity),
	)
	s.save()
	return t
}

func (s *Service) CloseTrade(id string, exitPrice float64, opts ...ledger.ExitOption) (models.Trade, error) {
	t, err := s.ledger.CloseTrade(id, exitPrice, opts...)
	if err != nil {
		return t, err
	}
	s.logger.Info("Trade closed", zap.String("id", id), zap.Float64("exit_price", exitPrice))
	s.save()
	return t, nil
}

func (s *Service) ClosePartialTrade(id string, exitPrice, quantity float64, opts ...ledger.ExitOption) (models.Trade, error) {
	t, err := s.ledger.ClosePartialTrade(id, exitPrice, quantity, opts...)
	if err != nil {
		return t, err
	}
	s.logger.Info("Partial exit recorded",
		zap.String("id", id),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("remaining", t.Remaining()),
	)
	s.save()
	return t, nil
}

func (s *Service) UpdateStopLoss(id string, stop float64) (models.Trade, error) {
	t, err := s.ledger.UpdateStopLoss(id, stop)
	if err != nil {
		return t, err
	}
	s.save()
	return t, nil
}

func (s *Service) SetTrailingStop(id string, amount float64, kind models.TrailingType) (models.Trade, error) {
	t, err := s.ledger.SetTrailingStop(id, amount, kind)
	if err != nil {
		return t, err
	}
	s.save()
	return t, nil
}

func (s *Service) AdvanceTrailingStop(id string, price float64) (models.Trade, error) {
	t, err := s.ledger.AdvanceTrailingStop(id, price)
	if err != nil {
		return t, err
	}
	s.save()
	return t, nil
}

func (s *Service) DeleteTrade(id string) bool {
	if !s.ledger.DeleteTrade(id) {
		return false
	}
	s.logger.Info("Trade deleted", zap.String("id", id))
	s.save()
	return true
}

// Settings returns the portfolio settings in effect.
func (s *Service) Settings() models.PortfolioSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the portfolio settings.
func (s *Service) UpdateSettings(settings models.PortfolioSettings) error {
	if settings.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidSettings)
	}
	if settings.InitialBalance < 0 {
		return fmt.Errorf("%w: initial balance %v is negative", ErrInvalidSettings, settings.InitialBalance)
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.save()
	return nil
}

func (s *Service) CurrentPortfolioValue() float64 {
	return valuation.CurrentPortfolioValue(s.ledger.Trades(), s.Settings())
}

func (s *Service) Performance(period date.Period) []models.PerformancePoint {
	return performance.Build(s.ledger.Trades(), s.Settings(), period, s.now())
}

func (s *Service) Comparison(period date.Period) benchmark.Comparison {
	return benchmark.Compare(s.ledger.Trades(), s.Settings(), period, s.now())
}

// Export snapshots everything into a bundle. appSettings are carried through
// untouched.
func (s *Service) Export(appSettings map[string]any) exchange.Bundle {
	trades := s.ledger.Trades()
	settings := s.Settings()
	return exchange.Bundle{
		Trades:            trades,
		PortfolioSettings: &settings,
		PortfolioValue:    models.Float(valuation.CurrentPortfolioValue(trades, settings)),
		AppSettings:       appSettings,
		ExportDate:        s.now().UTC(),
	}
}

// Import merges the bundle's trades and adopts its portfolio settings when it
// has usable ones. It returns the number of trades added.
func (s *Service) Import(b exchange.Bundle) int {
	added := s.ledger.ImportTrades(b.Trades)
	if ps := b.PortfolioSettings; ps != nil && !ps.StartDate.IsZero() && ps.InitialBalance >= 0 {
		s.mu.Lock()
		s.settings = *ps
		s.mu.Unlock()
	}
	s.logger.Info("Trades imported", zap.Int("added", added), zap.Int("skipped", len(b.Trades)-added))
	s.save()
	return added
}
