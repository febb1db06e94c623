package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/pricefeed"
	"trade-journal-go/internal/store"
)

// env is what every command runs against. It is filled in by the root
// command's PersistentPreRunE and released by close.
type env struct {
	configDir string
	dsn       string
	logLevel  string
	now       func() time.Time

	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	journal *journal.Service
	prices  pricefeed.Lookup
}

// Execute runs the CLI.
func Execute() error {
	e := &env{now: time.Now}
	err := newRootCmd(e).Execute()
	return errors.Join(err, e.close())
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "journal",
		Short: "A personal trading journal",
		Long: `Journal records trades with their partial exits, fees and stops, and
derives the portfolio value, a daily equity curve, a buy-and-hold benchmark
comparison and risk-based position sizes from them.

Examples:
  journal add BTC 0.5 64000 --stop 61000
  journal partial <trade-id> 66000 0.25
  journal performance --period month
  journal size position 64000 61000 --risk 1`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&e.configDir, "config", "./configs", "directory holding config.yml")
	root.PersistentFlags().StringVar(&e.dsn, "db", "", "SQLite database path (overrides database.dsn)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "diagnostic log level")

	root.AddCommand(
		newAddCmd(e),
		newCloseCmd(e),
		newPartialCmd(e),
		newStopCmd(e),
		newTrailCmd(e),
		newDeleteCmd(e),
		newListCmd(e),
		newValueCmd(e),
		newPerformanceCmd(e),
		newCompareCmd(e),
		newStatsCmd(e),
		newSizeCmd(e),
		newSettingsCmd(e),
		newExportCmd(e),
		newImportCmd(e),
		newPriceCmd(e),
	)
	return root
}

func (e *env) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig(e.configDir)
	if err != nil {
		return err
	}
	if e.dsn != "" {
		cfg.Database.DSN = e.dsn
	}
	e.cfg = cfg

	log, err := logger.NewLogger(e.logLevel, cfg.Logger.Format)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log)
	e.log = log

	var defaults models.PortfolioSettings
	defaults.InitialBalance = cfg.Journal.InitialBalance
	if cfg.Journal.StartDate != "" {
		if defaults.StartDate, err = date.Parse(cfg.Journal.StartDate); err != nil {
			return fmt.Errorf("journal.start_date: %w", err)
		}
	}

	if e.db, err = database.NewDatabase(&cfg.Database, log); err != nil {
		return err
	}
	if e.journal, err = journal.Open(ctx, store.NewKVStore(e.db), defaults, log, journal.WithClock(e.now)); err != nil {
		return err
	}
	if e.prices == nil {
		e.prices = pricefeed.NewClient(&cfg.PriceFeed, cfg.Journal.QuoteCurrency, log)
	}
	return nil
}

// close flushes pending journal writes and releases the database.
func (e *env) close() error {
	var errs []error
	if e.journal != nil {
		errs = append(errs, e.journal.Close())
		e.journal = nil
	}
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		e.db = nil
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
	return errors.Join(errs...)
}

func (e *env) quote() string { return e.cfg.Journal.QuoteCurrency }
