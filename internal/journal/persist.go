package journal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

const writeTimeout = 30 * time.Second

type snapshot struct {
	trades   []models.Trade
	settings models.PortfolioSettings
	value    float64
}

// persister writes snapshots on one background goroutine. The queue holds a
// single snapshot; a newer one replaces a pending older one.
type persister struct {
	store  store.Store
	logger *zap.Logger

	mu     sync.Mutex
	queue  chan snapshot
	closed bool
	done   chan struct{}
}

func newPersister(st store.Store, logger *zap.Logger) *persister {
	p := &persister{
		store:  st,
		logger: logger,
		queue:  make(chan snapshot, 1),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(s snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("Journal closed, dropping snapshot")
		return
	}
	select {
	case <-p.queue:
	default:
	}
	p.queue <- s
}

func (p *persister) close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)
	for s := range p.queue {
		p.write(s)
	}
}

func (p *persister) write(s snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.store.SaveTrades(ctx, s.trades); err != nil {
		p.logger.Error("Failed to save trades", zap.Error(err))
	}
	if err := p.store.SaveSettings(ctx, s.settings); err != nil {
		p.logger.Error("Failed to save portfolio settings", zap.Error(err))
	}
	if err := p.store.SavePortfolioValue(ctx, s.value); err != nil {
		p.logger.Error("Failed to save portfolio value", zap.Error(err))
	}
	p.logger.Debug("Snapshot saved", zap.Int("trades", len(s.trades)), zap.Float64("portfolio_value", s.value))
}
