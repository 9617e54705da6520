// Package maintenance runs the background sweep that keeps the
// personalization score table from accumulating expired rows.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/personalization"
	"go.uber.org/zap"
)

// DefaultSweepInterval matches the score TTL so every expired row is removed
// within one TTL of lapsing.
const DefaultSweepInterval = time.Hour

// Sweeper periodically deletes expired personalization scores.
type Sweeper struct {
	engine   *personalization.Service
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	active bool
}

// NewSweeper creates a sweeper over the given engine. A non-positive
// interval falls back to DefaultSweepInterval.
func NewSweeper(engine *personalization.Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
	}
}

// Start launches the background sweep loop. It runs once immediately, then
// on every tick until Stop is called. Calling Start on a running sweeper is
// a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.active = true

	s.wg.Add(1)
	go s.run(ctx)

	logger.Info("score cleanup sweeper started",
		zap.Duration("interval", s.interval),
	)
}

// Stop cancels the sweep loop and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	logger.Info("score cleanup sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.engine.CleanupExpired(ctx)
	if err != nil {
		logger.ErrorWithError("expired score sweep failed", err)
		return
	}
	if deleted > 0 {
		logger.Info("swept expired scores", zap.Int64("deleted", deleted))
	}
}
