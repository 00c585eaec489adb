package bot

import (
	"context"
	"sync"
	"time"

	"discord-modbot/platform"
	"discord-modbot/scanner"
	"discord-modbot/utils/database"
)

// Scheduler drives the sweeper on a fixed period. One tick runs at a time.
type Scheduler struct {
	sweeper *scanner.Sweeper
	period  time.Duration
	now     func() time.Time
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	started bool
}

func NewScheduler(p platform.Platform, repos *database.Repositories, period time.Duration) *Scheduler {
	return &Scheduler{
		sweeper: scanner.NewSweeper(p, repos),
		period:  period,
		now:     func() time.Time { return time.Now().UTC() },
		done:    make(chan struct{}),
	}
}

// Start runs a first sweep right away and then one per period.
func (s *Scheduler) Start() {
	s.started = true
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the running sweep and waits for it to return.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if !s.started {
			return
		}
		logger.Info("Stopping scheduler...")
		close(s.done)
		s.wg.Wait()
		logger.Info("Scheduler stopped")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	logger.WithField("period", s.period).Info("Scheduler started")
	s.sweeper.Tick(ctx, s.now())
	for {
		select {
		case <-ticker.C:
			s.sweeper.Tick(ctx, s.now())
		case <-s.done:
			return
		}
	}
}
