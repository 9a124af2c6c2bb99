/*
scheduler.go - Periodic issuance of repeat-policy grants

PURPOSE:
  Runs the engine's scheduled issuance on a fixed interval so enrolled
  users receive their repeat grants without manual intervention. Each
  tick is idempotent: the enrollment cursor only moves when a grant is
  actually written, so overlapping or repeated ticks never double-grant.

SEE ALSO:
  - vacation/engine.go: IssueScheduledGrants
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atlashr/vacation-engine/vacation"
)

// IssuanceScheduler triggers grant issuance on a timer.
type IssuanceScheduler struct {
	engine   *vacation.Engine
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewIssuanceScheduler creates a scheduler. It does not start it.
func NewIssuanceScheduler(engine *vacation.Engine, interval time.Duration, logger *zap.Logger) *IssuanceScheduler {
	return &IssuanceScheduler{
		engine:   engine,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the scheduler goroutine. The first pass runs immediately
// so a freshly started server catches up on any missed occurrences.
func (s *IssuanceScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop signals the scheduler to exit and waits for the current pass.
func (s *IssuanceScheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *IssuanceScheduler) run() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

func (s *IssuanceScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	asOf := s.engine.Today()
	issued, err := s.engine.IssueScheduledGrants(ctx, asOf)
	if err != nil {
		s.logger.Error("scheduled issuance failed",
			zap.String("as_of", asOf.String()), zap.Error(err))
		return
	}
	if issued > 0 {
		s.logger.Info("scheduled issuance complete",
			zap.String("as_of", asOf.String()), zap.Int("issued", issued))
	}
}
