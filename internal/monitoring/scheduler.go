package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SweepGrace is how long an expired challenge is kept before the sweep deletes it.
const SweepGrace = 24 * time.Hour

// ChallengeSweeper removes challenges that expired before now minus grace.
type ChallengeSweeper interface {
	SweepExpired(ctx context.Context, grace time.Duration) (int64, error)
}

// Scheduler runs the challenge sweep on a cron schedule.
type Scheduler struct {
	sweeper ChallengeSweeper
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler creates a scheduler for the given standard cron expression.
func NewScheduler(spec string, sweeper ChallengeSweeper) (*Scheduler, error) {
	s := &Scheduler{
		sweeper: sweeper,
		cron:    cron.New(),
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the cron loop in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting challenge sweep scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped challenge sweep scheduler.")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.sweeper.SweepExpired(ctx, SweepGrace)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to sweep expired challenges")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Scheduler: swept expired challenges")
	}
}
