package scheduler

import (
	"context"
	"fmt"
	"time"

	"ffarena/service"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Scheduler drives the periodic tournament lifecycle sweep so tournaments
// advance on time even when nobody hits the HTTP endpoint.
type Scheduler struct {
	sched     gocron.Scheduler
	lifecycle service.LifecycleService
	interval  time.Duration
}

// New creates a scheduler that sweeps at the given interval
func New(lifecycle service.LifecycleService, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		sched:     sched,
		lifecycle: lifecycle,
		interval:  interval,
	}, nil
}

// Start registers the sweep job and begins running it
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
			defer cancel()

			result, err := s.lifecycle.UpdateTournamentStates(sweepCtx)
			if err != nil {
				log.WithError(err).Error("Scheduled lifecycle sweep failed")
				return
			}
			if result.Updated > 0 {
				log.WithFields(log.Fields{
					"updated":        result.Updated,
					"started":        result.StartedCount,
					"completed":      result.CompletedCount,
					"awaitingPayout": result.AwaitingPayoutCount,
				}).Info("Scheduled lifecycle sweep finished")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	s.sched.Start()
	log.WithField("interval", s.interval.String()).Info("Lifecycle scheduler started")
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
