package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/teamdesk-hq/teamdesk-backend/internal/stream/service"
)

// Sweeper periodically reconciles orphaned remote rooms: remote calls
// whose local persistence failed are ended on the provider side once
// their ledger entries pass the minimum age.
type Sweeper struct {
	streams  *service.StreamService
	interval time.Duration
	minAge   time.Duration
	log      *logrus.Logger
	cron     *cron.Cron
}

func NewSweeper(streams *service.StreamService, interval, minAge time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		streams:  streams,
		interval: interval,
		minAge:   minAge,
		log:      log,
	}
}

// Start schedules the sweep. A zero interval disables it.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		s.log.Info("orphan sweep disabled")
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every "+s.interval.String(), s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("interval", s.interval.String()).Info("orphan sweep scheduled")
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	swept, err := s.streams.SweepOrphans(ctx, s.minAge)
	if err != nil {
		s.log.WithError(err).Warn("orphan sweep failed")
		return
	}
	if swept > 0 {
		s.log.WithField("swept", swept).Info("orphan sweep ended remote calls")
	}
}
