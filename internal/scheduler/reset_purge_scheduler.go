package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const purgeTimeout = 30 * time.Second

// TicketPurger removes reset tickets that expired at or before a given instant.
type TicketPurger interface {
	ClearExpiredResetTickets(ctx context.Context, before time.Time) (int64, error)
}

// PurgeRecorder counts purged tickets.
type PurgeRecorder interface {
	RecordPurge(n int64)
}

// ResetPurgeScheduler periodically clears expired password reset tickets.
// Only already expired tickets are touched, so a purge never changes whether
// a token validates.
type ResetPurgeScheduler struct {
	cron     *cron.Cron
	purger   TicketPurger
	recorder PurgeRecorder
	now      func() time.Time
}

func NewResetPurgeScheduler(purger TicketPurger, recorder PurgeRecorder) *ResetPurgeScheduler {
	return &ResetPurgeScheduler{
		cron:     cron.New(),
		purger:   purger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Start registers the purge job on spec (standard cron or @every syntax) and
// starts the scheduler.
func (s *ResetPurgeScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		_, _ = s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for reset ticket purge", err, map[string]interface{}{
			"spec": spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Reset ticket purge scheduler started", map[string]interface{}{
		"spec": spec,
	})
	return nil
}

// RunOnce performs a single purge pass.
func (s *ResetPurgeScheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.purger.ClearExpiredResetTickets(ctx, s.now())
	if err != nil {
		logger.Error("Failed to purge expired reset tickets", err)
		return 0, err
	}

	if s.recorder != nil {
		s.recorder.RecordPurge(n)
	}
	if n > 0 {
		logger.Info("Purged expired reset tickets", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *ResetPurgeScheduler) Stop() {
	logger.Info("Stopping reset ticket purge scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Reset ticket purge scheduler stopped")
}
