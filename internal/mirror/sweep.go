// internal/mirror/sweep.go
package mirror

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
)

// RemotePusher pushes a single local record to the remote service.
// Implementations upsert by primary key, so replaying a record that the
// remote already accepted is harmless.
type RemotePusher interface {
	Push(ctx context.Context, rec *Record) error
}

// Sweeper periodically pushes unsynced records upstream. Each record is
// attempted independently: one failure never blocks the rest, and a failed
// record simply stays pending until a later sweep. There is no backoff,
// retry budget or dead-lettering; a record that keeps failing stays
// pending indefinitely.
type Sweeper struct {
	store       *Store
	pusher      RemotePusher
	log         logger.Logger
	cron        *cron.Cron
	pushTimeout time.Duration
	running     bool
}

func NewSweeper(store *Store, pusher RemotePusher, log logger.Logger, pushTimeout time.Duration) *Sweeper {
	if pushTimeout <= 0 {
		pushTimeout = 30 * time.Second
	}
	return &Sweeper{
		store:       store,
		pusher:      pusher,
		log:         log,
		cron:        cron.New(),
		pushTimeout: pushTimeout,
	}
}

// Start schedules sweeps on the given cron expression and launches the
// scheduler. The schedule uses the standard five-field cron format.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		s.SweepOnce(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true
	s.log.Info("sync sweeper started", map[string]interface{}{
		"schedule": schedule,
	})
	return nil
}

// Stop halts the scheduler, waiting for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.log.Info("sync sweeper stopped", nil)
}

// SweepOnce pushes every unsynced record once and marks the successes
// synced. It returns the number of confirmed pushes and the number of
// failures left pending.
func (s *Sweeper) SweepOnce(ctx context.Context) (pushed, failed int) {
	records, err := s.store.ListUnsynced(ctx)
	if err != nil {
		s.log.Error("failed to list unsynced records", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, 0
	}
	metrics.SyncPendingRecords.Set(float64(len(records)))
	if len(records) == 0 {
		return 0, 0
	}

	for i := range records {
		rec := &records[i]
		// The timeout bounds each record on its own; a slow push burns
		// its own budget, not the rest of the backlog's.
		if err := s.pushOne(ctx, rec); err != nil {
			failed++
			metrics.SyncPushFailures.WithLabelValues(string(rec.Kind)).Inc()
			s.log.Warn("push failed, record stays pending", map[string]interface{}{
				"recordId": rec.ID,
				"kind":     string(rec.Kind),
				"error":    err.Error(),
			})
			continue
		}

		if err := s.store.MarkSynced(ctx, rec.ID); err != nil {
			// The remote accepted the record; the flag flip will be
			// retried on the next sweep and the duplicate push is
			// absorbed by the remote upsert.
			failed++
			s.log.Warn("pushed but failed to mark synced", map[string]interface{}{
				"recordId": rec.ID,
				"error":    err.Error(),
			})
			continue
		}

		pushed++
		metrics.SyncRecordsPushed.WithLabelValues(string(rec.Kind)).Inc()
	}

	s.log.Info("sync sweep finished", map[string]interface{}{
		"pushed": pushed,
		"failed": failed,
	})
	return pushed, failed
}

func (s *Sweeper) pushOne(ctx context.Context, rec *Record) error {
	pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()
	return s.pusher.Push(pushCtx, rec)
}
