// internal/jobstore/pusher.go
package jobstore

import (
	"context"
	"fmt"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

// Push writes one mirror record to the backing store, satisfying the sync
// sweeper's pusher contract. Every write is an upsert, so a duplicate push
// of an already accepted record converges on the same row.
func (s *Store) Push(ctx context.Context, rec *mirror.Record) error {
	switch rec.Kind {
	case mirror.KindJob:
		var job models.Job
		if err := rec.DecodePayload(&job); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, fmt.Errorf("undecodable payload: %w", err))
		}
		if err := s.UpsertJob(ctx, &job); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, err)
		}
		return nil

	case mirror.KindApplication:
		var app models.JobApplication
		if err := rec.DecodePayload(&app); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, fmt.Errorf("undecodable payload: %w", err))
		}
		if err := s.UpsertApplication(ctx, &app); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, err)
		}
		return nil

	case mirror.KindMessage:
		var msg models.Message
		if err := rec.DecodePayload(&msg); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, fmt.Errorf("undecodable payload: %w", err))
		}
		if err := s.UpsertMessage(ctx, &msg); err != nil {
			return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, err)
		}
		return nil

	default:
		return errors.NewSyncPushFailedError(string(rec.Kind), rec.ID, fmt.Errorf("unknown record kind"))
	}
}
