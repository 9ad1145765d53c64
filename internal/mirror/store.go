// internal/mirror/store.go
package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
)

const (
	recordKeyPrefix = "mirror:record:"
	ownerKeyPrefix  = "mirror:owner:"
	unsyncedKey     = "mirror:unsynced"
	eventChanPrefix = "mirror:events:"
)

// Store keeps local projections of remote entities in Redis so reads can
// succeed while the remote service is unreachable and local writes can be
// buffered until a sweep pushes them upstream.
//
// Each record write is independent; there is no cross-record transaction
// and no conflict detection against the remote copy. A concurrent remote
// change is silently overwritten on push (last writer wins).
type Store struct {
	client *redis.Client
	log    logger.Logger
}

func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{client: client, log: log}
}

func recordKey(id string) string { return recordKeyPrefix + id }

func ownerKey(ownerID string) string { return ownerKeyPrefix + ownerID }

func eventChannel(ownerID string) string { return eventChanPrefix + ownerID }

// UpsertLocal inserts or replaces a record by its identifier. The caller
// decides the sync state: locally created data arrives with IsSynced=false,
// mirrored remote fetches with IsSynced=true. Subscribers on the record's
// owner channel are notified of the new version.
func (s *Store) UpsertLocal(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to encode record %s: %w", rec.ID, err))
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), raw, 0)
	pipe.ZAdd(ctx, ownerKey(rec.OwnerID), redis.Z{
		Score:  float64(rec.LastUpdated.UnixMilli()),
		Member: rec.ID,
	})
	if rec.IsSynced {
		pipe.SRem(ctx, unsyncedKey, rec.ID)
	} else {
		pipe.SAdd(ctx, unsyncedKey, rec.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to write record %s: %w", rec.ID, err))
	}

	// Notification is best effort; a dropped event only delays a live
	// query until its next snapshot.
	if err := s.client.Publish(ctx, eventChannel(rec.OwnerID), raw).Err(); err != nil {
		s.log.Warn("failed to publish mirror event", map[string]interface{}{
			"recordId": rec.ID,
			"ownerId":  rec.OwnerID,
			"error":    err.Error(),
		})
	}

	return nil
}

// QueryByOwner returns the owner's records ordered by most recently
// updated, plus a live channel that receives every subsequent local
// mutation for that owner. The subscription ends when ctx is cancelled;
// the channel is closed at that point.
func (s *Store) QueryByOwner(ctx context.Context, ownerID string) ([]Record, <-chan Record, error) {
	ids, err := s.client.ZRevRange(ctx, ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, nil, errors.NewQueryExecutionFailedError("mirror_query_by_owner", err)
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		raw, err := s.client.Get(ctx, recordKey(id)).Result()
		if err == redis.Nil {
			// Owner index can briefly reference a deleted record.
			continue
		}
		if err != nil {
			return nil, nil, errors.NewQueryExecutionFailedError("mirror_query_by_owner", err)
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("skipping corrupt mirror record", map[string]interface{}{
				"recordId": id,
				"error":    err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	updates := make(chan Record)
	sub := s.client.Subscribe(ctx, eventChannel(ownerID))

	go func() {
		defer close(updates)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var rec Record
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					s.log.Warn("skipping corrupt mirror event", map[string]interface{}{
						"ownerId": ownerID,
						"error":   err.Error(),
					})
					continue
				}
				select {
				case updates <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return records, updates, nil
}

// ListUnsynced returns every record still awaiting remote confirmation.
// Records that fail to decode are skipped with a warning rather than
// aborting the batch.
func (s *Store) ListUnsynced(ctx context.Context) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, unsyncedKey).Result()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("mirror_list_unsynced", err)
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		raw, err := s.client.Get(ctx, recordKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("mirror_list_unsynced", err)
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("skipping corrupt mirror record", map[string]interface{}{
				"recordId": id,
				"error":    err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// MarkSynced flips a record to the synced state. Calling it on an already
// synced record or an absent identifier is a no-op, so a sweep can safely
// confirm the same record twice.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	raw, err := s.client.Get(ctx, recordKey(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("mirror_mark_synced", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to decode record %s: %w", id, err))
	}
	if rec.IsSynced {
		return nil
	}

	rec.IsSynced = true
	updated, err := json.Marshal(&rec)
	if err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to encode record %s: %w", id, err))
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(id), updated, 0)
	pipe.SRem(ctx, unsyncedKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to mark record %s synced: %w", id, err))
	}
	return nil
}

// Delete removes a local record unconditionally. It never touches the
// remote copy; callers use it for explicit local invalidation such as
// purging a withdrawn application.
func (s *Store) Delete(ctx context.Context, id string) error {
	raw, err := s.client.Get(ctx, recordKey(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("mirror_delete", err)
	}

	var rec Record
	ownerID := ""
	if err := json.Unmarshal([]byte(raw), &rec); err == nil {
		ownerID = rec.OwnerID
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKey(id))
	if ownerID != "" {
		pipe.ZRem(ctx, ownerKey(ownerID), id)
	}
	pipe.SRem(ctx, unsyncedKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewMirrorWriteFailedError(fmt.Errorf("failed to delete record %s: %w", id, err))
	}
	return nil
}
