// internal/mirror/store_test.go
package mirror

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, logger.NewNoOpLogger()), mr
}

func jobRecord(t *testing.T, id, ownerID string, synced bool, updatedAt time.Time) *Record {
	t.Helper()
	rec, err := NewRecord(KindJob, id, ownerID, &models.Job{
		ID:       id,
		ClientID: ownerID,
		Title:    "Test job " + id,
		Category: "Development",
		Budget:   5000,
		Status:   models.JobStatusOpen,
	}, synced)
	require.NoError(t, err)
	rec.LastUpdated = updatedAt
	return rec
}

func TestUpsertLocalRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec := jobRecord(t, "job-1", "client-1", false, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.UpsertLocal(ctx, rec))

	records, _, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Kind, got.Kind)
	assert.Equal(t, rec.OwnerID, got.OwnerID)
	assert.Equal(t, rec.IsSynced, got.IsSynced)
	assert.True(t, rec.LastUpdated.Equal(got.LastUpdated))

	var job models.Job
	require.NoError(t, got.DecodePayload(&job))
	assert.Equal(t, "Test job job-1", job.Title)
}

func TestUpsertLocalReplacesByID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := jobRecord(t, "job-1", "client-1", false, time.Now().UTC())
	require.NoError(t, store.UpsertLocal(ctx, first))

	// Replaying with IsSynced=true must overwrite, not duplicate.
	second := jobRecord(t, "job-1", "client-1", true, time.Now().UTC())
	require.NoError(t, store.UpsertLocal(ctx, second))

	records, _, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSynced)

	unsynced, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestQueryByOwnerOrdersByRecency(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-old", "client-1", true, base.Add(-2*time.Hour))))
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-new", "client-1", true, base)))
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-mid", "client-1", true, base.Add(-time.Hour))))

	// A different owner's records must not leak in.
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-other", "client-2", true, base)))

	records, _, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "job-new", records[0].ID)
	assert.Equal(t, "job-mid", records[1].ID)
	assert.Equal(t, "job-old", records[2].ID)
}

func TestQueryByOwnerLiveUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, updates, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)

	// Give the subscription a moment to establish before mutating.
	time.Sleep(100 * time.Millisecond)

	rec := jobRecord(t, "job-live", "client-1", false, time.Now().UTC())
	require.NoError(t, store.UpsertLocal(ctx, rec))

	select {
	case got, ok := <-updates:
		require.True(t, ok)
		assert.Equal(t, "job-live", got.ID)
		assert.False(t, got.IsSynced)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live update")
	}

	// Cancelling the owning context ends the subscription.
	cancel()
	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestListUnsynced(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-pending-1", "client-1", false, now)))
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-pending-2", "client-2", false, now)))
	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-synced", "client-1", true, now)))

	unsynced, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 2)

	ids := map[string]bool{}
	for _, rec := range unsynced {
		ids[rec.ID] = true
		assert.False(t, rec.IsSynced)
	}
	assert.True(t, ids["job-pending-1"])
	assert.True(t, ids["job-pending-2"])
}

func TestMarkSyncedIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-1", "client-1", false, time.Now().UTC())))

	require.NoError(t, store.MarkSynced(ctx, "job-1"))
	require.NoError(t, store.MarkSynced(ctx, "job-1"))

	unsynced, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	records, _, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSynced)
}

func TestMarkSyncedAbsentIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.MarkSynced(context.Background(), "no-such-record"))
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-1", "client-1", false, time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, "job-1"))

	records, _, err := store.QueryByOwner(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	unsynced, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "no-such-record"))
}

func TestListUnsyncedSkipsCorruptRecords(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertLocal(ctx, jobRecord(t, "job-good", "client-1", false, time.Now().UTC())))

	// Corrupt a second pending record behind the store's back.
	require.NoError(t, mr.Set(recordKey("job-bad"), "{not json"))
	mr.SAdd(unsyncedKey, "job-bad")

	unsynced, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "job-good", unsynced[0].ID)
}

func TestListUnsyncedRedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, logger.NewNoOpLogger())

	mock.ExpectSMembers(unsyncedKey).SetErr(fmt.Errorf("connection refused"))

	_, err := store.ListUnsynced(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
