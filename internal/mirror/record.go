// internal/mirror/record.go
package mirror

import (
	"encoding/json"
	"time"
)

// RecordKind identifies which remote entity a mirror record projects.
type RecordKind string

const (
	KindJob         RecordKind = "job"
	KindApplication RecordKind = "application"
	KindMessage     RecordKind = "message"
)

// Record is a local projection of a remote entity plus sync bookkeeping.
// IsSynced is false only for locally originated mutations; mirrored
// remote fetches are written with IsSynced=true.
type Record struct {
	Kind        RecordKind      `json:"kind"`
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Payload     json.RawMessage `json:"payload"`
	IsSynced    bool            `json:"isSynced"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// NewRecord builds a record around an arbitrary entity payload.
func NewRecord(kind RecordKind, id, ownerID string, payload interface{}, synced bool) (*Record, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Record{
		Kind:        kind,
		ID:          id,
		OwnerID:     ownerID,
		Payload:     raw,
		IsSynced:    synced,
		LastUpdated: time.Now().UTC(),
	}, nil
}

// DecodePayload unmarshals the record's payload into dst.
func (r *Record) DecodePayload(dst interface{}) error {
	return json.Unmarshal(r.Payload, dst)
}
