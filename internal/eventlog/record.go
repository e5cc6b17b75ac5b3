package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/wirelessmesh-core/internal/location"
)

// Record is one journalled event.
type Record struct {
	ID                 string             `json:"id"`
	CustomerLocationID string             `json:"customer_location_id"`
	Sequence           int64              `json:"sequence"`
	Type               location.EventType `json:"type"`
	Payload            json.RawMessage    `json:"payload"`
	RecordedAt         time.Time          `json:"recorded_at"`
}

// Journal is the durable event store for customer locations.
type Journal interface {
	// Append records e as sequence expected+1 for its location.
	// Returns ErrSequenceConflict if the last recorded sequence is not expected.
	Append(ctx context.Context, expected int64, e location.Event) (Record, error)

	// Load returns every record for a location in sequence order.
	Load(ctx context.Context, customerLocationID string) ([]Record, error)

	// ListLocationIDs returns every location with at least one record.
	ListLocationIDs(ctx context.Context) ([]string, error)
}

// NewRecord builds the record for e at the given sequence.
func NewRecord(sequence int64, e location.Event, recordedAt time.Time) (Record, error) {
	if sequence < 1 {
		return Record{}, fmt.Errorf("%w: sequence %d", ErrInvalidRecord, sequence)
	}
	payload, err := location.MarshalEvent(e)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return Record{
		ID:                 uuid.NewString(),
		CustomerLocationID: e.LocationID(),
		Sequence:           sequence,
		Type:               e.EventType(),
		Payload:            payload,
		RecordedAt:         recordedAt.UTC(),
	}, nil
}

// Event decodes the record payload.
func (r Record) Event() (location.Event, error) {
	e, err := location.UnmarshalEvent(r.Type, r.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s (seq %d): %w", location.ErrCorruptLog, r.ID, r.Sequence, err)
	}
	return e, nil
}

// Events decodes records for replay. Sequences must be contiguous from 1.
func Events(records []Record) ([]location.Event, error) {
	events := make([]location.Event, 0, len(records))
	for i, r := range records {
		if r.Sequence != int64(i+1) {
			return nil, fmt.Errorf("%w: expected sequence %d, found %d for %s",
				location.ErrCorruptLog, i+1, r.Sequence, r.CustomerLocationID)
		}
		e, err := r.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
