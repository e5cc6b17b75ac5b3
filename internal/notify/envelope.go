package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/eventlog"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
)

// Envelope is the serialized form of one emitted event.
type Envelope struct {
	Type               location.EventType `json:"type"`
	CustomerLocationID string             `json:"customer_location_id"`
	Sequence           int64              `json:"sequence"`
	RecordedAt         time.Time          `json:"recorded_at"`
	Payload            json.RawMessage    `json:"payload"`

	event location.Event
}

// NewEnvelope builds a redacted envelope from a journal record.
func NewEnvelope(rec eventlog.Record) (Envelope, error) {
	e, err := rec.Event()
	if err != nil {
		return Envelope{}, err
	}
	e = location.Redact(e)

	payload, err := location.MarshalEvent(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", rec.Type, err)
	}

	return Envelope{
		Type:               rec.Type,
		CustomerLocationID: rec.CustomerLocationID,
		Sequence:           rec.Sequence,
		RecordedAt:         rec.RecordedAt,
		Payload:            payload,
		event:              e,
	}, nil
}

// Event returns the redacted domain event, decoding the payload if the
// envelope was not built by NewEnvelope.
func (e Envelope) Event() (location.Event, error) {
	if e.event != nil {
		return e.event, nil
	}
	return location.UnmarshalEvent(e.Type, e.Payload)
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}
