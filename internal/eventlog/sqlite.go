package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/wirelessmesh-core/internal/location"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteJournal creates a journal on an open, migrated database.
func NewSQLiteJournal(db *sql.DB) *SQLiteJournal {
	return &SQLiteJournal{db: db, now: time.Now}
}

// Append records e as sequence expected+1.
//
// The check of the current last sequence and the insert run in one
// transaction; the unique constraint catches anything that slips past.
func (j *SQLiteJournal) Append(ctx context.Context, expected int64, e location.Event) (Record, error) {
	if e == nil {
		return Record{}, fmt.Errorf("%w: nil event", ErrInvalidRecord)
	}
	rec, err := NewRecord(expected+1, e, j.now())
	if err != nil {
		return Record{}, err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var last int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM location_events WHERE customer_location_id = ?`,
		rec.CustomerLocationID,
	).Scan(&last); err != nil {
		return Record{}, fmt.Errorf("reading last sequence: %w", err)
	}
	if last != expected {
		return Record{}, fmt.Errorf("%w: %s expected %d, journal at %d",
			ErrSequenceConflict, rec.CustomerLocationID, expected, last)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO location_events (id, customer_location_id, sequence, event_type, payload, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CustomerLocationID, rec.Sequence, string(rec.Type),
		string(rec.Payload), rec.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, fmt.Errorf("%w: %s sequence %d already recorded",
				ErrSequenceConflict, rec.CustomerLocationID, rec.Sequence)
		}
		return Record{}, fmt.Errorf("inserting event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("committing event: %w", err)
	}
	return rec, nil
}

// Load returns every record for a location in sequence order.
func (j *SQLiteJournal) Load(ctx context.Context, customerLocationID string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, customer_location_id, sequence, event_type, payload, recorded_at
		 FROM location_events
		 WHERE customer_location_id = ?
		 ORDER BY sequence`,
		customerLocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r          Record
			eventType  string
			payload    string
			recordedAt string
		)
		if err := rows.Scan(&r.ID, &r.CustomerLocationID, &r.Sequence, &eventType, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		r.Type = location.EventType(eventType)
		r.Payload = []byte(payload)
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing recorded_at %q: %w", ErrInvalidRecord, recordedAt, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return records, nil
}

// ListLocationIDs returns every location with at least one record, sorted.
func (j *SQLiteJournal) ListLocationIDs(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT DISTINCT customer_location_id FROM location_events ORDER BY customer_location_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning location id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
