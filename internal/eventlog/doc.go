// Package eventlog provides the durable, append-only event journal for
// customer locations.
//
// Every accepted command produces one event. The journal stores it as a
// Record with a per-location sequence number starting at 1. Sequences are
// contiguous: an append names the sequence it expects to follow, and the
// journal refuses the write with ErrSequenceConflict if another writer got
// there first.
//
// Records are loaded back in sequence order and decoded into location
// events for replay.
//
// # Storage
//
// SQLiteJournal stores records in the location_events table (see
// migrations/). The UNIQUE (customer_location_id, sequence) constraint is
// the last line of defence against two writers for one key.
package eventlog
