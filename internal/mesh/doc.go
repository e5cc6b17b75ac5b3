// Package mesh is the runtime that hosts customer location aggregates.
//
// A Service keeps one entity per customer location id. The first command or
// query for an id replays that location's journal into a fresh aggregate;
// later calls reuse the cached aggregate. Every call for an id holds the
// entity lock, so each location has a single writer and commands are applied
// in the order they acquire the lock. Different ids run in parallel.
//
// Executing a command:
//
//  1. aggregate.Handle decides the event (actuating the device for toggles)
//  2. the journal appends it at version+1
//  3. aggregate.Commit folds it into memory
//  4. the notifier queues a redacted envelope for publishing
//
// A failure at step 2 leaves memory untouched and publishes nothing. Audit
// and metrics are recorded after the fact and never fail a command.
package mesh
