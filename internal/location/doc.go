// Package location implements the event-sourced CustomerLocation aggregate.
//
// A customer location owns an ordered set of addressable mesh devices. Its
// state is never stored directly: every accepted command produces exactly one
// event, and the current state is the fold of all events recorded for the
// location, in order, starting from the empty state.
//
// # Architecture
//
//	          command
//	             │
//	             ▼
//	┌──────────────────────────┐    reject    ┌──────────────────┐
//	│  Rules (validation.go)   │─────────────▶│ *Rejection (409) │
//	└────────────┬─────────────┘              └──────────────────┘
//	             │ accept
//	             ▼
//	┌──────────────────────────┐  toggle only ┌──────────────────┐
//	│ CustomerLocation         │─────────────▶│ Gate → Actuator  │
//	│ (aggregate.go)           │              │ (gate.go)        │
//	└────────────┬─────────────┘              └──────────────────┘
//	             │ Event
//	             ▼
//	   runtime appends to journal, then Commit(event)
//	             │
//	             ▼
//	┌──────────────────────────┐
//	│ Apply (apply.go)         │◀──── Replay on load (same function)
//	└──────────────────────────┘
//
// # Side effects
//
// ToggleNightlight is the only command with an external side effect. The
// actuation call happens while deciding the command, before the event exists,
// and never inside Apply. Replaying a NightlightToggled event therefore only
// restores the recorded boolean; it cannot reach the device.
//
// # Thread Safety
//
// CustomerLocation is NOT safe for concurrent use. The hosting runtime
// (package mesh) guarantees a single writer per customer location.
package location
