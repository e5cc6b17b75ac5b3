package location

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Gate guards the device actuator.
//
// Actuation is only permitted in live mode. While the owning aggregate is
// replaying history the gate refuses every call with ErrReplaying, so a
// replayed NightlightToggled can never reach a physical device.
type Gate struct {
	actuator  Actuator
	replaying atomic.Bool
	calls     atomic.Int64
}

// NewGate creates a gate around an actuator. A nil actuator refuses every call.
func NewGate(actuator Actuator) *Gate {
	return &Gate{actuator: actuator}
}

// Actuate flips the nightlight of deviceID using the location access token.
func (g *Gate) Actuate(ctx context.Context, accessToken, deviceID string) error {
	if g.replaying.Load() {
		return ErrReplaying
	}
	if g.actuator == nil {
		return fmt.Errorf("%w: no actuator configured", ErrActuationFailed)
	}
	g.calls.Add(1)
	if err := g.actuator.ToggleNightlight(ctx, accessToken, deviceID); err != nil {
		return fmt.Errorf("%w: device %s: %w", ErrActuationFailed, deviceID, err)
	}
	return nil
}

// Actuations returns the number of actuator calls made through the gate.
func (g *Gate) Actuations() int64 {
	return g.calls.Load()
}

// Replaying reports whether the gate is currently closed for replay.
func (g *Gate) Replaying() bool {
	return g.replaying.Load()
}

// beginReplay closes the gate and returns the function that reopens it.
func (g *Gate) beginReplay() func() {
	g.replaying.Store(true)
	return func() { g.replaying.Store(false) }
}
