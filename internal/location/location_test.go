package location

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

// fakeActuator records actuator calls.
type fakeActuator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeActuator) ToggleNightlight(_ context.Context, accessToken, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, accessToken+"/"+deviceID)
	return f.err
}

func (f *fakeActuator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recorder wraps an aggregate and keeps every committed event, standing in
// for the journal.
type recorder struct {
	agg    *CustomerLocation
	events []Event
}

func newRecorder(t *testing.T, id string, act Actuator) *recorder {
	t.Helper()
	return &recorder{agg: NewCustomerLocation(id, Deps{Actuator: act, Rules: DefaultRules()})}
}

func (r *recorder) do(t *testing.T, cmd Command) (Event, error) {
	t.Helper()
	e, err := r.agg.Process(context.Background(), cmd)
	if err == nil {
		r.events = append(r.events, e)
	}
	return e, err
}

func (r *recorder) must(t *testing.T, cmd Command) Event {
	t.Helper()
	e, err := r.do(t, cmd)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", cmd.CommandName(), err)
	}
	return e
}

func assertReason(t *testing.T, err error, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rejection %q, got nil", reason)
	}
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected *Rejection, got %T", err)
	}
	if rej.Reason != reason {
		t.Errorf("reason = %q, want %q", rej.Reason, reason)
	}
}

func deviceIDs(devs []Device) []string {
	ids := make([]string, len(devs))
	for i, d := range devs {
		ids[i] = d.DeviceID
	}
	return ids
}

func TestAddCustomerLocation(t *testing.T) {
	r := newRecorder(t, "loc1", &fakeActuator{})

	e := r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	want := CustomerLocationAdded{CustomerLocationID: "loc1", AccessToken: "tok"}
	if e != want {
		t.Errorf("event = %#v, want %#v", e, want)
	}

	snap, err := r.agg.GetCustomerLocation()
	if err != nil {
		t.Fatalf("GetCustomerLocation: %v", err)
	}
	if !snap.Added || snap.Removed || snap.AccessToken != "tok" || snap.Version != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Devices == nil || len(snap.Devices) != 0 {
		t.Errorf("Devices = %#v, want empty non-nil slice", snap.Devices)
	}
}

func TestAddCustomerLocationTwiceRejected(t *testing.T) {
	r := newRecorder(t, "loc1", &fakeActuator{})
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})

	_, err := r.do(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "other"})
	assertReason(t, err, ReasonAlreadyAdded)

	if len(r.events) != 1 {
		t.Errorf("events = %d, want 1", len(r.events))
	}
	if got := r.agg.State().AccessToken; got != "tok" {
		t.Errorf("AccessToken = %q, want tok (state must not change)", got)
	}
}

func TestRemoveCustomerLocation(t *testing.T) {
	t.Run("never added", func(t *testing.T) {
		r := newRecorder(t, "loc1", &fakeActuator{})
		_, err := r.do(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})
		assertReason(t, err, ReasonNotAdded)
	})

	t.Run("clears devices and hides location", func(t *testing.T) {
		r := newRecorder(t, "loc1", &fakeActuator{})
		r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
		r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
		r.must(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})

		s := r.agg.State()
		if s.Added || !s.Removed || s.Devices.Len() != 0 {
			t.Errorf("state after removal = %+v", s)
		}

		_, err := r.agg.GetCustomerLocation()
		assertReason(t, err, ReasonDoesNotExist)
	})

	t.Run("removed twice", func(t *testing.T) {
		r := newRecorder(t, "loc1", &fakeActuator{})
		r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
		r.must(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})

		// added is already false, so the first precondition fires.
		_, err := r.do(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})
		assertReason(t, err, ReasonNotAdded)
	})
}

func TestReAddStartsEmpty(t *testing.T) {
	r := newRecorder(t, "loc1", &fakeActuator{})
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d2"})
	r.must(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok2"})

	snap, err := r.agg.GetCustomerLocation()
	if err != nil {
		t.Fatalf("GetCustomerLocation: %v", err)
	}
	if len(snap.Devices) != 0 {
		t.Errorf("Devices = %v, want none", deviceIDs(snap.Devices))
	}
	if snap.AccessToken != "tok2" {
		t.Errorf("AccessToken = %q, want tok2", snap.AccessToken)
	}

	// A previously known device can be activated again.
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
}

func TestDeviceOrderPreserved(t *testing.T) {
	r := newRecorder(t, "loc1", &fakeActuator{})
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	for _, id := range []string{"d1", "d2", "d3"} {
		r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: id})
	}

	snap, _ := r.agg.GetCustomerLocation()
	if got := deviceIDs(snap.Devices); !reflect.DeepEqual(got, []string{"d1", "d2", "d3"}) {
		t.Fatalf("order = %v, want [d1 d2 d3]", got)
	}
	for _, d := range snap.Devices {
		if !d.Activated || d.NightlightOn || d.Room != "" || d.CustomerLocationID != "loc1" {
			t.Errorf("new device = %+v", d)
		}
	}

	r.must(t, AssignRoom{CustomerLocationID: "loc1", DeviceID: "d2", Room: "kitchen"})
	snap, _ = r.agg.GetCustomerLocation()
	if got := deviceIDs(snap.Devices); !reflect.DeepEqual(got, []string{"d1", "d2", "d3"}) {
		t.Fatalf("order after assign = %v", got)
	}
	if snap.Devices[1].Room != "kitchen" {
		t.Errorf("d2.Room = %q, want kitchen", snap.Devices[1].Room)
	}
	if snap.Devices[0].Room != "" || snap.Devices[2].Room != "" {
		t.Errorf("d1/d3 changed: %+v %+v", snap.Devices[0], snap.Devices[2])
	}

	r.must(t, RemoveDevice{CustomerLocationID: "loc1", DeviceID: "d2"})
	snap, _ = r.agg.GetCustomerLocation()
	if got := deviceIDs(snap.Devices); !reflect.DeepEqual(got, []string{"d1", "d3"}) {
		t.Fatalf("order after remove = %v, want [d1 d3]", got)
	}
	d3, ok := r.agg.State().Devices.Get("d3")
	if !ok || d3.DeviceID != "d3" {
		t.Errorf("lookup of d3 after removal failed: %+v %v", d3, ok)
	}
}

func TestToggleNightlight(t *testing.T) {
	act := &fakeActuator{}
	r := newRecorder(t, "loc1", act)
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d2"})

	e := r.must(t, ToggleNightlight{CustomerLocationID: "loc1", DeviceID: "d2"})
	toggled, ok := e.(NightlightToggled)
	if !ok || !toggled.NightlightOn {
		t.Fatalf("event = %#v, want NightlightToggled on", e)
	}
	if act.count() != 1 || act.calls[0] != "tok/d2" {
		t.Fatalf("actuator calls = %v, want [tok/d2]", act.calls)
	}

	s := r.agg.State()
	d1, _ := s.Devices.Get("d1")
	d2, _ := s.Devices.Get("d2")
	if d1.NightlightOn || !d2.NightlightOn {
		t.Errorf("d1=%v d2=%v, want false true", d1.NightlightOn, d2.NightlightOn)
	}

	e = r.must(t, ToggleNightlight{CustomerLocationID: "loc1", DeviceID: "d2"})
	if e.(NightlightToggled).NightlightOn {
		t.Error("second toggle should record false")
	}
	if act.count() != 2 {
		t.Errorf("actuator calls = %d, want 2", act.count())
	}
}

func TestToggleNightlightActuationFailure(t *testing.T) {
	act := &fakeActuator{}
	r := newRecorder(t, "loc1", act)
	r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
	before := r.agg.State().Snapshot()

	act.err = errors.New("lifx down")
	_, err := r.do(t, ToggleNightlight{CustomerLocationID: "loc1", DeviceID: "d1"})
	if !errors.Is(err, ErrActuationFailed) {
		t.Fatalf("err = %v, want ErrActuationFailed", err)
	}
	if errors.Is(err, ErrRejected) {
		t.Error("actuation failure must not be a precondition rejection")
	}
	if len(r.events) != 2 {
		t.Errorf("events = %d, want 2", len(r.events))
	}
	if !reflect.DeepEqual(r.agg.State().Snapshot(), before) {
		t.Error("state changed after failed actuation")
	}
}

func TestUnknownDeviceRejectedWithoutSideEffect(t *testing.T) {
	tests := []struct {
		name   string
		cmd    Command
		reason string
	}{
		{"activate duplicate", ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"}, ReasonDeviceActivated},
		{"remove missing", RemoveDevice{CustomerLocationID: "loc1", DeviceID: "nope"}, ReasonDeviceNotFound},
		{"assign missing", AssignRoom{CustomerLocationID: "loc1", DeviceID: "nope", Room: "hall"}, ReasonDeviceNotFound},
		{"toggle missing", ToggleNightlight{CustomerLocationID: "loc1", DeviceID: "nope"}, ReasonDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := &fakeActuator{}
			r := newRecorder(t, "loc1", act)
			r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
			r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})

			_, err := r.do(t, tt.cmd)
			assertReason(t, err, tt.reason)
			if len(r.events) != 2 {
				t.Errorf("events = %d, want 2", len(r.events))
			}
			if act.count() != 0 {
				t.Errorf("actuator called %d times", act.count())
			}
		})
	}
}

func TestRemovedLocationRejectsDeviceCommands(t *testing.T) {
	cmds := []Command{
		ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d9"},
		RemoveDevice{CustomerLocationID: "loc1", DeviceID: "d1"},
		AssignRoom{CustomerLocationID: "loc1", DeviceID: "d1", Room: "hall"},
		ToggleNightlight{CustomerLocationID: "loc1", DeviceID: "d1"},
	}
	for _, cmd := range cmds {
		t.Run(cmd.CommandName(), func(t *testing.T) {
			act := &fakeActuator{}
			r := newRecorder(t, "loc1", act)
			r.must(t, AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
			r.must(t, ActivateDevice{CustomerLocationID: "loc1", DeviceID: "d1"})
			r.must(t, RemoveCustomerLocation{CustomerLocationID: "loc1"})

			_, err := r.do(t, cmd)
			assertReason(t, err, ReasonDoesNotExist)
			if act.count() != 0 {
				t.Errorf("actuator called %d times", act.count())
			}
		})
	}
}

func TestHandleWrongLocation(t *testing.T) {
	agg := NewCustomerLocation("loc1", Deps{})
	_, err := agg.Handle(context.Background(), AddCustomerLocation{CustomerLocationID: "loc2"})
	if !errors.Is(err, ErrWrongLocation) {
		t.Fatalf("err = %v, want ErrWrongLocation", err)
	}
	if agg.Version() != 0 {
		t.Errorf("Version = %d, want 0", agg.Version())
	}
}

func TestHandleDoesNotMutate(t *testing.T) {
	agg := NewCustomerLocation("loc1", Deps{Rules: DefaultRules()})
	e, err := agg.Handle(context.Background(), AddCustomerLocation{CustomerLocationID: "loc1", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if agg.State().Added {
		t.Fatal("Handle mutated state before Commit")
	}
	if err := agg.Commit(e); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !agg.State().Added || agg.Version() != 1 {
		t.Errorf("state after commit = %+v", agg.State())
	}
}
