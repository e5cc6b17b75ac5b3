package lifx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type captured struct {
	mu      sync.Mutex
	method  string
	path    string
	auth    string
	content string
	calls   int
}

func newLIFXServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.method = r.Method
		c.path = r.URL.EscapedPath()
		c.auth = r.Header.Get("Authorization")
		c.content = r.Header.Get("Content-Type")
		c.calls++
		c.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestToggleNightlight(t *testing.T) {
	srv, got := newLIFXServer(t, http.StatusMultiStatus, `{"results":[{"status":"ok"}]}`)
	c := New(srv.URL+"/", time.Second)

	if err := c.ToggleNightlight(context.Background(), "token123", "d073d5"); err != nil {
		t.Fatalf("ToggleNightlight() error = %v", err)
	}

	got.mu.Lock()
	defer got.mu.Unlock()
	if got.method != http.MethodPost {
		t.Errorf("method = %s, want POST", got.method)
	}
	if got.path != "/v1/lights/d073d5/toggle" {
		t.Errorf("path = %s", got.path)
	}
	if got.auth != "Bearer token123" {
		t.Errorf("Authorization = %q", got.auth)
	}
	if got.content != "application/json" {
		t.Errorf("Content-Type = %q", got.content)
	}
}

func TestToggleNightlight_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		deviceID string
		want     error
		contains string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Invalid token"}`, "d1", ErrActuationFailed, "status 401"},
		{"not found", http.StatusNotFound, `{"error":"Could not find id:d1"}`, "d1", ErrActuationFailed, "Could not find"},
		{"server error", http.StatusInternalServerError, "", "d1", ErrActuationFailed, "status 500"},
		{"empty device", http.StatusOK, "", "", ErrInvalidDevice, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newLIFXServer(t, tt.status, tt.body)
			err := New(srv.URL, time.Second).ToggleNightlight(context.Background(), "tok", tt.deviceID)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("err = %q, want containing %q", err, tt.contains)
			}
		})
	}
}

func TestToggleNightlight_Unreachable(t *testing.T) {
	srv, _ := newLIFXServer(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).ToggleNightlight(context.Background(), "tok", "d1")
	if !errors.Is(err, ErrActuationFailed) {
		t.Errorf("err = %v, want ErrActuationFailed", err)
	}
}

func TestToggleNightlight_ContextCancelled(t *testing.T) {
	srv, got := newLIFXServer(t, http.StatusOK, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL, time.Second).ToggleNightlight(ctx, "tok", "d1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	got.mu.Lock()
	defer got.mu.Unlock()
	if got.calls != 0 {
		t.Errorf("server saw %d calls, want 0", got.calls)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New("", 0)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.httpClient.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", c.httpClient.Timeout)
	}
}

func TestDryRun(t *testing.T) {
	d := NewDryRun(nil)
	if err := d.ToggleNightlight(context.Background(), "tok", "d1"); err != nil {
		t.Errorf("ToggleNightlight() = %v", err)
	}
	if err := d.ToggleNightlight(context.Background(), "tok", ""); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("empty device err = %v", err)
	}
}
