package lifx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/wirelessmesh-core/internal/infrastructure/metrics"
)

// DefaultBaseURL is the public LIFX HTTP API.
const DefaultBaseURL = "https://api.lifx.com"

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// Logger defines the logging interface used by the actuators.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Client toggles LIFX lights over HTTPS.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// New creates a client. An empty baseURL selects DefaultBaseURL and a
// non-positive timeout falls back to 10 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// ToggleNightlight flips the power state of the light selected by deviceID.
func (c *Client) ToggleNightlight(ctx context.Context, accessToken, deviceID string) error {
	err := c.toggle(ctx, accessToken, deviceID)
	metrics.ObserveActuation(err)
	return err
}

func (c *Client) toggle(ctx context.Context, accessToken, deviceID string) error {
	if deviceID == "" {
		return ErrInvalidDevice
	}

	endpoint := c.baseURL + "/v1/lights/" + url.PathEscape(deviceID) + "/toggle"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrActuationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrActuationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort detail
		return fmt.Errorf("%w: status %d: %s", ErrActuationFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	c.logger.Debug("nightlight toggled",
		"device_id", deviceID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}

// DryRun is an actuator that logs instead of calling the device API.
type DryRun struct {
	logger Logger
}

// NewDryRun creates a dry-run actuator. A nil logger is allowed.
func NewDryRun(logger Logger) *DryRun {
	if logger == nil {
		logger = noopLogger{}
	}
	return &DryRun{logger: logger}
}

// ToggleNightlight logs the toggle and succeeds.
func (d *DryRun) ToggleNightlight(_ context.Context, _, deviceID string) error {
	if deviceID == "" {
		metrics.ObserveActuation(ErrInvalidDevice)
		return ErrInvalidDevice
	}
	d.logger.Info("dry run: nightlight toggle skipped", "device_id", deviceID)
	metrics.ObserveActuation(nil)
	return nil
}
