package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment variable override.
const EnvPrefix = "WIRELESSMESH_"

// DefaultPath is used when WIRELESSMESH_CONFIG is not set.
const DefaultPath = "configs/config.yaml"

// Publisher backend names.
const (
	BackendMQTT      = "mqtt"
	BackendNATS      = "nats"
	BackendRedis     = "redis"
	BackendWebSocket = "websocket"
)

// Config is the root configuration structure for the wireless mesh service.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
	LIFX       LIFXConfig       `yaml:"lifx"`
	Publisher  PublisherConfig  `yaml:"publisher"`
	Validation ValidationConfig `yaml:"validation"`
	Security   SecurityConfig   `yaml:"security"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	Site          string `yaml:"site"` // tag on every point
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LIFXConfig contains device actuation API settings.
// The access token is per customer location and arrives with the location.
type LIFXConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// PublisherConfig selects the event notification backends.
type PublisherConfig struct {
	Enabled   bool        `yaml:"enabled"`
	Backends  []string    `yaml:"backends"`
	QueueSize int         `yaml:"queue_size"`
	Redis     RedisConfig `yaml:"redis"`
	NATS      NATSConfig  `yaml:"nats"`
}

// RedisConfig contains Redis pub/sub settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// NATSConfig contains NATS publish settings. Events go to
// {subject_prefix}.{customer_location_id}.{event_type}.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Name          string `yaml:"name"`
}

// ValidationConfig controls command field-format checks.
type ValidationConfig struct {
	Strict bool `yaml:"strict"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	AuthEnabled bool      `yaml:"auth_enabled"`
	JWT         JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern WIRELESSMESH_SECTION_KEY,
// for example WIRELESSMESH_DATABASE_PATH or WIRELESSMESH_REDIS_ADDR.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path returns the config file path from WIRELESSMESH_CONFIG or DefaultPath.
func Path() string {
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/wirelessmesh.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "wirelessmesh-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Site:          "default",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		LIFX: LIFXConfig{
			Enabled: true,
			BaseURL: "https://api.lifx.com",
			Timeout: 10,
		},
		Publisher: PublisherConfig{
			Enabled:   false,
			QueueSize: 256,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Channel: "wirelessmesh.events",
			},
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				SubjectPrefix: "wirelessmesh.location",
				Name:          "wirelessmesh-core",
			},
		},
		Validation: ValidationConfig{
			Strict: true,
		},
		Security: SecurityConfig{
			AuthEnabled: true,
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv(EnvPrefix + "DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv(EnvPrefix + "MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv(EnvPrefix + "MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv(EnvPrefix + "MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv(EnvPrefix + "API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("API_PORT"); ok {
		cfg.API.Port = v
	}

	// InfluxDB
	if v := os.Getenv(EnvPrefix + "INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv(EnvPrefix + "INFLUXDB_SITE"); v != "" {
		cfg.InfluxDB.Site = v
	}

	// LIFX
	if v := os.Getenv(EnvPrefix + "LIFX_BASE_URL"); v != "" {
		cfg.LIFX.BaseURL = v
	}
	if v, ok := envBool("LIFX_ENABLED"); ok {
		cfg.LIFX.Enabled = v
	}

	// Publisher
	if v, ok := envBool("PUBLISHER_ENABLED"); ok {
		cfg.Publisher.Enabled = v
	}
	if v := os.Getenv(EnvPrefix + "PUBLISHER_BACKENDS"); v != "" {
		cfg.Publisher.Backends = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.Publisher.Redis.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); v != "" {
		cfg.Publisher.Redis.Password = v
	}
	if v := os.Getenv(EnvPrefix + "NATS_URL"); v != "" {
		cfg.Publisher.NATS.URL = v
	}

	// Validation
	if v, ok := envBool("VALIDATION_STRICT"); ok {
		cfg.Validation.Strict = v
	}

	// Security - JWT secret (always override in production)
	if v, ok := envBool("AUTH_ENABLED"); ok {
		cfg.Security.AuthEnabled = v
	}
	if v := os.Getenv(EnvPrefix + "JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

func envBool(key string) (value, ok bool) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for errors and security issues.
// Every problem is collected so a single run reports all of them.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.LIFX.Enabled && c.LIFX.BaseURL == "" {
		errs = append(errs, "lifx.base_url is required when lifx is enabled")
	}
	if c.LIFX.Timeout < 0 {
		errs = append(errs, "lifx.timeout must not be negative")
	}

	if c.Publisher.QueueSize < 1 {
		errs = append(errs, "publisher.queue_size must be at least 1")
	}
	for _, b := range c.Publisher.Backends {
		if !slices.Contains([]string{BackendMQTT, BackendNATS, BackendRedis, BackendWebSocket}, b) {
			errs = append(errs, fmt.Sprintf("publisher.backends: unknown backend %q", b))
		}
	}
	if c.Publisher.Enabled && slices.Contains(c.Publisher.Backends, BackendRedis) {
		if c.Publisher.Redis.Addr == "" {
			errs = append(errs, "publisher.redis.addr is required for the redis backend")
		}
		if c.Publisher.Redis.Channel == "" {
			errs = append(errs, "publisher.redis.channel is required for the redis backend")
		}
	}
	if c.HasBackend(BackendNATS) {
		if c.Publisher.NATS.URL == "" {
			errs = append(errs, "publisher.nats.url is required for the nats backend")
		}
		if c.Publisher.NATS.SubjectPrefix == "" {
			errs = append(errs, "publisher.nats.subject_prefix is required for the nats backend")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// JWT secret is required only when the API enforces authentication.
	// A short secret lets anyone forge tokens that toggle physical devices.
	const minJWTSecretLength = 32
	if c.Security.AuthEnabled {
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set WIRELESSMESH_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HasBackend reports whether the publisher is enabled with the named backend.
func (c *Config) HasBackend(name string) bool {
	return c.Publisher.Enabled && slices.Contains(c.Publisher.Backends, name)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetLIFXTimeout returns the device actuation timeout as a Duration.
func (c *Config) GetLIFXTimeout() time.Duration {
	return time.Duration(c.LIFX.Timeout) * time.Second
}

// GetAccessTokenTTL returns the JWT access token lifetime.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
