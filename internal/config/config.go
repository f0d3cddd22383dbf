// ABOUTME: Readiness configuration management with backend selection.
// ABOUTME: Handles settings, validation, and storage/queue factory functions.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron"

	"github.com/harperreed/readiness/internal/charm"
	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/logging"
	"github.com/harperreed/readiness/internal/storage"
	"github.com/harperreed/readiness/internal/syncqueue"
)

// ErrInvalidConfig wraps every validation problem.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults applied when a field is unset.
const (
	DefaultQueueBackend      = "badger"
	DefaultServerURL         = "http://localhost:8080"
	DefaultListenAddr        = ":8080"
	DefaultProbeInterval     = 30 * time.Second
	DefaultUploadConcurrency = 2
	DefaultBatchConcurrency  = 4
	DefaultSchedule          = "0 0 5 * * *"
)

// OAuth holds client-credentials settings for the set endpoint.
type OAuth struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`
}

// Config stores readiness tool configuration.
type Config struct {
	// DataDir is the root directory for data storage. readiness.db and the
	// badger queue directory live here. Supports ~ expansion. Defaults to
	// ~/.local/share/readiness.
	DataDir string `json:"data_dir,omitempty"`

	// QueueBackend selects pending set storage: "badger" (default) or "charm".
	QueueBackend string `json:"queue_backend,omitempty"`

	ServerURL  string `json:"server_url,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	OAuth      *OAuth `json:"oauth,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`

	// ProbeInterval is a Go duration string such as "30s".
	ProbeInterval     string `json:"probe_interval,omitempty"`
	UploadConcurrency int    `json:"upload_concurrency,omitempty"`
	BatchConcurrency  int    `json:"batch_concurrency,omitempty"`

	// Schedule is the cron spec (with seconds) for the daily batch.
	Schedule string `json:"schedule,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	// Strict makes decision invariant violations fail loudly.
	Strict bool `json:"strict,omitempty"`

	// Weights overrides the readiness weighting table.
	Weights *engine.Weights `json:"weights,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetQueueBackend returns the configured queue backend, defaulting to "badger".
func (c *Config) GetQueueBackend() string {
	if c.QueueBackend == "" {
		return DefaultQueueBackend
	}
	return c.QueueBackend
}

// GetServerURL returns the set endpoint base URL.
func (c *Config) GetServerURL() string {
	if c.ServerURL == "" {
		return DefaultServerURL
	}
	return c.ServerURL
}

// GetListenAddr returns the address the API server binds to.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetProbeInterval returns the reachability probe interval.
func (c *Config) GetProbeInterval() time.Duration {
	d, err := time.ParseDuration(c.ProbeInterval)
	if err != nil || d <= 0 {
		return DefaultProbeInterval
	}
	return d
}

// GetUploadConcurrency returns how many sessions may upload at once.
func (c *Config) GetUploadConcurrency() int {
	if c.UploadConcurrency <= 0 {
		return DefaultUploadConcurrency
	}
	return c.UploadConcurrency
}

// GetBatchConcurrency returns how many athletes the batch runs at once.
func (c *Config) GetBatchConcurrency() int {
	if c.BatchConcurrency <= 0 {
		return DefaultBatchConcurrency
	}
	return c.BatchConcurrency
}

// GetSchedule returns the batch cron spec.
func (c *Config) GetSchedule() string {
	if c.Schedule == "" {
		return DefaultSchedule
	}
	return c.Schedule
}

// GetWeights returns the readiness weights, defaulting to engine.DefaultWeights.
func (c *Config) GetWeights() engine.Weights {
	if c.Weights == nil {
		return engine.DefaultWeights
	}
	return *c.Weights
}

// OAuthConfig returns endpoint credentials, or nil when none are configured.
func (c *Config) OAuthConfig() *syncqueue.OAuthConfig {
	if c.OAuth == nil || c.OAuth.ClientID == "" {
		return nil
	}
	return &syncqueue.OAuthConfig{
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		TokenURL:     c.OAuth.TokenURL,
	}
}

// EnsureDeviceID assigns a device ID if none is set and reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = GenerateDeviceID()
	return true
}

// GenerateDeviceID creates a new unique device ID.
func GenerateDeviceID() string {
	return ulid.Make().String()
}

// Validate reports every problem with the config.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	switch c.GetQueueBackend() {
	case "badger", "charm":
	default:
		add("unknown queue_backend %q", c.QueueBackend)
	}
	if c.ProbeInterval != "" {
		if d, err := time.ParseDuration(c.ProbeInterval); err != nil || d <= 0 {
			add("probe_interval %q is not a positive duration", c.ProbeInterval)
		}
	}
	if c.UploadConcurrency < 0 {
		add("upload_concurrency must not be negative")
	}
	if c.BatchConcurrency < 0 {
		add("batch_concurrency must not be negative")
	}
	if _, err := cron.Parse(c.GetSchedule()); err != nil {
		add("schedule %q: %v", c.Schedule, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		add("%v", err)
	}
	if c.Weights != nil {
		if err := c.Weights.Validate(); err != nil {
			add("%v", err)
		}
	}
	if c.OAuth != nil && c.OAuth.ClientID != "" && c.OAuth.TokenURL == "" {
		add("oauth.token_url is required with oauth.client_id")
	}

	return errors.Join(errs...)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite store in the data directory.
func (c *Config) OpenStorage() (*storage.DB, error) {
	return storage.Open(filepath.Join(c.GetDataDir(), "readiness.db"))
}

// OpenQueueStore opens pending set storage for the configured backend.
// logger receives store warnings and may be nil.
func (c *Config) OpenQueueStore(logger *log.Logger) (syncqueue.PendingStore, error) {
	switch backend := c.GetQueueBackend(); backend {
	case "badger":
		return syncqueue.OpenBadger(filepath.Join(c.GetDataDir(), "queue"), syncqueue.WithBadgerLogger(logger))
	case "charm":
		return charm.OpenStore(logger)
	default:
		return nil, fmt.Errorf("unknown queue backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "readiness", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
