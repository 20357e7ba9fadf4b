// Package config provides configuration types for chat-cleaner.
//
// Two sources feed the process:
//
//   - chat-cleaner.yaml (plus CHAT_CLEANER_* environment variables) configures
//     the bridge server, the reload triggers, the journal and telemetry.
//   - the legacy plugin settings resource (settings.ini by default) carries the
//     DebugMode switch. See LoadSettings.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default resource paths, relative to Paths.GameDir.
const (
	DefaultSettingsPath = "addons/configs/chat_cleaner/settings.ini"
	DefaultRadioPath    = "addons/configs/chat_cleaner/blocked_radio.txt"
	DefaultTextPath     = "addons/configs/chat_cleaner/blocked_text.txt"
	DefaultEventsPath   = "addons/configs/chat_cleaner/blocked_events.txt"
)

// AppConfig is the top-level configuration for chat-cleaner.
type AppConfig struct {
	// Server configures the HTTP bridge listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Paths locates the game directory and the resources read on every reload.
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`

	// Watch configures reloading when list files change on disk.
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`

	// Redis configures the fleet-wide reload channel.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`

	// Journal configures where superseded calls are recorded.
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`

	// Cache configures the verdict cache.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Stats configures hot-phrase tracking.
	Stats StatsConfig `yaml:"stats" mapstructure:"stats"`

	// Admin configures access to the /admin routes.
	Admin AdminConfig `yaml:"admin" mapstructure:"admin"`

	// Telemetry configures tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DebugMode forces per-event debug logging on, in addition to the
	// DebugMode key of the settings resource.
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`

	// DevMode enables development features (debug log level).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP bridge.
type ServerConfig struct {
	// HTTPAddr is the address to listen on. Defaults to "127.0.0.1:8765".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level: debug, info, warn or error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// PathsConfig locates resources. Relative resource paths are resolved
// against GameDir.
type PathsConfig struct {
	GameDir  string `yaml:"game_dir" mapstructure:"game_dir" validate:"required"`
	Settings string `yaml:"settings" mapstructure:"settings" validate:"required"`
	Radio    string `yaml:"radio" mapstructure:"radio" validate:"required"`
	Text     string `yaml:"text" mapstructure:"text" validate:"required"`
	Events   string `yaml:"events" mapstructure:"events" validate:"required"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Debounce collapses bursts of writes into one reload (e.g., "500ms").
	Debounce string `yaml:"debounce" mapstructure:"debounce" validate:"omitempty,duration"`
}

// RedisConfig configures the redis pub/sub reload trigger.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"min=0"`
	Channel  string `yaml:"channel" mapstructure:"channel"`
}

// JournalConfig configures the suppression journal.
type JournalConfig struct {
	// Output is "stdout", "file:///abs/path", "sqlite://path" or "none".
	Output string `yaml:"output" mapstructure:"output" validate:"required,journal_output"`

	// ChannelSize is the buffer between the dispatch path and the writer.
	ChannelSize int `yaml:"channel_size" mapstructure:"channel_size" validate:"omitempty,min=1"`

	// BatchSize is the number of records written together.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"omitempty,min=1"`

	// FlushInterval is how often pending records are written (e.g., "1s").
	FlushInterval string `yaml:"flush_interval" mapstructure:"flush_interval" validate:"omitempty,duration"`

	// SendTimeout is how long to wait on a full buffer before dropping.
	// "0" drops immediately.
	SendTimeout string `yaml:"send_timeout" mapstructure:"send_timeout" validate:"omitempty,duration"`

	// RecentSize is the number of records kept in memory for /admin/journal.
	RecentSize int `yaml:"recent_size" mapstructure:"recent_size" validate:"omitempty,min=1"`
}

// CacheConfig configures the verdict cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxEntries bounds the number of cached verdicts.
	MaxEntries int64 `yaml:"max_entries" mapstructure:"max_entries" validate:"omitempty,min=1"`
}

// StatsConfig configures the hot-phrase sketch.
type StatsConfig struct {
	// TopK is the number of phrases reported.
	TopK int `yaml:"top_k" mapstructure:"top_k" validate:"omitempty,min=1,max=1000"`
	// Window is the length of the sliding window (e.g., "10m").
	Window string `yaml:"window" mapstructure:"window" validate:"omitempty,duration"`
	// Segments is the number of ticks the window is divided into.
	Segments int `yaml:"segments" mapstructure:"segments" validate:"omitempty,min=1"`
}

// AdminConfig configures the admin API.
type AdminConfig struct {
	// APIKeyHash is an argon2id hash produced by "chat-cleaner hash-key".
	// When empty, admin routes only accept requests from localhost.
	APIKeyHash string `yaml:"api_key_hash" mapstructure:"api_key_hash" validate:"omitempty,startswith=$argon2id$"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	// TraceStdout exports spans to stdout.
	TraceStdout bool `yaml:"trace_stdout" mapstructure:"trace_stdout"`
	// MetricsStdout exports OpenTelemetry metrics to stdout.
	MetricsStdout bool `yaml:"metrics_stdout" mapstructure:"metrics_stdout"`
	// MetricsInterval is the export period (e.g., "1m").
	MetricsInterval string `yaml:"metrics_interval" mapstructure:"metrics_interval" validate:"omitempty,duration"`
}

// SetDevDefaults applies development defaults.
func (c *AppConfig) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	c.Server.LogLevel = "debug"
	if c.Journal.Output == "" {
		c.Journal.Output = "stdout"
	}
}

// SetDefaults applies default values to the configuration.
func (c *AppConfig) SetDefaults() {
	// Localhost only; the bridge is meant for a shim on the same machine.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8765"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Paths.GameDir == "" {
		c.Paths.GameDir = "."
	}
	if c.Paths.Settings == "" {
		c.Paths.Settings = DefaultSettingsPath
	}
	if c.Paths.Radio == "" {
		c.Paths.Radio = DefaultRadioPath
	}
	if c.Paths.Text == "" {
		c.Paths.Text = DefaultTextPath
	}
	if c.Paths.Events == "" {
		c.Paths.Events = DefaultEventsPath
	}

	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "500ms"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "chat-cleaner:reload"
	}

	if c.Journal.Output == "" {
		c.Journal.Output = "stdout"
	}
	if c.Journal.ChannelSize == 0 {
		c.Journal.ChannelSize = 1000
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = 100
	}
	if c.Journal.FlushInterval == "" {
		c.Journal.FlushInterval = "1s"
	}
	if c.Journal.SendTimeout == "" {
		c.Journal.SendTimeout = "0"
	}
	if c.Journal.RecentSize == 0 {
		c.Journal.RecentSize = 1000
	}

	// Cache is on unless explicitly disabled.
	if !viper.IsSet("cache.enabled") {
		c.Cache.Enabled = true
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}

	if c.Stats.TopK == 0 {
		c.Stats.TopK = 10
	}
	if c.Stats.Window == "" {
		c.Stats.Window = "10m"
	}
	if c.Stats.Segments == 0 {
		c.Stats.Segments = 10
	}

	if c.Telemetry.MetricsInterval == "" {
		c.Telemetry.MetricsInterval = "1m"
	}
}

// Duration parses a duration field that has passed validation. Unparseable
// values yield fallback.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
