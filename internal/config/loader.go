package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const configBaseName = "chat-cleaner"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for chat-cleaner.yaml/.yml in standard locations.
// The search requires an explicit YAML extension so the binary itself never matches.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// ReadInConfig then returns ConfigFileNotFoundError, which callers tolerate.
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	// CHAT_CLEANER_SERVER_HTTP_ADDR overrides server.http_addr.
	viper.SetEnvPrefix("CHAT_CLEANER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".chat-cleaner"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "chat-cleaner"))
		}
	} else {
		paths = append(paths, "/etc/chat-cleaner")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths returns the first chat-cleaner.yaml or .yml found in
// paths, or "".
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configBaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested keys so they can be set from the environment
// without appearing in the config file.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")

	_ = viper.BindEnv("paths.game_dir")
	_ = viper.BindEnv("paths.settings")
	_ = viper.BindEnv("paths.radio")
	_ = viper.BindEnv("paths.text")
	_ = viper.BindEnv("paths.events")

	_ = viper.BindEnv("watch.enabled")
	_ = viper.BindEnv("watch.debounce")

	_ = viper.BindEnv("redis.enabled")
	_ = viper.BindEnv("redis.addr")
	_ = viper.BindEnv("redis.password")
	_ = viper.BindEnv("redis.channel")

	_ = viper.BindEnv("journal.output")

	_ = viper.BindEnv("cache.enabled")
	_ = viper.BindEnv("admin.api_key_hash")
	_ = viper.BindEnv("telemetry.trace_stdout")
	_ = viper.BindEnv("telemetry.metrics_stdout")

	_ = viper.BindEnv("debug_mode")
	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides and
// defaults, and validates the result.
func LoadConfig() (*AppConfig, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults, but does
// NOT apply dev defaults or validate. Use it when CLI flags may still change
// DevMode.
func LoadConfigRaw() (*AppConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Environment-only configuration.
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
