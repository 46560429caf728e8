package library

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = "config.yaml"

// Config is the client configuration loaded from YAML with
// environment-variable overrides.
type Config struct {
	APIBaseURL      string `yaml:"apiBaseURL"`
	LogLevel        string `yaml:"logLevel"`
	CredentialsPath string `yaml:"credentialsPath"`
	RequestTimeout  string `yaml:"requestTimeout"`
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:      "https://localhost:7128/api",
		LogLevel:        "info",
		CredentialsPath: "library-credentials.db",
		RequestTimeout:  "10s",
	}
}

// LoadConfig reads config from path (defaults to config.yaml). A
// missing file is not an error; defaults apply and environment
// variables may still override them.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Run on defaults.
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("LIBRARY_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_CREDENTIALS_PATH"); v != "" {
		cfg.CredentialsPath = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = strings.TrimSpace(v)
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.APIBaseURL == "" {
		return errors.New("config: apiBaseURL is required (set in config.yaml or LIBRARY_API_URL)")
	}
	if cfg.CredentialsPath == "" {
		return errors.New("config: credentialsPath is required (set in config.yaml or LIBRARY_CREDENTIALS_PATH)")
	}
	if _, err := ParseRequestTimeout(cfg.RequestTimeout); err != nil {
		return err
	}
	return nil
}

// ParseRequestTimeout parses the optional request timeout string.
func ParseRequestTimeout(timeout string) (time.Duration, error) {
	if timeout == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid requestTimeout duration: %w", err)
	}
	return dur, nil
}
