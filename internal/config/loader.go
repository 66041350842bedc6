package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".redwiki"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML shape of the redwiki configuration file.
//
// Durations are Go duration strings ("500ms", "2s") because yaml.v3 has no
// native time.Duration support; they are parsed and validated at load time.
//
// Example:
//
//	url: https://redmine.example.com
//	user: exporter
//	password: hunter2
//	output: ./wiki-export
//	insecure: false
//	rate_interval: 500ms
//	max_retries: 5
type File struct {
	// URL is the Redmine base URL.
	URL string `yaml:"url"`

	// User is the basic-auth username.
	User string `yaml:"user"`

	// Password is the basic-auth password.
	Password string `yaml:"password"`

	// Output is the export root directory.
	Output string `yaml:"output"`

	// Insecure disables TLS certificate verification.
	Insecure bool `yaml:"insecure"`

	// RateInterval is the minimum spacing between requests.
	RateInterval string `yaml:"rate_interval"`

	// MaxRetries bounds retry attempts for transient failures.
	// Absent means "use the default".
	MaxRetries *int `yaml:"max_retries"`

	// RetryDelay is the first backoff delay.
	RetryDelay string `yaml:"retry_delay"`

	// Timeout is the per-request HTTP timeout.
	Timeout string `yaml:"timeout"`

	// Concurrency bounds the number of in-flight crawl units.
	Concurrency int `yaml:"concurrency"`
}

// LoadConfigFile loads a configuration file from the given path.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that is fatal based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Validate duration strings up front so the user gets a clear error
	// pointing at the file rather than a confusing flag-parse failure.
	for _, d := range []struct {
		field, value string
	}{
		{"rate_interval", cf.RateInterval},
		{"retry_delay", cf.RetryDelay},
		{"timeout", cf.Timeout},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return nil, fmt.Errorf("invalid %s in %s: %w", d.field, path, err)
		}
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. .redwiki in the current directory
//  3. .redwiki in the user's home directory
//  4. config.yml in the XDG config directory (~/.config/redwiki)
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), "config.yml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply copies the file's non-zero values into the config. CLI flags are
// applied after the file, so flags win over file values.
//
// Duration strings were validated by LoadConfigFile, so parse errors here
// are impossible for files loaded through it; malformed values from other
// sources are ignored rather than silently zeroing a default.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}

	if f.URL != "" {
		c.ServerURL = f.URL
	}
	if f.User != "" {
		c.User = f.User
	}
	if f.Password != "" {
		c.Password = f.Password
	}
	if f.Output != "" {
		c.OutputDir = f.Output
	}
	if f.Insecure {
		c.Insecure = true
	}
	if d, err := time.ParseDuration(f.RateInterval); err == nil {
		c.RateInterval = d
	}
	if f.MaxRetries != nil {
		c.MaxRetries = *f.MaxRetries
	}
	if d, err := time.ParseDuration(f.RetryDelay); err == nil {
		c.RetryBaseDelay = d
	}
	if d, err := time.ParseDuration(f.Timeout); err == nil {
		c.Timeout = d
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
}
