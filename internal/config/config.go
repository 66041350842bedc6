package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen to be polite toward shared Redmine instances while
// keeping exports of mid-sized wikis reasonably fast.
const (
	// DefaultRateInterval is the minimum spacing between outbound HTTP
	// requests. Half a second keeps a full export of a few hundred pages
	// under a few minutes while staying well below typical Redmine
	// rate-limit thresholds.
	DefaultRateInterval = 500 * time.Millisecond

	// DefaultMaxRetries bounds the retry budget for transient failures
	// (connection refused/reset, HTTP 429/503). With exponential backoff
	// this gives roughly 30 seconds of total patience per request.
	DefaultMaxRetries = 5

	// DefaultRetryBaseDelay is the first backoff delay. Subsequent delays
	// double: 1s, 2s, 4s, ...
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultTimeout is the per-request HTTP timeout. Attachments can be
	// large, so this is generous relative to the page endpoints.
	DefaultTimeout = 60 * time.Second

	// DefaultConcurrency is the number of in-flight crawl units (projects
	// and pages being processed). All their network calls still serialize
	// through the single throttle lane, so this bounds memory and open
	// work, not request rate.
	DefaultConcurrency = 8

	// DefaultOutputDir is where the export tree is written when the user
	// does not specify a directory.
	DefaultOutputDir = "wiki-export"

	// AppName is the application name used for XDG directory paths.
	AppName = "redwiki"
)

// Config holds all configuration options for a redwiki run.
// It is populated from the optional YAML config file and CLI flags,
// then passed through the application via dependency injection.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ServerConfig, CrawlConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without benefit.
type Config struct {
	// ServerURL is the base URL of the Redmine server, e.g.
	// "https://redmine.example.com". Required; a missing URL means no
	// export is attempted.
	ServerURL string

	// User is the basic-auth username. Empty means anonymous access.
	User string

	// Password is the basic-auth password.
	Password string

	// OutputDir is the export root directory. Created if missing.
	OutputDir string

	// Insecure disables TLS certificate verification for the whole
	// process. Intended for self-signed internal Redmine instances.
	Insecure bool

	// RateInterval is the minimum spacing between outbound requests.
	RateInterval time.Duration

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; later delays double.
	RetryBaseDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Concurrency bounds the number of in-flight crawl units.
	Concurrency int

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// ConfigFilePath is the explicit config file path, if the user gave
	// one. Empty means the default search order applies.
	ConfigFilePath string

	// SaveHistory records the run in the run-history database under the
	// XDG data directory.
	SaveHistory bool

	// DBDir is the directory holding the run-history database.
	// Defaults to the XDG data directory for redwiki.
	DBDir string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (intervals, retry counts). This also
// documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		RateInterval:   DefaultRateInterval,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		Timeout:        DefaultTimeout,
		Concurrency:    DefaultConcurrency,
	}
}

// XDGDataDir returns the XDG data directory for redwiki.
// On Linux: ~/.local/share/redwiki
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for redwiki.
// On Linux: ~/.config/redwiki
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning a sentinel
// error describing the first problem found.
//
// A missing server URL is deliberately NOT validated here: the export
// command treats it as "nothing to do" (logged, exit 0) rather than a
// hard error, so callers check ServerURL before calling Validate.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	// A zero interval disables throttling, which is valid for local
	// test servers; negative is nonsense.
	if c.RateInterval < 0 {
		return ErrInvalidRateInterval
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.RetryBaseDelay < 0 {
		return ErrInvalidRetryDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
