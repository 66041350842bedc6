package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and identify the first invalid
// field found.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidRateInterval is returned when the rate interval is
	// negative. Use 0 to disable throttling.
	ErrInvalidRateInterval = errors.New("invalid rate interval: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry budget is negative.
	// Use 0 to disable retries.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidRetryDelay is returned when the retry base delay is
	// negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency limit is not
	// positive. A limit of zero would mean no crawling at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
