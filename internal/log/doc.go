// Package log provides secure logging with automatic sanitization of
// credentials, built on top of the standard slog package.
//
// redwiki runs with basic-auth credentials for the Redmine server in its
// configuration, and request/response details are logged at debug level.
// The SecureHandler masks password and authorization attributes so the
// credentials never reach log output, even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
