package redmine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"syscall"
	"time"
)

// RequestFunc issues one HTTP attempt and returns the response with its
// fully-read body. The response body is already closed by the time the
// function returns; Resp carries status and headers only.
type RequestFunc func(ctx context.Context) (resp *http.Response, body []byte, err error)

// RetryPolicy retries one network call on transient failure with
// exponential backoff, otherwise passes the outcome through untouched.
//
// Design decision: The policy is purely mechanical and protocol-agnostic.
// It never interprets status codes beyond the transient set (429, 503),
// so an authentication failure (401) is returned to the caller for
// reporting rather than silently retried.
type RetryPolicy struct {
	// maxRetries bounds the number of retries after the initial attempt.
	maxRetries int

	// baseDelay is the first backoff delay; delay n is baseDelay * 2^(n-1).
	baseDelay time.Duration

	// logger records retry attempts at debug level.
	logger *slog.Logger

	// sleep is indirected for tests. It must honor context cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a RetryPolicy with the given budget.
// A maxRetries of 0 disables retrying entirely.
func NewRetryPolicy(maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Do executes fn, retrying while the outcome classifies as transient and
// the retry budget is not exhausted. The final outcome (success, a
// non-transient failure, or the last transient failure after exhaustion)
// is returned exactly as fn produced it.
func (p *RetryPolicy) Do(ctx context.Context, fn RequestFunc) (*http.Response, []byte, error) {
	for attempt := 0; ; attempt++ {
		resp, body, err := fn(ctx)

		if !isTransient(resp, err) || attempt >= p.maxRetries {
			return resp, body, err
		}

		// Exponential backoff: baseDelay * 2^attempt for the (attempt+1)th retry.
		delay := p.baseDelay << attempt

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		p.logger.Debug("transient failure, retrying",
			"attempt", attempt+1,
			"maxRetries", p.maxRetries,
			"delay", delay,
			"status", status,
			"error", err,
		)

		if serr := p.sleep(ctx, delay); serr != nil {
			// Context cancelled mid-backoff; return the outcome we have.
			return resp, body, err
		}
	}
}

// isTransient classifies an outcome as worth retrying: connection
// refused/reset errors, or HTTP 429/503 responses.
func isTransient(resp *http.Response, err error) bool {
	if err != nil {
		return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusServiceUnavailable
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
