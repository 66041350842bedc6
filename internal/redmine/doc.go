// Package redmine provides the HTTP client, retry policy, and crawler for
// the Redmine REST API.
//
// # Architecture
//
// The Client wraps a standard http.Client with optional basic auth and
// optional TLS-verification bypass. Every request is issued through a
// shared throttle lane (one request at a time, rate-limited) and wrapped
// in a RetryPolicy that retries transient failures with exponential
// backoff. Each retry attempt re-enters the throttle lane, so backoff
// waits never stall unrelated queued requests.
//
// The Crawler walks the API surface: the paginated project listing, each
// project's wiki page index, each page's full content with attachment
// metadata, and each attachment's raw bytes.
//
// # Error handling
//
// Network and parse failures never abort a crawl. A 401 is logged with
// credential guidance, any other non-200 status is logged with the
// response body, and a malformed JSON body is logged with the raw text;
// in all cases the failing unit contributes nothing and the crawl moves
// on. Interpreting status codes is the crawler's job, not the retry
// policy's, so authentication failures surface instead of being retried.
package redmine
