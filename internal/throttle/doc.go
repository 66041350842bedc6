// Package throttle provides a single-lane FIFO rate limiter for outbound
// HTTP requests.
//
// # Architecture
//
// All network calls made by the crawler pass through one Throttle. The
// Throttle owns a queue of opaque tasks and a single runner goroutine that
// executes them one at a time, spacing consecutive task starts by at least
// the configured minimum interval. This bounds the global request rate at
// 1/interval no matter how many goroutines enqueue work concurrently.
//
// Design decision: We use an explicit queue with a dedicated runner
// goroutine rather than a token bucket (e.g., x/time/rate) because:
//  1. The contract is strict FIFO start order, which a shared limiter
//     acquired from many goroutines does not guarantee
//  2. One lane, not a pool: tasks must never overlap, only rate-limit
//  3. The Throttle stays fully decoupled from HTTP semantics; it runs
//     opaque closures
//
// # Usage
//
//	lane := throttle.New(500 * time.Millisecond)
//	defer lane.Close()
//	err := lane.Do(ctx, func() { resp = fetch() })
package throttle
