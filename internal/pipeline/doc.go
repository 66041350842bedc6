// Package pipeline orchestrates the phases of an export run.
//
// A run is a sequence of steps executed in order: crawl-and-export, link
// rewrite, index build. Each step receives the shared run record and adds
// its counts to it. The crawl step fans out per-project and per-page work
// eagerly with errgroup, while every network call still serializes
// through the single throttle lane, so the rate limit holds regardless of
// concurrency.
//
// Design decision: We use a Step interface rather than function types
// because steps carry configuration state, and a Name() method keeps
// logging uniform.
package pipeline
