// Package database provides SQLite-based storage for export run history.
//
// Each completed export run is recorded with its counts and duration, so
// `redwiki history` can show how a wiki's export evolved over time. The
// store lives under the XDG data directory and is strictly additive; the
// export itself never reads it.
package database
