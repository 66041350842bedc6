package model

import "time"

// RunRecord summarizes one completed export run. Records are persisted to
// the run-history database so users can compare exports over time via the
// `redwiki history` command.
type RunRecord struct {
	// ID is the database row ID, assigned on save.
	ID int64 `json:"id"`

	// ServerURL is the Redmine base URL the run exported from.
	ServerURL string `json:"server_url"`

	// OutputDir is the export root the run wrote to.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time of the full run, including the
	// rewrite and index passes.
	Duration time.Duration `json:"duration"`

	// Projects is the number of projects discovered.
	Projects int `json:"projects"`

	// Pages is the number of wiki pages exported.
	Pages int `json:"pages"`

	// Attachments is the number of attachment files exported.
	Attachments int `json:"attachments"`

	// Warnings is the number of units (projects, pages, attachments)
	// skipped due to network or parse failures.
	Warnings int `json:"warnings"`
}
