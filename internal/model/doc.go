// Package model defines the core data structures shared across the
// redwiki application: Redmine projects, wiki pages, attachments, and
// export run records.
package model
