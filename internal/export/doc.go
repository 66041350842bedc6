// Package export persists fetched wiki pages and attachments into the
// project-scoped directory tree consumed by the rewrite and index passes.
//
// Layout produced under the export root:
//
//	projects-metadata.json            sidecar: ordered {identifier, name}
//	<projectID>/<pageTitle>.md        page text, verbatim
//	<projectID>/attachments/<name>    attachment bytes, verbatim
//
// Page titles and attachment filenames are used without sanitization to
// stay byte-compatible with links produced by the server. Titles
// containing path separators can therefore escape the project directory
// or collide; this is a documented compatibility trade-off, not an
// oversight.
package export
