package model

// WikiPage represents one wiki page fetched with its attachment metadata
// inlined (the `include=attachments` form of the Redmine wiki endpoint).
//
// Two pages with the same title within one project are not distinguishable
// on disk; the last write wins. This matches the server, where wiki titles
// are unique per project.
type WikiPage struct {
	// Title is the wiki page title, used verbatim (unescaped) as the
	// filename stem of the exported markdown file.
	Title string `json:"title"`

	// Text is the raw page markup as returned by the server.
	Text string `json:"text"`

	// Version is the wiki page revision number.
	Version int `json:"version"`

	// Attachments lists the files attached to this page, in server order.
	// Attachment bytes are fetched lazily, independent of the page text.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents one file attached to a wiki page.
type Attachment struct {
	// ID is the numeric attachment ID. Attachments without an ID cannot
	// be downloaded and are skipped by the crawler.
	ID int64 `json:"id"`

	// Filename is the original upload name, used verbatim as the
	// filename under the project's attachments directory.
	Filename string `json:"filename"`

	// Filesize is the size in bytes as reported by the server.
	Filesize int64 `json:"filesize"`

	// ContentType is the MIME type as reported by the server.
	ContentType string `json:"content_type"`

	// Content holds the downloaded bytes. It is populated by the crawler
	// and never serialized.
	Content []byte `json:"-"`
}
