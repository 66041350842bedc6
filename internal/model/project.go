package model

// Project represents one Redmine project discovered via the paginated
// project listing.
//
// Design decision: We keep only the fields the exporter needs rather than
// mirroring the full Redmine project resource because:
//  1. The identifier doubles as the export directory name
//  2. The display name is only needed for index generation
//  3. A minimal struct keeps the metadata sidecar small and stable
type Project struct {
	// ID is the numeric Redmine project ID.
	ID int64 `json:"id"`

	// Identifier is the stable project slug. It is used verbatim as the
	// directory name under the export root.
	Identifier string `json:"identifier"`

	// Name is the human-readable project name shown in index pages.
	Name string `json:"name"`
}

// ProjectMeta is the shape persisted to the projects-metadata.json sidecar
// file. Downstream passes (link rewriting, index building) read this file
// instead of re-contacting the server.
type ProjectMeta struct {
	// Identifier is the project slug, matching the export directory name.
	Identifier string `json:"identifier"`

	// Name is the project display name.
	Name string `json:"name"`
}

// Meta returns the sidecar representation of the project.
func (p Project) Meta() ProjectMeta {
	return ProjectMeta{Identifier: p.Identifier, Name: p.Name}
}
