package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redwiki/redwiki/internal/model"
)

// MetadataFile is the name of the sidecar file at the export root that
// enumerates every discovered project for the downstream passes.
const MetadataFile = "projects-metadata.json"

// AttachmentsDir is the per-project subdirectory holding attachment files.
const AttachmentsDir = "attachments"

// Writer persists pages and attachments under a fixed export root.
//
// All writes are plain synchronous filesystem operations. Directory
// creation is idempotent; any other filesystem error is returned to the
// caller and treated as fatal by the pipeline, because a half-writable
// output tree is not a state worth continuing into.
type Writer struct {
	// root is the export root directory.
	root string

	// logger records written files at debug level.
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir, creating the directory if
// needed.
func NewWriter(dir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export root: %w", err)
	}
	return &Writer{root: dir, logger: logger}, nil
}

// Root returns the export root directory.
func (w *Writer) Root() string {
	return w.root
}

// WriteMetadata writes the sidecar file listing every discovered project
// as ordered {identifier, name} pairs. The pipeline calls this after
// project discovery and before any page fetch completes, so downstream
// passes always see the full project set as of crawl start.
func (w *Writer) WriteMetadata(projects []model.Project) error {
	metas := make([]model.ProjectMeta, 0, len(projects))
	for _, p := range projects {
		metas = append(metas, p.Meta())
	}

	data, err := json.MarshalIndent(metas, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project metadata: %w", err)
	}

	path := filepath.Join(w.root, MetadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // Export output is world-readable by design
		return fmt.Errorf("failed to write project metadata: %w", err)
	}

	w.logger.Debug("wrote metadata sidecar", "path", path, "projects", len(metas))
	return nil
}

// WritePage writes the page text verbatim to <root>/<projectID>/<title>.md,
// creating the project directory if needed. The title is used unsanitized
// as the filename stem; see the package doc for the trade-off.
func (w *Writer) WritePage(projectID string, page *model.WikiPage) error {
	dir := filepath.Join(w.root, projectID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create project directory %s: %w", projectID, err)
	}

	path := filepath.Join(dir, page.Title+".md")
	if err := os.WriteFile(path, []byte(page.Text), 0o644); err != nil { //nolint:gosec // Export output is world-readable by design
		return fmt.Errorf("failed to write page %s/%s: %w", projectID, page.Title, err)
	}

	w.logger.Debug("wrote page", "path", path)
	return nil
}

// WriteAttachment writes the attachment bytes verbatim to
// <root>/<projectID>/attachments/<filename>, creating the attachments
// directory if needed.
func (w *Writer) WriteAttachment(projectID string, att *model.Attachment) error {
	dir := filepath.Join(w.root, projectID, AttachmentsDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create attachments directory for %s: %w", projectID, err)
	}

	path := filepath.Join(dir, att.Filename)
	if err := os.WriteFile(path, att.Content, 0o644); err != nil { //nolint:gosec // Export output is world-readable by design
		return fmt.Errorf("failed to write attachment %s/%s: %w", projectID, att.Filename, err)
	}

	w.logger.Debug("wrote attachment", "path", path, "bytes", len(att.Content))
	return nil
}

// ReadMetadata loads the sidecar file from an export root. The rewrite
// and index passes use this instead of contacting the server.
func ReadMetadata(root string) ([]model.ProjectMeta, error) {
	data, err := os.ReadFile(filepath.Join(root, MetadataFile))
	if err != nil {
		return nil, err
	}

	var metas []model.ProjectMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", MetadataFile, err)
	}
	return metas, nil
}
