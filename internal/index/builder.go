package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/redwiki/redwiki/internal/export"
)

// IndexFile is the filename of both the per-project and top-level index.
const IndexFile = "Index.md"

// Builder creates index pages for an export tree.
type Builder struct {
	// root is the export root directory.
	root string

	// logger records chosen candidates at debug level.
	logger *slog.Logger
}

// NewBuilder creates a Builder for the export tree at root.
func NewBuilder(root string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{root: root, logger: logger}
}

// projectEntry pairs a project directory with its display name.
type projectEntry struct {
	id   string
	name string
}

// Run builds one Index.md per project directory, then the top-level
// Index.md. Display names come from the metadata sidecar, falling back to
// the directory name for projects the sidecar does not know.
func (b *Builder) Run() error {
	// Display names come from the sidecar when it is present and
	// readable; otherwise every project falls back to its directory name.
	nameByID := make(map[string]string)
	if metas, err := export.ReadMetadata(b.root); err == nil {
		for _, m := range metas {
			nameByID[m.Identifier] = m.Name
		}
	} else if !os.IsNotExist(err) {
		b.logger.Warn("ignoring unreadable metadata sidecar", "error", err)
	}

	dirEntries, err := os.ReadDir(b.root)
	if err != nil {
		return fmt.Errorf("failed to read export root: %w", err)
	}

	var projects []projectEntry
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		name := nameByID[id]
		if name == "" {
			name = id
		}
		projects = append(projects, projectEntry{id: id, name: name})

		if err := b.buildProjectIndex(id, name); err != nil {
			return err
		}
	}

	return b.buildTopIndex(projects)
}

// buildProjectIndex selects or synthesizes Index.md for one project.
// If the winning candidate is already literally named Index.md, nothing is
// written. Otherwise the candidate's content is copied into Index.md,
// leaving the candidate file in place.
func (b *Builder) buildProjectIndex(projectID, name string) error {
	dir := filepath.Join(b.root, projectID)

	pages, err := listMarkdownFiles(dir)
	if err != nil {
		return err
	}

	winner := pickCandidate(pages, name)
	b.logger.Debug("index candidate", "project", projectID, "winner", winner)

	if winner == IndexFile {
		// Already satisfied.
		return nil
	}

	indexPath := filepath.Join(dir, IndexFile)

	if winner == "" {
		return writeSyntheticIndex(indexPath, name, pages)
	}

	content, err := os.ReadFile(filepath.Join(dir, winner)) //nolint:gosec // Paths come from listing our own export tree
	if err != nil {
		return fmt.Errorf("failed to read index candidate %s/%s: %w", projectID, winner, err)
	}
	if err := os.WriteFile(indexPath, content, 0o644); err != nil { //nolint:gosec // Export output is world-readable by design
		return fmt.Errorf("failed to write %s/%s: %w", projectID, IndexFile, err)
	}
	return nil
}

// pickCandidate applies the four-step search over the exported page
// filenames, first hit wins:
//
//  1. Exact case-sensitive filename match among candidates, in order
//  2. Case-insensitive match of any file against any candidate
//  3. Case-insensitive substring/equality match between a file's stem and
//     a separator-normalized form of the project name
//  4. The first .md file in directory-listing order
//
// Returns empty string when the project has no markdown files at all.
func pickCandidate(pages []string, name string) string {
	candidates := []string{
		"Wiki.md",
		IndexFile,
		name + ".md",
		strings.ReplaceAll(name, " ", "_") + ".md",
		strings.ReplaceAll(name, " ", "-") + ".md",
		strings.ReplaceAll(name, " ", "") + ".md",
	}

	// Step 1: exact match, candidate order.
	pageSet := make(map[string]bool, len(pages))
	for _, p := range pages {
		pageSet[p] = true
	}
	for _, c := range candidates {
		if pageSet[c] {
			return c
		}
	}

	// Step 2: case-insensitive match, candidate order then listing order.
	for _, c := range candidates {
		for _, p := range pages {
			if strings.EqualFold(p, c) {
				return p
			}
		}
	}

	// Step 3: file stem vs separator-normalized name forms.
	forms := []string{
		strings.ToLower(name),
		strings.ToLower(strings.ReplaceAll(name, " ", "_")),
		strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		strings.ToLower(strings.ReplaceAll(name, " ", "")),
	}
	for _, p := range pages {
		stem := strings.ToLower(strings.TrimSuffix(p, ".md"))
		for _, form := range forms {
			if form == "" {
				continue
			}
			if stem == form || strings.Contains(stem, form) || strings.Contains(form, stem) {
				return p
			}
		}
	}

	// Step 4: first markdown file, if any.
	if len(pages) > 0 {
		return pages[0]
	}
	return ""
}

// writeSyntheticIndex generates an index page from scratch: a heading
// with the project name followed by a bulleted list of links to every
// exported page, derived purely from filenames.
func writeSyntheticIndex(path, name string, pages []string) error {
	f, err := os.Create(path) //nolint:gosec // Path is inside our own export tree
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1(name)
	md.PlainText("")

	if len(pages) > 0 {
		items := make([]string, 0, len(pages))
		for _, p := range pages {
			stem := strings.TrimSuffix(p, ".md")
			items = append(items, markdown.Link(stem, strings.ReplaceAll(p, " ", "%20")))
		}
		md.BulletList(items...)
	}

	return md.Build()
}

// buildTopIndex writes the top-level Index.md linking every project's
// index, ordered by display name with locale-aware collation.
func (b *Builder) buildTopIndex(projects []projectEntry) error {
	c := collate.New(language.Und)
	sort.SliceStable(projects, func(i, j int) bool {
		return c.CompareString(projects[i].name, projects[j].name) < 0
	})

	f, err := os.Create(filepath.Join(b.root, IndexFile))
	if err != nil {
		return fmt.Errorf("failed to create top-level %s: %w", IndexFile, err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1("Wiki")
	md.PlainText("")

	if len(projects) > 0 {
		items := make([]string, 0, len(projects))
		for _, p := range projects {
			items = append(items, markdown.Link(p.name, p.id+"/"+IndexFile))
		}
		md.BulletList(items...)
	}

	return md.Build()
}

// listMarkdownFiles returns the .md filenames directly inside dir, in
// directory-listing order.
func listMarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var pages []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		pages = append(pages, entry.Name())
	}
	return pages, nil
}
