package rewrite

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Stats summarizes one rewrite pass.
type Stats struct {
	// FilesScanned is the number of markdown files examined.
	FilesScanned int

	// FilesChanged is the number of files rewritten on disk.
	FilesChanged int

	// UnresolvedAttachments is the number of attachment links whose file
	// was found in no project's attachments directory and were left
	// unchanged.
	UnresolvedAttachments int
}

// Rewriter rewrites in-wiki links inside every markdown file under the
// export root. It operates purely on text and filesystem lookups; no
// network access happens after export.
type Rewriter struct {
	// root is the export root directory.
	root string

	// logger emits a warning for each unresolvable attachment link.
	logger *slog.Logger

	// crossRef matches [[Page]], [[project:Page]], and the |Label
	// display-text forms of both.
	crossRef *regexp.Regexp

	// wikiLink matches markdown link targets pointing at
	// <server>/projects/<p>/wiki/<page>[#anchor].
	wikiLink *regexp.Regexp

	// attachmentLink matches markdown link targets pointing at
	// <server>/attachments/[download/]<id>/<filename>.
	attachmentLink *regexp.Regexp
}

// NewRewriter creates a Rewriter for the export tree at root, rewriting
// links that point at the given server URL. The URL is matched literally
// (regexp-escaped), so only links to this exact server are touched.
func NewRewriter(root, serverURL string, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}

	server := regexp.QuoteMeta(strings.TrimRight(serverURL, "/"))

	return &Rewriter{
		root:   root,
		logger: logger,
		crossRef: regexp.MustCompile(
			`\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`),
		wikiLink: regexp.MustCompile(
			`\]\(` + server + `/projects/([^/)]+)/wiki/([^)#]+?)(#[^)]*)?\)`),
		attachmentLink: regexp.MustCompile(
			`\]\(` + server + `/attachments/(?:download/)?(\d+)/([^)]+)\)`),
	}
}

// Run walks every .md file under the root and applies the three rewrite
// categories in order. Files are only written back when their content
// changed. Filesystem errors abort the pass.
func (r *Rewriter) Run() (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		stats.FilesScanned++
		changed, unresolved, err := r.rewriteFile(path)
		if err != nil {
			return err
		}
		if changed {
			stats.FilesChanged++
		}
		stats.UnresolvedAttachments += unresolved
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("rewrite pass failed: %w", err)
	}

	return stats, nil
}

// rewriteFile applies all three categories to one file and writes it back
// if anything changed.
func (r *Rewriter) rewriteFile(path string) (changed bool, unresolved int, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from walking our own export tree
	if err != nil {
		return false, 0, err
	}

	// The project a file belongs to is its top-level directory under the
	// export root; files directly at the root have none.
	project := ""
	if rel, rerr := filepath.Rel(r.root, path); rerr == nil {
		if dir := filepath.Dir(rel); dir != "." {
			project = strings.Split(filepath.ToSlash(dir), "/")[0]
		}
	}

	text := string(data)
	text = r.rewriteCrossRefs(text)
	text = r.rewriteWikiLinks(text, project)
	text, unresolved = r.rewriteAttachmentLinks(text, project, path)

	if text == string(data) {
		return false, unresolved, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, unresolved, err
	}
	if err := os.WriteFile(path, []byte(text), info.Mode()); err != nil {
		return false, unresolved, err
	}
	return true, unresolved, nil
}

// rewriteCrossRefs handles category 1: [[Page]], [[project:Page]], and
// their |Label forms. Target filenames are derived purely from the page
// name text (spaces become underscores); no lookup against what was
// actually exported happens.
func (r *Rewriter) rewriteCrossRefs(text string) string {
	return r.crossRef.ReplaceAllStringFunc(text, func(match string) string {
		groups := r.crossRef.FindStringSubmatch(match)
		ref, label := groups[1], groups[2]

		page := ref
		project := ""
		if i := strings.Index(ref, ":"); i >= 0 {
			project = ref[:i]
			page = ref[i+1:]
		}

		if label == "" {
			label = page
		}

		target := strings.ReplaceAll(page, " ", "_") + ".md"
		if project != "" {
			target = "../" + project + "/" + target
		}

		return "[" + label + "](" + target + ")"
	})
}

// rewriteWikiLinks handles category 2: absolute links into the server's
// wiki become relative paths. A link into the current file's own project
// drops the directory prefix entirely; links into sibling projects go up
// one level. Anchors are preserved.
func (r *Rewriter) rewriteWikiLinks(text, currentProject string) string {
	return r.wikiLink.ReplaceAllStringFunc(text, func(match string) string {
		groups := r.wikiLink.FindStringSubmatch(match)
		project, page, anchor := groups[1], groups[2], groups[3]

		var target string
		if project == currentProject {
			target = page + ".md" + anchor
		} else {
			target = "../" + project + "/" + page + ".md" + anchor
		}

		return "](" + target + ")"
	})
}

// rewriteAttachmentLinks handles category 3: absolute attachment links
// become relative paths into an attachments directory. The current
// project's directory is checked first; failing that, every sibling
// project's attachments directory is scanned and the first match wins.
// Links whose file exists nowhere are left unchanged with a warning.
func (r *Rewriter) rewriteAttachmentLinks(text, currentProject, filePath string) (string, int) {
	unresolved := 0

	rewritten := r.attachmentLink.ReplaceAllStringFunc(text, func(match string) string {
		groups := r.attachmentLink.FindStringSubmatch(match)
		id, rawName := groups[1], groups[2]

		filename, err := url.PathUnescape(rawName)
		if err != nil {
			// Undecodable name cannot be matched against the filesystem.
			filename = rawName
		}
		encoded := url.PathEscape(filename)

		// Local attachments directory first.
		if currentProject != "" {
			local := filepath.Join(r.root, currentProject, "attachments", filename)
			if fileExists(local) {
				return "](attachments/" + encoded + ")"
			}
		}

		// Cross-project fallback: first sibling in listing order wins.
		if sibling := r.findSiblingAttachment(currentProject, filename); sibling != "" {
			return "](../" + sibling + "/attachments/" + encoded + ")"
		}

		unresolved++
		r.logger.Warn("attachment not found in any project, link left unchanged",
			"file", filePath,
			"attachment", filename,
			"id", id,
		)
		return match
	})

	return rewritten, unresolved
}

// findSiblingAttachment scans every project directory other than the
// current one for an attachments/<filename> entry and returns the first
// project that has it, or empty string.
func (r *Rewriter) findSiblingAttachment(currentProject, filename string) string {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == currentProject {
			continue
		}
		candidate := filepath.Join(r.root, entry.Name(), "attachments", filename)
		if fileExists(candidate) {
			return entry.Name()
		}
	}
	return ""
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
