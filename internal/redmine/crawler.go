package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/redwiki/redwiki/internal/model"
)

// ProjectPageSize is the fixed page size of the project listing.
// 25 matches the Redmine API default, so pagination offsets line up with
// what the server returns when no limit parameter is sent.
const ProjectPageSize = 25

// Crawler walks the Redmine API surface: paginated project listing,
// per-project wiki index, per-page content, and per-attachment bytes.
//
// Network and parse failures are logged and the failing unit is skipped;
// no crawler method returns an error for them. Only programming errors
// (nil client) would panic.
type Crawler struct {
	// client issues all requests (throttled and retried).
	client *Client

	// logger records skipped units and credential guidance.
	logger *slog.Logger
}

// NewCrawler creates a Crawler using the given client.
func NewCrawler(client *Client, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{client: client, logger: logger}
}

// projectsEnvelope is the JSON envelope of GET /projects.json.
type projectsEnvelope struct {
	Projects []model.Project `json:"projects"`
}

// wikiIndexEnvelope is the JSON envelope of GET /projects/<id>/wiki/index.json.
type wikiIndexEnvelope struct {
	WikiPages []wikiIndexEntry `json:"wiki_pages"`
}

// wikiIndexEntry is one listing row of a project's wiki index.
// Only the title matters; full content is fetched per page.
type wikiIndexEntry struct {
	Title string `json:"title"`
}

// wikiPageEnvelope is the JSON envelope of GET /projects/<id>/wiki/<title>.json.
type wikiPageEnvelope struct {
	WikiPage model.WikiPage `json:"wiki_page"`
}

// ListProjects fetches the complete project listing, page by page, in
// discovery order. Pagination advances by ProjectPageSize per round and
// stops when a page returns fewer entries than the page size, or when a
// page fails (a failed page contributes nothing, and continuing past it
// would produce a hole in the listing).
func (c *Crawler) ListProjects(ctx context.Context) []model.Project {
	var projects []model.Project

	for offset := 0; ; offset += ProjectPageSize {
		query := url.Values{"offset": []string{strconv.Itoa(offset)}}
		resp, body, err := c.client.Get(ctx, "/projects.json", query)

		var envelope projectsEnvelope
		if !c.decode(resp, body, err, &envelope, "project listing") {
			break
		}

		projects = append(projects, envelope.Projects...)

		if len(envelope.Projects) < ProjectPageSize {
			break
		}
	}

	c.logger.Debug("project listing complete", "projects", len(projects))
	return projects
}

// ListWikiPages fetches the titles of all wiki pages of a project.
// Returns nil when the project has no wiki or the request fails.
func (c *Crawler) ListWikiPages(ctx context.Context, project model.Project) []string {
	path := fmt.Sprintf("/projects/%s/wiki/index.json", url.PathEscape(project.Identifier))
	resp, body, err := c.client.Get(ctx, path, nil)

	var envelope wikiIndexEnvelope
	if !c.decode(resp, body, err, &envelope, "wiki index of "+project.Identifier) {
		return nil
	}

	titles := make([]string, 0, len(envelope.WikiPages))
	for _, entry := range envelope.WikiPages {
		titles = append(titles, entry.Title)
	}
	return titles
}

// FetchPage fetches one wiki page with attachment metadata inlined.
// The title is percent-encoded in the request path. Returns nil when the
// fetch or parse fails; no export happens for that title.
func (c *Crawler) FetchPage(ctx context.Context, project model.Project, title string) *model.WikiPage {
	path := fmt.Sprintf("/projects/%s/wiki/%s.json",
		url.PathEscape(project.Identifier), url.PathEscape(title))
	query := url.Values{"include": []string{"attachments"}}
	resp, body, err := c.client.Get(ctx, path, query)

	var envelope wikiPageEnvelope
	if !c.decode(resp, body, err, &envelope, fmt.Sprintf("wiki page %s:%s", project.Identifier, title)) {
		return nil
	}
	return &envelope.WikiPage
}

// FetchAttachment downloads the raw bytes of one attachment into
// att.Content. Attachments without an ID cannot be addressed and are
// skipped. Returns false when nothing was fetched.
func (c *Crawler) FetchAttachment(ctx context.Context, att *model.Attachment) bool {
	if att.ID == 0 {
		c.logger.Debug("skipping attachment without id", "filename", att.Filename)
		return false
	}

	path := fmt.Sprintf("/attachments/download/%d", att.ID)
	resp, body, err := c.client.Get(ctx, path, nil)

	what := fmt.Sprintf("attachment %d (%s)", att.ID, att.Filename)
	if err != nil {
		c.logger.Warn("fetch failed", "what", what, "error", err)
		return false
	}
	if !c.checkStatus(resp, body, what) {
		return false
	}

	att.Content = body
	return true
}

// decode applies the shared status and parse handling of the listing and
// page calls: 401 is reported with credential guidance, any other
// non-200 is logged with the body, and a JSON parse failure is logged
// with the raw body. In every failure case the call contributes nothing.
func (c *Crawler) decode(resp *http.Response, body []byte, err error, v any, what string) bool {
	if err != nil {
		c.logger.Warn("fetch failed", "what", what, "error", err)
		return false
	}
	if !c.checkStatus(resp, body, what) {
		return false
	}
	if jerr := json.Unmarshal(body, v); jerr != nil {
		c.logger.Warn("malformed response", "what", what, "error", jerr, "body", string(body))
		return false
	}
	return true
}

// checkStatus logs and rejects non-200 responses.
func (c *Crawler) checkStatus(resp *http.Response, body []byte, what string) bool {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("authentication failed (HTTP 401): check the configured user and password",
			"what", what)
		return false
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("unexpected status", "what", what, "status", resp.StatusCode, "body", string(body))
		return false
	}
	return true
}
