package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redwiki/redwiki/internal/export"
	"github.com/redwiki/redwiki/internal/model"
	"github.com/redwiki/redwiki/internal/redmine"
	"github.com/redwiki/redwiki/internal/throttle"
)

// newFakeRedmine serves a small two-project wiki: "docs" with two pages
// (one carrying an attachment) and "empty" whose wiki index returns 404.
func newFakeRedmine(t *testing.T) *httptest.Server {
	t.Helper()

	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"projects": []map[string]any{
					{"id": 1, "identifier": "docs", "name": "Documentation"},
					{"id": 2, "identifier": "empty", "name": "No Wiki Here"},
				},
			})
		case "/projects/docs/wiki/index.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"wiki_pages": []map[string]any{
					{"title": "Home"},
					{"title": "Setup Guide"},
				},
			})
		case "/projects/docs/wiki/Home.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"wiki_page": map[string]any{
					"title":   "Home",
					"text":    "# Home\n",
					"version": 3,
					"attachments": []map[string]any{
						{"id": 77, "filename": "diagram.png", "filesize": 4, "content_type": "image/png"},
					},
				},
			})
		case "/projects/docs/wiki/Setup Guide.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"wiki_page": map[string]any{
					"title":   "Setup Guide",
					"text":    "# Setup\n",
					"version": 1,
				},
			})
		case "/attachments/download/77":
			_, _ = w.Write([]byte("PNG!"))
		default:
			http.NotFound(w, r)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCrawlStep(t *testing.T, serverURL, outDir string) *CrawlStep {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	lane := throttle.New(0)
	t.Cleanup(lane.Close)

	client, err := redmine.NewClient(serverURL, lane, redmine.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	writer, err := export.NewWriter(outDir, logger)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}

	return NewCrawlStep(redmine.NewCrawler(client, logger), writer, 4, logger)
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	srv := newFakeRedmine(t)
	outDir := filepath.Join(t.TempDir(), "out")

	step := newTestCrawlStep(t, srv.URL, outDir)

	rec := &model.RunRecord{}
	if err := step.Do(context.Background(), rec); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	if rec.Projects != 2 {
		t.Errorf("Projects = %d, want 2", rec.Projects)
	}
	if rec.Pages != 2 {
		t.Errorf("Pages = %d, want 2", rec.Pages)
	}
	if rec.Attachments != 1 {
		t.Errorf("Attachments = %d, want 1", rec.Attachments)
	}
	// The "empty" project's missing wiki counts as one skipped unit.
	if rec.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", rec.Warnings)
	}

	// The sidecar lists both projects, including the one without a wiki.
	metas, err := export.ReadMetadata(outDir)
	if err != nil {
		t.Fatalf("ReadMetadata() error: %v", err)
	}
	if len(metas) != 2 || metas[0].Name != "Documentation" {
		t.Errorf("metadata = %+v", metas)
	}

	// Page files keep their titles verbatim, spaces included.
	home, err := os.ReadFile(filepath.Join(outDir, "docs", "Home.md"))
	if err != nil {
		t.Fatalf("Home.md missing: %v", err)
	}
	if string(home) != "# Home\n" {
		t.Errorf("Home.md = %q", home)
	}
	if _, err := os.Stat(filepath.Join(outDir, "docs", "Setup Guide.md")); err != nil {
		t.Errorf("Setup Guide.md missing: %v", err)
	}

	att, err := os.ReadFile(filepath.Join(outDir, "docs", "attachments", "diagram.png"))
	if err != nil {
		t.Fatalf("attachment missing: %v", err)
	}
	if string(att) != "PNG!" {
		t.Errorf("attachment = %q", att)
	}
}

// TestCrawlStepUnreachableServer verifies a dead server degrades to an
// empty export instead of an error.
func TestCrawlStepUnreachableServer(t *testing.T) {
	t.Parallel()

	// Reserve a port and close it so connections are refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()

	outDir := filepath.Join(t.TempDir(), "out")
	step := newTestCrawlStep(t, deadURL, outDir)

	rec := &model.RunRecord{}
	if err := step.Do(context.Background(), rec); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if rec.Projects != 0 || rec.Pages != 0 {
		t.Errorf("expected empty run, got %+v", rec)
	}

	// The sidecar is still written, holding an empty listing.
	if _, err := os.Stat(filepath.Join(outDir, export.MetadataFile)); err != nil {
		t.Errorf("metadata sidecar missing: %v", err)
	}
}

// TestStepNames pins the names used in log output.
func TestStepNames(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	if got := (&CrawlStep{}).Name(); got != "crawl" {
		t.Errorf("CrawlStep.Name() = %q", got)
	}
	if got := NewRewriteStep("", "", logger).Name(); got != "rewrite" {
		t.Errorf("RewriteStep.Name() = %q", got)
	}
	if got := NewIndexStep("", logger).Name(); got != "index" {
		t.Errorf("IndexStep.Name() = %q", got)
	}
}

// TestRewriteAndIndexSteps runs the two post-processing steps over a tiny
// exported tree end to end.
func TestRewriteAndIndexSteps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	metas := []model.ProjectMeta{{Identifier: "docs", Name: "Documentation"}}
	data, err := json.Marshal(metas)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, export.MetadataFile), data, 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	page := "See [[Setup Guide]] for details.\n"
	if err := os.WriteFile(filepath.Join(root, "docs", "Wiki.md"), []byte(page), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}

	rec := &model.RunRecord{}
	if err := NewRewriteStep(root, "https://redmine.example.com", logger).Do(context.Background(), rec); err != nil {
		t.Fatalf("rewrite step error: %v", err)
	}
	if err := NewIndexStep(root, logger).Do(context.Background(), rec); err != nil {
		t.Fatalf("index step error: %v", err)
	}

	rewritten, err := os.ReadFile(filepath.Join(root, "docs", "Wiki.md"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(rewritten), "[Setup Guide](Setup_Guide.md)") {
		t.Errorf("cross reference not rewritten: %q", rewritten)
	}

	idx, err := os.ReadFile(filepath.Join(root, "docs", "Index.md"))
	if err != nil {
		t.Fatalf("Index.md missing: %v", err)
	}
	if string(idx) != string(rewritten) {
		t.Errorf("Index.md = %q, want copy of Wiki.md", idx)
	}
}
