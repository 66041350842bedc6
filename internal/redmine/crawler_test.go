package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/redwiki/redwiki/internal/model"
	"github.com/redwiki/redwiki/internal/throttle"
)

// newTestCrawler wires a crawler to the given test server with no
// throttling and no retries.
func newTestCrawler(t *testing.T, server *httptest.Server) *Crawler {
	t.Helper()

	lane := throttle.New(0)
	t.Cleanup(lane.Close)

	logger := slog.New(slog.DiscardHandler)
	client, err := NewClient(server.URL, lane, WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return NewCrawler(client, logger)
}

// TestListProjectsPagination verifies that the project listing advances
// by the fixed page size until a short page arrives.
func TestListProjectsPagination(t *testing.T) {
	t.Parallel()

	// Pages of sizes 25, 25, 7: 57 projects at offsets 0, 25, 50.
	const total = 57

	var (
		mu      sync.Mutex
		offsets []int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects.json" {
			http.NotFound(w, r)
			return
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		mu.Lock()
		offsets = append(offsets, offset)
		mu.Unlock()

		var projects []model.Project
		for i := offset; i < offset+ProjectPageSize && i < total; i++ {
			projects = append(projects, model.Project{
				ID:         int64(i + 1),
				Identifier: fmt.Sprintf("proj-%d", i),
				Name:       fmt.Sprintf("Project %d", i),
			})
		}

		if err := json.NewEncoder(w).Encode(map[string]any{"projects": projects}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	crawler := newTestCrawler(t, server)
	projects := crawler.ListProjects(context.Background())

	if len(projects) != total {
		t.Errorf("expected %d projects, got %d", total, len(projects))
	}

	wantOffsets := []int{0, 25, 50}
	if len(offsets) != len(wantOffsets) {
		t.Fatalf("expected %d page requests, got %d (%v)", len(wantOffsets), len(offsets), offsets)
	}
	for i, want := range wantOffsets {
		if offsets[i] != want {
			t.Errorf("request %d: expected offset %d, got %d", i, want, offsets[i])
		}
	}

	// Discovery order is preserved.
	if projects[0].Identifier != "proj-0" || projects[56].Identifier != "proj-56" {
		t.Errorf("projects out of discovery order: first=%s last=%s",
			projects[0].Identifier, projects[56].Identifier)
	}
}

// TestListProjectsErrors verifies that failing listings contribute
// nothing rather than aborting.
func TestListProjectsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "authentication failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "{not json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			crawler := newTestCrawler(t, server)
			if projects := crawler.ListProjects(context.Background()); len(projects) != 0 {
				t.Errorf("expected no projects, got %d", len(projects))
			}
		})
	}
}

// TestListWikiPages verifies title extraction from the wiki index.
func TestListWikiPages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/docs/wiki/index.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"wiki_pages":[{"title":"Wiki","version":3},{"title":"Setup Guide","version":1}]}`)
	}))
	defer server.Close()

	crawler := newTestCrawler(t, server)
	titles := crawler.ListWikiPages(context.Background(), model.Project{Identifier: "docs"})

	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %d", len(titles))
	}
	if titles[0] != "Wiki" || titles[1] != "Setup Guide" {
		t.Errorf("unexpected titles: %v", titles)
	}
}

// TestFetchPage verifies title encoding, the include parameter, and
// attachment metadata decoding.
func TestFetchPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The raw path keeps the percent-encoded title.
		if r.URL.EscapedPath() != "/projects/docs/wiki/Setup%20Guide.json" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("include") != "attachments" {
			t.Error("missing include=attachments")
		}
		fmt.Fprint(w, `{"wiki_page":{"title":"Setup Guide","text":"h1. Setup","version":2,
			"attachments":[{"id":42,"filename":"diagram.png","filesize":1024,"content_type":"image/png"}]}}`)
	}))
	defer server.Close()

	crawler := newTestCrawler(t, server)
	page := crawler.FetchPage(context.Background(), model.Project{Identifier: "docs"}, "Setup Guide")

	if page == nil {
		t.Fatal("expected a page, got nil")
	}
	if page.Title != "Setup Guide" {
		t.Errorf("expected title 'Setup Guide', got %q", page.Title)
	}
	if page.Text != "h1. Setup" {
		t.Errorf("unexpected text: %q", page.Text)
	}
	if len(page.Attachments) != 1 || page.Attachments[0].ID != 42 {
		t.Errorf("unexpected attachments: %+v", page.Attachments)
	}
}

// TestFetchPageFailure verifies that a failing fetch yields nil, meaning
// no export for that title.
func TestFetchPageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	crawler := newTestCrawler(t, server)
	if page := crawler.FetchPage(context.Background(), model.Project{Identifier: "docs"}, "Missing"); page != nil {
		t.Errorf("expected nil page, got %+v", page)
	}
}

// TestFetchAttachment tests attachment downloading.
func TestFetchAttachment(t *testing.T) {
	t.Parallel()

	t.Run("downloads by id", func(t *testing.T) {
		t.Parallel()

		payload := []byte{0x89, 'P', 'N', 'G'}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/attachments/download/42" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		crawler := newTestCrawler(t, server)
		att := model.Attachment{ID: 42, Filename: "diagram.png"}

		if !crawler.FetchAttachment(context.Background(), &att) {
			t.Fatal("expected fetch to succeed")
		}
		if string(att.Content) != string(payload) {
			t.Errorf("unexpected content: %v", att.Content)
		}
	})

	t.Run("skips attachment without id", func(t *testing.T) {
		t.Parallel()

		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		crawler := newTestCrawler(t, server)
		att := model.Attachment{Filename: "orphan.png"}

		if crawler.FetchAttachment(context.Background(), &att) {
			t.Error("expected fetch to be skipped")
		}
		if requests != 0 {
			t.Errorf("expected no requests, got %d", requests)
		}
	})
}

// TestClientBasicAuth verifies credentials are sent when configured.
func TestClientBasicAuth(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bob" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"projects":[]}`)
	}))
	defer server.Close()

	lane := throttle.New(0)
	t.Cleanup(lane.Close)

	client, err := NewClient(server.URL, lane,
		WithBasicAuth("bob", "s3cret"),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp, _, err := client.Get(context.Background(), "/projects.json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", resp.StatusCode)
	}
}
