package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/redwiki/redwiki/internal/export"
	"github.com/redwiki/redwiki/internal/index"
	"github.com/redwiki/redwiki/internal/model"
	"github.com/redwiki/redwiki/internal/redmine"
	"github.com/redwiki/redwiki/internal/rewrite"
)

// CrawlStep discovers all projects, writes the metadata sidecar, then
// fans out wiki page and attachment fetches. All network calls serialize
// through the client's throttle lane; the fan-out only bounds how much
// work is in flight.
//
// The sidecar is written after project discovery and before any page
// fetch is issued, so the downstream passes always see the full project
// set as of crawl start even if the crawl later degrades.
type CrawlStep struct {
	crawler     *redmine.Crawler
	writer      *export.Writer
	concurrency int
	logger      *slog.Logger

	// mu protects the counters merged into the run record.
	mu       sync.Mutex
	pages    int
	files    int
	warnings int
}

// NewCrawlStep creates the crawl-and-export step.
func NewCrawlStep(crawler *redmine.Crawler, writer *export.Writer, concurrency int, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{
		crawler:     crawler,
		writer:      writer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Name returns the step name.
func (s *CrawlStep) Name() string { return "crawl" }

// Do runs the crawl. Network and parse failures degrade to skipped units
// and count as warnings; filesystem errors abort the step.
func (s *CrawlStep) Do(ctx context.Context, rec *model.RunRecord) error {
	projects := s.crawler.ListProjects(ctx)
	rec.Projects = len(projects)

	if err := s.writer.WriteMetadata(projects); err != nil {
		return err
	}

	// Projects are listed under a bounded group; page work is spawned
	// into a second group as listings arrive, so no project waits for a
	// sibling's pages to finish.
	listGroup, ctx := errgroup.WithContext(ctx)
	listGroup.SetLimit(s.concurrency)
	pageGroup, ctx := errgroup.WithContext(ctx)
	pageGroup.SetLimit(s.concurrency)

	for _, project := range projects {
		listGroup.Go(func() error {
			titles := s.crawler.ListWikiPages(ctx, project)
			if titles == nil {
				s.count(func() { s.warnings++ })
				return nil
			}
			for _, title := range titles {
				pageGroup.Go(func() error {
					return s.exportPage(ctx, project, title)
				})
			}
			return nil
		})
	}

	listErr := listGroup.Wait()
	pageErr := pageGroup.Wait()

	s.mu.Lock()
	rec.Pages = s.pages
	rec.Attachments = s.files
	rec.Warnings += s.warnings
	s.mu.Unlock()

	if listErr != nil {
		return listErr
	}
	return pageErr
}

// exportPage fetches one page, writes it, then fetches and writes its
// attachments. A nil page means no export happens for that title.
func (s *CrawlStep) exportPage(ctx context.Context, project model.Project, title string) error {
	page := s.crawler.FetchPage(ctx, project, title)
	if page == nil {
		s.count(func() { s.warnings++ })
		return nil
	}

	if err := s.writer.WritePage(project.Identifier, page); err != nil {
		return err
	}
	s.count(func() { s.pages++ })

	for i := range page.Attachments {
		att := &page.Attachments[i]
		if !s.crawler.FetchAttachment(ctx, att) {
			s.count(func() { s.warnings++ })
			continue
		}
		if err := s.writer.WriteAttachment(project.Identifier, att); err != nil {
			return err
		}
		// Attachment bytes are on disk; no need to keep them in memory.
		att.Content = nil
		s.count(func() { s.files++ })
	}

	return nil
}

// count runs fn under the counter mutex.
func (s *CrawlStep) count(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

// RewriteStep runs the link-rewrite pass over the export tree.
type RewriteStep struct {
	root      string
	serverURL string
	logger    *slog.Logger
}

// NewRewriteStep creates the link-rewrite step.
func NewRewriteStep(root, serverURL string, logger *slog.Logger) *RewriteStep {
	return &RewriteStep{root: root, serverURL: serverURL, logger: logger}
}

// Name returns the step name.
func (s *RewriteStep) Name() string { return "rewrite" }

// Do rewrites links in every exported markdown file.
func (s *RewriteStep) Do(_ context.Context, rec *model.RunRecord) error {
	stats, err := rewrite.NewRewriter(s.root, s.serverURL, s.logger).Run()
	if err != nil {
		return err
	}
	rec.Warnings += stats.UnresolvedAttachments
	return nil
}

// IndexStep builds per-project and top-level index pages.
type IndexStep struct {
	root   string
	logger *slog.Logger
}

// NewIndexStep creates the index-build step.
func NewIndexStep(root string, logger *slog.Logger) *IndexStep {
	return &IndexStep{root: root, logger: logger}
}

// Name returns the step name.
func (s *IndexStep) Name() string { return "index" }

// Do builds the index pages.
func (s *IndexStep) Do(_ context.Context, _ *model.RunRecord) error {
	return index.NewBuilder(s.root, s.logger).Run()
}
