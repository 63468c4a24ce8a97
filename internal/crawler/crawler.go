package crawler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webrecon/spider/internal/classifier"
	"github.com/webrecon/spider/internal/models"
)

// Renderer produces a fully-scrolled HTML snapshot for a URL.
type Renderer interface {
	Render(ctx context.Context, url string) models.RenderedPage
}

// Extractor turns a snapshot into internal-domain anchor candidates.
type Extractor interface {
	Extract(page models.RenderedPage, seed models.SeedRequest) ([]models.AnchorCandidate, error)
}

// Classifier scores one anchor candidate.
type Classifier interface {
	Classify(candidate models.AnchorCandidate) classifier.Verdict
}

// Resolver adjudicates ambiguous links, returning the accepted URLs.
type Resolver interface {
	Resolve(ctx context.Context, ambiguous []models.AmbiguousLink) []string
}

// EventSink receives crawl lifecycle notifications. Implementations must
// tolerate concurrent calls from independent seed crawls.
type EventSink interface {
	CrawlStarted(ctx context.Context, seedURL string)
	CrawlFinished(ctx context.Context, result models.CrawlResult)
}

// Crawler sequences render, extract, classify and resolve for one seed and
// fans independent seeds out over a bounded pool. Seeds share nothing
// mutable; the oracle client and browser behind the injected collaborators
// are safe for concurrent use.
type Crawler struct {
	renderer    Renderer
	extractor   Extractor
	classifier  Classifier
	resolver    Resolver
	events      EventSink
	concurrency int
	logger      *slog.Logger
}

func New(r Renderer, e Extractor, c Classifier, o Resolver, events EventSink, concurrency int) *Crawler {
	if concurrency < 1 {
		concurrency = 1
	}
	if events == nil {
		events = noopSink{}
	}
	return &Crawler{
		renderer:    r,
		extractor:   e,
		classifier:  c,
		resolver:    o,
		events:      events,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "crawler"),
	}
}

// Crawl runs the pipeline for one seed. Rendering failure ends the crawl
// immediately with StatusRenderFailed; nothing here is fatal to a
// multi-seed run.
func (c *Crawler) Crawl(ctx context.Context, seed models.SeedRequest) (result models.CrawlResult) {
	c.logger.Info("crawling category page", "url", seed.URL)
	c.events.CrawlStarted(ctx, seed.URL)

	result = models.CrawlResult{
		SeedURL:     seed.URL,
		ProductURLs: []string{},
		Status:      models.StatusCompleted,
	}
	defer func() {
		result.FinishedAt = time.Now()
		c.events.CrawlFinished(ctx, result)
	}()

	page := c.renderer.Render(ctx, seed.URL)
	if page.Failed {
		c.logger.Warn("rendering failed, skipping seed", "url", seed.URL)
		result.Status = models.StatusRenderFailed
		return result
	}

	candidates, err := c.extractor.Extract(page, seed)
	if err != nil {
		// Unparseable HTML is treated like a page with no anchors.
		c.logger.Warn("extraction failed", "url", seed.URL, "error", err)
		return result
	}

	accepted := make(map[string]struct{})
	var pending []models.AmbiguousLink

	for _, candidate := range candidates {
		verdict := c.classifier.Classify(candidate)
		switch verdict.Kind {
		case models.VerdictAccept:
			accepted[candidate.AbsoluteURL] = struct{}{}
		case models.VerdictAmbiguous:
			pending = append(pending, verdict.Ambiguous)
		}
	}

	c.logger.Info("classification done",
		"url", seed.URL,
		"candidates", len(candidates),
		"accepted", len(accepted),
		"ambiguous", len(pending))

	for _, url := range c.resolver.Resolve(ctx, pending) {
		accepted[url] = struct{}{}
	}

	result.ProductURLs = sortedKeys(accepted)
	return result
}

// CrawlAll runs independent seed crawls over a bounded worker pool,
// preserving input order in the returned slice. One seed's failure never
// aborts the others.
func (c *Crawler) CrawlAll(ctx context.Context, rawSeeds []string) []models.CrawlResult {
	results := make([]models.CrawlResult, len(rawSeeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, raw := range rawSeeds {
		g.Go(func() error {
			seed, err := models.NewSeedRequest(raw)
			if err != nil {
				c.logger.Error("invalid seed URL", "input", raw, "error", err)
				results[i] = models.CrawlResult{
					SeedURL:     raw,
					ProductURLs: []string{},
					Status:      models.StatusRenderFailed,
					FinishedAt:  time.Now(),
				}
				return nil
			}
			results[i] = c.Crawl(gctx, seed)
			return nil
		})
	}
	g.Wait()

	return results
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type noopSink struct{}

func (noopSink) CrawlStarted(context.Context, string)              {}
func (noopSink) CrawlFinished(context.Context, models.CrawlResult) {}
