package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webrecon/spider/internal/classifier"
	"github.com/webrecon/spider/internal/extractor"
	"github.com/webrecon/spider/internal/models"
)

// fakeRenderer serves canned HTML per URL; unknown URLs render as failed.
type fakeRenderer struct {
	pages map[string]string
}

func (r *fakeRenderer) Render(ctx context.Context, url string) models.RenderedPage {
	html, ok := r.pages[url]
	if !ok {
		return models.RenderedPage{URL: url, Failed: true}
	}
	return models.RenderedPage{URL: url, HTML: html}
}

type fakeResolver struct {
	mu       sync.Mutex
	received []models.AmbiguousLink
	accept   map[string]bool
}

func (f *fakeResolver) Resolve(ctx context.Context, ambiguous []models.AmbiguousLink) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.received = append(f.received, ambiguous...)
	var accepted []string
	for _, link := range ambiguous {
		if f.accept[link.URL] {
			accepted = append(accepted, link.URL)
		}
	}
	return accepted
}

type recordingSink struct {
	mu       sync.Mutex
	started  []string
	finished []models.CrawlResult
}

func (s *recordingSink) CrawlStarted(_ context.Context, seedURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, seedURL)
}

func (s *recordingSink) CrawlFinished(_ context.Context, result models.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, result)
}

type failingExtractor struct{}

func (failingExtractor) Extract(models.RenderedPage, models.SeedRequest) ([]models.AnchorCandidate, error) {
	return nil, errors.New("unparseable markup")
}

func newTestCrawler(renderer Renderer, resolver Resolver, events EventSink) *Crawler {
	return New(renderer, extractor.New(), classifier.New(nil), resolver, events, 2)
}

const salePageHTML = `<html><body>
	<a href="/product/1">Widget One</a>
	<a href="/about">About us</a>
	<a href="/deal-item-5">Flash deal</a>
	<a href="https://ads.example.net/track">Sponsored</a>
</body></html>`

func TestCrawlPipelinesVerdicts(t *testing.T) {
	seed, err := models.NewSeedRequest("http://shop.example.com/sale")
	require.NoError(t, err)

	renderer := &fakeRenderer{pages: map[string]string{
		seed.URL: salePageHTML,
	}}
	resolver := &fakeResolver{accept: map[string]bool{
		"http://shop.example.com/deal-item-5": true,
	}}
	sink := &recordingSink{}

	c := newTestCrawler(renderer, resolver, sink)
	result := c.Crawl(context.Background(), seed)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, []string{
		"http://shop.example.com/deal-item-5",
		"http://shop.example.com/product/1",
	}, result.ProductURLs)
	assert.False(t, result.FinishedAt.IsZero())

	// Only the ambiguous link reaches the oracle; the direct accept and
	// the reject never do, and the off-domain anchor is filtered earlier.
	require.Len(t, resolver.received, 1)
	assert.Equal(t, "http://shop.example.com/deal-item-5", resolver.received[0].URL)

	assert.Equal(t, []string{seed.URL}, sink.started)
	require.Len(t, sink.finished, 1)
	assert.Equal(t, result.ProductURLs, sink.finished[0].ProductURLs)
}

func TestCrawlRenderFailure(t *testing.T) {
	seed, err := models.NewSeedRequest("http://down.example.com")
	require.NoError(t, err)

	resolver := &fakeResolver{}
	sink := &recordingSink{}

	c := newTestCrawler(&fakeRenderer{}, resolver, sink)
	result := c.Crawl(context.Background(), seed)

	assert.Equal(t, models.StatusRenderFailed, result.Status)
	assert.Empty(t, result.ProductURLs)
	assert.Empty(t, resolver.received)

	require.Len(t, sink.finished, 1)
	assert.Equal(t, models.StatusRenderFailed, sink.finished[0].Status)
}

func TestCrawlExtractionFailureCompletesEmpty(t *testing.T) {
	seed, err := models.NewSeedRequest("http://shop.example.com")
	require.NoError(t, err)

	renderer := &fakeRenderer{pages: map[string]string{seed.URL: "<html></html>"}}
	resolver := &fakeResolver{}

	c := New(renderer, failingExtractor{}, classifier.New(nil), resolver, nil, 1)
	result := c.Crawl(context.Background(), seed)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Empty(t, result.ProductURLs)
}

func TestCrawlAllPreservesSeedOrder(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]string{
		"http://a.example.com": `<a href="/product/1">A</a>`,
		"http://b.example.com": `<a href="/product/2">B</a>`,
	}}
	resolver := &fakeResolver{}

	c := newTestCrawler(renderer, resolver, nil)
	results := c.CrawlAll(context.Background(), []string{
		"a.example.com",
		"https://dead.example.com",
		"b.example.com",
	})

	require.Len(t, results, 3)

	assert.Equal(t, "http://a.example.com", results[0].SeedURL)
	assert.Equal(t, models.StatusCompleted, results[0].Status)
	assert.Equal(t, []string{"http://a.example.com/product/1"}, results[0].ProductURLs)

	assert.Equal(t, models.StatusRenderFailed, results[1].Status)

	assert.Equal(t, models.StatusCompleted, results[2].Status)
	assert.Equal(t, []string{"http://b.example.com/product/2"}, results[2].ProductURLs)
}

func TestCrawlAllRejectsUnparseableSeed(t *testing.T) {
	c := newTestCrawler(&fakeRenderer{}, &fakeResolver{}, nil)
	results := c.CrawlAll(context.Background(), []string{"http://[::1"})

	require.Len(t, results, 1)
	assert.Equal(t, "http://[::1", results[0].SeedURL)
	assert.Equal(t, models.StatusRenderFailed, results[0].Status)
	assert.False(t, results[0].FinishedAt.IsZero())
}
