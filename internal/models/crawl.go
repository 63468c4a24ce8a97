package models

import (
	"net/url"
	"strings"
	"time"
)

// SeedRequest is one normalized category/listing page URL to crawl.
type SeedRequest struct {
	URL  string
	Host string
}

// NewSeedRequest normalizes the raw input, prefixing a scheme if absent.
func NewSeedRequest(raw string) (SeedRequest, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return SeedRequest{}, err
	}

	return SeedRequest{
		URL:  raw,
		Host: u.Host,
	}, nil
}

// IsInternal reports whether host belongs to the seed's domain:
// equal to the seed host or a suffix-subdomain of it.
func (s SeedRequest) IsInternal(host string) bool {
	if host == "" || host == s.Host {
		return true
	}
	return strings.HasSuffix(host, s.Host)
}

// RenderedPage is the HTML snapshot produced by the renderer for one seed.
// Failed is set when the browser session could not produce a snapshot, so
// callers can tell "page had no products" from "rendering broke".
type RenderedPage struct {
	URL    string
	HTML   string
	Failed bool
}

// AnchorCandidate is one <a href> element with the surrounding context the
// classifier and oracle need.
type AnchorCandidate struct {
	Href          string
	AbsoluteURL   string
	Text          string
	ParentClasses string
	ParentText    string
}

// VerdictKind is the classifier's decision for one anchor.
type VerdictKind int

const (
	VerdictReject VerdictKind = iota
	VerdictAccept
	VerdictAmbiguous
)

func (v VerdictKind) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictAmbiguous:
		return "ambiguous"
	default:
		return "reject"
	}
}

// AmbiguousLink is a candidate deferred to the oracle, carrying the context
// snippet the prompt includes.
type AmbiguousLink struct {
	URL     string
	Context string
}

// CrawlStatus distinguishes how a seed crawl ended.
type CrawlStatus string

const (
	StatusCompleted    CrawlStatus = "completed"
	StatusRenderFailed CrawlStatus = "render_failed"
)

// CrawlResult is the terminal artifact for one seed: the set of accepted
// product URLs, duplicates collapsed.
type CrawlResult struct {
	SeedURL     string      `json:"seed_url"`
	ProductURLs []string    `json:"product_urls"`
	Status      CrawlStatus `json:"status"`
	FinishedAt  time.Time   `json:"finished_at"`
}

// RunResult maps each seed URL to its accepted product URLs, the shape the
// presentation layer serializes.
type RunResult map[string][]string

// NewRunResult folds per-seed results into the serialization shape.
func NewRunResult(results []CrawlResult) RunResult {
	run := make(RunResult, len(results))
	for _, r := range results {
		run[r.SeedURL] = r.ProductURLs
	}
	return run
}
