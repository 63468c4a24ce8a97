package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webrecon/spider/internal/models"
)

// contextLimit caps the parent-text snippet handed to the classifier and
// the oracle prompt.
const contextLimit = 200

// Extractor turns a rendered HTML snapshot into anchor candidates internal
// to the seed's domain.
type Extractor struct {
	logger *slog.Logger
}

func New() *Extractor {
	return &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
}

// Extract parses page.HTML and returns one candidate per <a href> element
// whose resolved URL stays inside the seed's domain. Anchors with missing
// or unparseable hrefs are skipped, not errors.
func (e *Extractor) Extract(page models.RenderedPage, seed models.SeedRequest) ([]models.AnchorCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, err
	}

	var candidates []models.AnchorCandidate

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			e.logger.Debug("skipping unparseable href", "href", href)
			return
		}

		abs := base.ResolveReference(ref)
		if !seed.IsInternal(abs.Host) {
			return
		}

		parent := sel.Parent()
		parentClasses, _ := parent.Attr("class")

		candidates = append(candidates, models.AnchorCandidate{
			Href:          href,
			AbsoluteURL:   abs.String(),
			Text:          normalizeText(sel.Text()),
			ParentClasses: parentClasses,
			ParentText:    truncate(normalizeText(parent.Text()), contextLimit),
		})
	})

	return candidates, nil
}

// normalizeText collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
