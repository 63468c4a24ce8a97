package classifier

import (
	"regexp"
	"strings"

	"github.com/webrecon/spider/internal/models"
)

// Verdict is the outcome for one anchor. Ambiguous verdicts carry the URL
// and context the oracle prompt needs.
type Verdict struct {
	Kind      models.VerdictKind
	Ambiguous models.AmbiguousLink
}

type Options struct {
	PathKeywords []string
	ClassTokens  []string
	CartPhrases  []string
}

func DefaultOptions() *Options {
	return &Options{
		PathKeywords: []string{"product", "item"},
		ClassTokens:  []string{"product-card", "product", "item"},
		CartPhrases:  []string{"add to cart"},
	}
}

// Classifier applies deterministic heuristics to anchor candidates. It does
// no I/O; one instance is safe for concurrent use.
type Classifier struct {
	pathPatterns []*regexp.Regexp
	hrefKeywords []string
	classTokens  []string
	cartPhrases  []string
	pricePattern *regexp.Regexp
}

func New(opts *Options) *Classifier {
	if opts == nil {
		opts = DefaultOptions()
	}

	patterns := make([]*regexp.Regexp, 0, len(opts.PathKeywords))
	for _, kw := range opts.PathKeywords {
		patterns = append(patterns, regexp.MustCompile("/"+regexp.QuoteMeta(kw)+"/"))
	}

	phrases := make([]string, 0, len(opts.CartPhrases))
	for _, p := range opts.CartPhrases {
		phrases = append(phrases, strings.ToLower(p))
	}

	return &Classifier{
		pathPatterns: patterns,
		hrefKeywords: opts.PathKeywords,
		classTokens:  opts.ClassTokens,
		cartPhrases:  phrases,
		pricePattern: regexp.MustCompile(`[$€£¥]\s?\d+`),
	}
}

// Classify scores one anchor. Strong signals (product path segment,
// product-card parent class, price or cart text) accept outright; a bare
// keyword anywhere in the href is only enough to defer to the oracle;
// everything else is rejected.
func (c *Classifier) Classify(candidate models.AnchorCandidate) Verdict {
	if c.isDirectProduct(candidate) {
		return Verdict{Kind: models.VerdictAccept}
	}

	for _, kw := range c.hrefKeywords {
		if strings.Contains(candidate.Href, kw) {
			return Verdict{
				Kind: models.VerdictAmbiguous,
				Ambiguous: models.AmbiguousLink{
					URL:     candidate.AbsoluteURL,
					Context: candidate.ParentText,
				},
			}
		}
	}

	return Verdict{Kind: models.VerdictReject}
}

func (c *Classifier) isDirectProduct(candidate models.AnchorCandidate) bool {
	for _, p := range c.pathPatterns {
		if p.MatchString(candidate.Href) {
			return true
		}
	}

	for _, token := range c.classTokens {
		if strings.Contains(candidate.ParentClasses, token) {
			return true
		}
	}

	if c.hasPurchaseSignal(candidate.Text) || c.hasPurchaseSignal(candidate.ParentText) {
		return true
	}

	return false
}

func (c *Classifier) hasPurchaseSignal(text string) bool {
	if c.pricePattern.MatchString(text) {
		return true
	}

	lower := strings.ToLower(text)
	for _, phrase := range c.cartPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}
