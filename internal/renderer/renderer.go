package renderer

import (
	"context"
	"log/slog"
	"time"

	"github.com/webrecon/spider/internal/browser"
	"github.com/webrecon/spider/internal/models"
)

const (
	scrollHeightJS   = "document.body.scrollHeight"
	scrollToBottomJS = "window.scrollTo(0, document.body.scrollHeight)"
)

// PageFactory opens browser sessions. *browser.Browser satisfies it; tests
// substitute fakes.
type PageFactory interface {
	NewPage() (browser.Page, error)
}

type Options struct {
	SettleWait  time.Duration
	ScrollPause time.Duration
	MaxScrolls  int
}

func DefaultOptions() *Options {
	return &Options{
		SettleWait:  3 * time.Second,
		ScrollPause: 3 * time.Second,
		MaxScrolls:  10,
	}
}

// Renderer loads a URL in a browser session and scrolls until the page
// stops growing, then snapshots the HTML.
type Renderer struct {
	pages  PageFactory
	opts   *Options
	logger *slog.Logger
}

func New(pages PageFactory, opts *Options) *Renderer {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Renderer{
		pages:  pages,
		opts:   opts,
		logger: slog.Default().With("component", "renderer"),
	}
}

// Render navigates to url, waits for the initial render, then repeatedly
// scrolls to the bottom until the scroll height stops increasing or the
// iteration cap is hit. Any failure yields a RenderedPage marked Failed
// instead of an error; the session is closed on every path.
func (r *Renderer) Render(ctx context.Context, url string) models.RenderedPage {
	failed := models.RenderedPage{URL: url, Failed: true}

	page, err := r.pages.NewPage()
	if err != nil {
		r.logger.Error("failed to open browser session", "url", url, "error", err)
		return failed
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		r.logger.Error("navigation failed", "url", url, "error", err)
		return failed
	}

	if err := sleepCtx(ctx, r.opts.SettleWait); err != nil {
		return failed
	}

	lastHeight, err := r.scrollHeight(page)
	if err != nil {
		r.logger.Error("failed to read scroll height", "url", url, "error", err)
		return failed
	}

	for i := 0; i < r.opts.MaxScrolls; i++ {
		if _, err := page.Evaluate(scrollToBottomJS); err != nil {
			r.logger.Error("scroll failed", "url", url, "error", err)
			return failed
		}

		if err := sleepCtx(ctx, r.opts.ScrollPause); err != nil {
			return failed
		}

		height, err := r.scrollHeight(page)
		if err != nil {
			r.logger.Error("failed to read scroll height", "url", url, "error", err)
			return failed
		}

		if height == lastHeight {
			r.logger.Debug("scroll height settled", "url", url, "iterations", i+1)
			break
		}
		lastHeight = height
	}

	html, err := page.Content()
	if err != nil {
		r.logger.Error("failed to read page content", "url", url, "error", err)
		return failed
	}

	return models.RenderedPage{URL: url, HTML: html}
}

func (r *Renderer) scrollHeight(page browser.Page) (float64, error) {
	v, err := page.Evaluate(scrollHeightJS)
	if err != nil {
		return 0, err
	}
	return toFloat(v), nil
}

// toFloat normalizes the numeric types browser drivers hand back from
// script evaluation.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
