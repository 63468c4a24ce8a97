package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/webrecon/spider/internal/models"
)

const promptHeader = "Determine if these links point to product pages. Reply 'YES' or 'NO' for each:"

// Batcher partitions ambiguous links into fixed-size batches, submits each
// to the completion oracle, and maps the ordered verdicts back onto URLs.
type Batcher struct {
	completer Completer
	batchSize int
	parallel  int
	logger    *slog.Logger
}

func NewBatcher(completer Completer, batchSize int) *Batcher {
	if batchSize < 1 {
		batchSize = 10
	}
	return &Batcher{
		completer: completer,
		batchSize: batchSize,
		parallel:  2,
		logger:    slog.Default().With("component", "oracle_batcher"),
	}
}

// Resolve returns the URLs the oracle judged to be product pages. Batches
// keep input order; a failed or short oracle response fails closed, every
// unverified position defaulting to reject.
func (b *Batcher) Resolve(ctx context.Context, ambiguous []models.AmbiguousLink) []string {
	if len(ambiguous) == 0 {
		return nil
	}

	batches := partition(ambiguous, b.batchSize)
	accepted := make([][]string, len(batches))

	// Batch calls are latency-bound, so a couple in flight keeps the
	// crawl from serializing on the oracle. The limiter inside the
	// client still paces the endpoint.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)

	for i, batch := range batches {
		g.Go(func() error {
			accepted[i] = b.resolveBatch(gctx, batch)
			return nil
		})
	}
	g.Wait()

	var urls []string
	for _, batch := range accepted {
		urls = append(urls, batch...)
	}
	return urls
}

func (b *Batcher) resolveBatch(ctx context.Context, batch []models.AmbiguousLink) []string {
	response, err := b.completer.Complete(ctx, buildPrompt(batch))
	if err != nil {
		// Fail closed: an unreachable or broken oracle accepts nothing.
		b.logger.Error("oracle call failed, rejecting batch", "size", len(batch), "error", err)
		response = ""
	}

	verdicts := parseVerdicts(response, len(batch))

	var accepted []string
	for i, link := range batch {
		if verdicts[i] {
			accepted = append(accepted, link.URL)
		}
	}
	return accepted
}

// buildPrompt enumerates the batch as numbered "Link | Context" lines.
// The position numbering is the contract for mapping verdicts back.
func buildPrompt(batch []models.AmbiguousLink) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	for i, link := range batch {
		sb.WriteString(fmt.Sprintf("\n%d. Link: %s | Context: %s", i+1, link.URL, link.Context))
	}
	return sb.String()
}

// parseVerdicts scans the response line by line: a line containing YES
// accepts the next unfilled position, NO rejects it, anything else is
// ignored. Missing trailing verdicts default to reject.
func parseVerdicts(response string, size int) []bool {
	verdicts := make([]bool, size)
	pos := 0

	for _, line := range strings.Split(response, "\n") {
		if pos >= size {
			break
		}

		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.Contains(upper, "YES"):
			verdicts[pos] = true
			pos++
		case strings.Contains(upper, "NO"):
			verdicts[pos] = false
			pos++
		}
	}

	return verdicts
}

func partition(links []models.AmbiguousLink, size int) [][]models.AmbiguousLink {
	var batches [][]models.AmbiguousLink
	for start := 0; start < len(links); start += size {
		end := start + size
		if end > len(links) {
			end = len(links)
		}
		batches = append(batches, links[start:end])
	}
	return batches
}
