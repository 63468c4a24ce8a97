package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/webrecon/spider/internal/models"
)

type EventType string

const (
	EventTypeCrawlStarted       EventType = "CRAWL_STARTED"
	EventTypeProductsDiscovered EventType = "PRODUCTS_DISCOVERED"
	EventTypeCrawlFailed        EventType = "CRAWL_FAILED"
)

// CrawlEventPayload is what downstream consumers read off the stream.
type CrawlEventPayload struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	SeedURL     string    `json:"seed_url"`
	ProductURLs []string  `json:"product_urls,omitempty"`
	Status      string    `json:"status,omitempty"`
	Source      string    `json:"source"`
}

type streamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// Publisher emits crawl lifecycle events to a Redis stream. Publishing is
// best-effort: a failed publish is logged, never surfaced to the crawl.
type Publisher struct {
	client streamClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: slog.Default().With("component", "event_publisher"),
	}
}

func (p *Publisher) CrawlStarted(ctx context.Context, seedURL string) {
	p.publish(ctx, CrawlEventPayload{
		EventType: string(EventTypeCrawlStarted),
		SeedURL:   seedURL,
	})
}

func (p *Publisher) CrawlFinished(ctx context.Context, result models.CrawlResult) {
	payload := CrawlEventPayload{
		EventType:   string(EventTypeProductsDiscovered),
		SeedURL:     result.SeedURL,
		ProductURLs: result.ProductURLs,
		Status:      string(result.Status),
	}
	if result.Status == models.StatusRenderFailed {
		payload.EventType = string(EventTypeCrawlFailed)
	}
	p.publish(ctx, payload)
}

func (p *Publisher) publish(ctx context.Context, payload CrawlEventPayload) {
	payload.EventID = uuid.New().String()
	payload.Timestamp = time.Now()
	payload.Source = "spider"

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event", "type", payload.EventType, "error", err)
		return
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_type": payload.EventType,
			"seed_url":   payload.SeedURL,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		p.logger.Error("failed to publish event", "type", payload.EventType, "error", err)
		return
	}

	p.logger.Debug("event published", "type", payload.EventType, "seed", payload.SeedURL)
}
