package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/webrecon/spider/internal/models"
)

// CrawlRunner is the orchestrator surface the API exposes.
type CrawlRunner interface {
	CrawlAll(ctx context.Context, rawSeeds []string) []models.CrawlResult
}

type Handlers struct {
	runner CrawlRunner
	logger *slog.Logger
}

func NewHandlers(runner CrawlRunner, logger *slog.Logger) *Handlers {
	return &Handlers{
		runner: runner,
		logger: logger,
	}
}

// CrawlRequest carries the seed category/listing URLs to crawl.
type CrawlRequest struct {
	URLs []string `json:"urls"`
}

// CrawlResponse maps each seed URL to its discovered product URLs, with a
// per-seed status so a failed render is distinguishable from a page that
// simply had no products.
type CrawlResponse struct {
	JobID    string              `json:"job_id"`
	Results  map[string][]string `json:"results"`
	Statuses map[string]string   `json:"statuses"`
}

// PostCrawl crawls the requested seeds synchronously and returns the
// merged result set.
func (h *Handlers) PostCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one url is required")
		return
	}

	resp := CrawlResponse{
		JobID:    uuid.New().String(),
		Results:  make(map[string][]string, len(req.URLs)),
		Statuses: make(map[string]string, len(req.URLs)),
	}

	for _, result := range h.runner.CrawlAll(r.Context(), req.URLs) {
		resp.Results[result.SeedURL] = result.ProductURLs
		resp.Statuses[result.SeedURL] = string(result.Status)
	}

	h.logger.Info("crawl request served", "job_id", resp.JobID, "seeds", len(req.URLs))
	h.respondJSON(w, http.StatusOK, resp)
}

// GetHealth reports service liveness.
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
