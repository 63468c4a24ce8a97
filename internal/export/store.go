package export

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/webrecon/spider/internal/models"
)

// Store accumulates per-seed crawl results and persists them as JSON. A
// store bound to a filename loads what a previous run left there, so
// repeated invocations against the same file merge rather than clobber.
type Store struct {
	mu       sync.RWMutex
	results  map[string]models.CrawlResult
	filename string
}

func NewStore(filename string) (*Store, error) {
	s := &Store{
		results:  make(map[string]models.CrawlResult),
		filename: filename,
	}

	if filename != "" {
		if err := s.load(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return s, nil
}

// Record upserts one seed's result. A re-crawled seed replaces its
// earlier entry.
func (s *Store) Record(result models.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.SeedURL] = result
}

func (s *Store) RecordAll(results []models.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.results[r.SeedURL] = r
	}
}

// Stats counts stored results per crawl status.
func (s *Store) Stats() map[models.CrawlStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[models.CrawlStatus]int)
	for _, r := range s.results {
		stats[r.Status]++
	}
	return stats
}

// Run flattens the store into the seed-to-products map shape.
func (s *Store) Run() models.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := make(models.RunResult, len(s.results))
	for seed, r := range s.results {
		run[seed] = r.ProductURLs
	}
	return run
}

// WriteRun serializes the seed-to-products map as indented JSON.
func (s *Store) WriteRun(w io.Writer) error {
	run := s.Run()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// Save writes the full result set, statuses included, to the store's
// file. Results are ordered by seed URL so successive saves diff cleanly.
func (s *Store) Save() error {
	s.mu.RLock()
	ordered := make([]models.CrawlResult, 0, len(s.results))
	for _, r := range s.results {
		ordered = append(ordered, r)
	}
	s.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SeedURL < ordered[j].SeedURL
	})

	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filename, data, 0o644)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}

	var stored []models.CrawlResult
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}

	for _, r := range stored {
		s.results[r.SeedURL] = r
	}
	return nil
}
