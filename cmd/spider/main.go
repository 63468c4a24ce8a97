package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/webrecon/spider/internal/browser"
	"github.com/webrecon/spider/internal/classifier"
	"github.com/webrecon/spider/internal/config"
	"github.com/webrecon/spider/internal/crawler"
	"github.com/webrecon/spider/internal/export"
	"github.com/webrecon/spider/internal/extractor"
	"github.com/webrecon/spider/internal/models"
	"github.com/webrecon/spider/internal/oracle"
	"github.com/webrecon/spider/internal/ratelimit"
	"github.com/webrecon/spider/internal/renderer"
)

func main() {
	var (
		urls      = flag.String("urls", "", "Comma-separated list of category page URLs to crawl")
		inputFile = flag.String("file", "", "File containing category URLs (one per line)")
		output    = flag.String("output", "", "Write JSON results to this file instead of stdout")
		headless  = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	seeds, err := loadSeeds(*urls, *inputFile)
	if err != nil {
		logger.Error("failed to load seed URLs", "error", err)
		os.Exit(1)
	}
	if len(seeds) == 0 {
		fmt.Fprintln(os.Stderr, "No seed URLs to crawl. Use -urls or -file to specify category pages.")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		NavRetries:     cfg.Browser.NavRetries,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	oracleClient, err := oracle.NewClient(&oracle.ClientOptions{
		Endpoint:    cfg.Oracle.Endpoint,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
		Timeout:     cfg.Oracle.Timeout,
		APIKey:      os.Getenv("ORACLE_API_KEY"),
	}, ratelimit.NewTokenBucket(cfg.Oracle.RateLimit, cfg.Oracle.RateWindow))
	if err != nil {
		logger.Error("failed to initialize oracle client", "error", err)
		os.Exit(1)
	}

	c := crawler.New(
		renderer.New(b, &renderer.Options{
			SettleWait:  cfg.Renderer.SettleWait,
			ScrollPause: cfg.Renderer.ScrollPause,
			MaxScrolls:  cfg.Renderer.MaxScrolls,
		}),
		extractor.New(),
		classifier.New(&classifier.Options{
			PathKeywords: cfg.Classifier.PathKeywords,
			ClassTokens:  cfg.Classifier.ClassTokens,
			CartPhrases:  cfg.Classifier.CartPhrases,
		}),
		oracle.NewBatcher(oracleClient, cfg.Oracle.BatchSize),
		nil,
		cfg.Crawler.Concurrency,
	)

	store, err := export.NewStore(*output)
	if err != nil {
		logger.Error("failed to open results file", "path", *output, "error", err)
		os.Exit(1)
	}

	results := c.CrawlAll(ctx, seeds)

	for _, result := range results {
		if result.Status == models.StatusRenderFailed {
			logger.Warn("seed failed to render", "url", result.SeedURL)
			continue
		}
		logger.Info("seed crawled", "url", result.SeedURL, "products", len(result.ProductURLs))
	}
	store.RecordAll(results)

	if *output != "" {
		if err := store.Save(); err != nil {
			logger.Error("failed to write results", "path", *output, "error", err)
			os.Exit(1)
		}
		stats := store.Stats()
		logger.Info("results written",
			"path", *output,
			"completed", stats[models.StatusCompleted],
			"render_failed", stats[models.StatusRenderFailed])
		return
	}

	if err := store.WriteRun(os.Stdout); err != nil {
		logger.Error("failed to write results", "error", err)
		os.Exit(1)
	}
}

func loadSeeds(urls, inputFile string) ([]string, error) {
	var seeds []string

	if urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				seeds = append(seeds, u)
			}
		}
	}

	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				seeds = append(seeds, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return seeds, nil
}
