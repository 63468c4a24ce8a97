package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/webrecon/spider/internal/api"
	"github.com/webrecon/spider/internal/browser"
	"github.com/webrecon/spider/internal/classifier"
	"github.com/webrecon/spider/internal/config"
	"github.com/webrecon/spider/internal/crawler"
	"github.com/webrecon/spider/internal/events"
	"github.com/webrecon/spider/internal/extractor"
	"github.com/webrecon/spider/internal/oracle"
	"github.com/webrecon/spider/internal/ratelimit"
	"github.com/webrecon/spider/internal/renderer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
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

	var sink crawler.EventSink
	if cfg.Events.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Events.RedisAddr,
			Password: cfg.Events.RedisPassword,
			DB:       cfg.Events.RedisDB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		sink = events.NewPublisher(redisClient, cfg.Events.Stream)
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
		sink,
		cfg.Crawler.Concurrency,
	)

	handlers := api.NewHandlers(c, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.GetHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/crawl", handlers.PostCrawl)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
