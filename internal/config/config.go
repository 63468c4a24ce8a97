package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Renderer   RendererConfig
	Classifier ClassifierConfig
	Oracle     OracleConfig
	Crawler    CrawlerConfig
	Events     EventsConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	NavRetries     int
}

type RendererConfig struct {
	SettleWait  time.Duration
	ScrollPause time.Duration
	MaxScrolls  int
}

type ClassifierConfig struct {
	PathKeywords []string
	ClassTokens  []string
	CartPhrases  []string
}

type OracleConfig struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int
	BatchSize   int
	Timeout     time.Duration
	RateLimit   int
	RateWindow  time.Duration
}

type CrawlerConfig struct {
	Concurrency int
}

type EventsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Stream        string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			NavRetries:     getIntOrDefault("BROWSER_NAV_RETRIES", 3),
		},
		Renderer: RendererConfig{
			SettleWait:  getDurationOrDefault("RENDER_SETTLE_WAIT", 3*time.Second),
			ScrollPause: getDurationOrDefault("RENDER_SCROLL_PAUSE", 3*time.Second),
			MaxScrolls:  getIntOrDefault("RENDER_MAX_SCROLLS", 10),
		},
		Classifier: ClassifierConfig{
			PathKeywords: getStringSliceOrDefault("CLASSIFIER_PATH_KEYWORDS", []string{"product", "item"}),
			ClassTokens:  getStringSliceOrDefault("CLASSIFIER_CLASS_TOKENS", []string{"product-card", "product", "item"}),
			CartPhrases:  getStringSliceOrDefault("CLASSIFIER_CART_PHRASES", []string{"add to cart"}),
		},
		Oracle: OracleConfig{
			Endpoint:    getEnvOrDefault("ORACLE_ENDPOINT", "http://localhost:8081/v1/chat/completions"),
			Model:       getEnvOrDefault("ORACLE_MODEL", "deepseek-r1-distill-llama-70b"),
			Temperature: getFloatOrDefault("ORACLE_TEMPERATURE", 0.6),
			MaxTokens:   getIntOrDefault("ORACLE_MAX_TOKENS", 1024),
			BatchSize:   getIntOrDefault("ORACLE_BATCH_SIZE", 10),
			Timeout:     getDurationOrDefault("ORACLE_TIMEOUT", 60*time.Second),
			RateLimit:   getIntOrDefault("ORACLE_RATE_LIMIT", 5),
			RateWindow:  getDurationOrDefault("ORACLE_RATE_WINDOW", 12*time.Second),
		},
		Crawler: CrawlerConfig{
			Concurrency: getIntOrDefault("CRAWLER_CONCURRENCY", 3),
		},
		Events: EventsConfig{
			RedisAddr:     getEnvOrDefault("EVENTS_REDIS_ADDR", ""),
			RedisPassword: getEnvOrDefault("EVENTS_REDIS_PASSWORD", ""),
			RedisDB:       getIntOrDefault("EVENTS_REDIS_DB", 0),
			Stream:        getEnvOrDefault("EVENTS_STREAM", "stream:crawl_lifecycle"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.Concurrency < 1 {
		return fmt.Errorf("CRAWLER_CONCURRENCY must be at least 1")
	}

	if c.Oracle.BatchSize < 1 {
		return fmt.Errorf("ORACLE_BATCH_SIZE must be at least 1")
	}

	if c.Renderer.MaxScrolls < 1 {
		return fmt.Errorf("RENDER_MAX_SCROLLS must be at least 1")
	}

	if len(c.Classifier.PathKeywords) == 0 {
		return fmt.Errorf("CLASSIFIER_PATH_KEYWORDS must not be empty")
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
