// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sentiscan/internal/domain/mention"
)

// Config holds all application configuration
type Config struct {
	Topic     TopicConfig     `yaml:"topic"`
	Collector CollectorConfig `yaml:"collector"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Export    ExportConfig    `yaml:"export"`
	Server    ServerConfig    `yaml:"server"`
	NATS      NATSConfig      `yaml:"nats"`
	Log       LogConfig       `yaml:"log"`
}

// TopicConfig describes what is being tracked
type TopicConfig struct {
	Anchor       string   `yaml:"anchor"`
	TopicalTerms []string `yaml:"topical_terms"`
	SearchTerms  []string `yaml:"search_terms"`
}

// CollectorConfig holds collection loop configuration
type CollectorConfig struct {
	Channels    []string      `yaml:"channels"`
	ResultLimit int           `yaml:"result_limit"`
	Sort        string        `yaml:"sort"`
	ItemDelay   time.Duration `yaml:"item_delay"`
}

// RedditConfig holds Reddit client configuration
type RedditConfig struct {
	BaseURL      string        `yaml:"base_url"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	CommentLimit int           `yaml:"comment_limit"`
}

// TwitterConfig holds Twitter client configuration. Twitter channels are only
// served when a bearer token is set.
type TwitterConfig struct {
	BearerToken string        `yaml:"bearer_token"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ExportConfig holds export configuration
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Prefix      string `yaml:"prefix"`
	PreviewSize int    `yaml:"preview_size"`
}

// ServerConfig holds status server configuration. An empty Addr disables it.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CorsOrigins     []string      `yaml:"cors_origins"`
}

// NATSConfig holds NATS configuration. An empty URL disables run events.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	EventsTopic    string        `yaml:"events_topic"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Topic: TopicConfig{
			Anchor: "iberia",
			TopicalTerms: []string{
				"flight", "vuelo", "airline", "aerolínea", "airport", "aeropuerto",
				"delayed", "retraso", "cancelled", "cancelado", "booking", "reserva",
				"madrid", "barajas", "spain", "españa", "maleta", "luggage",
				"passenger", "pasajero", "ticket", "billete",
			},
			SearchTerms: []string{
				`"iberia" airline`,
				`"iberia" flight`,
				`"iberia" vuelo`,
				`"iberia" review`,
				`"iberia" experience`,
				`"iberia" opinión`,
			},
		},
		Collector: CollectorConfig{
			Channels:    []string{"travel", "flights", "spain", "europe"},
			ResultLimit: 10,
			Sort:        string(mention.SortNew),
			ItemDelay:   2 * time.Second,
		},
		Reddit: RedditConfig{
			BaseURL:      "https://www.reddit.com",
			UserAgent:    "sentiscan/1.0",
			Timeout:      10 * time.Second,
			CommentLimit: 500,
		},
		Twitter: TwitterConfig{
			BaseURL: "https://api.twitter.com",
			Timeout: 10 * time.Second,
		},
		Export: ExportConfig{
			Dir:         ".",
			Prefix:      "iberia_analysis",
			PreviewSize: 3,
		},
		Server: ServerConfig{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CorsOrigins:     []string{"*"},
		},
		NATS: NATSConfig{
			MaxReconnects:  10,
			ReconnectWait:  1 * time.Second,
			ConnectTimeout: 2 * time.Second,
			EventsTopic:    "mentions",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables, in that order
func Load() (Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	config := Default()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := loadFile(path, &config); err != nil {
		return Config{}, err
	}

	applyEnv(&config)

	return config, validate(config)
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func applyEnv(c *Config) {
	c.Topic.Anchor = getEnv("TOPIC_ANCHOR", c.Topic.Anchor)
	c.Topic.TopicalTerms = getEnvAsSlice("TOPIC_TOPICAL_TERMS", c.Topic.TopicalTerms)
	c.Topic.SearchTerms = getEnvAsSlice("TOPIC_SEARCH_TERMS", c.Topic.SearchTerms)

	c.Collector.Channels = getEnvAsSlice("COLLECTOR_CHANNELS", c.Collector.Channels)
	c.Collector.ResultLimit = getEnvAsInt("COLLECTOR_RESULT_LIMIT", c.Collector.ResultLimit)
	c.Collector.Sort = getEnv("COLLECTOR_SORT", c.Collector.Sort)
	c.Collector.ItemDelay = getEnvAsDuration("COLLECTOR_ITEM_DELAY", c.Collector.ItemDelay)

	c.Reddit.BaseURL = getEnv("REDDIT_BASE_URL", c.Reddit.BaseURL)
	c.Reddit.UserAgent = getEnv("REDDIT_USER_AGENT", c.Reddit.UserAgent)
	c.Reddit.Timeout = getEnvAsDuration("REDDIT_TIMEOUT", c.Reddit.Timeout)
	c.Reddit.CommentLimit = getEnvAsInt("REDDIT_COMMENT_LIMIT", c.Reddit.CommentLimit)

	c.Twitter.BearerToken = getEnv("TWITTER_BEARER_TOKEN", c.Twitter.BearerToken)
	c.Twitter.BaseURL = getEnv("TWITTER_BASE_URL", c.Twitter.BaseURL)
	c.Twitter.Timeout = getEnvAsDuration("TWITTER_TIMEOUT", c.Twitter.Timeout)

	c.Export.Dir = getEnv("EXPORT_DIR", c.Export.Dir)
	c.Export.Prefix = getEnv("EXPORT_PREFIX", c.Export.Prefix)
	c.Export.PreviewSize = getEnvAsInt("EXPORT_PREVIEW_SIZE", c.Export.PreviewSize)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.CorsOrigins = getEnvAsSlice("SERVER_CORS_ORIGINS", c.Server.CorsOrigins)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.MaxReconnects = getEnvAsInt("NATS_MAX_RECONNECTS", c.NATS.MaxReconnects)
	c.NATS.ReconnectWait = getEnvAsDuration("NATS_RECONNECT_WAIT", c.NATS.ReconnectWait)
	c.NATS.ConnectTimeout = getEnvAsDuration("NATS_CONNECT_TIMEOUT", c.NATS.ConnectTimeout)
	c.NATS.EventsTopic = getEnv("NATS_EVENTS_TOPIC", c.NATS.EventsTopic)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// validate checks if config is valid
func validate(config Config) error {
	if strings.TrimSpace(config.Topic.Anchor) == "" {
		return fmt.Errorf("topic anchor must not be empty")
	}

	if config.Collector.ResultLimit < 1 || config.Collector.ResultLimit > 100 {
		return fmt.Errorf("collector result limit must be between 1 and 100, got %d", config.Collector.ResultLimit)
	}

	if !mention.Sort(config.Collector.Sort).Valid() {
		return fmt.Errorf("unknown collector sort %q", config.Collector.Sort)
	}

	if config.Collector.ItemDelay < 0 {
		return fmt.Errorf("collector item delay must not be negative")
	}

	if config.Export.Prefix == "" {
		return fmt.Errorf("export prefix must not be empty")
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Log.Level)
	}

	switch strings.ToLower(config.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Log.Format)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated value, dropping blank entries
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
