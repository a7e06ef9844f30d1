// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Corpus, Search, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RateLimit is the per-client request budget per minute; 0 disables it.
	RateLimit int `yaml:"rateLimit"`
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that sets those headers.
	TrustProxy bool `yaml:"trustProxy"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings. Kafka is optional:
// with Enabled false the service neither publishes analytics nor listens
// for corpus updates.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CorpusUpdates   string `yaml:"corpusUpdates"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// Corpus sources understood by the loader factory.
const (
	CorpusSourceFile     = "file"
	CorpusSourcePostgres = "postgres"
)

// CorpusConfig selects where the corpus snapshot is read from.
type CorpusConfig struct {
	Source      string        `yaml:"source"`
	Path        string        `yaml:"path"`
	LoadTimeout time.Duration `yaml:"loadTimeout"`
	LoadRetries int           `yaml:"loadRetries"`
}

// RankingConfig weights the relevance signals. TitleWeight must exceed
// BodyWeight.
type RankingConfig struct {
	TitleWeight    float64 `yaml:"titleWeight"`
	BodyWeight     float64 `yaml:"bodyWeight"`
	CoverageWeight float64 `yaml:"coverageWeight"`
}

// SearchConfig controls tokenisation, ranking, snippets and result limits.
type SearchConfig struct {
	DefaultLimit        int           `yaml:"defaultLimit"`
	MaxResults          int           `yaml:"maxResults"`
	MinTokenLength      int           `yaml:"minTokenLength"`
	SnippetWindow       int           `yaml:"snippetWindow"`
	CandidateMultiplier int           `yaml:"candidateMultiplier"`
	MinCandidates       int           `yaml:"minCandidates"`
	LocalCacheSize      int           `yaml:"localCacheSize"`
	Ranking             RankingConfig `yaml:"ranking"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       600,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "lexsearch",
			User:            "lexsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "lexsearch-searcher",
			Topics: KafkaTopics{
				CorpusUpdates:   "corpus-updates",
				AnalyticsEvents: "search-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Corpus: CorpusConfig{
			Source:      CorpusSourceFile,
			Path:        "data/corpus.yaml",
			LoadTimeout: 30 * time.Second,
			LoadRetries: 3,
		},
		Search: DefaultSearchConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// DefaultSearchConfig returns the search tuning used when nothing else is
// configured: 5:1 title-to-body weighting and a 200 character snippet.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultLimit:        100,
		MaxResults:          500,
		MinTokenLength:      2,
		SnippetWindow:       200,
		CandidateMultiplier: 50,
		MinCandidates:       1000,
		LocalCacheSize:      1024,
		Ranking: RankingConfig{
			TitleWeight:    5,
			BodyWeight:     1,
			CoverageWeight: 5,
		},
	}
}

// Validate reports configuration values the engine cannot work with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Corpus.Source {
	case CorpusSourceFile:
		if c.Corpus.Path == "" {
			errs = append(errs, errors.New("corpus.path is required for file source"))
		}
	case CorpusSourcePostgres:
	default:
		errs = append(errs, fmt.Errorf("corpus.source %q is not one of file, postgres", c.Corpus.Source))
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the search tuning values.
func (s SearchConfig) Validate() error {
	var errs []error
	r := s.Ranking
	if r.TitleWeight <= 0 || r.BodyWeight <= 0 || r.CoverageWeight < 0 {
		errs = append(errs, errors.New("search.ranking weights must be positive"))
	}
	if r.TitleWeight <= r.BodyWeight {
		errs = append(errs, fmt.Errorf("search.ranking.titleWeight (%v) must exceed bodyWeight (%v)", r.TitleWeight, r.BodyWeight))
	}
	if s.DefaultLimit <= 0 {
		errs = append(errs, errors.New("search.defaultLimit must be positive"))
	}
	if s.MaxResults < s.DefaultLimit {
		errs = append(errs, errors.New("search.maxResults must be at least search.defaultLimit"))
	}
	if s.MinTokenLength < 1 {
		errs = append(errs, errors.New("search.minTokenLength must be at least 1"))
	}
	if s.SnippetWindow <= 0 {
		errs = append(errs, errors.New("search.snippetWindow must be positive"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides reads LS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LS_SERVER_RATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = limit
		}
	}
	if v := os.Getenv("LS_SERVER_TRUST_PROXY"); v != "" {
		if trust, err := strconv.ParseBool(v); err == nil {
			cfg.Server.TrustProxy = trust
		}
	}
	if v := os.Getenv("LS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("LS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("LS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("LS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("LS_KAFKA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = enabled
		}
	}
	if v := os.Getenv("LS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LS_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("LS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LS_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("LS_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("LS_SEARCH_SNIPPET_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.SnippetWindow = n
		}
	}
	if v := os.Getenv("LS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
