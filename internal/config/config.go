package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Store       StoreConfig
	Embedding   EmbeddingConfig
	Recognition RecognitionConfig
	Ingest      IngestConfig
	Database    DatabaseConfig
	Web         WebConfig
	LogLevel    string
}

type StoreConfig struct {
	Path string // gob artifact used when DATABASE_URL is empty
}

type EmbeddingConfig struct {
	URL string // face embedding server
	Dim int    // 0 = fixed by the first stored embedding
}

type RecognitionConfig struct {
	Tolerance       float64       // max Euclidean distance for a match, in (0, 1]
	RefreshInterval time.Duration // snapshot reload interval
	FrameScale      float64       // downscale factor applied to frames before extraction
	HNSWMinEntries  int           // snapshots at least this large use the HNSW matcher
}

type IngestConfig struct {
	Concurrency int
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty selects the file store
	MaxOpenConns int
	MaxIdleConns int
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins besides localhost
}

type defaults struct {
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Embedding struct {
		URL string `yaml:"url"`
		Dim int    `yaml:"dim"`
	} `yaml:"embedding"`
	Recognition struct {
		Tolerance       float64 `yaml:"tolerance"`
		RefreshInterval string  `yaml:"refresh_interval"`
		FrameScale      float64 `yaml:"frame_scale"`
		HNSWMinEntries  int     `yaml:"hnsw_min_entries"`
	} `yaml:"recognition"`
	Ingest struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"ingest"`
	Database struct {
		MaxOpenConns int `yaml:"max_open_conns"`
		MaxIdleConns int `yaml:"max_idle_conns"`
	} `yaml:"database"`
	Web struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"web"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// envString returns the environment variable or the default when unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFraction reads a float in (0, 1], falling back to the default otherwise.
func envFraction(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envDuration reads a positive Go duration ("30s", "1m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load builds the configuration from the embedded defaults overridden by
// environment variables. Invalid values fall back to the defaults.
func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	refresh, err := time.ParseDuration(d.Recognition.RefreshInterval)
	if err != nil {
		panic("invalid refresh_interval in embedded defaults.yaml: " + err.Error())
	}

	hnswMin := d.Recognition.HNSWMinEntries
	if s := os.Getenv("MATCHER_HNSW_MIN"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			hnswMin = n
		}
	}

	return &Config{
		Store: StoreConfig{
			Path: envString("STORE_PATH", d.Store.Path),
		},
		Embedding: EmbeddingConfig{
			URL: envString("EMBEDDING_URL", d.Embedding.URL),
			Dim: envInt("EMBEDDING_DIM", d.Embedding.Dim),
		},
		Recognition: RecognitionConfig{
			Tolerance:       envFraction("MATCH_TOLERANCE", d.Recognition.Tolerance),
			RefreshInterval: envDuration("REFRESH_INTERVAL", refresh),
			FrameScale:      envFraction("FRAME_SCALE", d.Recognition.FrameScale),
			HNSWMinEntries:  hnswMin,
		},
		Ingest: IngestConfig{
			Concurrency: envInt("INGEST_CONCURRENCY", d.Ingest.Concurrency),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		LogLevel: envString("LOG_LEVEL", d.Log.Level),
	}
}
