package config

import (
	"time"

	"streamflix/pkg/env"
	"streamflix/pkg/logger"
)

// QualityRule maps a quality tier label to the text patterns that select it
// and the numeric rank used for sorting (lower rank sorts first). Rules are
// evaluated in order; the first matching pattern wins.
type QualityRule struct {
	Tier     string   `json:"tier"`
	Patterns []string `json:"patterns"`
	Rank     int      `json:"rank"`
}

// Config holds application configuration. It is built from defaults plus
// environment overrides at startup and never written back to disk.
type Config struct {
	// Catalog API (TMDB-compatible)
	CatalogBaseURL string
	CatalogAPIKey  string

	// Stream aggregator (StremThru/Torrentio-compatible addon base URL,
	// without /manifest.json)
	StreamBaseURL string
	StreamToken   string

	// Subtitle search service
	SubsBaseURL string

	// Server settings
	Port     int
	BaseURL  string
	LogLevel string

	// Catalog response cache TTL
	CacheTTLSeconds int

	// Search debounce window
	SearchDebounceMS int

	// Selection pipeline
	MaxCandidates int
	Denylist      []string
	QualityPolicy []QualityRule

	// Category fan-out batch size for non-priority rows
	CategoryBatchSize int

	// Per-request timeout on all outbound calls
	RequestTimeoutSeconds int

	// Subtitle lookup language
	SubtitleLanguage string
}

// DefaultQualityPolicy returns the tier precedence table. The ordering
// (4K ranked after 480p) matches the shipped selection behavior; it is a
// policy table rather than hard-coded precedence so it can be corrected
// without touching the selector.
func DefaultQualityPolicy() []QualityRule {
	return []QualityRule{
		{Tier: "1080p", Patterns: []string{"1080p"}, Rank: 1},
		{Tier: "720p", Patterns: []string{"720p"}, Rank: 2},
		{Tier: "480p", Patterns: []string{"480p"}, Rank: 3},
		{Tier: "4K", Patterns: []string{"2160p", "4k", "uhd"}, Rank: 4},
	}
}

// Load builds the configuration from defaults and environment overrides.
// Environment variables are read once at startup and not re-read afterwards.
func Load() (*Config, error) {
	cfg := &Config{
		CatalogBaseURL:        "https://api.themoviedb.org/3",
		SubsBaseURL:           "https://sub.wyzie.ru",
		Port:                  7000,
		BaseURL:               "http://localhost:7000",
		LogLevel:              "INFO",
		CacheTTLSeconds:       300,
		SearchDebounceMS:      220,
		MaxCandidates:         40,
		Denylist:              []string{"[RD download]"},
		QualityPolicy:         DefaultQualityPolicy(),
		CategoryBatchSize:     3,
		RequestTimeoutSeconds: 30,
		SubtitleLanguage:      "en",
	}

	o := env.ReadConfigOverrides()
	if o.CatalogBaseURL != "" {
		cfg.CatalogBaseURL = o.CatalogBaseURL
	}
	if o.CatalogAPIKey != "" {
		cfg.CatalogAPIKey = o.CatalogAPIKey
	}
	if o.StreamBaseURL != "" {
		cfg.StreamBaseURL = o.StreamBaseURL
	}
	if o.StreamToken != "" {
		cfg.StreamToken = o.StreamToken
	}
	if o.SubsBaseURL != "" {
		cfg.SubsBaseURL = o.SubsBaseURL
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.CacheTTLSeconds != 0 {
		cfg.CacheTTLSeconds = o.CacheTTLSeconds
	}
	if o.SearchDebounceMS != 0 {
		cfg.SearchDebounceMS = o.SearchDebounceMS
	}
	if o.MaxCandidates != 0 {
		cfg.MaxCandidates = o.MaxCandidates
	}
	if o.CategoryBatchSize != 0 {
		cfg.CategoryBatchSize = o.CategoryBatchSize
	}
	if o.RequestTimeoutSeconds != 0 {
		cfg.RequestTimeoutSeconds = o.RequestTimeoutSeconds
	}
	if o.SubtitleLanguage != "" {
		cfg.SubtitleLanguage = o.SubtitleLanguage
	}

	if cfg.CatalogAPIKey == "" {
		logger.Warn("No catalog API key configured. Set TMDB_API_KEY")
	}
	if cfg.StreamBaseURL == "" {
		logger.Warn("No stream aggregator configured. Set STREAM_BASE_URL")
	}

	return cfg, nil
}

// CacheTTL returns the catalog cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SearchDebounce returns the search debounce window as a duration.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// RequestTimeout returns the outbound request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
