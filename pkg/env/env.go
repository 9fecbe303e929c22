// Package env consolidates all environment variable reading for the
// application. Overrides are applied only at startup (see config.Load).
package env

import (
	"os"
	"strconv"
)

// Environment variable names (single source of truth)
const (
	CatalogBaseURL        = "CATALOG_BASE_URL"
	CatalogAPIKey         = "TMDB_API_KEY"
	StreamBaseURL         = "STREAM_BASE_URL"
	StreamToken           = "STREAM_TOKEN"
	SubsBaseURL           = "SUBS_BASE_URL"
	Port                  = "PORT"
	BaseURL               = "BASE_URL"
	LOGLevel              = "LOG_LEVEL"
	CacheTTLSeconds       = "CACHE_TTL_SECONDS"
	SearchDebounceMS      = "SEARCH_DEBOUNCE_MS"
	MaxCandidates         = "MAX_CANDIDATES"
	CategoryBatchSize     = "CATEGORY_BATCH_SIZE"
	RequestTimeoutSeconds = "REQUEST_TIMEOUT_SECONDS"
	SubtitleLanguage      = "SUBTITLE_LANGUAGE"
)

// LogLevel returns LOG_LEVEL with default "INFO" (for early logger init
// before config is loaded).
func LogLevel() string {
	if v := os.Getenv(LOGLevel); v != "" {
		return v
	}
	return "INFO"
}

// ConfigOverrides holds all config values that can be set via environment
// variables. Used at startup by config.Load.
type ConfigOverrides struct {
	CatalogBaseURL        string
	CatalogAPIKey         string
	StreamBaseURL         string
	StreamToken           string
	SubsBaseURL           string
	Port                  int
	BaseURL               string
	LogLevel              string
	CacheTTLSeconds       int
	SearchDebounceMS      int
	MaxCandidates         int
	CategoryBatchSize     int
	RequestTimeoutSeconds int
	SubtitleLanguage      string
}

// ReadConfigOverrides reads all relevant environment variables once.
// Zero values mean "not set"; config.Load keeps its defaults for those.
func ReadConfigOverrides() ConfigOverrides {
	return ConfigOverrides{
		CatalogBaseURL:        os.Getenv(CatalogBaseURL),
		CatalogAPIKey:         os.Getenv(CatalogAPIKey),
		StreamBaseURL:         os.Getenv(StreamBaseURL),
		StreamToken:           os.Getenv(StreamToken),
		SubsBaseURL:           os.Getenv(SubsBaseURL),
		Port:                  getEnvInt(Port, 0),
		BaseURL:               os.Getenv(BaseURL),
		LogLevel:              os.Getenv(LOGLevel),
		CacheTTLSeconds:       getEnvInt(CacheTTLSeconds, 0),
		SearchDebounceMS:      getEnvInt(SearchDebounceMS, 0),
		MaxCandidates:         getEnvInt(MaxCandidates, 0),
		CategoryBatchSize:     getEnvInt(CategoryBatchSize, 0),
		RequestTimeoutSeconds: getEnvInt(RequestTimeoutSeconds, 0),
		SubtitleLanguage:      os.Getenv(SubtitleLanguage),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
