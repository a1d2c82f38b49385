package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider identifies an embedding provider.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// providerDefaults maps each recognized provider to its default model and
// endpoint base. All three speak the OpenAI-compatible embeddings API.
var providerDefaults = map[Provider]struct {
	Model   string
	BaseURL string
}{
	ProviderOpenAI: {"text-embedding-3-small", "https://api.openai.com/v1"},
	ProviderGemini: {"gemini-embedding-001", "https://generativelanguage.googleapis.com/v1beta/openai"},
	ProviderOllama: {"nomic-embed-text", "http://localhost:11434/v1"},
}

// NeedsCredential reports whether the provider requires an API key.
// Ollama runs locally and is usable without one.
func (p Provider) NeedsCredential() bool {
	return p != ProviderOllama
}

// Numeric tuning bounds. Values outside the range are clamped, absent or
// non-numeric values fall back to the default.
const (
	DefaultChunkSize    = 1600
	MinChunkSize        = 200
	MaxChunkSize        = 8000
	DefaultChunkOverlap = 200
	MinChunkOverlap     = 0
	MaxChunkOverlap     = 2000
	DefaultPreviewLen   = 240
	MinPreviewLen       = 40
	MaxPreviewLen       = 1000
	DefaultBatchSize    = 16
	MinBatchSize        = 1
	MaxBatchSize        = 128
	DefaultMaxChunks    = 100
	MinMaxChunks        = 1
	MaxMaxChunks        = 500
)

// Config holds the resolved runtime configuration. It is built once at
// startup and passed to each component; nothing mutates it afterwards.
type Config struct {
	Enabled  bool
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string

	ChunkSize        int
	ChunkOverlap     int
	PreviewLen       int
	BatchSize        int
	MaxChunksPerNote int

	DBPath        string
	NotesDir      string
	RefCacheDir   string
	APIPort       string
	HostBridgeURL string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the current directory is loaded first if present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	provider := Provider(strings.ToLower(getEnv("NOTEVEC_PROVIDER", string(ProviderOllama))))
	defaults, ok := providerDefaults[provider]
	if !ok {
		return nil, fmt.Errorf("unrecognized embedding provider %q (expected openai, gemini, or ollama)", provider)
	}

	cfg := &Config{
		Enabled:  getEnvBool("NOTEVEC_ENABLED", true),
		Provider: provider,
		APIKey:   getEnv("NOTEVEC_API_KEY", ""),
		Model:    getEnv("NOTEVEC_MODEL", defaults.Model),
		BaseURL:  strings.TrimRight(getEnv("NOTEVEC_BASE_URL", defaults.BaseURL), "/"),

		ChunkSize:        getEnvClamped("NOTEVEC_CHUNK_SIZE", DefaultChunkSize, MinChunkSize, MaxChunkSize),
		ChunkOverlap:     getEnvClamped("NOTEVEC_CHUNK_OVERLAP", DefaultChunkOverlap, MinChunkOverlap, MaxChunkOverlap),
		PreviewLen:       getEnvClamped("NOTEVEC_PREVIEW_LEN", DefaultPreviewLen, MinPreviewLen, MaxPreviewLen),
		BatchSize:        getEnvClamped("NOTEVEC_BATCH_SIZE", DefaultBatchSize, MinBatchSize, MaxBatchSize),
		MaxChunksPerNote: getEnvClamped("NOTEVEC_MAX_CHUNKS", DefaultMaxChunks, MinMaxChunks, MaxMaxChunks),

		DBPath:        getEnv("NOTEVEC_DB_PATH", defaultDBPath()),
		NotesDir:      getEnv("NOTEVEC_NOTES_DIR", ""),
		RefCacheDir:   getEnv("NOTEVEC_REF_CACHE_DIR", defaultCacheDir()),
		APIPort:       getEnv("NOTEVEC_API_PORT", "9200"),
		HostBridgeURL: getEnv("NOTEVEC_HOST_BRIDGE_URL", ""),

		LogFormat: getEnv("NOTEVEC_LOG_FORMAT", "text"),
	}

	switch strings.ToLower(getEnv("NOTEVEC_LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Configured reports whether indexing and semantic search may run. It is
// false when the feature is disabled or a credentialed provider has no key;
// entry points return a structured "not configured" result in that case
// instead of failing.
func (c *Config) Configured() bool {
	if !c.Enabled {
		return false
	}
	if c.Provider.NeedsCredential() && c.APIKey == "" {
		return false
	}
	return true
}

// defaultDBPath places the live index under the per-user config directory.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/notevec.db"
	}
	return filepath.Join(dir, "notevec", "notevec.db")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./data/cache"
	}
	return filepath.Join(dir, "notevec")
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvClamped parses an integer environment variable, falling back to the
// default when absent or non-numeric, and clamping the result to [min, max].
func getEnvClamped(key string, defaultValue, min, max int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}
