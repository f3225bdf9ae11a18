// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted by LLM_PROVIDER and EMBED_PROVIDER.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Record store backends.
const (
	BackendFile      = "file"
	BackendSurrealDB = "surrealdb"
)

// Config holds all configuration values.
type Config struct {
	// Record store
	RecordBackend string
	DataDir       string
	ResourcesFile string
	QuestionsFile string
	ProjectsFile  string

	// SurrealDB connection (RecordBackend=surrealdb)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Index lifecycle
	IndexDir        string
	LedgerFile      string
	UpdateInterval  time.Duration
	RefreshInterval time.Duration
	ChunkSize       int
	ChunkOverlap    int
	EmbedBatchSize  int

	// Completion oracle
	LLMProvider     string
	LLMModel        string
	LLMTemperature  float64
	LLMMaxTokens    int
	LLMRequestsPerM int

	// Embedding oracle
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int

	// Provider credentials
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Generation
	GenerationAttempts int
	RankingMethod      string

	// Transport
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	dataDir := getEnv("ADAPTED_DATA_DIR", "data")
	indexDir := getEnv("ADAPTED_INDEX_DIR", filepath.Join(dataDir, "indexes"))

	return Config{
		RecordBackend: strings.ToLower(getEnv("ADAPTED_RECORD_BACKEND", BackendFile)),
		DataDir:       dataDir,
		ResourcesFile: getEnv("ADAPTED_RESOURCES_FILE", filepath.Join(dataDir, "resources.json")),
		QuestionsFile: getEnv("ADAPTED_QUESTIONS_FILE", filepath.Join(dataDir, "questions.json")),
		ProjectsFile:  getEnv("ADAPTED_PROJECTS_FILE", filepath.Join(dataDir, "projects.json")),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "adapted"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "inspiron25"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		IndexDir:        indexDir,
		LedgerFile:      getEnv("ADAPTED_LEDGER_FILE", filepath.Join(indexDir, "last_update.json")),
		UpdateInterval:  getDuration("ADAPTED_UPDATE_INTERVAL", 7*24*time.Hour),
		RefreshInterval: getDuration("ADAPTED_REFRESH_INTERVAL", 24*time.Hour),
		ChunkSize:       getInt("ADAPTED_CHUNK_SIZE", 1000),
		ChunkOverlap:    getInt("ADAPTED_CHUNK_OVERLAP", 100),
		EmbedBatchSize:  getInt("ADAPTED_EMBED_BATCH_SIZE", 64),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
		LLMModel:        getEnv("LLM_MODEL", "llama3"),
		LLMTemperature:  getFloat("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:    getInt("LLM_MAX_TOKENS", 4000),
		LLMRequestsPerM: getInt("ADAPTED_LLM_RPM", 25),

		EmbedProvider:  strings.ToLower(getEnv("EMBED_PROVIDER", ProviderOllama)),
		EmbedModel:     getEnv("EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getInt("EMBED_DIMENSION", 384),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		GenerationAttempts: getInt("ADAPTED_GENERATION_ATTEMPTS", 1),
		RankingMethod:      getEnv("ADAPTED_RANKING_METHOD", "model-scored"),

		ServerPort: getEnv("ADAPTED_SERVER_PORT", "8000"),

		LogFile:  getEnv("ADAPTED_LOG_FILE", "/tmp/adapted.log"),
		LogLevel: parseLogLevel(getEnv("ADAPTED_LOG_LEVEL", "INFO")),
	}
}

// Validate rejects settings that would make the pipeline misbehave.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be positive, got %s", c.UpdateInterval)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDimension)
	}
	if c.GenerationAttempts < 1 {
		return fmt.Errorf("generation attempts must be at least 1, got %d", c.GenerationAttempts)
	}
	switch c.RecordBackend {
	case BackendFile, BackendSurrealDB:
	default:
		return fmt.Errorf("unsupported record backend: %s", c.RecordBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getFloat(key string, defaultVal float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return f
}

// getDuration accepts Go durations ("36h") and whole days ("7d").
func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
