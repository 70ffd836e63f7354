package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Answer service configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, openrouter, ollama) use the same config.
	LLMProvider    string  // Provider identifier: openai, deepseek, openrouter, ollama
	LLMAPIKey      string  // LLM API key
	LLMBaseURL     string  // LLM base URL (optional, has default per provider)
	LLMModel       string  // Model name: gpt-4o-mini, deepseek-chat, etc.
	LLMMaxTokens   int     // Completion token limit (default: 600)
	LLMTemperature float64 // Sampling temperature (default: 0.2)
	LLMTimeout     int     // LLM request timeout in seconds (default: 30)
	LLMRPM         int     // Outbound request budget per minute (default: 60)

	// Embedding configuration. API key and base URL fall back to the LLM values.
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Semantic cache configuration.
	CacheDriver     string  // memory | redis | db
	CacheSimilarity float64 // similarity threshold for a cache hit, in (0, 1]
	CacheTTL        int     // entry lifetime in seconds (default: 86400)
	CacheMaxEntries int     // memory backend capacity
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Retrieval configuration.
	RetrievalTimeout int // per-branch timeout in seconds
	VectorTopK       int
	GraphMaxFacts    int
	GraphMaxHops     int

	// Context merge configuration.
	ContextMaxChars           int
	ContextMaxVectorFragments int
	ContextMaxGraphFacts      int

	// Telegram bot surface; disabled when the token is empty.
	TelegramBotToken string

	// Server configuration.
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for the answer service.
// Used when LLM_BASE_URL or LLM_MODEL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o-mini",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured. Ollama runs
// locally and needs no key.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Answer service configuration
	p.LLMProvider = getEnvOrDefault("WAYFARER_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("WAYFARER_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("WAYFARER_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("WAYFARER_LLM_MODEL", "")
	p.LLMMaxTokens = getEnvOrDefaultInt("WAYFARER_LLM_MAX_TOKENS", 600)
	p.LLMTemperature = getEnvOrDefaultFloat("WAYFARER_LLM_TEMPERATURE", 0.2)
	p.LLMTimeout = getEnvOrDefaultInt("WAYFARER_LLM_TIMEOUT_SECONDS", 30)
	p.LLMRPM = getEnvOrDefaultInt("WAYFARER_LLM_RPM", 60)

	// Apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Embedding configuration
	p.EmbeddingModel = getEnvOrDefault("WAYFARER_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("WAYFARER_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("WAYFARER_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("WAYFARER_EMBEDDING_DIMENSIONS", 1536)

	// Semantic cache configuration
	p.CacheDriver = getEnvOrDefault("WAYFARER_CACHE_DRIVER", "memory")
	p.CacheSimilarity = getEnvOrDefaultFloat("WAYFARER_CACHE_SIMILARITY", 0.92)
	p.CacheTTL = getEnvOrDefaultInt("WAYFARER_CACHE_TTL_SECONDS", 86400)
	p.CacheMaxEntries = getEnvOrDefaultInt("WAYFARER_CACHE_MAX_ENTRIES", 1000)
	p.RedisAddr = getEnvOrDefault("WAYFARER_REDIS_ADDR", "localhost:6379")
	p.RedisPassword = getEnvOrDefault("WAYFARER_REDIS_PASSWORD", "")
	p.RedisDB = getEnvOrDefaultInt("WAYFARER_REDIS_DB", 0)

	// Retrieval configuration
	p.RetrievalTimeout = getEnvOrDefaultInt("WAYFARER_RETRIEVAL_TIMEOUT_SECONDS", 5)
	p.VectorTopK = getEnvOrDefaultInt("WAYFARER_VECTOR_TOP_K", 5)
	p.GraphMaxFacts = getEnvOrDefaultInt("WAYFARER_GRAPH_MAX_FACTS", 30)
	p.GraphMaxHops = getEnvOrDefaultInt("WAYFARER_GRAPH_MAX_HOPS", 2)

	// Context merge configuration
	p.ContextMaxChars = getEnvOrDefaultInt("WAYFARER_CONTEXT_MAX_CHARS", 2000)
	p.ContextMaxVectorFragments = getEnvOrDefaultInt("WAYFARER_CONTEXT_MAX_VECTOR_FRAGMENTS", 5)
	p.ContextMaxGraphFacts = getEnvOrDefaultInt("WAYFARER_CONTEXT_MAX_GRAPH_FACTS", 20)

	// Telegram bot surface
	p.TelegramBotToken = getEnvOrDefault("WAYFARER_TELEGRAM_BOT_TOKEN", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "wayfarer")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/wayfarer"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported store driver %q, expected sqlite or postgres", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("wayfarer_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	switch p.CacheDriver {
	case "memory", "db":
	case "redis":
		if p.RedisAddr == "" {
			return errors.New("redis cache driver requires WAYFARER_REDIS_ADDR")
		}
	default:
		return errors.Errorf("unsupported cache driver %q, expected memory, redis or db", p.CacheDriver)
	}

	if p.CacheSimilarity <= 0 || p.CacheSimilarity > 1 {
		return errors.Errorf("cache similarity threshold %.3f out of range (0, 1]", p.CacheSimilarity)
	}
	if p.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	if p.RetrievalTimeout <= 0 {
		return errors.New("retrieval timeout must be positive")
	}
	if p.VectorTopK <= 0 || p.GraphMaxFacts <= 0 {
		return errors.New("retrieval result limits must be positive")
	}
	if p.GraphMaxHops < 1 || p.GraphMaxHops > 2 {
		return errors.Errorf("graph max hops %d out of range [1, 2]", p.GraphMaxHops)
	}
	if p.ContextMaxChars <= 0 || p.ContextMaxVectorFragments <= 0 || p.ContextMaxGraphFacts <= 0 {
		return errors.New("context merge limits must be positive")
	}

	return nil
}
