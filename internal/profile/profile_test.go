package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", p.LLMModel)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
	assert.Equal(t, 600, p.LLMMaxTokens)
	assert.InDelta(t, 0.2, p.LLMTemperature, 1e-9)
	assert.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
	assert.Equal(t, 1536, p.EmbeddingDimensions)
	assert.Equal(t, "memory", p.CacheDriver)
	assert.InDelta(t, 0.92, p.CacheSimilarity, 1e-9)
	assert.Equal(t, 86400, p.CacheTTL)
	assert.Equal(t, 5, p.RetrievalTimeout)
	assert.Equal(t, 5, p.VectorTopK)
	assert.Equal(t, 30, p.GraphMaxFacts)
	assert.Equal(t, 2000, p.ContextMaxChars)
	assert.False(t, p.IsAIEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WAYFARER_LLM_PROVIDER", "deepseek")
	t.Setenv("WAYFARER_LLM_API_KEY", "sk-test")
	t.Setenv("WAYFARER_CACHE_SIMILARITY", "0.95")
	t.Setenv("WAYFARER_CACHE_DRIVER", "redis")
	t.Setenv("WAYFARER_REDIS_ADDR", "redis:6379")
	t.Setenv("WAYFARER_VECTOR_TOP_K", "8")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", p.LLMBaseURL)
	assert.Equal(t, "deepseek-chat", p.LLMModel)
	assert.True(t, p.IsAIEnabled())
	assert.InDelta(t, 0.95, p.CacheSimilarity, 1e-9)
	assert.Equal(t, "redis", p.CacheDriver)
	assert.Equal(t, "redis:6379", p.RedisAddr)
	assert.Equal(t, 8, p.VectorTopK)
}

func TestFromEnvUnknownProviderFallsBack(t *testing.T) {
	t.Setenv("WAYFARER_LLM_PROVIDER", "not-a-provider")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
}

func TestEmbeddingKeyFallsBackToLLMKey(t *testing.T) {
	t.Setenv("WAYFARER_LLM_API_KEY", "sk-shared")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "sk-shared", p.EmbeddingAPIKey)
}

func validProfile(t *testing.T) *Profile {
	t.Helper()
	p := &Profile{}
	p.FromEnv()
	p.Mode = "dev"
	p.Driver = "sqlite"
	p.Data = t.TempDir()
	return p
}

func TestValidate(t *testing.T) {
	t.Run("sqlite gets a default DSN", func(t *testing.T) {
		p := validProfile(t)
		require.NoError(t, p.Validate())
		assert.True(t, strings.HasSuffix(p.DSN, "wayfarer_dev.db"))
	})

	t.Run("postgres requires a DSN", func(t *testing.T) {
		p := validProfile(t)
		p.Driver = "postgres"
		p.DSN = ""
		assert.Error(t, p.Validate())
	})

	t.Run("unknown driver rejected", func(t *testing.T) {
		p := validProfile(t)
		p.Driver = "mysql"
		assert.Error(t, p.Validate())
	})

	t.Run("unknown cache driver rejected", func(t *testing.T) {
		p := validProfile(t)
		p.CacheDriver = "memcached"
		assert.Error(t, p.Validate())
	})

	t.Run("similarity threshold must be in (0, 1]", func(t *testing.T) {
		p := validProfile(t)
		p.CacheSimilarity = 1.2
		assert.Error(t, p.Validate())

		p = validProfile(t)
		p.CacheSimilarity = 0
		assert.Error(t, p.Validate())
	})

	t.Run("redis cache driver requires an address", func(t *testing.T) {
		p := validProfile(t)
		p.CacheDriver = "redis"
		p.RedisAddr = ""
		assert.Error(t, p.Validate())
	})

	t.Run("unknown mode falls back to dev", func(t *testing.T) {
		p := validProfile(t)
		p.Mode = "staging"
		require.NoError(t, p.Validate())
		assert.Equal(t, "dev", p.Mode)
	})
}
