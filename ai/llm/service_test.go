package llm

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc, err := NewService(&Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"})
	require.NoError(t, err)

	s, ok := svc.(*service)
	require.True(t, ok)
	assert.Equal(t, 600, s.maxTokens)
	assert.Equal(t, 30, s.timeout)
	assert.Nil(t, s.limiter, "limiter must be off when RPM is zero")
}

func TestNewServiceKnownProviders(t *testing.T) {
	for _, provider := range []string{"openai", "deepseek", "openrouter", "ollama"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewService(&Config{Provider: provider, Model: "m", APIKey: "k"})
			require.NoError(t, err)
			require.NotNil(t, svc)
		})
	}
}

func TestNewServiceUnknownProviderFallsBack(t *testing.T) {
	svc, err := NewService(&Config{
		Provider: "groq",
		Model:    "m",
		APIKey:   "k",
		BaseURL:  "https://api.groq.com/openai/v1",
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestNewServiceRateLimiter(t *testing.T) {
	svc, err := NewService(&Config{Provider: "openai", Model: "m", APIKey: "k", RPM: 60})
	require.NoError(t, err)

	s := svc.(*service)
	require.NotNil(t, s.limiter)
	// The first request is covered by burst and must not block.
	assert.NoError(t, s.wait(context.Background()))
}

func TestWaitWithoutLimiter(t *testing.T) {
	s := &service{}
	assert.NoError(t, s.wait(context.Background()))
}

func TestConvertMessages(t *testing.T) {
	got := convertMessages([]Message{
		SystemPrompt("be brief"),
		UserMessage("hello"),
		AssistantMessage("hi"),
		{Role: "tool", Content: "ignored role"},
	})

	require.Len(t, got, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, got[0].Role)
	assert.Equal(t, "be brief", got[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, got[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got[3].Role, "unknown roles default to user")
}
