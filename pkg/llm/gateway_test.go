package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturingProvider records what the gateway actually transmits.
type capturingProvider struct {
	seen  []Message
	reply string
	err   error
}

func (p *capturingProvider) Name() string { return "capturing" }

func (p *capturingProvider) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	p.seen = messages
	return p.reply, p.err
}

func TestGatewayMasksBeforeTransmission(t *testing.T) {
	provider := &capturingProvider{reply: "done"}
	gw := NewGateway(provider, "test-model", time.Second, zap.NewNop())

	messages := []Message{
		System("policy text"),
		User("my account 123456789012 shows nothing"),
	}
	text, err := gw.Generate(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, "done", text)

	require.Len(t, provider.seen, 2)
	assert.NotContains(t, provider.seen[1].Content, "123456789012")
	assert.Contains(t, provider.seen[1].Content, "XXXXXX789012")
	// Originals are untouched; the gateway masks a copy.
	assert.Contains(t, messages[1].Content, "123456789012")
}

func TestGatewayProviderFailureReturnsFallback(t *testing.T) {
	provider := &capturingProvider{err: errors.New("quota exceeded: key sk-abc")}
	gw := NewGateway(provider, "test-model", time.Second, zap.NewNop())

	text, err := gw.Generate(context.Background(), []Message{User("hello")})
	require.Error(t, err)
	// The caller gets the safe fallback, never provider detail.
	assert.Equal(t, Fallback, text)
	assert.NotContains(t, text, "quota")
}

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	select {
	case <-time.After(5 * time.Second):
		return "too late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestGatewayTimeoutConvertsToFallback(t *testing.T) {
	gw := NewGateway(slowProvider{}, "test-model", 20*time.Millisecond, zap.NewNop())
	text, err := gw.Generate(context.Background(), []Message{User("hello")})
	require.Error(t, err)
	assert.Equal(t, Fallback, text)
}

func TestNewProviderSelection(t *testing.T) {
	for name, want := range map[string]string{
		"openai": "openai",
		"gemini": "gemini",
		"ollama": "ollama",
	} {
		p, err := NewProvider(name, ProviderConfig{BaseURL: "http://localhost:1"})
		require.NoError(t, err)
		assert.Equal(t, want, p.Name())
	}

	_, err := NewProvider("mystery", ProviderConfig{})
	assert.Error(t, err)
}
