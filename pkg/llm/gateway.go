package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fingate/bankassist/pkg/pii"
)

// Fallback is returned to the caller whenever the provider fails. Provider
// error detail is logged and never surfaced.
const Fallback = "I'm sorry, I'm currently facing some technical difficulties. Please try again in a little while."

// Gateway is the single exit point to the model provider. It masks every
// outbound message component immediately before transmission, independent of
// earlier gates, so a bug upstream cannot leak raw identifiers to the model.
type Gateway struct {
	provider Provider
	model    string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGateway wires a provider, the deployment-selected model and the bounded
// per-call timeout.
func NewGateway(provider Provider, model string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{provider: provider, model: model, timeout: timeout, logger: logger}
}

// Generate sends the composed prompt and returns the raw model text. On
// provider failure it returns the user-safe Fallback alongside the error so
// callers can mark the response degraded without ever exposing the cause.
func (g *Gateway) Generate(ctx context.Context, messages []Message) (string, error) {
	masked := make([]Message, len(messages))
	for i, m := range messages {
		masked[i] = Message{Role: m.Role, Content: pii.Mask(m.Content)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.provider.Complete(ctx, g.model, masked)
	if err != nil {
		g.logger.Error("provider call failed",
			zap.String("provider", g.provider.Name()),
			zap.String("model", g.model),
			zap.Error(err),
		)
		return Fallback, err
	}

	g.logger.Debug("completion received",
		zap.String("provider", g.provider.Name()),
		zap.String("model", g.model),
		zap.Duration("duration", time.Since(start)),
	)
	return text, nil
}
