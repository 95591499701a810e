// Package llm adapts the orchestration loop's model calls onto the hosted
// Gemini service, with a deterministic offline stand-in when no credential
// is configured.
package llm

import (
	"context"

	"github.com/cloudwego/eino/schema"

	logx "github.com/terrain-assistant/server/pkg/logger"
)

// Config holds model settings sourced from the environment. An absent API
// key is not an error; it selects the fake client.
type Config struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"GENAI_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"MODEL_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"MODEL_TEMPERATURE" default:"0.4"`
	// CallTimeout bounds each outbound model call, in seconds.
	CallTimeout int `envconfig:"MODEL_TIMEOUT_SECONDS" default:"30"`
}

// LiveEnabled reports whether a model credential is present.
func (c *Config) LiveEnabled() bool {
	return c.APIKey != ""
}

// Client is the model capability the orchestration loop depends on. The mode
// (live or fake) is chosen once at construction and never changes mid-process.
type Client interface {
	// Decide runs the first model call: given the system prompt and the chat
	// messages, the model either answers directly or requests a tool.
	Decide(ctx context.Context, system string, msgs []*schema.Message) (*schema.Message, error)

	// Summarize runs the second model call: phrase a tool's structured result
	// as a natural-language answer.
	Summarize(ctx context.Context, system string, toolResultJSON string) (string, error)
}

// New selects the client variant from the presence of the credential.
func New(ctx context.Context, cfg Config, decls []*schema.ToolInfo) (Client, error) {
	if !cfg.LiveEnabled() {
		logx.Info().Msg("No model credential configured; using offline fake client")
		return NewFake(decls), nil
	}
	return newLive(ctx, cfg, decls)
}
