package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/terrain-assistant/server/internal/core/error"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

const retryBackoff = 500 * time.Millisecond

// generator is the single model call liveClient depends on. The gemini
// chat model satisfies it.
type generator interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// liveClient calls the hosted Gemini model through the eino chat model
// adapter. Transient failures are retried exactly once before surfacing
// ErrLLMUnavailable.
type liveClient struct {
	model       generator
	modelName   string
	callTimeout time.Duration
	backoff     time.Duration
}

func newLive(ctx context.Context, cfg Config, decls []*schema.ToolInfo) (*liveClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	if len(decls) > 0 {
		if err := chatModel.BindTools(decls); err != nil {
			logx.Error().Err(err).Msg("Failed to bind tools")
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	return &liveClient{
		model:       chatModel,
		modelName:   cfg.Model,
		callTimeout: time.Duration(cfg.CallTimeout) * time.Second,
		backoff:     retryBackoff,
	}, nil
}

func (c *liveClient) Decide(ctx context.Context, system string, msgs []*schema.Message) (*schema.Message, error) {
	in := make([]*schema.Message, 0, len(msgs)+1)
	in = append(in, schema.SystemMessage(system))
	in = append(in, msgs...)
	return c.generate(ctx, in)
}

func (c *liveClient) Summarize(ctx context.Context, system string, toolResultJSON string) (string, error) {
	in := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage("Tool result (JSON):\n" + toolResultJSON),
	}
	out, err := c.generate(ctx, in)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// generate issues one model call with a bounded deadline and a single retry
// with a short backoff.
func (c *liveClient) generate(ctx context.Context, in []*schema.Message) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			logx.Warn().Err(lastErr).Str("model", c.modelName).Msg("Model call failed; retrying once")
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", errx.ErrLLMUnavailable, ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		out, err := c.model.Generate(callCtx, in)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", errx.ErrLLMUnavailable, lastErr)
}
