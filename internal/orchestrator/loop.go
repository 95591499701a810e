// Package orchestrator runs the per-request decision-and-execution cycle:
// gate, model decide, optional tool execution, model summarize. Every entity
// it creates lives and dies within a single request; the only shared state is
// the read-only tool registry.
package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/terrain-assistant/server/internal/audit"
	errx "github.com/terrain-assistant/server/internal/core/error"
	"github.com/terrain-assistant/server/internal/gate"
	"github.com/terrain-assistant/server/internal/llm"
	"github.com/terrain-assistant/server/internal/tools"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

// ApologyMessage is the fixed, user-safe answer for any internal failure.
// Causes are logged, never surfaced verbatim.
const ApologyMessage = "Sorry, I ran into a problem handling that. Please try again in a moment."

// Config bounds the loop's tool policy.
type Config struct {
	// MaxToolCalls is the per-request tool invocation ceiling.
	MaxToolCalls int `envconfig:"TOOL_MAX_CALLS" default:"1"`
}

// Loop executes the orchestration cycle. Construct once at startup; safe for
// concurrent use since all per-request state is local to Handle.
type Loop struct {
	gate     *gate.Gate
	registry *tools.Registry
	client   llm.Client
	recorder audit.Recorder
	maxCalls int
}

// New wires the loop. A nil recorder falls back to the no-op recorder and a
// non-positive tool ceiling is raised to one.
func New(g *gate.Gate, registry *tools.Registry, client llm.Client, recorder audit.Recorder, cfg Config) *Loop {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	maxCalls := cfg.MaxToolCalls
	if maxCalls <= 0 {
		maxCalls = 1
	}
	return &Loop{
		gate:     g,
		registry: registry,
		client:   client,
		recorder: recorder,
		maxCalls: maxCalls,
	}
}

// Handle runs one request through the cycle and always produces an outcome:
// tool and model failures degrade to safe answers rather than errors.
func (l *Loop) Handle(ctx context.Context, req Request) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("Orchestration panic recovered")
			out = &Outcome{Text: ApologyMessage, UsedTools: []string{}}
		}
	}()

	// Gate: canned replies and the relevance heuristic run before any
	// network call.
	verdict := l.gate.Classify(ctx, req.Message)
	switch verdict.Kind {
	case gate.Prewritten, gate.OffTopic:
		return &Outcome{Text: verdict.Reply, UsedTools: []string{}}
	}

	forceEnglish := gate.ShouldForceEnglish(req.Message)

	msgs := historyMessages(SanitizeHistory(req.History))
	msgs = append(msgs, schema.UserMessage(req.Message))

	system, err := renderDecisionSystem(ctx, l.registry.DocsForPrompt(), forceEnglish)
	if err != nil {
		return l.failed(ctx, req.Message, err)
	}

	decisionMsg, err := l.client.Decide(ctx, system, msgs)
	if err != nil {
		return l.failed(ctx, req.Message, err)
	}

	decision := llm.ParseDecision(decisionMsg)
	switch decision.Kind {
	case llm.DecisionNoTool:
		return &Outcome{Text: decision.Text, UsedTools: []string{}}

	case llm.DecisionMalformed:
		// Lenient parsing policy: echo the raw output instead of failing.
		if raw := strings.TrimSpace(decision.Raw); raw != "" {
			logx.Warn().Msg("Non-conforming decision output; echoing raw text")
			return &Outcome{Text: raw, UsedTools: []string{}}
		}
		return l.failed(ctx, req.Message, errors.New("empty decision output"))
	}

	return l.executeAndSummarize(ctx, req.Message, forceEnglish, decision.Calls)
}

// executeAndSummarize runs the requested tool calls under the per-request
// ceiling and phrases the result.
func (l *Loop) executeAndSummarize(ctx context.Context, message string, forceEnglish bool, calls []llm.ToolRequest) *Outcome {
	used := []string{}
	var result *tools.Result

	for _, call := range calls {
		if len(used) >= l.maxCalls {
			logx.Warn().Str("tool", call.Name).Err(errx.ErrPolicyDenied).
				Msg("Tool call over per-request ceiling denied")
			l.recorder.Record(ctx, audit.Entry{
				Kind:    audit.KindPolicyDenied,
				Message: message,
				Reason:  "second tool call attempted: " + call.Name,
			})
			continue
		}

		res, err := l.registry.Invoke(ctx, call.Name, call.ArgsJSON)
		if err != nil {
			l.recorder.Record(ctx, audit.Entry{
				Kind:    audit.KindToolError,
				Message: message,
				Reason:  err.Error(),
			})
			return l.failed(ctx, message, err)
		}
		used = append(used, res.Tool)
		result = res
	}

	if result == nil {
		return l.failed(ctx, message, errors.New("decision requested tools but none ran"))
	}

	system, err := renderSummarySystem(ctx, forceEnglish)
	if err != nil {
		return &Outcome{Text: l.registry.SummarizeFallback(result), UsedTools: used}
	}

	text, err := l.client.Summarize(ctx, system, result.Payload)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			logx.Warn().Err(err).Str("tool", result.Tool).
				Msg("Summarize call failed; using template fallback")
		}
		text = l.registry.SummarizeFallback(result)
	}
	return &Outcome{Text: text, UsedTools: used}
}

// failed is the terminal failure state: a fixed user-safe English answer,
// with the cause logged and audited but never surfaced.
func (l *Loop) failed(ctx context.Context, message string, cause error) *Outcome {
	logx.Error().Err(cause).Msg("Request degraded to safe answer")
	if errors.Is(cause, errx.ErrLLMUnavailable) {
		l.recorder.Record(ctx, audit.Entry{
			Kind:    audit.KindModelError,
			Message: message,
			Reason:  cause.Error(),
		})
	}
	return &Outcome{Text: ApologyMessage, UsedTools: []string{}}
}
