package llm

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// DecisionKind discriminates what the decision call asked for.
type DecisionKind int

const (
	// DecisionNoTool means the model answered directly; Text is final.
	DecisionNoTool DecisionKind = iota
	// DecisionToolCall means the model requested one or more tool invocations.
	// The per-request policy decides how many actually run.
	DecisionToolCall
	// DecisionMalformed means the output conformed to neither shape. The
	// orchestrator echoes the raw text rather than failing the request.
	DecisionMalformed
)

// ToolRequest is one tool invocation the model asked for.
type ToolRequest struct {
	Name     string
	ArgsJSON string
}

// Decision is the parsed result of the first model call.
type Decision struct {
	Kind  DecisionKind
	Text  string        // DecisionNoTool
	Calls []ToolRequest // DecisionToolCall, in request order
	Raw   string        // DecisionMalformed
}

// jsonDecision is the strict structured shape the model is asked for when it
// does not use native function calling.
type jsonDecision struct {
	Tool *string         `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// ParseDecision interprets the decision call's output. Native tool calls win;
// then the strict {"tool": ..., "args": ...} JSON shape; anything else is
// free text. Only an empty answer or a JSON shape without a usable tool name
// is Malformed.
func ParseDecision(msg *schema.Message) Decision {
	if msg == nil {
		return Decision{Kind: DecisionMalformed}
	}

	if len(msg.ToolCalls) > 0 {
		calls := make([]ToolRequest, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			calls = append(calls, ToolRequest{
				Name:     call.Function.Name,
				ArgsJSON: call.Function.Arguments,
			})
		}
		return Decision{Kind: DecisionToolCall, Calls: calls}
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return Decision{Kind: DecisionMalformed}
	}

	if strings.HasPrefix(content, "{") {
		var jd jsonDecision
		if err := json.Unmarshal([]byte(content), &jd); err == nil && jd.Tool != nil && *jd.Tool != "" {
			args := "{}"
			if len(jd.Args) > 0 && string(jd.Args) != "null" {
				args = string(jd.Args)
			}
			return Decision{
				Kind:  DecisionToolCall,
				Calls: []ToolRequest{{Name: *jd.Tool, ArgsJSON: args}},
			}
		}
		// JSON-looking but non-conforming output; lenient-echo policy
		return Decision{Kind: DecisionMalformed, Raw: content}
	}

	return Decision{Kind: DecisionNoTool, Text: content}
}
