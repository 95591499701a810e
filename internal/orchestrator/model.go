package orchestrator

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// MaxHistoryTurns caps the caller-supplied history at the most recent turns
// before it is forwarded to the model.
const MaxHistoryTurns = 20

// ChatTurn is one caller-owned turn of conversation. The server treats it as
// a read-only value and never persists it beyond the current request.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one inbound chat message plus optional context.
type Request struct {
	Message string     `json:"message"`
	UserID  string     `json:"user_id,omitempty"`
	History []ChatTurn `json:"history,omitempty"`
}

// Outcome is the loop's terminal result: the final answer and the tools that
// actually ran (at most one under the current policy).
type Outcome struct {
	Text      string   `json:"text"`
	UsedTools []string `json:"used_tools"`
}

// SanitizeHistory drops malformed turns and truncates to the most recent
// MaxHistoryTurns. Truncating already-truncated history is a no-op.
func SanitizeHistory(turns []ChatTurn) []ChatTurn {
	kept := make([]ChatTurn, 0, len(turns))
	for _, t := range turns {
		role := strings.TrimSpace(t.Role)
		if role != "user" && role != "assistant" {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, ChatTurn{Role: role, Content: t.Content})
	}
	if len(kept) > MaxHistoryTurns {
		kept = kept[len(kept)-MaxHistoryTurns:]
	}
	return kept
}

// historyMessages converts sanitized turns into chat messages.
func historyMessages(turns []ChatTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case "user":
			msgs = append(msgs, schema.UserMessage(t.Content))
		case "assistant":
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		}
	}
	return msgs
}
