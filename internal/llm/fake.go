package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// FakeAnswer is the fixed reply the offline client gives when no tool fits.
const FakeAnswer = "Hi, I’m the TERRAIN assistant. You can ask me to find books, " +
	"for example: ‘Help me find books related to ecology.’"

// FakeSummary is the fixed phrasing the offline client gives after a tool run.
const FakeSummary = "Here’s what I found in the catalog for you."

// inventory-shaped questions route to the first declared tool
var fakeToolTriggers = []string{
	"find", "looking for", "book", "stock", "price", "recommend", "have",
}

// Fake is the deterministic offline stand-in for the hosted model. It lets
// the whole gate/decide/execute/summarize contract be exercised without
// network access or credentials.
type Fake struct {
	toolName string
}

// NewFake builds the offline client. The first declared tool, if any, is the
// one fake decisions request.
func NewFake(decls []*schema.ToolInfo) *Fake {
	f := &Fake{}
	if len(decls) > 0 {
		f.toolName = decls[0].Name
	}
	return f
}

func (f *Fake) Decide(ctx context.Context, system string, msgs []*schema.Message) (*schema.Message, error) {
	query := lastUserContent(msgs)
	if f.toolName != "" && wantsInventory(query) {
		args, _ := json.Marshal(map[string]string{"query": extractQuery(query)})
		msg := schema.AssistantMessage("", []schema.ToolCall{
			{
				ID: "fake-call-1",
				Function: schema.FunctionCall{
					Name:      f.toolName,
					Arguments: string(args),
				},
			},
		})
		return msg, nil
	}
	return schema.AssistantMessage(FakeAnswer, nil), nil
}

func (f *Fake) Summarize(ctx context.Context, system string, toolResultJSON string) (string, error) {
	return FakeSummary, nil
}

func wantsInventory(query string) bool {
	q := strings.ToLower(query)
	for _, trigger := range fakeToolTriggers {
		if strings.Contains(q, trigger) {
			return true
		}
	}
	return false
}

// extractQuery prefers a quoted phrase; otherwise the whole message is the
// search query.
func extractQuery(query string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"‘", "’"}, {"“", "”"}} {
		if start := strings.Index(query, pair[0]); start >= 0 {
			rest := query[start+len(pair[0]):]
			if end := strings.Index(rest, pair[1]); end > 0 {
				return rest[:end]
			}
		}
	}
	return strings.TrimSpace(query)
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i] != nil && msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}
