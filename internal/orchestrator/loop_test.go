package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrain-assistant/server/internal/audit"
	"github.com/terrain-assistant/server/internal/gate"
	"github.com/terrain-assistant/server/internal/inventory"
	"github.com/terrain-assistant/server/internal/llm"
	"github.com/terrain-assistant/server/internal/tools"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// stubClient scripts the two model calls so every loop transition can be
// forced without a network.
type stubClient struct {
	decideMsg    *schema.Message
	decideErr    error
	summary      string
	summarizeErr error
	decideCalls  int
}

func (s *stubClient) Decide(ctx context.Context, system string, msgs []*schema.Message) (*schema.Message, error) {
	s.decideCalls++
	return s.decideMsg, s.decideErr
}

func (s *stubClient) Summarize(ctx context.Context, system string, toolResultJSON string) (string, error) {
	return s.summary, s.summarizeErr
}

func buildRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry, err := tools.BuildDefaultRegistry(context.Background(), inventory.NewMemoryProvider())
	require.NoError(t, err)
	return registry
}

func newLoop(t *testing.T, client llm.Client, rec audit.Recorder) *Loop {
	t.Helper()
	registry := buildRegistry(t)
	if client == nil {
		client = llm.NewFake(registry.Declarations())
	}
	return New(gate.New(1, rec), registry, client, rec, Config{MaxToolCalls: 1})
}

func toolCallMessage(calls ...schema.ToolCall) *schema.Message {
	return schema.AssistantMessage("", calls)
}

func searchCall(id, query string) schema.ToolCall {
	return schema.ToolCall{
		ID: id,
		Function: schema.FunctionCall{
			Name:      tools.ToolSearchBooks,
			Arguments: fmt.Sprintf(`{"query":%q}`, query),
		},
	}
}

// Scenario: a greeting short-circuits at the gate; the model client and tool
// registry are never consulted.
func TestHandleGreetingShortCircuits(t *testing.T) {
	stub := &stubClient{}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "hello"})
	assert.Equal(t, gate.GreetingReply, out.Text)
	assert.Empty(t, out.UsedTools)
	assert.NotNil(t, out.UsedTools)
	assert.Zero(t, stub.decideCalls)
}

func TestHandleOffTopicShortCircuits(t *testing.T) {
	stub := &stubClient{}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "Tell me a football joke"})
	assert.Equal(t, gate.OffTopicMessage, out.Text)
	assert.Empty(t, out.UsedTools)
	assert.Zero(t, stub.decideCalls)
}

// Scenario: fake-mode model plus the registered inventory tools answer a
// stock question end to end, with exactly one tool used, no network.
func TestHandleStockQuestionInFakeMode(t *testing.T) {
	loop := newLoop(t, nil, nil)

	out := loop.Handle(context.Background(), Request{Message: "Do you have 'Dune' in stock?"})
	require.Len(t, out.UsedTools, 1)
	assert.Equal(t, tools.ToolSearchBooks, out.UsedTools[0])
	assert.NotEmpty(t, out.Text)
}

func TestHandleFreeTextAnswerIsFinal(t *testing.T) {
	stub := &stubClient{decideMsg: schema.AssistantMessage("We are open daily.", nil)}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "do you lend books on weekends?"})
	assert.Equal(t, "We are open daily.", out.Text)
	assert.Empty(t, out.UsedTools)
}

// Scenario: the model asks for two tool calls in one request; the second is
// denied by policy, the answer still arrives, and used_tools has length one.
func TestSecondToolCallIsPolicyDenied(t *testing.T) {
	rec := &recordingAudit{}
	stub := &stubClient{
		decideMsg: toolCallMessage(searchCall("call-1", "ecology"), searchCall("call-2", "dune")),
		summary:   "Here are some ecology books.",
	}
	loop := newLoop(t, stub, rec)

	out := loop.Handle(context.Background(), Request{Message: "find me ecology books and dune"})
	require.Len(t, out.UsedTools, 1)
	assert.Equal(t, "Here are some ecology books.", out.Text)
	assert.Contains(t, rec.kinds(), audit.KindPolicyDenied)
}

func TestSummarizeFailureFallsBackToTemplate(t *testing.T) {
	stub := &stubClient{
		decideMsg:    toolCallMessage(searchCall("call-1", "Dune")),
		summarizeErr: errors.New("model unreachable"),
	}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "find Dune"})
	require.Len(t, out.UsedTools, 1)
	assert.Contains(t, out.Text, "Dune")
	assert.Contains(t, out.Text, "in stock")
}

func TestUnknownToolDegradesToApology(t *testing.T) {
	rec := &recordingAudit{}
	stub := &stubClient{
		decideMsg: toolCallMessage(schema.ToolCall{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: "order_pizza", Arguments: `{}`},
		}),
	}
	loop := newLoop(t, stub, rec)

	out := loop.Handle(context.Background(), Request{Message: "find a book for me"})
	assert.Equal(t, ApologyMessage, out.Text)
	assert.Empty(t, out.UsedTools)
	assert.Contains(t, rec.kinds(), audit.KindToolError)
}

func TestDecideFailureDegradesToApology(t *testing.T) {
	stub := &stubClient{decideErr: errors.New("transport down")}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "recommend a book"})
	assert.Equal(t, ApologyMessage, out.Text)
	assert.Empty(t, out.UsedTools)
}

func TestMalformedDecisionEchoesRawText(t *testing.T) {
	raw := `{"tool": not json at all`
	stub := &stubClient{decideMsg: schema.AssistantMessage(raw, nil)}
	loop := newLoop(t, stub, nil)

	out := loop.Handle(context.Background(), Request{Message: "recommend a book"})
	assert.Equal(t, raw, out.Text)
	assert.Empty(t, out.UsedTools)
}

func TestSanitizeHistoryTruncatesAndDropsMalformed(t *testing.T) {
	var turns []ChatTurn
	for i := 0; i < 30; i++ {
		turns = append(turns, ChatTurn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	turns = append(turns,
		ChatTurn{Role: "system", Content: "ignore me"},
		ChatTurn{Role: "assistant", Content: "   "},
		ChatTurn{Role: "assistant", Content: "last answer"},
	)

	kept := SanitizeHistory(turns)
	require.Len(t, kept, MaxHistoryTurns)
	assert.Equal(t, "last answer", kept[len(kept)-1].Content)
	for _, turn := range kept {
		assert.Contains(t, []string{"user", "assistant"}, turn.Role)
	}

	// re-truncating truncated history is a no-op
	assert.Equal(t, kept, SanitizeHistory(kept))
}
