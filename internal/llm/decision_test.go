package llm

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecisionNativeToolCalls(t *testing.T) {
	msg := schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "search_books", Arguments: `{"query":"dune"}`}},
		{Function: schema.FunctionCall{Name: "get_book_details", Arguments: `{"title":"Dune"}`}},
	})

	d := ParseDecision(msg)
	require.Equal(t, DecisionToolCall, d.Kind)
	require.Len(t, d.Calls, 2)
	assert.Equal(t, "search_books", d.Calls[0].Name)
	assert.Equal(t, `{"query":"dune"}`, d.Calls[0].ArgsJSON)
	assert.Equal(t, "get_book_details", d.Calls[1].Name)
}

func TestParseDecisionStrictJSONShape(t *testing.T) {
	msg := schema.AssistantMessage(`{"tool":"search_books","args":{"query":"climate"}}`, nil)

	d := ParseDecision(msg)
	require.Equal(t, DecisionToolCall, d.Kind)
	require.Len(t, d.Calls, 1)
	assert.Equal(t, "search_books", d.Calls[0].Name)
	assert.JSONEq(t, `{"query":"climate"}`, d.Calls[0].ArgsJSON)
}

func TestParseDecisionNullToolDefaultsArgs(t *testing.T) {
	msg := schema.AssistantMessage(`{"tool":"search_books","args":null}`, nil)

	d := ParseDecision(msg)
	require.Equal(t, DecisionToolCall, d.Kind)
	assert.Equal(t, "{}", d.Calls[0].ArgsJSON)
}

func TestParseDecisionFreeText(t *testing.T) {
	msg := schema.AssistantMessage("We open at 10am on weekdays.", nil)

	d := ParseDecision(msg)
	require.Equal(t, DecisionNoTool, d.Kind)
	assert.Equal(t, "We open at 10am on weekdays.", d.Text)
}

func TestParseDecisionMalformedEchoesRaw(t *testing.T) {
	raw := `{"tool": broken json`
	d := ParseDecision(schema.AssistantMessage(raw, nil))
	require.Equal(t, DecisionMalformed, d.Kind)
	assert.Equal(t, raw, d.Raw)
}

func TestParseDecisionEmpty(t *testing.T) {
	assert.Equal(t, DecisionMalformed, ParseDecision(nil).Kind)
	assert.Equal(t, DecisionMalformed, ParseDecision(schema.AssistantMessage("", nil)).Kind)
}
