package orchestrator

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/decision_prompt.txt
var decisionSystemPrompt string

//go:embed template/summary_prompt.txt
var summarySystemPrompt string

// englishDirective is appended to prompts when the inbound text is probably
// not English but the answer must be.
const englishDirective = "Always answer in English, regardless of the language of the conversation."

// renderDecisionSystem renders the decision-call system prompt via the Eino
// prompt component, embedding the tool docs and the optional English-only
// directive.
func renderDecisionSystem(ctx context.Context, toolDocs string, forceEnglish bool) (string, error) {
	return renderSystem(ctx, decisionSystemPrompt, map[string]any{
		"ToolDocs":     toolDocs,
		"LanguageLine": languageLine(forceEnglish),
	})
}

// renderSummarySystem renders the summarize-call system prompt, carrying the
// English-only directive forward when set.
func renderSummarySystem(ctx context.Context, forceEnglish bool) (string, error) {
	return renderSystem(ctx, summarySystemPrompt, map[string]any{
		"LanguageLine": languageLine(forceEnglish),
	})
}

func languageLine(forceEnglish bool) string {
	if forceEnglish {
		return englishDirective
	}
	return ""
}

func renderSystem(ctx context.Context, tplText string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tplText),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
