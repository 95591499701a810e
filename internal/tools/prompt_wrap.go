package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ToolWrapPrompt composes two prompt documents into one.
const ToolWrapPrompt = "wrap_prompt_from_links"

const (
	defaultPlaceholder = "{{CONTENT}}"
	maxInnerPromptLen  = 100_000
	fetchTimeout       = 10 * time.Second
)

// linkFetcher resolves a link to its text content.
type linkFetcher func(ctx context.Context, link string) (string, error)

type WrapPromptInput struct {
	OuterLink   string `json:"outer_link"`
	InnerLink   string `json:"inner_link"`
	Placeholder string `json:"placeholder,omitempty"`
}

type WrapPromptOutput struct {
	Wrapped string `json:"wrapped"`
}

func createWrapPromptTool(fetch linkFetcher) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWrapPrompt,
			Desc: "Fetch two .txt documents and inject the second into the first at {{CONTENT}}. Use this tool when the customer asks to compose a prompt from linked documents.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"outer_link": {
					Type:     "string",
					Desc:     "Link (http/https or file://) to the outer document containing the placeholder.",
					Required: true,
				},
				"inner_link": {
					Type:     "string",
					Desc:     "Link (http/https or file://) to the document injected at the placeholder.",
					Required: true,
				},
				"placeholder": {
					Type: "string",
					Desc: "Placeholder token in the outer document (default: {{CONTENT}})",
				},
			}),
		},
		func(ctx context.Context, in *WrapPromptInput) (*WrapPromptOutput, error) {
			if in.OuterLink == "" || in.InnerLink == "" {
				return nil, fmt.Errorf("outer_link and inner_link are required")
			}
			placeholder := in.Placeholder
			if placeholder == "" {
				placeholder = defaultPlaceholder
			}

			outer, err := fetch(ctx, in.OuterLink)
			if err != nil {
				return nil, err
			}
			inner, err := fetch(ctx, in.InnerLink)
			if err != nil {
				return nil, err
			}

			if !strings.Contains(outer, placeholder) {
				return nil, fmt.Errorf("placeholder %q not found in outer prompt", placeholder)
			}
			if len(inner) > maxInnerPromptLen {
				return nil, fmt.Errorf("inner prompt too large (>100k chars)")
			}
			return &WrapPromptOutput{Wrapped: strings.Replace(outer, placeholder, inner, 1)}, nil
		},
	)
}

func summarizeWrapPrompt(payloadJSON string) string {
	var out WrapPromptOutput
	if err := json.Unmarshal([]byte(payloadJSON), &out); err != nil {
		return ""
	}
	return "Prompt composed successfully. Ready to send to the API."
}

// fetchLink reads a document from http/https or a file:// path.
func fetchLink(ctx context.Context, link string) (string, error) {
	switch {
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return "", err
		}
		client := &http.Client{Timeout: fetchTimeout}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", link, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("failed to fetch %s (status %d)", link, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil

	case strings.HasPrefix(link, "file://"):
		body, err := os.ReadFile(strings.TrimPrefix(link, "file://"))
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	return "", fmt.Errorf("unsupported link scheme (use http/https or file://)")
}
