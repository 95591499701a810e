// Package tools holds the immutable tool registry: declarations exposed to
// the model, handlers executed on its behalf, and the template fallback
// renderer used when the summarize model call is unavailable.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	errx "github.com/terrain-assistant/server/internal/core/error"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

// Spec couples a tool with its prompt documentation and fallback summarizer.
type Spec struct {
	Tool tool.InvokableTool
	// Params lists the parameter names shown in the prompt docs line.
	Params []string
	// Summarize renders the tool's JSON payload as a short natural-language
	// fragment without a model call. Optional; a generic line is used when nil.
	Summarize func(payloadJSON string) string
}

// Result is a tool's structured output. It is consumed only by the
// summarization step and never returned to the caller raw.
type Result struct {
	Tool    string
	Payload string // handler output, JSON
}

// Registry maps tool names to declarations and handlers. Built once at
// startup and never mutated afterwards, so unsynchronized concurrent reads
// are safe.
type Registry struct {
	order   []string
	infos   map[string]*schema.ToolInfo
	entries map[string]Spec
}

// NewRegistry resolves each tool's declaration and freezes the registry.
func NewRegistry(ctx context.Context, specs ...Spec) (*Registry, error) {
	r := &Registry{
		infos:   make(map[string]*schema.ToolInfo, len(specs)),
		entries: make(map[string]Spec, len(specs)),
	}
	for _, spec := range specs {
		info, err := spec.Tool.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		if _, dup := r.entries[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", info.Name)
		}
		r.order = append(r.order, info.Name)
		r.infos[info.Name] = info
		r.entries[info.Name] = spec
	}
	return r, nil
}

// Declarations returns tool declarations in registration order, for binding
// to the model.
func (r *Registry) Declarations() []*schema.ToolInfo {
	decls := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.infos[name])
	}
	return decls
}

// DocsForPrompt renders a one-line-per-tool summary for the system prompt.
func (r *Registry) DocsForPrompt() string {
	var b strings.Builder
	for i, name := range r.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		info := r.infos[name]
		params := strings.Join(r.entries[name].Params, ", ")
		fmt.Fprintf(&b, "- %s: %s | params=[%s]", info.Name, info.Desc, params)
	}
	return b.String()
}

// Invoke executes the named tool with JSON-encoded arguments. Unknown names
// and handler failures are reported as errors the orchestrator degrades to a
// safe answer; neither is fatal to the request.
func (r *Registry) Invoke(ctx context.Context, name, argsJSON string) (*Result, error) {
	spec, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errx.ErrUnknownTool, name)
	}
	if argsJSON == "" {
		argsJSON = "{}"
	}

	out, err := spec.Tool.InvokableRun(ctx, argsJSON)
	if err != nil {
		logx.Error().Err(err).Str("tool", name).Msg("Tool handler failed")
		return nil, errx.WrapTool(name, err)
	}
	return &Result{Tool: name, Payload: out}, nil
}

// SummarizeFallback converts a structured tool result into a short
// natural-language fragment. It is the renderer of last resort, used when
// the model's own summarization call is unavailable or fails.
func (r *Registry) SummarizeFallback(res *Result) string {
	if res == nil {
		return "Operation completed."
	}
	if spec, ok := r.entries[res.Tool]; ok && spec.Summarize != nil {
		if text := spec.Summarize(res.Payload); text != "" {
			return text
		}
	}
	return "Operation completed."
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}
