package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/terrain-assistant/server/internal/inventory"
)

// Tool names exposed to the model.
const (
	ToolSearchBooks    = "search_books"
	ToolGetBookDetails = "get_book_details"
)

const maxSearchResults = 20

// ===================================
// Search Books Tool
// ===================================

type SearchBooksInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchBooksOutput struct {
	Books []inventory.ProductRecord `json:"books"`
	Total int                       `json:"total"`
}

func createSearchBooksTool(provider inventory.Provider) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchBooks,
			Desc: "Search the book catalog by keyword. Matches titles, authors, categories, and descriptions. Returns structured records with availability count and price. Use this tool whenever the customer mentions a book, topic, or author.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search keywords: a title, author name, or topic such as ecology, climate, design.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of books to return (default: 10, max: 20)",
				},
			}),
		},
		func(ctx context.Context, in *SearchBooksInput) (*SearchBooksOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			if in.MaxResults <= 0 || in.MaxResults > maxSearchResults {
				in.MaxResults = 10
			}

			books, err := provider.Search(ctx, in.Query, in.MaxResults)
			if err != nil {
				return nil, err
			}
			return &SearchBooksOutput{Books: books, Total: len(books)}, nil
		},
	)
}

// ===================================
// Book Details Tool
// ===================================

type GetBookDetailsInput struct {
	Title string `json:"title"`
}

type GetBookDetailsOutput struct {
	Found       bool   `json:"found"`
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Available   int    `json:"available"`
	Price       string `json:"price,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

func createGetBookDetailsTool(provider inventory.Provider) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetBookDetails,
			Desc: "Look up one book by title. Returns availability count, price, category, and a plain-text description. Use this tool when the customer asks whether a specific title is in stock or what it costs.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"title": {
					Type:     "string",
					Desc:     "The book title, as exact as the customer gave it.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetBookDetailsInput) (*GetBookDetailsOutput, error) {
			if in.Title == "" {
				return nil, fmt.Errorf("title is required")
			}

			rec, err := provider.FindByTitle(ctx, in.Title)
			if errors.Is(err, inventory.ErrNotFound) {
				// Not carrying the title is a conversational outcome, not a
				// failure; let the summarize step phrase it.
				return &GetBookDetailsOutput{Found: false, Title: in.Title}, nil
			}
			if err != nil {
				return nil, err
			}
			return &GetBookDetailsOutput{
				Found:       true,
				Title:       rec.Title,
				Author:      rec.Author,
				Available:   rec.Available,
				Price:       rec.Price,
				Category:    rec.Category,
				Description: rec.Description,
			}, nil
		},
	)
}

// ===================================
// Fallback summarizers
// ===================================

func summarizeSearchBooks(payloadJSON string) string {
	var out SearchBooksOutput
	if err := json.Unmarshal([]byte(payloadJSON), &out); err != nil {
		return ""
	}
	if out.Total == 0 {
		return "No matching books found."
	}
	text := "I found these books:"
	// Total reflects the provider's count; render only the rows present.
	limit := len(out.Books)
	if limit > 5 {
		limit = 5
	}
	for _, b := range out.Books[:limit] {
		text += fmt.Sprintf("\n- %q by %s (%d in stock)", b.Title, b.Author, b.Available)
	}
	return text
}

func summarizeBookDetails(payloadJSON string) string {
	var out GetBookDetailsOutput
	if err := json.Unmarshal([]byte(payloadJSON), &out); err != nil {
		return ""
	}
	if !out.Found {
		return fmt.Sprintf("Sorry, we could not find %q in the catalog.", out.Title)
	}
	if out.Available > 0 {
		return fmt.Sprintf("%q by %s is in stock (%d available) at %s.", out.Title, out.Author, out.Available, out.Price)
	}
	return fmt.Sprintf("%q by %s is currently out of stock.", out.Title, out.Author)
}

// BuildDefaultRegistry registers the book tools and the prompt composer
// over the given provider.
func BuildDefaultRegistry(ctx context.Context, provider inventory.Provider) (*Registry, error) {
	return NewRegistry(ctx,
		Spec{
			Tool:      createSearchBooksTool(provider),
			Params:    []string{"query", "max_results"},
			Summarize: summarizeSearchBooks,
		},
		Spec{
			Tool:      createGetBookDetailsTool(provider),
			Params:    []string{"title"},
			Summarize: summarizeBookDetails,
		},
		Spec{
			Tool:      createWrapPromptTool(fetchLink),
			Params:    []string{"outer_link", "inner_link", "placeholder"},
			Summarize: summarizeWrapPrompt,
		},
	)
}
