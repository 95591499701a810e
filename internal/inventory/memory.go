package inventory

import (
	"context"
	"strings"
)

// MemoryProvider serves a fixed in-process catalog. It backs the assistant
// when no inventory credentials are configured and keeps tests free of
// network access.
type MemoryProvider struct {
	records []ProductRecord
}

// NewMemoryProvider returns a provider over the demo catalog.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{records: demoCatalog}
}

// NewMemoryProviderWith returns a provider over the given records.
func NewMemoryProviderWith(records []ProductRecord) *MemoryProvider {
	return &MemoryProvider{records: records}
}

func (p *MemoryProvider) FindByTitle(ctx context.Context, title string) (*ProductRecord, error) {
	q := strings.ToLower(strings.TrimSpace(title))
	if q == "" {
		return nil, ErrNotFound
	}
	for i := range p.records {
		if strings.ToLower(p.records[i].Title) == q {
			rec := p.records[i]
			return &rec, nil
		}
	}
	// fall back to a substring match so quoted or partial titles still resolve
	for i := range p.records {
		if strings.Contains(strings.ToLower(p.records[i].Title), q) {
			rec := p.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (p *MemoryProvider) Search(ctx context.Context, query string, max int) ([]ProductRecord, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if max <= 0 {
		max = defaultSearchLimit
	}

	var matched []ProductRecord
	for _, rec := range p.records {
		if q == "" ||
			strings.Contains(strings.ToLower(rec.Title), q) ||
			strings.Contains(strings.ToLower(rec.Author), q) ||
			strings.Contains(strings.ToLower(rec.Category), q) ||
			strings.Contains(strings.ToLower(rec.Description), q) {
			matched = append(matched, rec)
		}
		if len(matched) >= max {
			break
		}
	}
	return matched, nil
}

const defaultSearchLimit = 10

var demoCatalog = []ProductRecord{
	{
		Title:       "Designing with AI",
		Author:      "Kim Lee",
		Available:   3,
		Price:       "24.00",
		Category:    "design",
		Description: "How machine intelligence reshapes the design studio, from generative sketching to critique.",
	},
	{
		Title:       "Climate & Design",
		Author:      "R. Gray",
		Available:   0,
		Price:       "31.50",
		Category:    "ecology",
		Description: "Essays on designing for a changing climate, covering materials, energy, and repair culture.",
	},
	{
		Title:       "AI for Libraries",
		Author:      "M. Chen",
		Available:   2,
		Price:       "19.90",
		Category:    "library science",
		Description: "A practical guide to cataloguing, discovery, and recommendation systems for small libraries.",
	},
	{
		Title:       "Dune",
		Author:      "Frank Herbert",
		Available:   5,
		Price:       "12.99",
		Category:    "fiction",
		Description: "The desert-planet epic of ecology, politics, and survival on Arrakis.",
	},
	{
		Title:       "Braiding Sweetgrass",
		Author:      "Robin Wall Kimmerer",
		Available:   1,
		Price:       "18.00",
		Category:    "ecology",
		Description: "Indigenous wisdom, scientific knowledge, and the teachings of plants.",
	},
	{
		Title:       "The Mushroom at the End of the World",
		Author:      "Anna Tsing",
		Available:   4,
		Price:       "22.00",
		Category:    "ecology",
		Description: "On the possibility of life in capitalist ruins, traced through the matsutake mushroom.",
	},
}
