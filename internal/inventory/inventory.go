package inventory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no product matches the requested title.
var ErrNotFound = errors.New("product not found")

// ProductRecord is the uniform shape the assistant core consumes. The core
// never assumes a specific backing store.
type ProductRecord struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Available   int    `json:"available"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Provider supplies concrete inventory answers behind a uniform capability
// interface: given a title, return availability/price/description or NotFound.
type Provider interface {
	// FindByTitle returns the best match for an exact or near-exact title.
	FindByTitle(ctx context.Context, title string) (*ProductRecord, error)

	// Search returns up to max records matching the keyword query.
	Search(ctx context.Context, query string, max int) ([]ProductRecord, error)
}
