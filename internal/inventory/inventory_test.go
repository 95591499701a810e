package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFindByTitleExactMatch(t *testing.T) {
	p := NewMemoryProvider()

	rec, err := p.FindByTitle(context.Background(), "Dune")
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", rec.Author)
	assert.Equal(t, 5, rec.Available)
	assert.Equal(t, "12.99", rec.Price)
}

func TestMemoryFindByTitlePartialMatch(t *testing.T) {
	p := NewMemoryProvider()

	rec, err := p.FindByTitle(context.Background(), "mushroom")
	require.NoError(t, err)
	assert.Equal(t, "The Mushroom at the End of the World", rec.Title)
}

func TestMemoryFindByTitleNotFound(t *testing.T) {
	p := NewMemoryProvider()

	_, err := p.FindByTitle(context.Background(), "Moby Dick")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.FindByTitle(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySearchMatchesAcrossFields(t *testing.T) {
	p := NewMemoryProvider()

	books, err := p.Search(context.Background(), "ecology", 10)
	require.NoError(t, err)
	require.NotEmpty(t, books)
	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	assert.Contains(t, titles, "Braiding Sweetgrass")
}

func TestMemorySearchHonorsLimit(t *testing.T) {
	p := NewMemoryProvider()

	books, err := p.Search(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestStripHTML(t *testing.T) {
	in := "<p>A field guide to <strong>moss &amp; lichen</strong>.</p>\n<p>Second paragraph.</p>"
	assert.Equal(t, "A field guide to moss & lichen . Second paragraph.", stripHTML(in))
}
