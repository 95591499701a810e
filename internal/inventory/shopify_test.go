package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShopifyTestServer(t *testing.T, body string, status int) (*ShopifyProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-123", r.Header.Get("X-Shopify-Access-Token"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	provider := &ShopifyProvider{
		baseURL: srv.URL,
		token:   "token-123",
		client:  srv.Client(),
	}
	return provider, srv
}

func TestShopifyFindByTitle(t *testing.T) {
	body := `{"products":[{
		"title":"Dune",
		"vendor":"Frank Herbert",
		"product_type":"fiction",
		"body_html":"<p>The desert-planet epic.</p>",
		"variants":[
			{"price":"12.99","inventory_quantity":3},
			{"price":"15.99","inventory_quantity":2}
		]}]}`
	provider, _ := newShopifyTestServer(t, body, http.StatusOK)

	rec, err := provider.FindByTitle(context.Background(), "Dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", rec.Title)
	assert.Equal(t, "Frank Herbert", rec.Author)
	assert.Equal(t, 5, rec.Available, "availability sums over variants")
	assert.Equal(t, "12.99", rec.Price, "price comes from the first variant")
	assert.Equal(t, "fiction", rec.Category)
	assert.Equal(t, "The desert-planet epic.", rec.Description)
}

func TestShopifyFindByTitleEmptyResultIsNotFound(t *testing.T) {
	provider, _ := newShopifyTestServer(t, `{"products":[]}`, http.StatusOK)

	_, err := provider.FindByTitle(context.Background(), "Moby Dick")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShopifyNon200IsAnError(t *testing.T) {
	provider, _ := newShopifyTestServer(t, `{}`, http.StatusBadGateway)

	_, err := provider.FindByTitle(context.Background(), "Dune")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestConfigConfigured(t *testing.T) {
	assert.False(t, (&Config{}).Configured())
	assert.False(t, (&Config{ShopName: "terrain"}).Configured())
	assert.True(t, (&Config{ShopName: "terrain", AccessToken: "tok"}).Configured())
}
