package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	logx "github.com/terrain-assistant/server/pkg/logger"
)

const shopifyAPIVersion = "2025-01"

// Config describes the optional Shopify-backed inventory connection. An empty
// shop name means the demo catalog is used instead.
type Config struct {
	ShopName    string `envconfig:"SHOPIFY_SHOP_NAME"`
	AccessToken string `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	Timeout     int    `envconfig:"INVENTORY_TIMEOUT_SECONDS" default:"15"`
}

// Configured reports whether Shopify credentials were provided.
func (c *Config) Configured() bool {
	return c.ShopName != "" && c.AccessToken != ""
}

// ShopifyProvider resolves book availability, price, and description from a
// Shopify store's admin API.
type ShopifyProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewShopifyProvider builds a provider from config.
func NewShopifyProvider(cfg Config) *ShopifyProvider {
	return &ShopifyProvider{
		baseURL: fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", cfg.ShopName, shopifyAPIVersion),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type shopifyVariant struct {
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type shopifyProduct struct {
	Title       string           `json:"title"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	BodyHTML    string           `json:"body_html"`
	Variants    []shopifyVariant `json:"variants"`
}

func (p *ShopifyProvider) FindByTitle(ctx context.Context, title string) (*ProductRecord, error) {
	products, err := p.fetchProducts(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	rec := toRecord(products[0])
	return &rec, nil
}

func (p *ShopifyProvider) Search(ctx context.Context, query string, max int) ([]ProductRecord, error) {
	products, err := p.fetchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = defaultSearchLimit
	}
	if len(products) > max {
		products = products[:max]
	}
	records := make([]ProductRecord, 0, len(products))
	for _, prod := range products {
		records = append(records, toRecord(prod))
	}
	return records, nil
}

func (p *ShopifyProvider) fetchProducts(ctx context.Context, title string) ([]shopifyProduct, error) {
	endpoint := fmt.Sprintf("%s/products.json?title=%s", p.baseURL, url.QueryEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Warn().Int("status", resp.StatusCode).Msg("Inventory API returned non-200")
		return nil, fmt.Errorf("inventory request status %d", resp.StatusCode)
	}

	var body struct {
		Products []shopifyProduct `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("inventory response decode: %w", err)
	}
	return body.Products, nil
}

func toRecord(prod shopifyProduct) ProductRecord {
	total := 0
	price := ""
	for i, v := range prod.Variants {
		total += v.InventoryQuantity
		if i == 0 {
			price = v.Price
		}
	}
	return ProductRecord{
		Title:       prod.Title,
		Author:      prod.Vendor,
		Available:   total,
		Price:       price,
		Category:    prod.ProductType,
		Description: stripHTML(prod.BodyHTML),
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML reduces a Shopify body_html blob to plain text.
func stripHTML(s string) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
