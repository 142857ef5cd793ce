// Package store is the client for the hosted table-store REST API that
// persists product records.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rackline/labelscan/internal/models"
)

// uniqueViolationCode is the structured error code the store returns
// for uniqueness violations. Matching on it is preferred over sniffing
// the message text; the message only disambiguates which constraint.
const uniqueViolationCode = "23505"

// TokenSource supplies a bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the products and app_users resources.
type Client struct {
	restURL string
	apiKey  string
	tokens  TokenSource
	client  *http.Client
}

// NewClient points the store client at the hosted backend. baseURL is
// the backend root; the table API lives under /rest/v1.
func NewClient(baseURL, apiKey string, tokens TokenSource) *Client {
	return &Client{
		restURL: strings.TrimRight(baseURL, "/") + "/rest/v1",
		apiKey:  apiKey,
		tokens:  tokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type storeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// productPayload is the writable subset of a product record. Identity
// and timestamp columns are owned by the store.
type productPayload struct {
	Name             string   `json:"name"`
	StyleNumber      string   `json:"style_number"`
	SKU              string   `json:"sku"`
	Barcode          string   `json:"barcode"`
	BrandName        string   `json:"brand_name"`
	ProductCategory  string   `json:"product_category"`
	RetailPrice      *float64 `json:"retail_price"`
	SupplyPrice      *float64 `json:"supply_price"`
	SizeOrDimensions string   `json:"size_or_dimensions"`
	Color            string   `json:"color"`
	Quantity         int      `json:"quantity"`
	Tags             string   `json:"tags"`
	Description      string   `json:"description"`
	Notes            string   `json:"notes"`
	Verified         bool     `json:"verified"`
}

func payloadFrom(p *models.Product) productPayload {
	return productPayload{
		Name:             p.Name,
		StyleNumber:      p.StyleNumber,
		SKU:              p.SKU,
		Barcode:          p.Barcode,
		BrandName:        p.BrandName,
		ProductCategory:  p.ProductCategory,
		RetailPrice:      p.RetailPrice,
		SupplyPrice:      p.SupplyPrice,
		SizeOrDimensions: p.SizeOrDimensions,
		Color:            p.Color,
		Quantity:         p.Quantity,
		Tags:             p.Tags,
		Description:      p.Description,
		Notes:            p.Notes,
		Verified:         p.Verified,
	}
}

// Save creates the record, or updates it when editingID is set. On a
// uniqueness violation the returned error is a *DuplicateError telling
// the caller which field collided.
func (c *Client) Save(ctx context.Context, p *models.Product, editingID *int64) (*models.Product, error) {
	if editingID != nil {
		return c.update(ctx, *editingID, p)
	}
	return c.create(ctx, p)
}

func (c *Client) create(ctx context.Context, p *models.Product) (*models.Product, error) {
	var saved []models.Product
	err := c.do(ctx, http.MethodPost, "/products", nil, payloadFrom(p), &saved)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("store returned no record for create")
	}
	slog.Info("Product created", "id", saved[0].ID, "sku", saved[0].SKU)
	return &saved[0], nil
}

func (c *Client) update(ctx context.Context, id int64, p *models.Product) (*models.Product, error) {
	query := url.Values{"id": {fmt.Sprintf("eq.%d", id)}}
	var saved []models.Product
	err := c.do(ctx, http.MethodPatch, "/products", query, payloadFrom(p), &saved)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("no product with id %d to update", id)
	}
	slog.Info("Product updated", "id", id, "sku", saved[0].SKU)
	return &saved[0], nil
}

// CheckDuplicate looks up an existing record with the given barcode.
// It returns the existing id when one is found.
func (c *Client) CheckDuplicate(ctx context.Context, barcode string) (int64, bool, error) {
	query := url.Values{
		"barcode": {"eq." + barcode},
		"select":  {"id"},
		"limit":   {"1"},
	}
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &rows); err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].ID, true, nil
}

// FetchForEdit tries all supplied keys concurrently and returns the
// first match in priority order id > barcode > sku, or nil when nothing
// matches.
func (c *Client) FetchForEdit(ctx context.Context, id *int64, barcode, sku string) (*models.Product, error) {
	var byID, byBarcode, bySKU *models.Product

	g, gctx := errgroup.WithContext(ctx)
	if id != nil {
		g.Go(func() error {
			p, err := c.findOne(gctx, "id", fmt.Sprintf("%d", *id))
			byID = p
			return err
		})
	}
	if barcode != "" {
		g.Go(func() error {
			p, err := c.findOne(gctx, "barcode", barcode)
			byBarcode = p
			return err
		})
	}
	if sku != "" {
		g.Go(func() error {
			p, err := c.findOne(gctx, "sku", sku)
			bySKU = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range []*models.Product{byID, byBarcode, bySKU} {
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}

func (c *Client) findOne(ctx context.Context, column, value string) (*models.Product, error) {
	query := url.Values{
		column:  {"eq." + value},
		"limit": {"1"},
	}
	var rows []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListProducts returns one page of records ordered by id.
func (c *Client) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, error) {
	query := url.Values{
		"order":  {"id.asc"},
		"offset": {fmt.Sprintf("%d", offset)},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	var rows []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAppUsers returns the staff name list.
func (c *Client) ListAppUsers(ctx context.Context) ([]models.AppUser, error) {
	query := url.Values{"order": {"name.asc"}}
	var rows []models.AppUser
	if err := c.do(ctx, http.MethodGet, "/app_users", query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateAppUser adds a name to the staff list.
func (c *Client) CreateAppUser(ctx context.Context, name string) (*models.AppUser, error) {
	var saved []models.AppUser
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/app_users", nil, body, &saved); err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("store returned no record for app user create")
	}
	return &saved[0], nil
}

// do performs one REST call. Mutating requests ask the store to return
// the affected rows so callers get ids and timestamps back.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.restURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session token: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call table store: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.classifyError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode store response: %w", err)
		}
	}
	return nil
}

// classifyError distinguishes uniqueness violations from everything
// else, using the structured code first and the constraint name in the
// message only to pick the field.
func (c *Client) classifyError(status int, body []byte) error {
	var se storeError
	_ = json.Unmarshal(body, &se)

	if se.Code == uniqueViolationCode || status == http.StatusConflict {
		return &DuplicateError{Field: duplicateField(se.Message + " " + se.Details)}
	}

	if se.Message != "" {
		return fmt.Errorf("table store returned status %d: %s", status, se.Message)
	}
	return fmt.Errorf("table store returned status %d: %s", status, string(body))
}

func duplicateField(message string) DuplicateField {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "sku"):
		return DuplicateSKU
	case strings.Contains(lower, "barcode"):
		return DuplicateBarcode
	default:
		return ""
	}
}
