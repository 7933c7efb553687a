package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lealre/ratebeer-backend/internal/apperr"
)

const (
	DefaultBaseURL = "https://punkapi.online/v3"
	defaultPerPage = 30
	maxPerPage     = 80
)

var (
	ErrItemNotFound   = fmt.Errorf("item not found in catalog: %w", apperr.ErrNotFound)
	ErrInvalidItemId  = fmt.Errorf("item id must be positive: %w", apperr.ErrInvalidArgument)
	ErrCatalogFailure = fmt.Errorf("catalog request failed: %w", apperr.ErrStoreUnavailable)
)

// Lookup resolves item ids to catalog entries.
type Lookup interface {
	GetItem(ctx context.Context, itemId int) (Item, error)
	SearchItems(ctx context.Context, name string, page, perPage int) (SearchResponse, error)
}

// Client talks to the Punk API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetItem(ctx context.Context, itemId int) (Item, error) {
	if itemId < 1 {
		return Item{}, ErrInvalidItemId
	}

	var b beer
	if err := c.fetch(ctx, fmt.Sprintf("%s/beers/%d", c.baseURL, itemId), &b); err != nil {
		return Item{}, err
	}

	return mapBeerToItem(c.baseURL, b), nil
}

// SearchItems looks items up by (partial) name. An empty name lists the
// whole catalog page by page.
func (c *Client) SearchItems(ctx context.Context, name string, page, perPage int) (SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)

	q := url.Values{}
	if name = strings.TrimSpace(name); name != "" {
		q.Set("beer_name", name)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var beers []beer
	if err := c.fetch(ctx, c.baseURL+"/beers?"+q.Encode(), &beers); err != nil {
		// The API answers 404 when nothing matches.
		if errors.Is(err, ErrItemNotFound) {
			beers = nil
		} else {
			return SearchResponse{}, err
		}
	}

	resp := SearchResponse{Items: make([]Item, 0, len(beers)), Page: page, PerPage: perPage}
	for _, b := range beers {
		resp.Items = append(resp.Items, mapBeerToItem(c.baseURL, b))
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrItemNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: non-2xx status: %s - %s", ErrCatalogFailure, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrCatalogFailure, err)
	}
	return nil
}
