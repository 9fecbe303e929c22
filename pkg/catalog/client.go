// Package catalog is the client for the TMDB-compatible metadata API.
// All requests go out with the server-held key attached; the key never
// appears in resource paths, cache keys or log output.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"streamflix/pkg/cache"
	"streamflix/pkg/logger"
	"streamflix/pkg/media"
)

// Client issues metadata queries against the catalog API with a shared
// response cache.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.Cache

	// Resolved external IDs are immutable, so they live in a bounded LRU
	// with no TTL instead of the response cache.
	externalIDs *lru.Cache[string, string]
}

// CatalogError is returned when the catalog API reports a failure status or
// a failure payload flag.
type CatalogError struct {
	StatusCode int
	Message    string
}

func (e *CatalogError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("catalog error: %d", e.StatusCode)
}

// ErrNoExternalID is returned when no external identifier exists for a title.
var ErrNoExternalID = &CatalogError{Message: "no external id found for this title"}

// NewClient creates a catalog client. responseCache may be shared with other
// consumers; timeout applies to every outbound request.
func NewClient(baseURL, apiKey string, responseCache *cache.Cache, timeout time.Duration) *Client {
	ids, _ := lru.New[string, string](1024)
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
		},
		cache:       responseCache,
		externalIDs: ids,
	}
}

// cacheKey builds the cache key from the resource path and the flat query
// parameters. url.Values.Encode sorts keys, so equal parameter sets always
// produce the same key.
func cacheKey(resourcePath string, params url.Values) string {
	return resourcePath + "?" + params.Encode()
}

// Query fetches a resource from the catalog API. Successful responses are
// cached for the configured TTL unless skipCache is set (live search).
func (c *Client) Query(ctx context.Context, resourcePath string, params url.Values, skipCache bool) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	resourcePath = strings.TrimPrefix(resourcePath, "/")
	key := cacheKey(resourcePath, params)

	if !skipCache {
		if payload, ok := c.cache.Get(key); ok {
			logger.Debug("Catalog cache hit", "path", resourcePath)
			return payload, nil
		}
	}

	reqURL := c.baseURL + "/" + resourcePath
	if enc := params.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &CatalogError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &CatalogError{Message: fmt.Sprintf("catalog request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CatalogError{StatusCode: resp.StatusCode, Message: "failed to read catalog response"}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &CatalogError{StatusCode: resp.StatusCode, Message: failureMessage(body, resp.StatusCode)}
	}

	// TMDB signals some failures with a 200 payload carrying success:false.
	var flag struct {
		Success       *bool  `json:"success"`
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &flag); err == nil && flag.Success != nil && !*flag.Success {
		return nil, &CatalogError{StatusCode: resp.StatusCode, Message: failureMessage(body, resp.StatusCode)}
	}

	if !skipCache {
		c.cache.Set(key, body)
	}
	return body, nil
}

func failureMessage(body []byte, status int) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
		Message       string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.StatusMessage != "" {
			return payload.StatusMessage
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("API error: %d", status)
}

// List fetches one page of a category listing.
func (c *Client) List(ctx context.Context, cat Category, page int) (*ListResponse, error) {
	params := url.Values{}
	for k, v := range cat.Params {
		params.Set(k, v)
	}
	params.Set("page", fmt.Sprintf("%d", page))

	payload, err := c.Query(ctx, cat.Path, params, false)
	if err != nil {
		return nil, err
	}

	var list ListResponse
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, &CatalogError{Message: "failed to decode catalog listing"}
	}
	return &list, nil
}

// SearchMulti runs a live multi search. Results are never cached: staleness
// is undesirable while the user is typing.
func (c *Client) SearchMulti(ctx context.Context, query string) (*ListResponse, error) {
	params := url.Values{}
	params.Set("query", query)

	payload, err := c.Query(ctx, "search/multi", params, true)
	if err != nil {
		return nil, err
	}

	var list ListResponse
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, &CatalogError{Message: "failed to decode search results"}
	}
	return &list, nil
}

// ShowDetail fetches top-level series metadata (season count).
func (c *Client) ShowDetail(ctx context.Context, showID int) (*ShowDetail, error) {
	payload, err := c.Query(ctx, fmt.Sprintf("tv/%d", showID), nil, false)
	if err != nil {
		return nil, err
	}
	var detail ShowDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, &CatalogError{Message: "failed to decode show detail"}
	}
	return &detail, nil
}

// Season fetches the episode list for one season of a series.
func (c *Client) Season(ctx context.Context, showID, season int) (*SeasonDetail, error) {
	payload, err := c.Query(ctx, fmt.Sprintf("tv/%d/season/%d", showID, season), nil, false)
	if err != nil {
		return nil, err
	}
	var detail SeasonDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, &CatalogError{Message: "failed to decode season detail"}
	}
	return &detail, nil
}

// ResolveIMDbID looks up the IMDb identifier for a catalog title. The stream
// aggregator only accepts IMDb-style IDs.
func (c *Client) ResolveIMDbID(ctx context.Context, catalogID int, kind media.Kind) (string, error) {
	lruKey := fmt.Sprintf("%s/%d", kind, catalogID)
	if id, ok := c.externalIDs.Get(lruKey); ok {
		return id, nil
	}

	resource := "movie"
	if kind == media.KindSeries {
		resource = "tv"
	}
	payload, err := c.Query(ctx, fmt.Sprintf("%s/%d/external_ids", resource, catalogID), nil, false)
	if err != nil {
		return "", err
	}

	var ids ExternalIDs
	if err := json.Unmarshal(payload, &ids); err != nil {
		return "", &CatalogError{Message: "failed to decode external ids"}
	}

	imdbID := strings.TrimSpace(ids.IMDbID)
	if imdbID == "" {
		return "", ErrNoExternalID
	}

	c.externalIDs.Add(lruKey, imdbID)
	return imdbID, nil
}
