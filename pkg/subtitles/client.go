// Package subtitles looks up and attaches subtitle tracks for the active
// playback session. Lookups are best-effort: failures degrade to a hint in
// the subtitle panel and never interrupt playback.
package subtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"streamflix/pkg/media"
)

// Subtitle is one search result from the subtitle service.
type Subtitle struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Format   string `json:"format"`
	Display  string `json:"display"`
	Language string `json:"language"`
	Encoding string `json:"encoding"`
}

// Client queries a Wyzie-compatible subtitle search service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a subtitle client against baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Search returns subtitle candidates for ref in the given language, SRT
// format, UTF-8 encoding. For series the season and episode narrow the match.
func (c *Client) Search(ctx context.Context, ref media.Ref, language string) ([]Subtitle, error) {
	params := url.Values{}
	params.Set("id", ref.IMDbID)
	params.Set("language", language)
	params.Set("format", "srt")
	params.Set("encoding", "utf-8")
	if ref.Kind == media.KindSeries {
		params.Set("season", strconv.Itoa(ref.Season))
		params.Set("episode", strconv.Itoa(ref.Episode))
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subtitle search failed with status %d", resp.StatusCode)
	}

	var results []Subtitle
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding subtitle search response: %w", err)
	}
	return results, nil
}

// Download fetches a subtitle payload as UTF-8 text. The encoding query
// parameter is forced to utf-8 and the body is decoded through its declared
// charset so legacy encodings come out as valid UTF-8.
func (c *Client) Download(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid subtitle URL: %w", err)
	}
	q := u.Query()
	q.Set("encoding", "utf-8")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subtitle download failed with status %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decoding subtitle charset: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
