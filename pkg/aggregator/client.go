// Package aggregator is the client for the stream-resolution service
// (a StremThru/Torrentio-compatible addon). It returns candidates in
// upstream order; ranking happens in the selector.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamflix/pkg/logger"
	"streamflix/pkg/media"
)

// ErrNoStreams is returned when the upstream has zero entries for an
// identifier, or fails with no recoverable payload.
var ErrNoStreams = errors.New("no streams found for this title")

// UpstreamError carries a failure message from the aggregator.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("stream source error: %d", e.StatusCode)
}

// Client queries the stream-resolution service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates an aggregator client. token, when set, is appended
// server-side so it never reaches browsers.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// ResolveStreams fetches the candidate list for a stream identifier.
// For series the identifier is composed as "id:season:episode" (see
// media.Ref.StreamID). The returned order is the upstream order, verbatim.
func (c *Client) ResolveStreams(ctx context.Context, streamID string, kind media.Kind) ([]StreamCandidate, error) {
	if strings.TrimSpace(streamID) == "" {
		return nil, &UpstreamError{Message: "missing stream identifier"}
	}
	if c.baseURL == "" {
		return nil, &UpstreamError{Message: "stream aggregator not configured"}
	}

	contentType := "movie"
	if kind == media.KindSeries {
		contentType = "series"
	}

	reqURL := fmt.Sprintf("%s/stream/%s/%s.json", c.baseURL, contentType, url.PathEscape(streamID))
	if c.token != "" {
		reqURL += "?token=" + url.QueryEscape(c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("Stream query", "id", streamID, "type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("stream request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read stream response"}
	}

	var payload StreamResponse
	if resp.StatusCode != http.StatusOK {
		// A failure status with a parseable error message is surfaced as an
		// upstream error; anything else means there is nothing to recover.
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: payload.Error}
		}
		return nil, ErrNoStreams
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to decode stream response"}
	}
	if payload.Error != "" && len(payload.Streams) == 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if len(payload.Streams) == 0 {
		return nil, ErrNoStreams
	}

	logger.Debug("Stream candidates", "id", streamID, "count", len(payload.Streams))
	return payload.Streams, nil
}
