package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"streamflix/pkg/logger"
	"streamflix/pkg/media"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	logger.Init("ERROR")
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "", 5*time.Second)
}

func TestResolveStreamsVerbatimOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream/movie/tt0133093.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"streams":[
			{"name":"720p WEB","url":"http://cdn/b.mkv"},
			{"name":"1080p BluRay","url":"http://cdn/a.mkv"},
			{"name":"4K REMUX","url":"http://cdn/c.mp4"}
		]}`)
	})

	streams, err := c.ResolveStreams(context.Background(), "tt0133093", media.KindMovie)
	if err != nil {
		t.Fatalf("ResolveStreams failed: %v", err)
	}
	if len(streams) != 3 {
		t.Fatalf("got %d streams, want 3", len(streams))
	}
	// No ranking at this layer: upstream order preserved.
	want := []string{"720p WEB", "1080p BluRay", "4K REMUX"}
	for i, name := range want {
		if streams[i].Name != name {
			t.Errorf("streams[%d].Name = %q, want %q", i, streams[i].Name, name)
		}
	}
}

func TestResolveStreamsSeriesPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream/series/tt0108778:2:5.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"streams":[{"name":"1080p"}]}`)
	})

	ref := media.Ref{IMDbID: "tt0108778", Kind: media.KindSeries, Season: 2, Episode: 5}
	if _, err := c.ResolveStreams(context.Background(), ref.StreamID(), ref.Kind); err != nil {
		t.Fatalf("ResolveStreams failed: %v", err)
	}
}

func TestResolveStreamsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"streams":[]}`)
	})

	_, err := c.ResolveStreams(context.Background(), "tt0000001", media.KindMovie)
	if !errors.Is(err, ErrNoStreams) {
		t.Fatalf("expected ErrNoStreams, got %v", err)
	}
}

func TestResolveStreamsFailureStatusNoPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ResolveStreams(context.Background(), "tt0000001", media.KindMovie)
	if !errors.Is(err, ErrNoStreams) {
		t.Fatalf("non-2xx with no recoverable payload should be ErrNoStreams, got %v", err)
	}
}

func TestResolveStreamsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"debrid not configured","streams":[]}`)
	})

	_, err := c.ResolveStreams(context.Background(), "tt0000001", media.KindMovie)
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.Message != "debrid not configured" {
		t.Errorf("Message = %q", upErr.Message)
	}
}

func TestResolveStreamsTokenAppended(t *testing.T) {
	logger.Init("ERROR")
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		fmt.Fprint(w, `{"streams":[{"name":"1080p"}]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret-token", 5*time.Second)
	if _, err := c.ResolveStreams(context.Background(), "tt0133093", media.KindMovie); err != nil {
		t.Fatalf("ResolveStreams failed: %v", err)
	}
	if gotToken != "secret-token" {
		t.Errorf("token = %q, want secret-token", gotToken)
	}
}
