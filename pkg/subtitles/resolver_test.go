package subtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/logger"
	"streamflix/pkg/media"
	"streamflix/pkg/playback"
)

const testSRT = "1\n00:01:02,500 --> 00:01:04,000\nHello\n"

func newSubtitleServer(t *testing.T, results func(base string) []Subtitle, gate chan struct{}) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			json.NewEncoder(w).Encode(results(srv.URL))
		case "/files/sub.srt":
			if gate != nil {
				<-gate
			}
			if got := r.URL.Query().Get("encoding"); got != "utf-8" {
				t.Errorf("download encoding param = %q, want utf-8", got)
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprint(w, testSRT)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func oneResult(base string) []Subtitle {
	return []Subtitle{{
		ID:       "sub-1",
		URL:      base + "/files/sub.srt",
		Format:   "srt",
		Display:  "English",
		Language: "en",
	}}
}

func newTestStack(t *testing.T, baseURL string) (*Resolver, *playback.Manager, *playback.Session) {
	t.Helper()
	logger.Init("ERROR")
	manager := playback.NewManager(2 * time.Second)
	s, err := manager.Start(
		media.Ref{IMDbID: "tt0108778", Kind: media.KindSeries, Season: 2, Episode: 5},
		aggregator.StreamCandidate{Name: "1080p", URL: "http://cdn/a.mp4"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewResolver(NewClient(baseURL, 5*time.Second), manager, "en"), manager, s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAttachSuccess(t *testing.T) {
	srv := newSubtitleServer(t, oneResult, nil)
	defer srv.Close()

	r, _, s := newTestStack(t, srv.URL)
	r.Attach(context.Background(), s.Ref, s)

	waitFor(t, func() bool { return s.Track() != nil }, "track was never attached")

	track := s.Track()
	if track.Label != "English" || track.Language != "en" {
		t.Errorf("track = %+v, want English/en", track)
	}
	want := "WEBVTT\n\n1\n00:01:02.500 --> 00:01:04.000\nHello\n"
	if string(track.VTT) != want {
		t.Errorf("track VTT = %q, want %q", track.VTT, want)
	}
	if s.SubtitleHint() != HintLoaded {
		t.Errorf("hint = %q, want %q", s.SubtitleHint(), HintLoaded)
	}
}

func TestAttachNoResults(t *testing.T) {
	srv := newSubtitleServer(t, func(string) []Subtitle { return nil }, nil)
	defer srv.Close()

	r, _, s := newTestStack(t, srv.URL)
	r.Attach(context.Background(), s.Ref, s)

	waitFor(t, func() bool { return s.SubtitleHint() == HintNoneFound }, "no-results hint was never set")
	if s.Track() != nil {
		t.Error("no track should be attached without results")
	}
}

func TestAttachSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, _, s := newTestStack(t, srv.URL)
	r.Attach(context.Background(), s.Ref, s)

	waitFor(t, func() bool { return s.SubtitleHint() == HintAutoLoadFailed }, "failure hint was never set")
	if s.Track() != nil {
		t.Error("no track should be attached after a failed search")
	}
}

func TestAttachStaleLookupDropped(t *testing.T) {
	gate := make(chan struct{})
	srv := newSubtitleServer(t, oneResult, gate)
	defer srv.Close()

	r, _, s := newTestStack(t, srv.URL)
	r.Attach(context.Background(), s.Ref, s)

	// A manual attachment initiated after the automatic lookup wins even
	// though the lookup finishes later.
	if !r.AttachManual(s, "http://example.com/manual.vtt") {
		t.Fatal("manual attachment must apply")
	}
	close(gate)

	time.Sleep(100 * time.Millisecond)
	if s.Track().URL != "http://example.com/manual.vtt" {
		t.Errorf("track = %+v, want the manual track to survive", s.Track())
	}
}

func TestAttachDroppedAfterSessionReplaced(t *testing.T) {
	gate := make(chan struct{})
	srv := newSubtitleServer(t, oneResult, gate)
	defer srv.Close()

	r, manager, s := newTestStack(t, srv.URL)
	r.Attach(context.Background(), s.Ref, s)

	// Replace the session while the download is still in flight.
	replacement, err := manager.Start(
		media.Ref{IMDbID: "tt0111161", Kind: media.KindMovie},
		aggregator.StreamCandidate{Name: "other", URL: "http://cdn/b.mp4"},
	)
	if err != nil {
		t.Fatal(err)
	}
	close(gate)

	time.Sleep(100 * time.Millisecond)
	if s.Track() != nil {
		t.Error("stale session must not receive a track")
	}
	if replacement.Track() != nil {
		t.Error("replacement session must not receive the stale track either")
	}
}

func TestSearchSeriesParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]Subtitle{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	ref := media.Ref{IMDbID: "tt0108778", Kind: media.KindSeries, Season: 2, Episode: 5}
	if _, err := c.Search(context.Background(), ref, "en"); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"id=tt0108778", "language=en", "format=srt", "encoding=utf-8", "season=2", "episode=5"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("search query %q missing %q", gotQuery, want)
		}
	}
}
