package selector

import (
	"fmt"
	"testing"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/config"
)

func newTestService() *Service {
	return NewService([]string{"[RD download]"}, config.DefaultQualityPolicy(), 40)
}

func TestExclusionFilter(t *testing.T) {
	s := newTestService()

	candidates := []aggregator.StreamCandidate{
		{Name: "1080p WEB", URL: "http://cdn/a.mkv"},
		{Name: "[RD download] 720p"},
		{Name: "720p", Title: "something [RD download] else"},
		{Name: "[rd download] case matters", URL: "http://cdn/b.mkv"},
	}

	out := s.Select(candidates)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	for _, rc := range out {
		if rc.Candidate.Name == "[RD download] 720p" {
			t.Error("denylisted candidate survived the filter")
		}
	}
	// Lower-cased marker must NOT match: the filter is case-sensitive.
	found := false
	for _, rc := range out {
		if rc.Candidate.Name == "[rd download] case matters" {
			found = true
		}
	}
	if !found {
		t.Error("case-insensitive match removed a candidate it should not")
	}
}

func TestClassifyIsPure(t *testing.T) {
	s := newTestService()

	inputs := []struct {
		text string
		url  string
	}{
		{"1080p BluRay x264", "http://cdn/movie.mkv"},
		{"4K HDR REMUX", "http://cdn/movie.mp4?token=abc"},
		{"Some Movie", ""},
		{"720p .mp4 web", "http://cdn/clip.webm"},
	}

	for _, in := range inputs {
		q1, r1, m1 := s.Classify(in.text, in.url)
		q2, r2, m2 := s.Classify(in.text, in.url)
		if q1 != q2 || r1 != r2 || m1 != m2 {
			t.Errorf("Classify(%q, %q) not deterministic", in.text, in.url)
		}
	}
}

func TestClassifyTiers(t *testing.T) {
	s := newTestService()

	tests := []struct {
		text     string
		url      string
		quality  string
		rank     int
		isMP4    bool
	}{
		{"Movie 1080p WEB-DL", "http://cdn/a.mkv", "1080p", 1, false},
		{"Movie 720p", "", "720p", 2, false},
		{"Movie 480p", "", "480p", 3, false},
		{"Movie 2160p", "", "4K", 4, false},
		{"Movie 4k UHD", "", "4K", 4, false},
		{"Movie CAM", "", "Other", 99, false},
		// 1080p pattern wins over 2160p: first match in policy order
		{"Movie 2160p 1080p", "", "1080p", 1, false},
		{"Movie", "http://cdn/a.mp4", "Other", 99, true},
		{"Movie", "http://cdn/a.m4v", "Other", 99, true},
		{"Movie", "http://cdn/a.mp4?token=x", "Other", 99, true},
		{"Movie something.mp4 inside", "http://cdn/a.mkv", "Other", 99, true},
		{"Movie", "http://cdn/a.mp4.mkv", "Other", 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"|"+tt.url, func(t *testing.T) {
			q, r, m := s.Classify(tt.text, tt.url)
			if q != tt.quality || r != tt.rank || m != tt.isMP4 {
				t.Errorf("Classify() = (%q, %d, %v), want (%q, %d, %v)", q, r, m, tt.quality, tt.rank, tt.isMP4)
			}
		})
	}
}

func TestSelectScenario(t *testing.T) {
	s := newTestService()

	candidates := []aggregator.StreamCandidate{
		{Name: "1080p WEB", URL: "http://cdn/a.mkv"},
		{Name: "1080p WEB", URL: "http://cdn/b.mp4"},
		{Name: "[RD download] 720p"},
		{Name: "4K REMUX", URL: "http://cdn/c.mp4"},
	}

	out := s.Select(candidates)
	if len(out) != 3 {
		t.Fatalf("got %d candidates, want 3 (exclusion removes entry 3)", len(out))
	}

	// Two 1080p entries first with the MP4 one ahead, the 4K entry last.
	if out[0].Candidate.URL != "http://cdn/b.mp4" || !out[0].IsMP4 {
		t.Errorf("out[0] = %+v, want the MP4 1080p entry", out[0])
	}
	if out[1].Candidate.URL != "http://cdn/a.mkv" || out[1].IsMP4 {
		t.Errorf("out[1] = %+v, want the non-MP4 1080p entry", out[1])
	}
	if out[2].Quality != "4K" || !out[2].IsMP4 {
		t.Errorf("out[2] = %+v, want the 4K MP4 entry", out[2])
	}
}

func TestSelectCarriesParsedMetadata(t *testing.T) {
	s := newTestService()

	out := s.Select([]aggregator.StreamCandidate{
		{Name: "Movie.2024.1080p.WEB-DL.x264-GROUP", URL: "http://cdn/a.mkv"},
	})
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	meta := out[0].Meta
	if meta == nil {
		t.Fatal("ranked candidate missing parsed metadata")
	}
	if meta.Resolution != "1080p" {
		t.Errorf("Meta.Resolution = %q, want 1080p", meta.Resolution)
	}
	if meta.Codec == "" {
		t.Error("Meta.Codec empty, want the codec parsed from the blob")
	}
}

func TestSortStability(t *testing.T) {
	s := newTestService()

	// All identical tier and container hint: input order must be preserved.
	var candidates []aggregator.StreamCandidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, aggregator.StreamCandidate{
			Name:  "1080p WEB",
			Title: fmt.Sprintf("release %d", i),
			URL:   "http://cdn/file.mkv",
		})
	}

	out := s.Select(candidates)
	for i, rc := range out {
		want := fmt.Sprintf("release %d", i)
		if rc.Candidate.Title != want {
			t.Fatalf("out[%d].Title = %q, want %q: equal-ranked order not preserved", i, rc.Candidate.Title, want)
		}
	}
}

func TestCap(t *testing.T) {
	s := newTestService()

	var candidates []aggregator.StreamCandidate
	for i := 0; i < 120; i++ {
		candidates = append(candidates, aggregator.StreamCandidate{Name: fmt.Sprintf("1080p rip %d", i)})
	}

	if got := len(s.Select(candidates)); got != 40 {
		t.Errorf("output length = %d, want 40", got)
	}

	short := candidates[:7]
	if got := len(s.Select(short)); got != 7 {
		t.Errorf("output length = %d, want min(40, 7) = 7", got)
	}
}
