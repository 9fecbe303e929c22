// Package selector filters, classifies and ranks stream candidates for
// presentation. It is pure: no I/O, no side effects, input order preserved
// for equal-ranked entries.
package selector

import (
	"sort"
	"strings"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/config"
	"streamflix/pkg/parser"
)

// RankedCandidate is a candidate that survived the exclusion filter,
// annotated with its quality tier, container hint and parsed metadata.
type RankedCandidate struct {
	Candidate aggregator.StreamCandidate `json:"candidate"`
	Quality   string                     `json:"quality"`
	Rank      int                        `json:"-"`
	IsMP4     bool                       `json:"is_mp4"`
	Meta      *parser.ParsedRelease      `json:"meta,omitempty"`
}

// Service implements the selection pipeline: exclusion filter,
// classification, sort, cap.
type Service struct {
	denylist []string
	policy   []config.QualityRule
	max      int
}

// NewService creates a selector. policy is evaluated in order, first match
// wins; max caps the output length.
func NewService(denylist []string, policy []config.QualityRule, max int) *Service {
	return &Service{
		denylist: denylist,
		policy:   policy,
		max:      max,
	}
}

// Select runs the pipeline over candidates and returns the ranked, capped
// result.
func (s *Service) Select(candidates []aggregator.StreamCandidate) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))

	for _, cand := range candidates {
		if s.excluded(cand) {
			continue
		}

		quality, rank, isMP4 := s.Classify(cand.CombinedText(), cand.URL)

		ranked = append(ranked, RankedCandidate{
			Candidate: cand,
			Quality:   quality,
			Rank:      rank,
			IsMP4:     isMP4,
			Meta:      parser.ParseReleaseTitle(cand.CombinedText()),
		})
	}

	// Stable: candidates with equal rank and container hint keep their
	// upstream relative order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank < ranked[j].Rank
		}
		return ranked[i].IsMP4 && !ranked[j].IsMP4
	})

	if s.max > 0 && len(ranked) > s.max {
		ranked = ranked[:s.max]
	}
	return ranked
}

// excluded reports whether the candidate's combined text contains a denylist
// marker. The match is case-sensitive.
func (s *Service) excluded(cand aggregator.StreamCandidate) bool {
	text := cand.CombinedText()
	for _, marker := range s.denylist {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Classify derives the quality tier and container hint from the combined
// name+title text and the URL. It is a pure function of its inputs.
func (s *Service) Classify(combinedText, rawURL string) (quality string, rank int, isMP4 bool) {
	text := strings.ToLower(combinedText)
	urlPath := strings.ToLower(rawURL)
	if i := strings.IndexByte(urlPath, '?'); i >= 0 {
		urlPath = urlPath[:i]
	}

	quality = "Other"
	rank = 99
	for _, rule := range s.policy {
		if matchesAny(text, rule.Patterns) {
			quality = rule.Tier
			rank = rule.Rank
			break
		}
	}

	isMP4 = strings.HasSuffix(urlPath, ".mp4") ||
		strings.HasSuffix(urlPath, ".m4v") ||
		strings.Contains(text, ".mp4")

	return quality, rank, isMP4
}

func matchesAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
