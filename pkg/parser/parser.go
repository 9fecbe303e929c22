// Package parser extracts display metadata from stream candidate text using
// go-ptt. The selector's quality tiering does not depend on this; parsed
// metadata is presentation-only.
package parser

import (
	"strconv"
	"strings"

	"github.com/MunifTanjim/go-ptt"
)

// ParsedRelease contains parsed metadata from a candidate's free-text blob.
// It is serialized onto ranked candidates for display.
type ParsedRelease struct {
	Title      string   `json:"title,omitempty"`
	Year       int      `json:"year,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Quality    string   `json:"quality,omitempty"`
	Codec      string   `json:"codec,omitempty"`
	Audio      []string `json:"audio,omitempty"`
	HDR        []string `json:"hdr,omitempty"`
	Container  string   `json:"container,omitempty"`
	Group      string   `json:"group,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Size       string   `json:"size,omitempty"`
	Season     int      `json:"season,omitempty"`
	Episode    int      `json:"episode,omitempty"`
}

// ParseReleaseTitle parses a release title using go-ptt.
func ParseReleaseTitle(title string) *ParsedRelease {
	info := ptt.Parse(title)

	parsed := &ParsedRelease{
		Title:      info.Title,
		Resolution: info.Resolution,
		Quality:    info.Quality,
		Codec:      info.Codec,
		Audio:      info.Audio,
		HDR:        info.HDR,
		Container:  info.Container,
		Group:      info.Group,
		Languages:  info.Languages,
		Size:       info.Size,
	}

	if info.Year != "" {
		if year, err := strconv.Atoi(info.Year); err == nil {
			parsed.Year = year
		}
	}

	if len(info.Seasons) > 0 {
		parsed.Season = info.Seasons[0]
	}
	if len(info.Episodes) > 0 {
		parsed.Episode = info.Episodes[0]
	}

	return parsed
}

// ResolutionGroup returns the coarse resolution group (4k, 1080p, 720p, sd).
func (p *ParsedRelease) ResolutionGroup() string {
	if p == nil {
		return "sd"
	}
	res := strings.ToLower(p.Resolution)
	if strings.Contains(res, "2160") || strings.Contains(res, "4k") {
		return "4k"
	}
	if strings.Contains(res, "1080") {
		return "1080p"
	}
	if strings.Contains(res, "720") {
		return "720p"
	}
	return "sd"
}
