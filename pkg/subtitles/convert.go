package subtitles

import (
	"regexp"
	"strings"
)

// srtTimestampRE matches SRT timestamps (HH:MM:SS,mmm). Already-converted
// period-delimited timestamps do not match, so the transform is idempotent.
var srtTimestampRE = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)

// SRTToVTT converts SRT subtitle text to WebVTT: a fixed header line,
// normalized line endings, and comma-to-period millisecond delimiters.
// Cue text and indices pass through unchanged.
func SRTToVTT(srt string) string {
	s := strings.ReplaceAll(srt, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return "WEBVTT\n\n" + srtTimestampRE.ReplaceAllString(s, "$1.$2")
}
