package aggregator

// StreamResponse is the aggregator's answer to a stream query.
type StreamResponse struct {
	Streams []StreamCandidate `json:"streams"`
	Error   string            `json:"error,omitempty"`
}

// StreamCandidate is one playable option returned by the aggregator.
// Title is a free-text blob: format, source and size hints are embedded as
// text, not structured fields.
type StreamCandidate struct {
	// URL for direct streaming (HTTP video file); may be empty
	URL string `json:"url,omitempty"`

	// Display name
	Name string `json:"name,omitempty"`

	// Free-text title/description blob
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	BehaviorHints *BehaviorHints `json:"behaviorHints,omitempty"`
}

// BehaviorHints carries upstream playback hints, passed through untouched.
type BehaviorHints struct {
	NotWebReady bool   `json:"notWebReady,omitempty"`
	BingeGroup  string `json:"bingeGroup,omitempty"`
	VideoSize   int64  `json:"videoSize,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// CombinedText returns the name+title blob the selection pipeline matches
// against.
func (s StreamCandidate) CombinedText() string {
	return s.Name + " " + s.Title
}
