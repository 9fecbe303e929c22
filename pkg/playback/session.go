// Package playback owns the single active playback session: content-type
// inference, error surfacing, volume and subtitle controls. Only one session
// may be current at a time; starting a new one replaces the prior slot,
// never merges with it.
package playback

import (
	"errors"
	"strings"
	"sync"
	"time"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/logger"
	"streamflix/pkg/media"
)

// ErrNoDirectStream is returned when a candidate carries no direct URL;
// playback is not attempted.
var ErrNoDirectStream = errors.New("no direct stream URL; try another stream")

// Playback error kinds.
const (
	ErrorUnsupportedFormat = "unsupported_format"
	ErrorGeneric           = "generic"
)

// Player error codes as reported by the HTML media element.
const (
	mediaErrDecode          = 3
	mediaErrSrcNotSupported = 4
)

// PlaybackError is a runtime playback failure with a user-facing hint.
// There is no automatic retry or candidate fallback.
type PlaybackError struct {
	Kind string
	Hint string
}

func (e *PlaybackError) Error() string {
	return e.Hint
}

// ClassifyError maps a player error code and message to a PlaybackError.
func ClassifyError(code int, message string) *PlaybackError {
	if code == mediaErrDecode || code == mediaErrSrcNotSupported ||
		strings.Contains(message, "format") || strings.Contains(message, "MIME") {
		return &PlaybackError{
			Kind: ErrorUnsupportedFormat,
			Hint: "This stream format may not be supported. Try a stream that ends in .mp4.",
		}
	}
	return &PlaybackError{
		Kind: ErrorGeneric,
		Hint: "Stream failed to play. Try another stream.",
	}
}

// InferContentType infers the playable content type from the candidate URL
// and its descriptive text. Empty means "let the runtime infer".
func InferContentType(rawURL, text string) string {
	u := strings.ToLower(rawURL)
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	t := strings.ToLower(text)

	switch {
	case strings.HasSuffix(u, ".mp4"), strings.HasSuffix(u, ".m4v"), strings.Contains(t, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(u, ".webm"):
		return "video/webm"
	case strings.HasSuffix(u, ".mkv"), strings.Contains(t, ".mkv"):
		return "video/x-matroska"
	}
	return ""
}

// Track is an attached subtitle track.
type Track struct {
	Label    string `json:"label"`
	Language string `json:"language"`
	URL      string `json:"url,omitempty"`
	VTT      []byte `json:"-"`
}

// Session is one playback of a single candidate.
type Session struct {
	Ref         media.Ref
	Candidate   aggregator.StreamCandidate
	ContentType string

	mu         sync.Mutex
	generation uint64

	volume float64
	muted  bool

	controlsVisible bool
	hideTimer       *time.Timer
	hideDelay       time.Duration

	track        *Track
	subtitleHint string

	// Attachment slot generation: the most recently initiated attachment
	// wins, regardless of network completion order.
	lastInitiated uint64

	lastError *PlaybackError
}

// Manager owns the single active session slot.
type Manager struct {
	mu         sync.Mutex
	current    *Session
	generation uint64
	hideDelay  time.Duration
}

// NewManager creates a session manager. hideDelay is the controls auto-hide
// idle timer (fixed 2s in production, injectable for tests).
func NewManager(hideDelay time.Duration) *Manager {
	return &Manager{hideDelay: hideDelay}
}

// Start begins playback of candidate, replacing any prior session. The
// candidate must carry a direct URL; otherwise no session is created and
// ErrNoDirectStream is returned.
func (m *Manager) Start(ref media.Ref, candidate aggregator.StreamCandidate) (*Session, error) {
	if candidate.URL == "" {
		return nil, ErrNoDirectStream
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.stopHideTimer()
	}

	m.generation++
	s := &Session{
		Ref:         ref,
		Candidate:   candidate,
		ContentType: InferContentType(candidate.URL, candidate.CombinedText()),
		generation:  m.generation,
		volume:      1.0,
		hideDelay:   m.hideDelay,
	}
	m.current = s

	logger.Info("Playback started", "id", ref.StreamID(), "name", candidate.Name, "content_type", s.ContentType)
	return s, nil
}

// Current returns the active session, if any.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsCurrent reports whether s is still the active session.
func (m *Manager) IsCurrent(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && s != nil && m.current.generation == s.generation
}

// Stop clears the active session slot if s is still current.
func (m *Manager) Stop(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && s != nil && m.current.generation == s.generation {
		m.current.stopHideTimer()
		m.current = nil
	}
}

// SetVolume sets the session volume, clamped to [0,1]. Volume zero mutes.
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.volume = v
	s.muted = v == 0
}

// Volume returns the current volume and mute state.
func (s *Session) Volume() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.muted
}

// PointerEnter shows the controls and cancels any pending hide timer.
func (s *Session) PointerEnter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
	s.controlsVisible = true
}

// PointerLeave arms the auto-hide timer; the controls disappear after the
// idle delay unless the pointer re-enters.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.hideTimer = time.AfterFunc(s.hideDelay, func() {
		s.mu.Lock()
		s.controlsVisible = false
		s.hideTimer = nil
		s.mu.Unlock()
	})
}

// ControlsVisible reports the current controls state.
func (s *Session) ControlsVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlsVisible
}

func (s *Session) stopHideTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
}

// ReportError records a runtime playback failure on the session.
func (s *Session) ReportError(code int, message string) *PlaybackError {
	err := ClassifyError(code, message)
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
	logger.Warn("Playback error", "kind", err.Kind, "code", code)
	return err
}

// LastError returns the most recent playback error, if any.
func (s *Session) LastError() *PlaybackError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// BeginAttachment reserves an attachment slot generation. The caller passes
// the returned token to CompleteAttachment once its subtitle payload is
// ready; only the most recently initiated attachment is applied.
func (s *Session) BeginAttachment() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInitiated++
	return s.lastInitiated
}

// CompleteAttachment installs track if token still names the most recently
// initiated attachment, replacing any existing track. It reports whether the
// track was applied.
func (s *Session) CompleteAttachment(token uint64, track *Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.lastInitiated {
		return false
	}
	s.track = track
	s.subtitleHint = ""
	return true
}

// Track returns the attached subtitle track, if any.
func (s *Session) Track() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// SetSubtitleHint records a textual hint shown in the subtitle panel
// (e.g. inviting manual URL entry after a failed lookup).
func (s *Session) SetSubtitleHint(hint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtitleHint = hint
}

// SubtitleHint returns the current subtitle panel hint.
func (s *Session) SubtitleHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtitleHint
}
