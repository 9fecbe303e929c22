package subtitles

import (
	"context"

	"streamflix/pkg/logger"
	"streamflix/pkg/media"
	"streamflix/pkg/playback"
)

// Subtitle panel hints. Lookup failures never surface as errors; they set
// one of these on the session and invite a manual URL instead.
const (
	HintSearching      = "Searching subtitles..."
	HintNoneFound      = "No subtitles found. Paste URL below."
	HintAutoLoadFailed = "Auto-load failed. Paste .vtt URL below."
	HintLoaded         = "Subtitles loaded."
)

// Resolver drives automatic subtitle attachment for playback sessions.
type Resolver struct {
	client   *Client
	manager  *playback.Manager
	language string
}

// NewResolver creates a resolver using client for lookups. Tracks are only
// applied to sessions that manager still reports as current.
func NewResolver(client *Client, manager *playback.Manager, language string) *Resolver {
	return &Resolver{client: client, manager: manager, language: language}
}

// Attach starts a fire-and-forget subtitle lookup for s. Playback proceeds
// regardless of the outcome; a result arriving after the session was replaced
// or after a newer attachment began is dropped.
func (r *Resolver) Attach(ctx context.Context, ref media.Ref, s *playback.Session) {
	token := s.BeginAttachment()
	s.SetSubtitleHint(HintSearching)
	go r.attach(ctx, ref, s, token)
}

func (r *Resolver) attach(ctx context.Context, ref media.Ref, s *playback.Session, token uint64) {
	results, err := r.client.Search(ctx, ref, r.language)
	if err != nil {
		logger.Warn("Subtitle search failed", "id", ref.StreamID(), "error", err)
		r.setHint(s, HintAutoLoadFailed)
		return
	}
	if len(results) == 0 || results[0].URL == "" {
		logger.Debug("No subtitles found", "id", ref.StreamID(), "language", r.language)
		r.setHint(s, HintNoneFound)
		return
	}

	first := results[0]
	payload, err := r.client.Download(ctx, first.URL)
	if err != nil {
		logger.Warn("Subtitle download failed", "url", first.URL, "error", err)
		r.setHint(s, HintAutoLoadFailed)
		return
	}

	vtt := SRTToVTT(payload)
	if !r.manager.IsCurrent(s) {
		return
	}

	label := first.Display
	if label == "" {
		label = first.Language
	}
	applied := s.CompleteAttachment(token, &playback.Track{
		Label:    label,
		Language: r.language,
		VTT:      []byte(vtt),
	})
	if applied {
		s.SetSubtitleHint(HintLoaded)
		logger.Info("Subtitles attached", "id", ref.StreamID(), "display", first.Display)
	}
}

// AttachManual installs a user-supplied .vtt URL as the session track,
// superseding any in-flight automatic lookup.
func (r *Resolver) AttachManual(s *playback.Session, rawURL string) bool {
	token := s.BeginAttachment()
	applied := s.CompleteAttachment(token, &playback.Track{
		Label:    "Manual",
		Language: r.language,
		URL:      rawURL,
	})
	if applied {
		s.SetSubtitleHint(HintLoaded)
	}
	return applied
}

func (r *Resolver) setHint(s *playback.Session, hint string) {
	if !r.manager.IsCurrent(s) {
		return
	}
	s.SetSubtitleHint(hint)
}
