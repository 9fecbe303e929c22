package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/catalog"
	"streamflix/pkg/logger"
	"streamflix/pkg/media"
	"streamflix/pkg/playback"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseKind clamps a client-supplied content type to a known media kind.
// "tv" is accepted as an alias for series.
func parseKind(t string) (media.Kind, bool) {
	switch t {
	case "movie":
		return media.KindMovie, true
	case "series", "tv":
		return media.KindSeries, true
	}
	return "", false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCatalogProxy forwards catalog requests with the server-held key
// attached. Failures are normalized to {"status_message": ...} regardless of
// the upstream payload shape, so the browser only ever sees one error format.
func (s *Server) handleCatalogProxy(w http.ResponseWriter, r *http.Request) {
	resourcePath := strings.TrimPrefix(r.URL.Path, "/api/catalog/")
	if resourcePath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status_message": "missing resource path"})
		return
	}

	params := url.Values{}
	for k, vs := range r.URL.Query() {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	// Live search must never serve stale pages.
	skipCache := strings.HasPrefix(resourcePath, "search/")

	payload, err := s.catalog.Query(r.Context(), resourcePath, params, skipCache)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "catalog request failed"
		var catErr *catalog.CatalogError
		if errors.As(err, &catErr) {
			if catErr.StatusCode != 0 {
				status = catErr.StatusCode
			}
			msg = catErr.Message
		}
		writeJSON(w, status, map[string]string{"status_message": msg})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// handleStreamsProxy forwards a stream lookup verbatim: candidates in
// upstream order, no filtering or ranking. The aggregator token is attached
// server-side.
func (s *Server) handleStreamsProxy(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	kind, ok := parseKind(r.URL.Query().Get("type"))
	if id == "" || !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id and type (movie|series|tv) are required", "streams": []any{}})
		return
	}

	candidates, err := s.aggregator.ResolveStreams(r.Context(), id, kind)
	if err != nil {
		s.writeStreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregator.StreamResponse{Streams: candidates})
}

// handleStreams runs the full resolution pipeline: aggregate candidates,
// then filter, classify, rank and cap them. Routes follow the addon shape
// /streams/{type}/{id}.json; numeric catalog IDs are resolved to IMDb IDs
// before the aggregator is queried.
func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/streams/")
	path = strings.TrimSuffix(path, ".json")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "invalid stream URL")
		return
	}

	kind, ok := parseKind(parts[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	streamID, err := s.normalizeStreamID(r.Context(), parts[1], kind)
	if err != nil {
		s.writeStreamError(w, err)
		return
	}

	logger.Info("Stream request", "type", kind, "id", streamID)

	candidates, err := s.aggregator.ResolveStreams(r.Context(), streamID, kind)
	if err != nil {
		s.writeStreamError(w, err)
		return
	}

	ranked := s.selector.Select(candidates)
	writeJSON(w, http.StatusOK, map[string]any{"streams": ranked})
}

// normalizeStreamID resolves numeric catalog IDs to IMDb form, preserving
// any ":season:episode" suffix.
func (s *Server) normalizeStreamID(ctx context.Context, id string, kind media.Kind) (string, error) {
	segs := strings.Split(id, ":")
	head := segs[0]
	if strings.HasPrefix(head, "tt") {
		return id, nil
	}

	catalogID, err := strconv.Atoi(head)
	if err != nil {
		return "", &catalog.CatalogError{StatusCode: http.StatusBadRequest, Message: "unrecognized title identifier"}
	}

	imdbID, err := s.catalog.ResolveIMDbID(ctx, catalogID, kind)
	if err != nil {
		return "", err
	}

	segs[0] = imdbID
	return strings.Join(segs, ":"), nil
}

// writeStreamError maps pipeline errors to the {error, streams} shape the
// player expects. A clean zero-result lookup is not an error.
func (s *Server) writeStreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, aggregator.ErrNoStreams) {
		writeJSON(w, http.StatusOK, map[string]any{"streams": []any{}})
		return
	}

	var upErr *aggregator.UpstreamError
	if errors.As(err, &upErr) {
		status := http.StatusBadGateway
		if upErr.StatusCode >= 400 {
			status = upErr.StatusCode
		}
		writeJSON(w, status, map[string]any{"error": upErr.Message, "streams": []any{}})
		return
	}

	var catErr *catalog.CatalogError
	if errors.As(err, &catErr) {
		status := http.StatusBadGateway
		if catErr.StatusCode != 0 {
			status = catErr.StatusCode
		}
		writeJSON(w, status, map[string]any{"error": catErr.Message, "streams": []any{}})
		return
	}

	logger.Error("Stream resolution failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stream resolution failed", "streams": []any{}})
}

// handleSubtitleSearch proxies a subtitle lookup for the browser. Results
// pass through untouched; download and conversion happen at play time.
func (s *Server) handleSubtitleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	kind := media.KindMovie
	season, _ := strconv.Atoi(q.Get("season"))
	episode, _ := strconv.Atoi(q.Get("episode"))
	if season > 0 && episode > 0 {
		kind = media.KindSeries
	}

	language := q.Get("language")
	if language == "" {
		language = s.config.SubtitleLanguage
	}

	ref := media.Ref{IMDbID: id, Kind: kind, Season: season, Episode: episode}
	results, err := s.subClient.Search(r.Context(), ref, language)
	if err != nil {
		logger.Warn("Subtitle search proxy failed", "id", id, "err", err)
		writeError(w, http.StatusBadGateway, "subtitle search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleShow serves the episode picker: /api/show/{id} returns the season
// count, /api/show/{id}/season/{n} the episode list for one season.
func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/show/")
	parts := strings.Split(path, "/")

	showID, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid show id")
		return
	}

	switch {
	case len(parts) == 1:
		detail, err := s.catalog.ShowDetail(r.Context(), showID)
		if err != nil {
			s.writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	case len(parts) == 3 && parts[1] == "season":
		season, err := strconv.Atoi(parts[2])
		if err != nil || season < 1 {
			writeError(w, http.StatusBadRequest, "invalid season number")
			return
		}
		detail, err := s.catalog.Season(r.Context(), showID, season)
		if err != nil {
			s.writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	default:
		writeError(w, http.StatusNotFound, "unknown show route")
	}
}

func (s *Server) writeCatalogError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	msg := "catalog request failed"
	var catErr *catalog.CatalogError
	if errors.As(err, &catErr) {
		if catErr.StatusCode != 0 {
			status = catErr.StatusCode
		}
		msg = catErr.Message
	}
	writeError(w, status, msg)
}

// handleBrowse returns the category rows. POST triggers a full reload in the
// background; the response reflects whatever is loaded so far.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		go s.browse.LoadAll(context.Background())
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": s.browse.Rows()})
}

// handleBrowseMore loads the next page of one row and returns its new state.
func (s *Server) handleBrowseMore(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if _, ok := s.browse.Row(key); !ok {
		writeError(w, http.StatusNotFound, "unknown category")
		return
	}

	s.browse.LoadMore(r.Context(), key)
	row, _ := s.browse.Row(key)
	writeJSON(w, http.StatusOK, row)
}

// handleSearch registers a query keystroke and returns the current snapshot.
// Results for the keystroke arrive after the debounce window; the client
// polls or re-queries to pick them up.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		s.searcher.Query(context.Background(), strings.Join(q, " "))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  s.searcher.Active(),
		"results": s.searcher.Results(),
	})
}

// playRequest is the POST /play body.
type playRequest struct {
	Type    string                     `json:"type"`
	ID      string                     `json:"id"`
	Season  int                        `json:"season"`
	Episode int                        `json:"episode"`
	Stream  aggregator.StreamCandidate `json:"stream"`
}

// sessionView is the playback state snapshot returned by session routes.
type sessionView struct {
	StreamID        string          `json:"stream_id"`
	Name            string          `json:"name"`
	URL             string          `json:"url"`
	ContentType     string          `json:"content_type,omitempty"`
	Volume          float64         `json:"volume"`
	Muted           bool            `json:"muted"`
	ControlsVisible bool            `json:"controls_visible"`
	SubtitleHint    string          `json:"subtitle_hint,omitempty"`
	Track           *playback.Track `json:"track,omitempty"`
}

func viewOf(sess *playback.Session) sessionView {
	volume, muted := sess.Volume()
	return sessionView{
		StreamID:        sess.Ref.StreamID(),
		Name:            sess.Candidate.Name,
		URL:             sess.Candidate.URL,
		ContentType:     sess.ContentType,
		Volume:          volume,
		Muted:           muted,
		ControlsVisible: sess.ControlsVisible(),
		SubtitleHint:    sess.SubtitleHint(),
		Track:           sess.Track(),
	}
}

// handlePlay starts playback of a selected candidate and kicks off the
// automatic subtitle lookup. Starting replaces any prior session.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid play request")
		return
	}

	kind, ok := parseKind(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	ref := media.Ref{IMDbID: req.ID, Kind: kind, Season: req.Season, Episode: req.Episode}
	sess, err := s.playback.Start(ref, req.Stream)
	if err != nil {
		if errors.Is(err, playback.ErrNoDirectStream) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start playback")
		return
	}

	// Lookup outlives the request; the attach path guards against the
	// session being replaced before it completes.
	s.subtitles.Attach(context.Background(), ref, sess)

	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) currentSession(w http.ResponseWriter) *playback.Session {
	sess := s.playback.Current()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no active playback session")
	}
	return sess
}

func (s *Server) handlePlaySession(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePlayVolume(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w)
	if sess == nil {
		return
	}

	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid volume request")
		return
	}

	sess.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePlayPointer(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w)
	if sess == nil {
		return
	}

	var req struct {
		Inside bool `json:"inside"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pointer request")
		return
	}

	if req.Inside {
		sess.PointerEnter()
	} else {
		sess.PointerLeave()
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePlayError(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w)
	if sess == nil {
		return
	}

	var req struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid error report")
		return
	}

	perr := sess.ReportError(req.Code, req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"kind": perr.Kind, "hint": perr.Hint})
}

func (s *Server) handlePlaySubtitle(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w)
	if sess == nil {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "subtitle url is required")
		return
	}

	s.subtitles.AttachManual(sess, strings.TrimSpace(req.URL))
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePlayStop(w http.ResponseWriter, r *http.Request) {
	sess := s.playback.Current()
	if sess != nil {
		s.playback.Stop(sess)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
