// Package server exposes the HTTP surface: browse and catalog routes, the
// stream resolution endpoint, playback session control, and the key-hiding
// API proxy. Upstream credentials are attached server-side only; no route
// ever echoes them back.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"streamflix/pkg/aggregator"
	"streamflix/pkg/browse"
	"streamflix/pkg/catalog"
	"streamflix/pkg/config"
	"streamflix/pkg/logger"
	"streamflix/pkg/playback"
	"streamflix/pkg/selector"
	"streamflix/pkg/subtitles"
)

// Server handles API requests.
type Server struct {
	config     *config.Config
	catalog    *catalog.Client
	aggregator *aggregator.Client
	selector   *selector.Service
	playback   *playback.Manager
	subtitles  *subtitles.Resolver
	subClient  *subtitles.Client
	browse     *browse.Service
	searcher   *browse.Searcher

	// WebSocket client registry
	clients   map[*Client]bool
	clientsMu sync.Mutex
	logCh     chan string
}

// Client is one connected websocket consumer.
type Client struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Deps bundles the wired components for NewServer.
type Deps struct {
	Config     *config.Config
	Catalog    *catalog.Client
	Aggregator *aggregator.Client
	Selector   *selector.Service
	Playback   *playback.Manager
	Subtitles  *subtitles.Resolver
	SubClient  *subtitles.Client
	Browse     *browse.Service
	Searcher   *browse.Searcher
}

// NewServer creates the API server and starts the log broadcaster.
func NewServer(d Deps) *Server {
	s := &Server{
		config:     d.Config,
		catalog:    d.Catalog,
		aggregator: d.Aggregator,
		selector:   d.Selector,
		playback:   d.Playback,
		subtitles:  d.Subtitles,
		subClient:  d.SubClient,
		browse:     d.Browse,
		searcher:   d.Searcher,
		clients:    make(map[*Client]bool),
		logCh:      make(chan string, 100),
	}

	logger.SetBroadcast(s.logCh)
	go s.broadcastLogs()

	return s
}

func (s *Server) broadcastLogs() {
	for msgStr := range s.logCh {
		msg := WSMessage{Type: "log_entry", Payload: json.RawMessage(fmt.Sprintf("%q", msgStr))}

		s.clientsMu.Lock()
		for client := range s.clients {
			select {
			case client.send <- msg:
			default:
				// Drop message if client buffer is full
			}
		}
		s.clientsMu.Unlock()
	}
}

// AddClient registers a new websocket client
func (s *Server) AddClient(client *Client) {
	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()
}

// RemoveClient unregisters a websocket client and closes its send channel.
// The close happens under the registry mutex so senders that check
// membership first can never hit a closed channel.
func (s *Server) RemoveClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if !s.clients[client] {
		return
	}
	delete(s.clients, client)
	close(client.send)
}

// sendTo delivers a message to a client if it is still registered. Sends are
// non-blocking; a full buffer drops the message.
func (s *Server) sendTo(client *Client, msg WSMessage) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if !s.clients[client] {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Key-hiding proxy routes (browser-facing)
	mux.HandleFunc("/api/catalog/", s.handleCatalogProxy)
	mux.HandleFunc("/api/streams", s.handleStreamsProxy)
	mux.HandleFunc("/api/subtitles/search", s.handleSubtitleSearch)

	// Browse state
	mux.HandleFunc("/api/browse", s.handleBrowse)
	mux.HandleFunc("/api/browse/more", s.handleBrowseMore)
	mux.HandleFunc("/api/search", s.handleSearch)

	// Episode picker
	mux.HandleFunc("/api/show/", s.handleShow)

	// Stream resolution (full pipeline: aggregate, filter, rank)
	mux.HandleFunc("/streams/", s.handleStreams)

	// Playback session control
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/play/session", s.handlePlaySession)
	mux.HandleFunc("/play/volume", s.handlePlayVolume)
	mux.HandleFunc("/play/pointer", s.handlePlayPointer)
	mux.HandleFunc("/play/error", s.handlePlayError)
	mux.HandleFunc("/play/subtitle", s.handlePlaySubtitle)
	mux.HandleFunc("/play/stop", s.handlePlayStop)

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	return corsMiddleware(mux)
}

// corsMiddleware allows browser access from any origin; credentials never
// travel in responses so this is safe.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
