package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"streamflix/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allowing all origins for development
	},
}

// WSMessage is the envelope for all websocket traffic.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WS upgrade error", "err", err)
		return
	}

	client := &Client{conn: conn, send: make(chan WSMessage, 256)}
	s.AddClient(client)

	defer func() {
		s.RemoveClient(client)
		conn.Close()
	}()

	logger.Debug("WS client connected", "remote", r.RemoteAddr)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	// Push the current state and log history first; the write loop below is
	// the only goroutine writing to the connection.
	go func() {
		s.sendStats(client)
		s.sendLogHistory(client)
	}()

	// Read loop (client -> server)
	go func() {
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Debug("WS read error", "err", err)
				}
				conn.Close()
				return
			}

			switch msg.Type {
			case "set_log_level":
				s.handleSetLogLevelWS(msg.Payload)
			case "stop_playback":
				if sess := s.playback.Current(); sess != nil {
					s.playback.Stop(sess)
				}
			}
		}
	}()

	// Write loop (server -> client)
	for {
		select {
		case <-ticker.C:
			s.sendStats(client)
		case msg, ok := <-client.send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// wsStats is the periodic status snapshot pushed to websocket clients.
type wsStats struct {
	Playing      bool   `json:"playing"`
	StreamID     string `json:"stream_id,omitempty"`
	StreamName   string `json:"stream_name,omitempty"`
	SearchActive bool   `json:"search_active"`
}

func (s *Server) collectStats() wsStats {
	stats := wsStats{SearchActive: s.searcher.Active()}
	if sess := s.playback.Current(); sess != nil {
		stats.Playing = true
		stats.StreamID = sess.Ref.StreamID()
		stats.StreamName = sess.Candidate.Name
	}
	return stats
}

func (s *Server) sendStats(client *Client) {
	payload, _ := json.Marshal(s.collectStats())
	s.sendTo(client, WSMessage{Type: "stats", Payload: payload})
}

func (s *Server) sendLogHistory(client *Client) {
	history := logger.GetHistory()
	payload, _ := json.Marshal(history)
	s.sendTo(client, WSMessage{Type: "log_history", Payload: payload})
}

func (s *Server) handleSetLogLevelWS(payload json.RawMessage) {
	var req struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Level == "" {
		return
	}
	logger.SetLevel(req.Level)
	logger.Info("Log level changed", "level", req.Level)
}
