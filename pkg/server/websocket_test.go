package server

import (
	"net/http"
	"testing"
)

func TestSendAfterClientRemoved(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {})

	client := &Client{send: make(chan WSMessage, 1)}
	s.AddClient(client)
	s.RemoveClient(client)

	// A push racing the disconnect must be dropped, not panic on the closed
	// channel.
	s.sendStats(client)
	s.sendLogHistory(client)
	s.sendTo(client, WSMessage{Type: "stats"})

	// Removal is idempotent; a second call must not close twice.
	s.RemoveClient(client)
}

func TestBufferFullDropsMessage(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {})

	client := &Client{send: make(chan WSMessage, 1)}
	s.AddClient(client)
	defer s.RemoveClient(client)

	s.sendTo(client, WSMessage{Type: "stats"})
	// Buffer is now full; the next send must not block.
	s.sendTo(client, WSMessage{Type: "stats"})

	if len(client.send) != 1 {
		t.Errorf("send buffer length = %d, want 1 (overflow dropped)", len(client.send))
	}
}
