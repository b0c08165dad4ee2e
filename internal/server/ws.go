package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	statusPushInterval = 60 * time.Second
	statusWriteTimeout = 5 * time.Second
)

var statusUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	s.serveStatusConnection(conn)
}

// serveStatusConnection pushes a snapshot on connect, after every board or
// configuration change and on a fixed period until the client goes away.
func (s *Server) serveStatusConnection(conn *websocket.Conn) {
	defer conn.Close()

	boardSignals, cancelBoard := s.board.Subscribe()
	defer cancelBoard()
	storeChanges, cancelStore := s.store.Subscribe()
	defer cancelStore()

	if err := s.writeStatus(conn); err != nil {
		return
	}

	ticker := s.clock.Ticker(statusPushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
		case <-boardSignals:
		case _, ok := <-storeChanges:
			if !ok {
				return
			}
		case <-done:
			return
		}
		if err := s.writeStatus(conn); err != nil {
			return
		}
	}
}

func (s *Server) writeStatus(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(statusWriteTimeout))
	return conn.WriteJSON(s.snapshot())
}
