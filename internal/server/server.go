// Package server implements the relay participants exchange protocol
// frames through. The relay is intentionally dumb: it verifies nothing
// and fans every frame out to the other members of a hand, so it can be
// run by any party (or a third one) without being trusted.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server accepts websocket connections and routes them to hand rooms.
type Server struct {
	logger   *log.Logger
	manager  *HandManager
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a relay around the given hand manager.
func NewServer(logger *log.Logger, manager *HandManager) *Server {
	return &Server{
		logger:  logger.WithPrefix("relay"),
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// participants connect from anywhere; authentication is
			// out of scope for the relay
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the websocket endpoint at
// /ws. Exposed separately so tests can mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := NewConnection(conn, s.logger, s)
	c.Start()
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("relay listening", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the listener and tears down every room.
func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
