package api

import (
	"net/http"

	"application-intake-go/internal/logger"

	"golang.org/x/net/websocket"
)

// handleWSLogs streams every log event as one JSON text frame.
func (s *Server) handleWSLogs(w http.ResponseWriter, r *http.Request) {
	websocket.Server{
		Handshake: func(cfg *websocket.Config, req *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			conn.PayloadType = websocket.TextFrame
			ch, cancel := logger.Subscribe()
			defer cancel()

			for msg := range ch {
				if err := websocket.Message.Send(conn, string(msg)); err != nil {
					return
				}
			}
		},
	}.ServeHTTP(w, r)
}
