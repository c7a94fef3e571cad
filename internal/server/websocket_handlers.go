package server

import (
	"tribehub/internal/middleware"
	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketEventsHandler streams committed ledger events. ?entity= limits the stream to
// one entity kind, e.g. "tribe" or "post".
func (s *Server) WebSocketEventsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		subscriber, ok := conn.Locals(middleware.CallerLocal).(models.Address)
		if !ok || subscriber.IsZero() {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(conn, subscriber.String(), conn.Query("entity"))
		if err != nil {
			middleware.Logger.Warn("event stream registration refused",
				"subscriber", subscriber, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
