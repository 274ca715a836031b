package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/humcp/humcp/internal/validate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsRequest is one procedure call over the websocket protocol. ID is echoed
// back so callers can multiplex calls on a single connection.
type wsRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// wsResponse mirrors the invocation envelope, plus the call ID and the
// structured field errors on validation failures.
type wsResponse struct {
	ID      string                `json:"id"`
	Success bool                  `json:"success"`
	Data    any                   `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

// handleWS serves tool calls over a websocket. Each text message is one
// call; responses carry the caller-supplied ID. Malformed frames produce an
// error response rather than closing the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeWS(conn, wsResponse{Success: false, Error: "invalid JSON frame: " + err.Error()})
			continue
		}

		resp := wsResponse{ID: req.ID}
		payload, err := decodeArguments(req.Arguments)
		if err != nil {
			resp.Error = "invalid arguments: " + err.Error()
			s.writeWS(conn, resp)
			continue
		}

		env, _, fieldErrs := s.call(r, req.Name, payload)
		resp.Success = env.Success
		resp.Data = env.Data
		resp.Error = env.Error
		resp.Errors = fieldErrs
		s.writeWS(conn, resp)
	}
}

func (s *Server) writeWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		slog.Warn("Websocket write failed", "error", err)
	}
}
