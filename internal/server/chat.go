package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	SessionKey string `json:"session_key"` // empty for new sessions
	Text       string `json:"text"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type       string `json:"type"` // "response" or "error"
	SessionKey string `json:"session_key"`
	Text       string `json:"text"`
	Phase      string `json:"phase,omitempty"`
	Decision   string `json:"decision,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendChatError(conn, "", "invalid message format")
			continue
		}
		if req.Text == "" {
			s.sendChatError(conn, req.SessionKey, "text is required")
			continue
		}

		key := req.SessionKey
		if key == "" {
			key = uuid.NewString()
		}

		res, err := s.manager.SubmitTurn(r.Context(), key, req.Text)
		if err != nil {
			s.sendChatError(conn, key, "processing failed: "+err.Error())
			continue
		}

		s.sendChat(conn, chatResponse{
			Type:       "response",
			SessionKey: key,
			Text:       res.Response,
			Phase:      string(res.Phase),
			Decision:   string(res.Decision),
		})
	}
}

func (s *Server) sendChat(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("chat: websocket write: %v", err)
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, key, msg string) {
	s.sendChat(conn, chatResponse{Type: "error", SessionKey: key, Text: msg})
}
