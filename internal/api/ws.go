package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/identity"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const frameScreen = "screen"

// wsFrame is a client frame on the conversation socket.
type wsFrame struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Screen string `json:"screen,omitempty"`
}

// wsReply answers every client frame.
type wsReply struct {
	Type    string                      `json:"type"`
	Error   string                      `json:"error,omitempty"`
	Summary *domain.ConversationSummary `json:"summary,omitempty"`
	Context *domain.ConversationContext `json:"context,omitempty"`
}

// WebSocketHandler streams conversation events from one browser tab.
type WebSocketHandler struct {
	sessions       *conversation.Registry
	originPatterns []string
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(sessions *conversation.Registry, originPatterns []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{sessions: sessions, originPatterns: originPatterns, logger: logger}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	log := h.logger.With("user_id", userID, "session_id", sessionID)
	log.Info("WebSocket connection request", "ip", identity.IPFromRequest(r))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			log.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	tracker := h.sessions.Get(userID, sessionID)
	h.readLoop(r.Context(), ws, tracker, log)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, tracker *conversation.Tracker, log *slog.Logger) {
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				log.Debug("WebSocket closed by client")
			} else {
				log.Warn("WebSocket read error", "error", err)
			}
			return
		}

		reply := handleFrame(tracker, frame)
		if err := wsjson.Write(ctx, ws, reply); err != nil {
			log.Debug("WebSocket write error", "error", err)
			return
		}
	}
}

func handleFrame(tracker *conversation.Tracker, frame wsFrame) wsReply {
	var err error
	switch frame.Type {
	case frameScreen:
		if strings.TrimSpace(frame.Screen) == "" {
			err = errors.New("screen is required")
		} else {
			tracker.SetCurrentScreen(frame.Screen)
		}
	default:
		if strings.TrimSpace(frame.Text) == "" {
			err = errors.New("text is required")
		} else {
			err = appendMessage(tracker, domain.EventKind(frame.Type), frame.Text, frame.Screen)
		}
	}
	if err != nil {
		return wsReply{Type: "error", Error: err.Error()}
	}

	ctx := tracker.Context()
	return wsReply{Type: "summary", Summary: tracker.Summary(), Context: &ctx}
}

// appendMessage adds a user or AI event; system events cannot be posted by clients.
func appendMessage(tracker *conversation.Tracker, kind domain.EventKind, text, screen string) error {
	switch kind {
	case domain.EventUser:
		tracker.AddUserMessage(text, screen)
	case domain.EventAI:
		tracker.AddAIResponse(text, screen)
	default:
		return fmt.Errorf("role must be %q or %q", domain.EventUser, domain.EventAI)
	}
	return nil
}
