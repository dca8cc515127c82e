package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func TestWebSocket_ConversationFrames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/conversation?user_id=u1&session_id=tab-9"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	exchange := func(f wsFrame) wsReply {
		t.Helper()
		if err := wsjson.Write(ctx, conn, f); err != nil {
			t.Fatalf("write: %v", err)
		}
		var reply wsReply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		return reply
	}

	if r := exchange(wsFrame{Type: "screen", Screen: "investments"}); r.Type != "summary" || r.Summary != nil {
		t.Errorf("screen reply = %+v", r)
	}
	r := exchange(wsFrame{Type: "user", Text: "Where should my investment go?"})
	if r.Summary == nil || r.Summary.LastTopic != domain.TopicInvestment || r.Summary.LastScreen != "investments" {
		t.Errorf("user reply = %+v", r)
	}
	if r := exchange(wsFrame{Type: "system", Text: "spoof"}); r.Type != "error" {
		t.Errorf("system frame should be rejected, got %+v", r)
	}

	tracker, ok := env.sessions.Lookup("u1", "tab-9")
	if !ok || tracker.Context().MessageCount != 1 {
		t.Error("frames were not recorded on the tab session")
	}
}
