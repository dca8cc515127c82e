package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
)

func TestGenerate_Success(t *testing.T) {
	t.Parallel()
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Response{Message: "hello"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", 2*time.Second)
	resp, err := c.Generate(context.Background(), Request{Message: "prompt", ConversationID: "c1", UserID: "u1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Message = %q", resp.Message)
	}
	if got.Message != "prompt" || got.ConversationID != "c1" || got.UserID != "u1" {
		t.Errorf("unexpected request body: %+v", got)
	}
}

func TestGenerate_ErrorClassification(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", domain.ErrTransientService},
		{"rate limited", http.StatusTooManyRequests, "slow down", domain.ErrTransientService},
		{"bad request", http.StatusBadRequest, "nope", domain.ErrTransientService},
		{"not json", http.StatusOK, "<html>", domain.ErrMalformedResponse},
		{"empty message", http.StatusOK, `{"message":"  "}`, domain.ErrMalformedResponse},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "", time.Second).Generate(context.Background(), Request{Message: "x"})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPClient(srv.URL, "", 5*time.Second).Generate(ctx, Request{Message: "x"})
	if !errors.Is(err, domain.ErrTransientService) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestConversationID_StablePerUserCard(t *testing.T) {
	t.Parallel()
	a := ConversationID("u1", domain.CardSpending)
	if a != ConversationID("u1", domain.CardSpending) {
		t.Error("conversation id not deterministic")
	}
	if a == ConversationID("u1", domain.CardGoals) || a == ConversationID("u2", domain.CardSpending) {
		t.Error("conversation ids collide across users or cards")
	}
}
