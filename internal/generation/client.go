// Package generation talks to the external text-generation service.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// conversationNamespace scopes the deterministic conversation ids.
var conversationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fincoach/conversation"))

// Request is the body sent to the generation service.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// Response is the body returned by the generation service.
type Response struct {
	Message string `json:"message"`
}

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// HTTPClient posts requests to a JSON endpoint.
type HTTPClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a client for url. The timeout bounds a single round trip;
// callers still pass their own deadline through the context.
func NewHTTPClient(url, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends req and returns the generated message.
// Failures wrap domain.ErrTransientService or domain.ErrMalformedResponse.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransientService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrTransientService, resp.StatusCode, snippet(body))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.Message) == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrMalformedResponse)
	}
	return &out, nil
}

// ConversationID returns the stable conversation id for a user's card.
func ConversationID(userID string, cardType domain.CardType) string {
	return uuid.NewSHA1(conversationNamespace, []byte(userID+":"+string(cardType))).String()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
