// Package assistant is the transport client for the PlanIQ backend ("the
// brain"). The contract is small: POST the full transcript, get one reply
// string back. Everything else about the backend is its own business.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
)

// DefaultBaseURL is used when no backend address is configured.
const DefaultBaseURL = "http://localhost:8080"

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Client calls the backend's /chat endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a client for the backend at baseURL (DefaultBaseURL when
// empty). No request timeout is set: the UI's single-flight guard means at
// most one call is outstanding, and failure is observed through the
// transport's own error signaling.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Chat posts the transcript (chronological, newest user message last) and
// returns the assistant's reply text. Any transport failure, non-2xx status,
// or undecodable body is returned as an error; the response body of a failed
// call is never interpreted.
func (c *Client) Chat(ctx context.Context, transcript []chat.Message) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: transcript})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is not part of
		// the failure contract.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat backend returned %s", resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Response, nil
}
