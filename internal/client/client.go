// Package client talks to a running laptoprag server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"laptoprag/internal/service"
)

type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// New returns a client bound to one chat session. Answers can take a while,
// so the timeout should cover the slowest model call.
func New(baseURL, sessionID string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) SessionID() string { return c.sessionID }

// Ask sends one message in the client's session.
func (c *Client) Ask(ctx context.Context, prompt string) (*service.ChatResponse, error) {
	body, err := json.Marshal(service.ChatRequest{UserPrompt: prompt, SessionID: c.sessionID})
	if err != nil {
		return nil, err
	}
	var out service.ChatResponse
	if err := c.do(ctx, http.MethodPost, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Seed asks the server to (re)load the catalog into its index.
func (c *Client) Seed(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rag", rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
