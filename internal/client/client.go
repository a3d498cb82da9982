// Package client provides an HTTP client for the Hearthwatch server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/query"
	"github.com/hearthwatch/hearthwatch/internal/service"
)

// Client talks to the Hearthwatch HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses HEARTHWATCH_SERVER_URL env var or defaults to localhost:8590.
// Timeout can be configured via HEARTHWATCH_CLIENT_TIMEOUT env var (default 30s).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("HEARTHWATCH_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8590"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := 30 * time.Second
	if t := os.Getenv("HEARTHWATCH_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a request and decodes the JSON response into result (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// AppendInsight submits an observation record and returns its assigned ID.
func (c *Client) AppendInsight(ctx context.Context, rec models.InsightRecord) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/insights", rec, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// Sessions lists all known sessions.
func (c *Client) Sessions(ctx context.Context) ([]models.Session, error) {
	var result []models.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Timeline returns a session's records in session-time order.
// sourceID filters to a single producer when non-empty.
func (c *Client) Timeline(ctx context.Context, sessionID, sourceID string) ([]models.InsightRecord, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/timeline"
	if sourceID != "" {
		path += "?source=" + url.QueryEscape(sourceID)
	}
	var result []models.InsightRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ScenarioStates returns the current scenario states for a session.
func (c *Client) ScenarioStates(ctx context.Context, sessionID string) ([]models.ScenarioState, error) {
	var result []models.ScenarioState
	path := "/sessions/" + url.PathEscape(sessionID) + "/scenarios"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CloseSession closes a session and cancels its pending escalations.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID) + "/close"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// Query runs a natural-language query against a session.
func (c *Client) Query(ctx context.Context, sessionID, text string) (*query.Result, error) {
	path := "/query?session=" + url.QueryEscape(sessionID) + "&q=" + url.QueryEscape(text)
	var result query.Result
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Acknowledge confirms a scenario alert, cancelling its escalation ladder.
// Returns false when the scenario was not escalating.
func (c *Client) Acknowledge(ctx context.Context, sessionID string, kind models.ScenarioKind) (bool, error) {
	payload := map[string]any{
		"session_id": sessionID,
		"scenario":   kind,
	}
	var result struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := c.do(ctx, http.MethodPost, "/acknowledge", payload, &result); err != nil {
		return false, err
	}
	return result.Acknowledged, nil
}

// Stats returns server runtime statistics.
func (c *Client) Stats(ctx context.Context) (*service.Stats, error) {
	var result service.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamAssessments subscribes to the live assessment feed over WebSocket.
// sessionID filters to a single session when non-empty. The onAssessment
// callback is invoked per assessment; return an error to abort the stream.
func (c *Client) StreamAssessments(
	ctx context.Context,
	sessionID string,
	onAssessment func(models.ThreatAssessment) error,
) error {
	wsURL := c.baseURL + "/ws/assessments"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	if sessionID != "" {
		wsURL += "?session=" + url.QueryEscape(sessionID)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var assessment models.ThreatAssessment
		if err := conn.ReadJSON(&assessment); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read assessment: %w", err)
		}
		if err := onAssessment(assessment); err != nil {
			return err
		}
	}
}
