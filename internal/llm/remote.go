package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultRemoteModel is sent as the model field of every remote request.
const DefaultRemoteModel = "gpt-4"

const (
	generatePath = "/api/generate"
	healthPath   = "/api/health"
)

// RemoteTarget is where, and as whom, a remote request is sent.
type RemoteTarget struct {
	Endpoint string
	APIKey   string
}

// RemoteClient talks to a backend exposing the generate and health endpoints.
type RemoteClient struct {
	model  string
	http   *http.Client
	logger *zap.Logger
}

// NewRemoteClient creates a new remote endpoint client.
func NewRemoteClient(model string, logger *zap.Logger) *RemoteClient {
	if model == "" {
		model = DefaultRemoteModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteClient{
		model: model,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// remoteRequest is the request payload for the generate endpoint.
type remoteRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// remoteResponse is the response payload from the generate endpoint. Either
// content or message carries the reply text.
type remoteResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Message   string          `json:"message"`
	Code      string          `json:"code"`
	Language  string          `json:"language"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Generate sends the user text to the backend and returns its reply.
func (c *RemoteClient) Generate(ctx context.Context, target RemoteTarget, userText string) (Message, error) {
	if target.Endpoint == "" {
		return Message{}, fmt.Errorf("%w: remote endpoint not configured", ErrConfig)
	}

	data, err := json.Marshal(remoteRequest{Message: userText, Model: c.model})
	if err != nil {
		return Message{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		joinURL(target.Endpoint, generatePath),
		bytes.NewBuffer(data))
	if err != nil {
		return Message{}, fmt.Errorf("%w: new request: %v", ErrConfig, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if target.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+target.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("%w: call remote endpoint: %v", ErrEndpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, fmt.Errorf("%w: read response: %v", ErrEndpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Message{}, fmt.Errorf("%w: status %d: %s", ErrEndpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rr remoteResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return Message{}, fmt.Errorf("%w: unmarshal response: %v", ErrEndpoint, err)
	}
	return rr.toMessage(), nil
}

func (rr remoteResponse) toMessage() Message {
	msg := Message{
		ID:        rr.ID,
		Role:      RoleAssistant,
		Content:   rr.Content,
		Code:      rr.Code,
		Language:  rr.Language,
		Timestamp: parseTimestamp(rr.Timestamp),
	}
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Content == "" {
		msg.Content = rr.Message
	}
	if msg.Language == "" {
		msg.Language = "python"
	}
	return msg
}

// parseTimestamp accepts epoch milliseconds or an RFC 3339 string and falls
// back to now.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Now()
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// HealthCheck reports whether endpoint answers its health path with a
// success status. Network failures yield false.
func (c *RemoteClient) HealthCheck(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(endpoint, healthPath), nil)
	if err != nil {
		c.logger.Warn("remote health check", zap.String("endpoint", endpoint), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote health check", zap.String("endpoint", endpoint), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	c.logger.Debug("remote health check",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Bool("healthy", ok))
	return ok
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
