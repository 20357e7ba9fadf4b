package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultServerAddr is where "chat-cleaner start" listens by default.
const DefaultServerAddr = "http://127.0.0.1:8765"

// Fail modes.
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

// maxResponseBody bounds how much of a response is read.
const maxResponseBody = 1 << 20

// Client talks to a chat-cleaner bridge.
type Client struct {
	serverAddr string
	apiKey     string
	failMode   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. It reads CHAT_CLEANER_SERVER_ADDR,
// CHAT_CLEANER_API_KEY, CHAT_CLEANER_FAIL_MODE and CHAT_CLEANER_TIMEOUT;
// options override them.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: envOrDefault("CHAT_CLEANER_SERVER_ADDR", DefaultServerAddr),
		apiKey:     os.Getenv("CHAT_CLEANER_API_KEY"),
		failMode:   envOrDefault("CHAT_CLEANER_FAIL_MODE", FailOpen),
		timeout:    parseDurationEnv("CHAT_CLEANER_TIMEOUT", 2*time.Second),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	if !strings.Contains(c.serverAddr, "://") {
		c.serverAddr = "http://" + c.serverAddr
	}

	return c
}

// ServerAddr returns the bridge base URL.
func (c *Client) ServerAddr() string {
	return c.serverAddr
}

// FireEvent asks whether a game event may be fired.
func (c *Client) FireEvent(ctx context.Context, name string, dontBroadcast bool) (*DecisionResponse, error) {
	var resp DecisionResponse
	err := c.doRequest(ctx, http.MethodPost, "/v1/events", EventRequest{Name: name, DontBroadcast: dontBroadcast}, &resp)
	if err != nil {
		return c.failOpen(err, "event", name)
	}
	return &resp, nil
}

// PostMessage asks whether an outgoing network message may be posted.
func (c *Client) PostMessage(ctx context.Context, req MessageRequest) (*DecisionResponse, error) {
	var resp DecisionResponse
	err := c.doRequest(ctx, http.MethodPost, "/v1/messages", req, &resp)
	if err != nil {
		return c.failOpen(err, "message", req.Type)
	}
	return &resp, nil
}

// Reload asks the bridge to re-read its settings and lists. Reload never
// fails open.
func (c *Client) Reload(ctx context.Context) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.doRequest(ctx, http.MethodPost, "/admin/reload", nil, &resp); err != nil {
		if isConnectionError(err) {
			return nil, &ServerUnreachableError{Cause: err}
		}
		return nil, err
	}
	return &resp, nil
}

// failOpen converts a failed decision request into an Allow decision when
// the client fails open. Both transport errors and bridge error responses
// count as "not blocked"; a cancelled context is returned unchanged.
func (c *Client) failOpen(err error, kind, name string) (*DecisionResponse, error) {
	var bErr *BridgeError
	isBridgeErr := errors.As(err, &bErr)
	if !isBridgeErr && !isConnectionError(err) {
		return nil, err
	}
	if c.failMode == FailClosed {
		if isBridgeErr {
			return nil, err
		}
		return nil, &ServerUnreachableError{Cause: err}
	}
	msg := "chat-cleaner bridge unreachable, failing open"
	if isBridgeErr {
		msg = "chat-cleaner bridge rejected request, failing open"
	}
	c.logger.Warn(msg,
		"server_addr", c.serverAddr,
		"kind", kind,
		"name", name,
		"error", err,
	)
	return &DecisionResponse{Decision: DecisionAllow, Result: true}, nil
}

// doRequest performs an HTTP request against the bridge.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	url := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bErr := &BridgeError{StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var er ErrorResponse
		if json.Unmarshal(respBody, &er) == nil && er.Error != "" {
			bErr.Message = er.Error
			bErr.RequestID = er.RequestID
		}
		return bErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// isConnectionError reports whether err came from the transport rather than
// from a bridge response.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var bErr *BridgeError
	if errors.As(err, &bErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}
