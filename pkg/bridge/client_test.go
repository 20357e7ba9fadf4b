package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// deadAddr returns a URL nothing listens on.
func deadAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return "http://" + addr
}

func TestFireEvent(t *testing.T) {
	var got EventRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(DecisionResponse{
			Decision:   DecisionSupersede,
			Result:     false,
			Channel:    "event",
			Matched:    "player_death",
			Generation: 3,
		})
	}))
	defer server.Close()

	c := NewClient(WithServerAddr(server.URL), WithLogger(discardLogger()))
	resp, err := c.FireEvent(context.Background(), "player_death", true)
	if err != nil {
		t.Fatalf("FireEvent() error = %v", err)
	}
	if !resp.Superseded() || resp.Result {
		t.Errorf("resp = %+v, want supersede with result=false", resp)
	}
	if got.Name != "player_death" || !got.DontBroadcast {
		t.Errorf("request = %+v", got)
	}
}

func TestPostMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Type != "CUserMessageTextMsg" || req.Routing == nil || req.Routing.Slot != 2 {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(DecisionResponse{Decision: DecisionAllow, Result: true, Channel: "text"})
	}))
	defer server.Close()

	c := NewClient(WithServerAddr(server.URL))
	resp, err := c.PostMessage(context.Background(), MessageRequest{
		Type:    "CUserMessageTextMsg",
		Debug:   `param: "hello"`,
		Routing: &Routing{Slot: 2},
	})
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if resp.Superseded() {
		t.Error("expected allow")
	}
}

func TestFailOpen(t *testing.T) {
	c := NewClient(WithServerAddr(deadAddr(t)), WithTimeout(time.Second), WithLogger(discardLogger()))

	resp, err := c.FireEvent(context.Background(), "round_end", false)
	if err != nil {
		t.Fatalf("FireEvent() error = %v, want fail-open", err)
	}
	if resp.Decision != DecisionAllow || !resp.Result {
		t.Errorf("resp = %+v, want allow", resp)
	}

	msg, err := c.PostMessage(context.Background(), MessageRequest{Type: "CCSUsrMsg_RadioText"})
	if err != nil || msg.Superseded() {
		t.Errorf("PostMessage() = %+v, %v, want allow", msg, err)
	}
}

func TestFailClosed(t *testing.T) {
	c := NewClient(WithServerAddr(deadAddr(t)), WithFailMode(FailClosed), WithTimeout(time.Second))

	_, err := c.FireEvent(context.Background(), "round_end", false)
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("err = %v, want ErrServerUnreachable", err)
	}
	var unreachable *ServerUnreachableError
	if !errors.As(err, &unreachable) || unreachable.Cause == nil {
		t.Errorf("err = %#v, want *ServerUnreachableError with cause", err)
	}
}

func TestHTTPErrorsFailOpen(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(c *Client) (*DecisionResponse, error)
	}{
		{"event bad request", http.StatusBadRequest, func(c *Client) (*DecisionResponse, error) {
			return c.FireEvent(context.Background(), "", false)
		}},
		{"message too large", http.StatusRequestEntityTooLarge, func(c *Client) (*DecisionResponse, error) {
			return c.PostMessage(context.Background(), MessageRequest{Type: "CUserMessageTextMsg"})
		}},
		{"server error", http.StatusInternalServerError, func(c *Client) (*DecisionResponse, error) {
			return c.FireEvent(context.Background(), "round_end", false)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "nope", RequestID: "req-1"})
			}))
			defer server.Close()

			c := NewClient(WithServerAddr(server.URL), WithLogger(discardLogger()))
			resp, err := tt.call(c)
			if err != nil {
				t.Fatalf("error = %v, want fail-open", err)
			}
			if resp.Decision != DecisionAllow || !resp.Result {
				t.Errorf("resp = %+v, want allow", resp)
			}
		})
	}
}

func TestHTTPErrorsFailClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "request body too large", RequestID: "req-1"})
	}))
	defer server.Close()

	c := NewClient(WithServerAddr(server.URL), WithFailMode(FailClosed))
	_, err := c.PostMessage(context.Background(), MessageRequest{Type: "CUserMessageTextMsg"})

	var bErr *BridgeError
	if !errors.As(err, &bErr) {
		t.Fatalf("err = %v, want *BridgeError", err)
	}
	if bErr.StatusCode != http.StatusRequestEntityTooLarge || bErr.Message != "request body too large" || bErr.RequestID != "req-1" {
		t.Errorf("BridgeError = %+v", bErr)
	}
	if errors.Is(err, ErrServerUnreachable) {
		t.Error("an answered request is not unreachable")
	}
}

func TestFailOpen_CancelledContext(t *testing.T) {
	c := NewClient(WithServerAddr(deadAddr(t)), WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FireEvent(ctx, "round_end", false); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReload(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantErr    error
		wantGen    uint64
		wantHeader string
	}{
		{"ok", http.StatusOK, nil, 4, "Bearer secret"},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, 0, "Bearer secret"},
		{"forbidden", http.StatusForbidden, ErrUnauthorized, 0, "Bearer secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/admin/reload" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != tt.wantHeader {
					t.Errorf("Authorization = %q", got)
				}
				if tt.status != http.StatusOK {
					w.WriteHeader(tt.status)
					_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "nope"})
					return
				}
				_ = json.NewEncoder(w).Encode(ReloadResponse{Trigger: "admin", Generation: 4})
			}))
			defer server.Close()

			c := NewClient(WithServerAddr(server.URL), WithAPIKey("secret"))
			resp, err := c.Reload(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reload() error = %v", err)
			}
			if resp.Generation != tt.wantGen {
				t.Errorf("Generation = %d, want %d", resp.Generation, tt.wantGen)
			}
		})
	}
}

func TestReloadUnreachable(t *testing.T) {
	c := NewClient(WithServerAddr(deadAddr(t)), WithTimeout(time.Second))
	if _, err := c.Reload(context.Background()); !errors.Is(err, ErrServerUnreachable) {
		t.Errorf("err = %v, want ErrServerUnreachable", err)
	}
}

func TestNewClient_Env(t *testing.T) {
	t.Setenv("CHAT_CLEANER_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("CHAT_CLEANER_FAIL_MODE", FailClosed)
	t.Setenv("CHAT_CLEANER_TIMEOUT", "7")

	c := NewClient()
	if c.ServerAddr() != "http://127.0.0.1:9999" {
		t.Errorf("ServerAddr() = %q", c.ServerAddr())
	}
	if c.failMode != FailClosed {
		t.Errorf("failMode = %q", c.failMode)
	}
	if c.timeout != 7*time.Second {
		t.Errorf("timeout = %v", c.timeout)
	}

	c = NewClient(WithServerAddr("http://override:1"))
	if c.ServerAddr() != "http://override:1" {
		t.Errorf("option should override env, got %q", c.ServerAddr())
	}
}

func TestDecisionResponse_SupersededNil(t *testing.T) {
	var r *DecisionResponse
	if r.Superseded() {
		t.Error("nil response must not supersede")
	}
}
