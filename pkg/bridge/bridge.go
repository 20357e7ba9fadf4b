// Package bridge provides the wire types of the chat-cleaner HTTP bridge and a
// Go client for it.
//
// A host shim forwards each game event or outgoing network message to the
// bridge and acts on the decision. The client fails open: when the bridge
// cannot be reached it answers Allow so chat keeps flowing.
//
// Quick start:
//
//	client := bridge.NewClient(bridge.WithServerAddr("http://127.0.0.1:8765"))
//
//	resp, err := client.PostMessage(ctx, bridge.MessageRequest{
//	    Type:  "CCSUsrMsg_RadioText",
//	    Debug: rendered,
//	})
//	if err == nil && resp.Decision == bridge.DecisionSupersede {
//	    // drop the message
//	}
package bridge

// Decision is the bridge's answer for one intercepted call.
type Decision string

const (
	// DecisionAllow lets the host continue normal processing.
	DecisionAllow Decision = "allow"

	// DecisionSupersede tells the host to drop the event or message.
	DecisionSupersede Decision = "supersede"
)

// EventRequest is the body of POST /v1/events.
type EventRequest struct {
	// Name is the game event name, e.g. "player_death".
	Name string `json:"name"`

	// DontBroadcast is passed through from the host's FireEvent call.
	DontBroadcast bool `json:"dont_broadcast,omitempty"`
}

// Routing is the recipient metadata of a network message. The bridge does
// not inspect it.
type Routing struct {
	Slot        int      `json:"slot"`
	LocalOnly   bool     `json:"local_only"`
	ClientCount int      `json:"client_count"`
	Clients     []uint64 `json:"clients,omitempty"`
	Size        uint64   `json:"size"`
	BufType     int      `json:"buf_type"`
}

// MessageRequest is the body of POST /v1/messages.
type MessageRequest struct {
	// Type is the unscoped message type name, e.g. "CUserMessageTextMsg".
	Type string `json:"type"`

	// Debug is the human-readable rendering of the message payload.
	Debug string `json:"debug"`

	// Routing is optional recipient metadata.
	Routing *Routing `json:"routing,omitempty"`
}

// DecisionResponse is returned by /v1/events and /v1/messages.
type DecisionResponse struct {
	// Decision is "allow" or "supersede".
	Decision Decision `json:"decision"`

	// Result is the value the host's FireEvent hook should return: false
	// when the event is superseded. Always true for messages that are allowed.
	Result bool `json:"result"`

	// Channel is "event", "radio", "text" or "other".
	Channel string `json:"channel,omitempty"`

	// Matched is the blocklist entry that caused a supersede.
	Matched string `json:"matched,omitempty"`

	// Generation is the blocklist snapshot the decision was made against.
	Generation uint64 `json:"generation"`

	// RequestID correlates the decision with server logs.
	RequestID string `json:"request_id,omitempty"`
}

// Superseded reports whether the host must drop the call.
func (r *DecisionResponse) Superseded() bool {
	return r != nil && r.Decision == DecisionSupersede
}

// ReloadResponse is returned by POST /admin/reload.
type ReloadResponse struct {
	Trigger    string         `json:"trigger"`
	Generation uint64         `json:"generation"`
	Counts     map[string]int `json:"counts"`
	DebugMode  bool           `json:"debug_mode"`
	Failed     []string       `json:"failed,omitempty"`
	DurationMs float64        `json:"duration_ms"`
}

// ErrorResponse is the body of every non-2xx bridge response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
