package intercept

import (
	"errors"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

// ErrNoPayload is returned when a message carries nothing to render.
var ErrNoPayload = errors.New("message has no payload")

// Payload is a decoded network message that can render itself for humans.
type Payload interface {
	DebugString() (string, error)
}

// TextPayload is a message the host has already rendered to text.
type TextPayload string

// DebugString implements Payload.
func (p TextPayload) DebugString() (string, error) {
	return string(p), nil
}

// ProtoPayload renders a decoded protobuf user message in text format, the
// same field: value layout protobuf's DebugString produces. prototext
// randomly inserts extra whitespace after "field:" between builds, so list
// entries must target field values; an entry spanning a field name and its
// value (param: "x) may stop matching.
type ProtoPayload struct {
	Message proto.Message
}

// DebugString implements Payload.
func (p ProtoPayload) DebugString() (string, error) {
	if p.Message == nil {
		return "", ErrNoPayload
	}
	b, err := prototext.MarshalOptions{Multiline: true}.Marshal(p.Message)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NetMessage is one outgoing network message as seen by the host.
type NetMessage struct {
	// TypeName is the unscoped type name from the host's message registry,
	// e.g. "CCSUsrMsg_RadioText" or "CUserMessageTextMsg".
	TypeName string
	// Payload is the decoded message body.
	Payload Payload
}

// Routing is the recipient metadata that accompanies a network message.
// The adapters pass it through without looking at it.
type Routing struct {
	Slot        int      `json:"slot"`
	LocalOnly   bool     `json:"local_only"`
	ClientCount int      `json:"client_count"`
	Clients     []uint64 `json:"clients,omitempty"`
	Size        uint64   `json:"size"`
	BufType     int      `json:"buf_type"`
}

// protoTypeName returns the bare message name of a protobuf payload.
func protoTypeName(m proto.Message) string {
	if m == nil {
		return ""
	}
	return string(m.ProtoReflect().Descriptor().Name())
}

// NewProtoMessage wraps a protobuf message whose descriptor name is the
// unscoped type name.
func NewProtoMessage(m proto.Message) *NetMessage {
	return &NetMessage{
		TypeName: protoTypeName(m),
		Payload:  ProtoPayload{Message: m},
	}
}
