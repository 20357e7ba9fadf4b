// Package intercept turns engine game events and outgoing network messages
// into allow/supersede decisions against the active blocklists.
//
// The adapters here know nothing about how the host registers hooks. A host
// integration (the HTTP bridge, or a Go host embedding this package) calls
// FireEvent or PostEvent synchronously from its dispatch path and acts on the
// returned Decision.
package intercept

import (
	"context"
	"time"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

// Decision is the outcome reported back to the host for one intercepted call.
type Decision string

const (
	// DecisionAllow lets the host continue normal processing.
	DecisionAllow Decision = "allow"
	// DecisionSupersede tells the host to treat the call as handled and drop
	// the event or message.
	DecisionSupersede Decision = "supersede"
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	return string(d)
}

// Channel identifies which interception path produced a verdict.
type Channel string

const (
	// ChannelEvent is the legacy game-event path.
	ChannelEvent Channel = "event"
	// ChannelRadio is a network message whose type name contains "RadioText".
	ChannelRadio Channel = "radio"
	// ChannelText is a network message whose type name contains "TextMsg".
	ChannelText Channel = "text"
	// ChannelOther is any other network message; it is never blocked.
	ChannelOther Channel = "other"
)

// Result carries one decision and what produced it.
type Result struct {
	Decision Decision
	Channel  Channel
	// Name is the event name or the unscoped message type name.
	Name string
	// Matched is the blocklist entry that caused a supersede.
	Matched string
}

// Superseded reports whether the host must drop the call.
func (r Result) Superseded() bool {
	return r.Decision == DecisionSupersede
}

// Verdict is what an Observer receives for every superseded call.
type Verdict struct {
	Result
	// Text is the rendered message, or the event name for events.
	Text string
	// Time is when the decision was made.
	Time time.Time
}

// Observer is notified of superseded calls. Implementations must not block;
// they run on the host's dispatch path.
type Observer interface {
	Superseded(ctx context.Context, v Verdict)
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(ctx context.Context, v Verdict)

// Superseded calls f(ctx, v).
func (f ObserverFunc) Superseded(ctx context.Context, v Verdict) {
	f(ctx, v)
}

// Compile-time check that ObserverFunc implements Observer.
var _ Observer = ObserverFunc(nil)

// Observers fans a verdict out to every observer in order. nil entries are
// skipped.
type Observers []Observer

// Superseded implements Observer.
func (o Observers) Superseded(ctx context.Context, v Verdict) {
	for _, obs := range o {
		if obs != nil {
			obs.Superseded(ctx, v)
		}
	}
}

// Matcher answers blocklist questions for the adapters. The filter service
// implements it on top of the blocklist store and the verdict cache.
type Matcher interface {
	Match(kind blocklist.Kind, text string) (string, bool)
}

// SnapshotMatcher matches against whatever snapshot the store holds at the
// time of the call.
type SnapshotMatcher struct {
	Store *blocklist.Store
}

// Match implements Matcher.
func (m SnapshotMatcher) Match(kind blocklist.Kind, text string) (string, bool) {
	return m.Store.Current().Match(kind, text)
}

// DebugFlag reports whether verbose per-event logging is on.
type DebugFlag interface {
	DebugMode() bool
}

// StaticDebug is a DebugFlag with a fixed value.
type StaticDebug bool

// DebugMode implements DebugFlag.
func (d StaticDebug) DebugMode() bool {
	return bool(d)
}
