package intercept

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

// Type-name fragments that select which blocklist a message is checked
// against. Radio is checked first.
const (
	radioTypeFragment = "RadioText"
	textTypeFragment  = "TextMsg"
)

// ChannelForType maps an unscoped message type name to its channel. A name
// carrying both fragments is checked against the radio list only.
func ChannelForType(typeName string) Channel {
	switch {
	case strings.Contains(typeName, radioTypeFragment):
		return ChannelRadio
	case strings.Contains(typeName, textTypeFragment):
		return ChannelText
	default:
		return ChannelOther
	}
}

// MessageAdapter decides whether an outgoing network message may be posted.
type MessageAdapter struct {
	matcher  Matcher
	debug    DebugFlag
	observer Observer
	logger   *slog.Logger
}

// NewMessageAdapter creates a MessageAdapter. observer may be nil.
func NewMessageAdapter(matcher Matcher, debug DebugFlag, observer Observer, logger *slog.Logger) *MessageAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if debug == nil {
		debug = StaticDebug(false)
	}
	return &MessageAdapter{
		matcher:  matcher,
		debug:    debug,
		observer: observer,
		logger:   logger,
	}
}

// PostEvent intercepts one outgoing message. routing is accepted so the host
// can hand over its call arguments unchanged; it is not inspected.
func (a *MessageAdapter) PostEvent(ctx context.Context, _ Routing, msg *NetMessage) Result {
	if msg == nil || msg.Payload == nil {
		return Result{Decision: DecisionAllow, Channel: ChannelOther}
	}

	name := msg.TypeName
	channel := ChannelForType(name)

	if a.debug.DebugMode() && name != "" {
		if dbg, err := msg.Payload.DebugString(); err == nil {
			a.logger.Info("[DEBUG]["+name+"] "+dbg, "channel", channel)
		}
	}

	var kind blocklist.Kind
	switch channel {
	case ChannelRadio:
		kind = blocklist.KindRadio
	case ChannelText:
		kind = blocklist.KindText
	default:
		return Result{Decision: DecisionAllow, Channel: channel, Name: name}
	}

	text, err := msg.Payload.DebugString()
	if err != nil {
		a.logger.Debug("payload render failed, allowing", "type", name, "error", err)
		return Result{Decision: DecisionAllow, Channel: channel, Name: name}
	}

	if matched, ok := a.matcher.Match(kind, text); ok {
		res := Result{
			Decision: DecisionSupersede,
			Channel:  channel,
			Name:     name,
			Matched:  matched,
		}
		if a.observer != nil {
			a.observer.Superseded(ctx, Verdict{Result: res, Text: text, Time: time.Now().UTC()})
		}
		return res
	}

	return Result{Decision: DecisionAllow, Channel: channel, Name: name}
}
