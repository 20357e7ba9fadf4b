package intercept

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

// GameEvent is an engine game event about to be fired.
type GameEvent interface {
	Name() string
}

// NamedEvent is a GameEvent that only carries a name.
type NamedEvent string

// Name implements GameEvent.
func (e NamedEvent) Name() string {
	return string(e)
}

// EventAdapter decides whether a legacy game event may be fired.
type EventAdapter struct {
	matcher  Matcher
	debug    DebugFlag
	observer Observer
	logger   *slog.Logger
}

// NewEventAdapter creates an EventAdapter. observer may be nil.
func NewEventAdapter(matcher Matcher, debug DebugFlag, observer Observer, logger *slog.Logger) *EventAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if debug == nil {
		debug = StaticDebug(false)
	}
	return &EventAdapter{
		matcher:  matcher,
		debug:    debug,
		observer: observer,
		logger:   logger,
	}
}

// FireEvent intercepts one game event. The boolean is the value the host
// reports to any chained caller: false when the event was superseded, true
// otherwise. dontBroadcast is passed through by the host and does not affect
// the decision.
func (a *EventAdapter) FireEvent(ctx context.Context, ev GameEvent, dontBroadcast bool) (Result, bool) {
	if ev == nil {
		return Result{Decision: DecisionAllow, Channel: ChannelEvent}, true
	}

	name := ev.Name()
	if a.debug.DebugMode() {
		a.logger.Info("[DEBUG][Event] "+name, "dont_broadcast", dontBroadcast)
	}

	if matched, ok := a.matcher.Match(blocklist.KindEvent, name); ok {
		res := Result{
			Decision: DecisionSupersede,
			Channel:  ChannelEvent,
			Name:     name,
			Matched:  matched,
		}
		if a.observer != nil {
			a.observer.Superseded(ctx, Verdict{Result: res, Text: name, Time: time.Now().UTC()})
		}
		return res, false
	}

	return Result{Decision: DecisionAllow, Channel: ChannelEvent, Name: name}, true
}
