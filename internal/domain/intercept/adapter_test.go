package intercept

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testMatcher(radio, text, events []string) SnapshotMatcher {
	store := blocklist.NewStore()
	store.Publish(blocklist.NewSet(radio...), blocklist.NewSet(text...), blocklist.NewSet(events...))
	return SnapshotMatcher{Store: store}
}

// recordingObserver collects verdicts for assertions.
type recordingObserver struct {
	verdicts []Verdict
}

func (o *recordingObserver) Superseded(_ context.Context, v Verdict) {
	o.verdicts = append(o.verdicts, v)
}

// failingPayload never renders.
type failingPayload struct{}

func (failingPayload) DebugString() (string, error) {
	return "", errors.New("malformed")
}

func TestEventAdapter_Blocked(t *testing.T) {
	obs := &recordingObserver{}
	a := NewEventAdapter(testMatcher(nil, nil, []string{"player_death"}), StaticDebug(false), obs, testLogger())

	res, ret := a.FireEvent(context.Background(), NamedEvent("player_death"), false)
	if res.Decision != DecisionSupersede {
		t.Errorf("Decision = %v, want supersede", res.Decision)
	}
	if ret {
		t.Error("superseded event must report false to the chained caller")
	}
	if res.Matched != "player_death" {
		t.Errorf("Matched = %q", res.Matched)
	}
	if len(obs.verdicts) != 1 || obs.verdicts[0].Channel != ChannelEvent {
		t.Errorf("observer verdicts = %+v", obs.verdicts)
	}
}

func TestEventAdapter_ExactMatchOnly(t *testing.T) {
	a := NewEventAdapter(testMatcher(nil, nil, []string{"player_death"}), nil, nil, testLogger())

	for _, name := range []string{"player_death_v2", "player", ""} {
		res, ret := a.FireEvent(context.Background(), NamedEvent(name), true)
		if res.Decision != DecisionAllow || !ret {
			t.Errorf("FireEvent(%q) = (%v, %v), want (allow, true)", name, res.Decision, ret)
		}
	}
}

func TestEventAdapter_NilEvent(t *testing.T) {
	a := NewEventAdapter(testMatcher(nil, nil, []string{"x"}), nil, nil, testLogger())
	res, ret := a.FireEvent(context.Background(), nil, false)
	if res.Decision != DecisionAllow || !ret {
		t.Errorf("nil event = (%v, %v), want (allow, true)", res.Decision, ret)
	}
}

func TestEventAdapter_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	quiet := NewEventAdapter(testMatcher(nil, nil, nil), StaticDebug(false), nil, logger)
	quiet.FireEvent(context.Background(), NamedEvent("round_start"), false)
	if buf.Len() != 0 {
		t.Errorf("no debug output expected with debug off, got: %s", buf.String())
	}

	loud := NewEventAdapter(testMatcher(nil, nil, nil), StaticDebug(true), nil, logger)
	loud.FireEvent(context.Background(), NamedEvent("round_start"), false)
	if !strings.Contains(buf.String(), "[DEBUG][Event] round_start") {
		t.Errorf("expected debug line, got: %s", buf.String())
	}
}

func TestChannelForType(t *testing.T) {
	tests := []struct {
		typeName string
		want     Channel
	}{
		{"CCSUsrMsg_RadioText", ChannelRadio},
		{"CUserMessageTextMsg", ChannelText},
		{"CCSUsrMsg_TextMsg", ChannelText},
		{"CUserMessageSayText2", ChannelOther},
		{"CFakeRadioTextMsg", ChannelRadio},
		{"", ChannelOther},
	}
	for _, tt := range tests {
		if got := ChannelForType(tt.typeName); got != tt.want {
			t.Errorf("ChannelForType(%q) = %v, want %v", tt.typeName, got, tt.want)
		}
	}
}

func TestMessageAdapter_Decisions(t *testing.T) {
	matcher := testMatcher([]string{"Fire_in_the_hole"}, []string{"noob"}, nil)

	tests := []struct {
		name     string
		msg      *NetMessage
		decision Decision
		channel  Channel
	}{
		{
			name:     "radio blocked",
			msg:      &NetMessage{TypeName: "CCSUsrMsg_RadioText", Payload: TextPayload(`params: "#Cstrike_TitlesTXT_Fire_in_the_hole"`)},
			decision: DecisionSupersede,
			channel:  ChannelRadio,
		},
		{
			name:     "radio checks radio list only",
			msg:      &NetMessage{TypeName: "CCSUsrMsg_RadioText", Payload: TextPayload("noob")},
			decision: DecisionAllow,
			channel:  ChannelRadio,
		},
		{
			name:     "text blocked",
			msg:      &NetMessage{TypeName: "CUserMessageTextMsg", Payload: TextPayload(`param: "you are a noob"`)},
			decision: DecisionSupersede,
			channel:  ChannelText,
		},
		{
			name:     "text clean",
			msg:      &NetMessage{TypeName: "CUserMessageTextMsg", Payload: TextPayload("clean text")},
			decision: DecisionAllow,
			channel:  ChannelText,
		},
		{
			name:     "other types never blocked",
			msg:      &NetMessage{TypeName: "CUserMessageSayText2", Payload: TextPayload("noob")},
			decision: DecisionAllow,
			channel:  ChannelOther,
		},
		{
			name:     "render failure fails open",
			msg:      &NetMessage{TypeName: "CUserMessageTextMsg", Payload: failingPayload{}},
			decision: DecisionAllow,
			channel:  ChannelText,
		},
		{
			name:     "nil payload",
			msg:      &NetMessage{TypeName: "CUserMessageTextMsg"},
			decision: DecisionAllow,
			channel:  ChannelOther,
		},
		{
			name:     "nil message",
			msg:      nil,
			decision: DecisionAllow,
			channel:  ChannelOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewMessageAdapter(matcher, StaticDebug(false), nil, testLogger())
			res := a.PostEvent(context.Background(), Routing{ClientCount: 1}, tt.msg)
			if res.Decision != tt.decision {
				t.Errorf("Decision = %v, want %v", res.Decision, tt.decision)
			}
			if res.Channel != tt.channel {
				t.Errorf("Channel = %v, want %v", res.Channel, tt.channel)
			}
		})
	}
}

func TestMessageAdapter_ProtoPayload(t *testing.T) {
	obs := &recordingObserver{}
	a := NewMessageAdapter(testMatcher(nil, []string{"noob"}, nil), nil, obs, testLogger())

	msg := &NetMessage{
		TypeName: "CUserMessageTextMsg",
		Payload:  ProtoPayload{Message: wrapperspb.String("you are a noob")},
	}
	res := a.PostEvent(context.Background(), Routing{}, msg)
	if !res.Superseded() {
		t.Fatalf("expected supersede, got %+v", res)
	}
	if len(obs.verdicts) != 1 {
		t.Fatalf("observer got %d verdicts, want 1", len(obs.verdicts))
	}
	if !strings.Contains(obs.verdicts[0].Text, "you are a noob") {
		t.Errorf("verdict text = %q", obs.verdicts[0].Text)
	}
}

func TestMessageAdapter_DebugLogsEveryMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewMessageAdapter(testMatcher(nil, nil, nil), StaticDebug(true), nil, logger)

	a.PostEvent(context.Background(), Routing{}, &NetMessage{TypeName: "CUserMessageSayText2", Payload: TextPayload("hello")})
	if !strings.Contains(buf.String(), "[DEBUG][CUserMessageSayText2] hello") {
		t.Errorf("expected debug line for non-filtered type, got: %s", buf.String())
	}
}

func TestProtoPayload(t *testing.T) {
	if _, err := (ProtoPayload{}).DebugString(); !errors.Is(err, ErrNoPayload) {
		t.Errorf("empty ProtoPayload error = %v, want ErrNoPayload", err)
	}

	msg := NewProtoMessage(wrapperspb.String("gg"))
	if msg.TypeName != "StringValue" {
		t.Errorf("TypeName = %q, want StringValue", msg.TypeName)
	}
	s, err := msg.Payload.DebugString()
	if err != nil {
		t.Fatalf("DebugString() error = %v", err)
	}
	if !strings.Contains(s, `"gg"`) {
		t.Errorf("DebugString() = %q, want it to contain the value", s)
	}
}

func TestObservers_FanOut(t *testing.T) {
	var a, b int
	obs := Observers{
		ObserverFunc(func(context.Context, Verdict) { a++ }),
		nil,
		ObserverFunc(func(context.Context, Verdict) { b++ }),
	}
	obs.Superseded(context.Background(), Verdict{})
	if a != 1 || b != 1 {
		t.Errorf("a = %d, b = %d, want 1 each", a, b)
	}
}
