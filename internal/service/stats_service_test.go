package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
)

func superseded(ch intercept.Channel, matched string) intercept.Result {
	return intercept.Result{Decision: intercept.DecisionSupersede, Channel: ch, Matched: matched}
}

func TestStatsService_RecordAndGet(t *testing.T) {
	s := NewStatsService(5, time.Minute, 6)

	s.RecordDecision(intercept.Result{Decision: intercept.DecisionAllow, Channel: intercept.ChannelText})
	s.RecordDecision(intercept.Result{Decision: intercept.DecisionAllow, Channel: intercept.ChannelOther})
	s.RecordDecision(superseded(intercept.ChannelRadio, "Fire_in_the_hole"))
	s.RecordError()

	stats := s.GetStats()
	if stats.Allowed != 2 {
		t.Errorf("Allowed = %d, want 2", stats.Allowed)
	}
	if stats.Superseded != 1 {
		t.Errorf("Superseded = %d, want 1", stats.Superseded)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.AllowedByChannel["text"] != 1 || stats.AllowedByChannel["other"] != 1 {
		t.Errorf("AllowedByChannel = %v", stats.AllowedByChannel)
	}
	if stats.SupersededByChannel["radio"] != 1 {
		t.Errorf("SupersededByChannel = %v", stats.SupersededByChannel)
	}
}

func TestStatsService_HotPhrases(t *testing.T) {
	s := NewStatsService(2, time.Minute, 6)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Superseded(ctx, intercept.Verdict{Result: superseded(intercept.ChannelText, "noob")})
	}
	for i := 0; i < 2; i++ {
		s.Superseded(ctx, intercept.Verdict{Result: superseded(intercept.ChannelText, "idiot")})
	}
	s.Superseded(ctx, intercept.Verdict{Result: superseded(intercept.ChannelEvent, "player_death")})
	// Verdicts without a matched entry are ignored.
	s.Superseded(ctx, intercept.Verdict{Result: superseded(intercept.ChannelText, "")})

	hot := s.HotPhrases()
	if len(hot) != 2 {
		t.Fatalf("HotPhrases() returned %d entries, want 2: %+v", len(hot), hot)
	}
	if hot[0].Phrase != "noob" || hot[0].Channel != "text" {
		t.Errorf("hottest = %+v, want text/noob", hot[0])
	}
	if hot[0].Count < 5 {
		t.Errorf("noob count = %d, want >= 5", hot[0].Count)
	}
	if hot[1].Phrase != "idiot" {
		t.Errorf("second = %+v, want idiot", hot[1])
	}
}

func TestStatsService_Reset(t *testing.T) {
	s := NewStatsService(5, time.Minute, 6)
	s.RecordDecision(superseded(intercept.ChannelText, "noob"))
	s.RecordError()

	s.Reset()

	stats := s.GetStats()
	if stats.Allowed != 0 || stats.Superseded != 0 || stats.Errors != 0 || len(stats.SupersededByChannel) != 0 {
		t.Errorf("after Reset, stats should be all zero: got %+v", stats)
	}
}

func TestStatsService_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStatsService(5, 10*time.Millisecond, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

func TestStatsService_ConcurrentAccess(t *testing.T) {
	s := NewStatsService(5, time.Minute, 6)

	const goroutines = 50
	const opsPerGoroutine = 200

	var wg sync.WaitGroup
	wg.Add(goroutines * 2)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				s.RecordDecision(intercept.Result{Decision: intercept.DecisionAllow, Channel: intercept.ChannelText})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				res := superseded(intercept.ChannelText, "noob")
				s.RecordDecision(res)
				s.Superseded(context.Background(), intercept.Verdict{Result: res})
			}
		}()
	}
	wg.Wait()

	stats := s.GetStats()
	want := int64(goroutines * opsPerGoroutine)
	if stats.Allowed != want || stats.Superseded != want {
		t.Errorf("Allowed = %d, Superseded = %d, want %d each", stats.Allowed, stats.Superseded, want)
	}
}
