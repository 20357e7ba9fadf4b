package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
)

func rec(id string, at time.Time) journal.Record {
	return journal.Record{
		ID:         id,
		Timestamp:  at,
		Channel:    "text",
		Name:       "CUserMessageTextMsg",
		Matched:    "noob",
		Excerpt:    "you are a noob",
		Generation: 1,
	}
}

func TestWriterStore_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterStore(&buf, 10)
	now := time.Now().UTC()

	if err := s.Append(context.Background(), rec("a", now), rec("b", now)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var ids []string
	for sc.Scan() {
		var r journal.Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWriterStore_RecentRing(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterStore(&buf, 3)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_ = s.Append(context.Background(), rec(fmt.Sprintf("r%d", i), now))
	}

	got := s.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent(0) returned %d records, want 3", len(got))
	}
	want := []string{"r4", "r3", "r2"}
	for i, r := range got {
		if r.ID != want[i] {
			t.Errorf("Recent()[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
	if n := len(s.Recent(2)); n != 2 {
		t.Errorf("Recent(2) returned %d records", n)
	}
}

func TestFileStore_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	now := time.Now().UTC()

	for _, id := range []string{"first", "second"} {
		s, err := NewFileStore(path, 10)
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		if err := s.Append(context.Background(), rec(id, now)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := s.Flush(context.Background()); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := bytes.Count(data, []byte("\n")); lines != 2 {
		t.Errorf("file has %d lines, want 2", lines)
	}
}

func TestDiscardStore(t *testing.T) {
	s := NewDiscardStore(2)
	_ = s.Append(context.Background(), rec("a", time.Now()))
	if got := s.Recent(5); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Recent() = %+v", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Append(ctx, rec("a", base), rec("b", base.Add(time.Second))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	// Duplicate IDs are ignored.
	if err := s.Append(ctx, rec("a", base)); err != nil {
		t.Fatalf("Append(duplicate) error = %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	got := s.Recent(10)
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("Recent() order = [%s %s], want [b a]", got[0].ID, got[1].ID)
	}
	if !got[1].Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", got[1].Timestamp, base)
	}
	if got[0].Matched != "noob" || got[0].Generation != 1 {
		t.Errorf("record = %+v", got[0])
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		output  string
		wantErr bool
	}{
		{"", false},
		{"stdout", false},
		{"none", false},
		{"file://" + filepath.Join(dir, "j.jsonl"), false},
		{"sqlite://" + filepath.Join(dir, "j.db"), false},
		{"file://", true},
		{"sqlite://", true},
		{"kafka://broker", true},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			sink, err := Open(ctx, tt.output, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			}
			if sink != nil {
				_ = sink.Close()
			}
		})
	}
}
