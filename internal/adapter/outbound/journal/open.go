package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
)

// Sink is a journal store that can also answer recent-record queries.
type Sink interface {
	journal.Store
	journal.RecentReader
}

// Open builds the sink named by output:
//
//	stdout             JSON Lines on stdout
//	file:///abs/path   JSON Lines appended to a file
//	sqlite://path      SQLite database
//	none               records are kept in memory only
func Open(ctx context.Context, output string, recentCap int) (Sink, error) {
	switch {
	case output == "" || output == "stdout":
		return NewStdoutStore(recentCap), nil
	case output == "none":
		return NewDiscardStore(recentCap), nil
	case strings.HasPrefix(output, "file://"):
		path := strings.TrimPrefix(output, "file://")
		if path == "" {
			return nil, fmt.Errorf("journal output %q: empty path", output)
		}
		s, err := NewFileStore(path, recentCap)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(output, "sqlite://"):
		path := strings.TrimPrefix(output, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("journal output %q: empty path", output)
		}
		s, err := NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported journal output %q", output)
	}
}
