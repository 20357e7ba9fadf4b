package blocklist

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrResourceNotFound is returned by a ResourceReader when the resource does
// not exist. An existing but empty resource is not an error.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceReader provides raw bytes for a logical resource path.
type ResourceReader interface {
	ReadResource(path string) ([]byte, error)
}

// LoadError describes a list that could not be read.
type LoadError struct {
	Path  string
	Label string
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Label, e.Path, e.Err)
}

// Unwrap returns the underlying read error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// utf8BOM is the byte-order mark some editors put at the start of lines.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lineCutset is the whitespace trimmed from both ends of every line.
const lineCutset = " \t\r\n"

// ParseList turns list file content into a Set.
//
// Each line is trimmed, then a leading BOM is stripped, then empty lines and
// lines starting with "#" or "//" are skipped. Everything else is kept
// verbatim, so a "#" in the middle of a line is part of the entry.
func ParseList(data []byte) Set {
	return NewSet(scanEntries(data)...)
}

// scanEntries returns the entry lines of a list file in file order,
// duplicates included.
func scanEntries(data []byte) []string {
	var entries []string
	for _, raw := range bytes.Split(data, []byte("\n")) {
		line := strings.Trim(string(raw), lineCutset)
		line = strings.TrimPrefix(line, string(utf8BOM))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

// LoadList reads and parses the list at path. When the resource cannot be
// read it returns an empty set together with a *LoadError, so callers that
// ignore the error still get "nothing blocked" semantics.
func LoadList(r ResourceReader, path string, kind Kind) (Set, error) {
	if r == nil {
		return Set{}, &LoadError{Path: path, Label: kind.Label(), Err: errors.New("no filesystem")}
	}
	data, err := r.ReadResource(path)
	if err != nil {
		return Set{}, &LoadError{Path: path, Label: kind.Label(), Err: err}
	}
	return ParseList(data), nil
}

// LoadListOrEmpty is LoadList with the error collapsed into a warning. ok is
// false when the list could not be read.
func LoadListOrEmpty(r ResourceReader, path string, kind Kind, logger *slog.Logger) (set Set, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}
	set, err := LoadList(r, path, kind)
	if err != nil {
		logger.Warn("failed to open list, list empty",
			"list", kind.Label(),
			"path", path,
			"error", err,
		)
		return set, false
	}
	logger.Info("loaded list entries", "list", kind.Label(), "path", path, "entries", set.Len())
	return set, true
}
