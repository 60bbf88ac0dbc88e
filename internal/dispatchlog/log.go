package dispatchlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"festmail/internal/fileutil"
)

// ErrLogUnreadable reports a dispatch log that exists but cannot be parsed.
var ErrLogUnreadable = errors.New("dispatch log unreadable")

// Log is the set of recipient keys already notified. Keys keep their
// insertion order so the file stays readable; membership is set semantics.
// Keys are compared after trimming surrounding whitespace, the same way
// recipient keys are built, so hand-edited or spreadsheet-exported logs with
// padded names still match. A Log is a value: Commit returns a new Log and
// never mutates its input.
type Log struct {
	keys        []string
	index       map[string]struct{}
	lastUpdated *time.Time
}

// New builds a log from keys, trimming each and dropping blanks and
// duplicates.
func New(keys []string, lastUpdated *time.Time) Log {
	l := Log{index: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		l.add(key)
	}
	if lastUpdated != nil {
		ts := *lastUpdated
		l.lastUpdated = &ts
	}
	return l
}

// normalizeKey is the canonical form of a log key.
func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}

func (l *Log) add(key string) bool {
	key = normalizeKey(key)
	if key == "" {
		return false
	}
	if _, ok := l.index[key]; ok {
		return false
	}
	l.index[key] = struct{}{}
	l.keys = append(l.keys, key)
	return true
}

// Keys returns a copy of the notified keys in insertion order.
func (l Log) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Len returns the number of notified keys.
func (l Log) Len() int {
	return len(l.keys)
}

// Contains reports whether key has been notified.
func (l Log) Contains(key string) bool {
	_, ok := l.index[normalizeKey(key)]
	return ok
}

// LastUpdated returns the time of the last commit, or nil for a fresh log.
func (l Log) LastUpdated() *time.Time {
	if l.lastUpdated == nil {
		return nil
	}
	ts := *l.lastUpdated
	return &ts
}

// Commit returns a log whose key set is the union of l and succeeded, stamped
// with now. Keys already present keep their original position.
func Commit(l Log, succeeded []string, now time.Time) Log {
	next := New(l.keys, nil)
	for _, key := range succeeded {
		next.add(key)
	}
	ts := now.UTC().Truncate(time.Second)
	next.lastUpdated = &ts
	return next
}

// Remove returns a log without the given keys, stamped with now, and the keys
// that were actually present. It backs manual resets; dispatch runs never
// remove keys.
func Remove(l Log, keys []string, now time.Time) (Log, []string) {
	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[normalizeKey(key)] = struct{}{}
	}
	next := New(nil, nil)
	var removed []string
	for _, key := range l.keys {
		if _, ok := drop[key]; ok {
			removed = append(removed, key)
			continue
		}
		next.add(key)
	}
	ts := now.UTC().Truncate(time.Second)
	next.lastUpdated = &ts
	return next, removed
}

// fileFormat is the on-disk shape. The key name matches the hand-maintained
// sent_teams.json files so those load unchanged.
type fileFormat struct {
	SentTeams   []string `json:"sent_teams"`
	LastUpdated *string  `json:"last_updated"`
}

// timestamp layouts accepted on load; older files carry local ISO timestamps
// without a zone and sometimes with microseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Load reads the log at path. A missing or empty file yields an empty log.
func Load(path string) (Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(nil, nil), nil
		}
		return Log{}, fmt.Errorf("%w: read %s: %v", ErrLogUnreadable, path, err)
	}
	return Decode(data)
}

// Decode parses log file contents.
func Decode(data []byte) (Log, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(nil, nil), nil
	}
	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return Log{}, fmt.Errorf("%w: %v", ErrLogUnreadable, err)
	}
	var lastUpdated *time.Time
	if raw.LastUpdated != nil && strings.TrimSpace(*raw.LastUpdated) != "" {
		ts, err := parseTimestamp(*raw.LastUpdated)
		if err != nil {
			return Log{}, fmt.Errorf("%w: last_updated: %v", ErrLogUnreadable, err)
		}
		lastUpdated = &ts
	}
	return New(raw.SentTeams, lastUpdated), nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Encode renders the log in its on-disk form.
func Encode(l Log) ([]byte, error) {
	raw := fileFormat{SentTeams: l.Keys()}
	if raw.SentTeams == nil {
		raw.SentTeams = []string{}
	}
	if l.lastUpdated != nil {
		formatted := l.lastUpdated.Format(time.RFC3339)
		raw.LastUpdated = &formatted
	}
	return fileutil.MarshalIndent(raw)
}

// Persist writes the log atomically: readers see either the previous file or
// the complete new one.
func Persist(path string, l Log) error {
	data, err := Encode(l)
	if err != nil {
		return fmt.Errorf("encode dispatch log: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("persist dispatch log: %w", err)
	}
	return nil
}
