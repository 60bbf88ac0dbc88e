package dispatchlog_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"festmail/internal/dispatchlog"
)

func TestLoadMissingFileReturnsEmptyLog(t *testing.T) {
	l, err := dispatchlog.Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if l.Len() != 0 || l.LastUpdated() != nil {
		t.Fatalf("expected empty log, got %d keys last_updated=%v", l.Len(), l.LastUpdated())
	}
}

func TestLoadEmptyFileReturnsEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := dispatchlog.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty log, got %v", l.Keys())
	}
}

func TestLoadMalformedFileIsUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"sent_teams": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := dispatchlog.Load(path); !errors.Is(err, dispatchlog.ErrLogUnreadable) {
		t.Fatalf("expected ErrLogUnreadable, got %v", err)
	}
}

func TestLoadAcceptsLegacyTimestamps(t *testing.T) {
	tests := []string{
		`"2025-01-20T14:03:11.123456"`,
		`"2025-01-20T14:03:11"`,
		`"2025-01-20T14:03:11+06:00"`,
		`null`,
	}
	for _, ts := range tests {
		data := []byte(`{"sent_teams": ["A", "B", "A"], "last_updated": ` + ts + `}`)
		l, err := dispatchlog.Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) returned error: %v", ts, err)
		}
		if got := l.Keys(); !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Fatalf("expected deduplicated keys, got %v", got)
		}
		if ts == "null" && l.LastUpdated() != nil {
			t.Fatalf("expected nil last_updated for null")
		}
		if ts != "null" && l.LastUpdated() == nil {
			t.Fatalf("expected last_updated for %s", ts)
		}
	}
}

func TestDecodeTrimsPaddedKeys(t *testing.T) {
	data := []byte(`{"sent_teams": ["Alpha ", "  Beta", "Alpha", "   "], "last_updated": null}`)
	l, err := dispatchlog.Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := l.Keys(); !reflect.DeepEqual(got, []string{"Alpha", "Beta"}) {
		t.Fatalf("expected trimmed keys, got %q", got)
	}
	for _, key := range []string{"Alpha", "Alpha ", " Beta "} {
		if !l.Contains(key) {
			t.Fatalf("expected log to contain %q", key)
		}
	}

	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	if next := dispatchlog.Commit(l, []string{" Beta", "Gamma "}, now); !reflect.DeepEqual(next.Keys(), []string{"Alpha", "Beta", "Gamma"}) {
		t.Fatalf("unexpected keys after commit: %q", next.Keys())
	}
	next, removed := dispatchlog.Remove(l, []string{"Alpha  "}, now)
	if !reflect.DeepEqual(removed, []string{"Alpha"}) || !reflect.DeepEqual(next.Keys(), []string{"Beta"}) {
		t.Fatalf("unexpected remove result: removed=%q keys=%q", removed, next.Keys())
	}
}

func TestCommitAddsOnlySucceededKeysAndIsIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	base := dispatchlog.New([]string{"A"}, nil)

	once := dispatchlog.Commit(base, []string{"B", "C"}, now)
	if got := once.Keys(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Fatalf("unexpected keys after commit: %v", got)
	}
	if base.Len() != 1 {
		t.Fatalf("commit mutated its input: %v", base.Keys())
	}

	path := filepath.Join(t.TempDir(), "log.json")
	if err := dispatchlog.Persist(path, once); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	reloaded, err := dispatchlog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	twice := dispatchlog.Commit(reloaded, []string{"B", "C"}, now)
	if !reflect.DeepEqual(twice.Keys(), once.Keys()) {
		t.Fatalf("expected idempotent commit, got %v vs %v", twice.Keys(), once.Keys())
	}
	if !twice.LastUpdated().Equal(*once.LastUpdated()) {
		t.Fatalf("expected matching timestamps, got %v vs %v", twice.LastUpdated(), once.LastUpdated())
	}
}

func TestPersistWritesCompatibleFormat(t *testing.T) {
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	l := dispatchlog.Commit(dispatchlog.New(nil, nil), []string{"Team <One>"}, now)
	path := filepath.Join(t.TempDir(), "state", "log.json")
	if err := dispatchlog.Persist(path, l); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"sent_teams": [`) || !strings.Contains(text, `"Team <One>"`) {
		t.Fatalf("unexpected file contents: %s", text)
	}
	if !strings.Contains(text, `"last_updated": "2026-01-20T10:00:00Z"`) {
		t.Fatalf("unexpected timestamp: %s", text)
	}
}

func TestEncodeEmptyLogUsesEmptyArray(t *testing.T) {
	data, err := dispatchlog.Encode(dispatchlog.New(nil, nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(data, []byte(`"sent_teams": []`)) || !bytes.Contains(data, []byte(`"last_updated": null`)) {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestRemoveDropsKeys(t *testing.T) {
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	l := dispatchlog.New([]string{"A", "B", "C"}, nil)
	next, removed := dispatchlog.Remove(l, []string{"B", "Z"}, now)
	if !reflect.DeepEqual(next.Keys(), []string{"A", "C"}) {
		t.Fatalf("unexpected keys: %v", next.Keys())
	}
	if !reflect.DeepEqual(removed, []string{"B"}) {
		t.Fatalf("unexpected removed: %v", removed)
	}
	if !l.Contains("B") {
		t.Fatal("remove mutated its input")
	}
}

func TestLockIsExclusive(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "campaign_sent.json")
	first, err := dispatchlog.Lock(logPath)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if _, err := dispatchlog.Lock(logPath); !errors.Is(err, dispatchlog.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := dispatchlog.Lock(logPath)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	defer again.Release()
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("lock must not create the log file, stat err=%v", err)
	}
}
