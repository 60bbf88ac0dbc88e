package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLogShowAndReset(t *testing.T) {
	env := setupCLITestEnv(t, "Alpha", "Beta", "Gamma")
	if _, _, err := runCLI(t, []string{"send", "sprint", "--mark-all"}, env.configPath, ""); err != nil {
		t.Fatalf("mark-all: %v", err)
	}

	out, _, err := runCLI(t, []string{"log", "show", "sprint"}, env.configPath, "")
	if err != nil {
		t.Fatalf("log show: %v", err)
	}
	requireContains(t, out, "Notified: 3")
	requireContains(t, out, "Gamma")

	out, _, err = runCLI(t, []string{"log", "reset", "sprint", "Beta", "Nobody"}, env.configPath, "")
	if err != nil {
		t.Fatalf("log reset: %v", err)
	}
	requireContains(t, out, "Removed 1 of 2")
	requireContains(t, out, "1 were not in the log")
	requireKeys(t, env.loggedKeys(t), "Alpha", "Gamma")

	out, _, err = runCLI(t, []string{"log", "show", "sprint", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("log show --json: %v", err)
	}
	var file struct {
		SentTeams   []string `json:"sent_teams"`
		LastUpdated *string  `json:"last_updated"`
	}
	if err := json.Unmarshal([]byte(out), &file); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if strings.Join(file.SentTeams, ",") != "Alpha,Gamma" || file.LastUpdated == nil {
		t.Fatalf("unexpected log file %+v", file)
	}

	if _, _, err := runCLI(t, []string{"log", "reset", "sprint", "--all"}, env.configPath, ""); err != nil {
		t.Fatalf("log reset --all: %v", err)
	}
	requireKeys(t, env.loggedKeys(t))
}

func TestLogResetRequiresTargets(t *testing.T) {
	env := setupCLITestEnv(t, "Alpha")

	if _, _, err := runCLI(t, []string{"log", "reset", "sprint"}, env.configPath, ""); err == nil {
		t.Fatal("expected error without keys or --all")
	}
	if _, _, err := runCLI(t, []string{"log", "reset", "sprint", "Alpha", "--all"}, env.configPath, ""); err == nil {
		t.Fatal("expected error with both keys and --all")
	}
}

func TestLogShowEmpty(t *testing.T) {
	env := setupCLITestEnv(t, "Alpha")

	out, _, err := runCLI(t, []string{"log", "show", "sprint"}, env.configPath, "")
	if err != nil {
		t.Fatalf("log show: %v", err)
	}
	requireContains(t, out, "Notified: 0")
	requireContains(t, out, "Last updated: never")
}
