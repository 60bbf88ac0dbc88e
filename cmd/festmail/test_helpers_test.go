package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"festmail/internal/config"
	"festmail/internal/dispatchlog"
	"festmail/internal/testsupport"
)

// brevoStub records send requests and fails any message addressed to an
// email in fail.
type brevoStub struct {
	mu       sync.Mutex
	requests []brevoCall
	fail     map[string]bool
}

type brevoCall struct {
	To      []string
	CC      []string
	Subject string
	Text    string
}

func (b *brevoStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
		CC []struct {
			Email string `json:"email"`
		} `json:"cc"`
		Subject     string `json:"subject"`
		TextContent string `json:"textContent"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := brevoCall{Subject: payload.Subject, Text: payload.TextContent}
	for _, to := range payload.To {
		call.To = append(call.To, to.Email)
	}
	for _, cc := range payload.CC {
		call.CC = append(call.CC, cc.Email)
	}

	b.mu.Lock()
	b.requests = append(b.requests, call)
	n := len(b.requests)
	failing := len(call.To) > 0 && b.fail[call.To[0]]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter","message":"email is not valid"}`))
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"messageId":"<msg-%d@brevo>"}`, n)
}

func (b *brevoStub) calls() []brevoCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]brevoCall(nil), b.requests...)
}

type cliTestEnv struct {
	cfg        *config.Config
	brevo      *brevoStub
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, teams ...string) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BREVO_API_KEY", "")
	t.Setenv("FESTMAIL_NTFY_TOPIC", "")

	stub := &brevoStub{fail: map[string]bool{}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithBrevoEndpoint(srv.URL),
		testsupport.WithTestTo("tester@fest.test"),
		testsupport.WithCampaign("sprint", config.Campaign{
			Source:       "team_emails.json",
			Subject:      "{{.event}} is live | {{.team_name}}",
			TextTemplate: "Hi {{.team_name}}, the {{.event}} round has started.",
			Fields:       map[string]string{"event": "DL Sprint"},
			TestKey:      "Alpha",
		}),
	)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	testsupport.WriteTeams(t, filepath.Join(base, "team_emails.json"), testsupport.Teams(teams...))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		brevo:      stub,
		configPath: configPath,
		baseDir:    base,
	}
}

// ntfyStub records notification titles and bodies.
type ntfyStub struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (n *ntfyStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	n.mu.Lock()
	n.titles = append(n.titles, r.Header.Get("Title"))
	n.bodies = append(n.bodies, string(body))
	n.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (n *ntfyStub) received() ([]string, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...), append([]string(nil), n.bodies...)
}

// enableNtfy points notifications at a local stub and rewrites the config.
func (e *cliTestEnv) enableNtfy(t *testing.T) *ntfyStub {
	t.Helper()
	stub := &ntfyStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	e.cfg.Notifications.NtfyTopic = srv.URL + "/festmail"
	writeTestConfig(t, e.configPath, e.cfg)
	return stub
}

func (e *cliTestEnv) logPath() string {
	return e.cfg.Campaigns["sprint"].LogPath
}

func (e *cliTestEnv) loggedKeys(t *testing.T) []string {
	t.Helper()
	log, err := dispatchlog.Load(e.logPath())
	if err != nil {
		t.Fatalf("load dispatch log: %v", err)
	}
	return log.Keys()
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireKeys(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("keys = %v, want %v", got, want)
	}
}
