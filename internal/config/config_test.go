package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"festmail/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("BREVO_API_KEY", " test-key ")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Brevo.APIKey != "test-key" {
		t.Fatalf("expected Brevo key from env, got %q", cfg.Brevo.APIKey)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "festmail")
	if cfg.Dispatch.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Dispatch.StateDir, wantState)
	}
	if cfg.Dispatch.PersistMode != config.PersistWriteThrough {
		t.Fatalf("unexpected persist mode: %q", cfg.Dispatch.PersistMode)
	}
	if cfg.Brevo.BaseURL != config.Default().Brevo.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Brevo.BaseURL)
	}
	if cfg.BrevoTimeout() != 30*time.Second {
		t.Fatalf("unexpected brevo timeout: %s", cfg.BrevoTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Dispatch.StateDir, cfg.Logging.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPathResolvesCampaignPathsRelativeToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "festmail.toml")

	type campaign struct {
		Source       string `toml:"source"`
		SourceKind   string `toml:"source_kind"`
		Subject      string `toml:"subject"`
		TextTemplate string `toml:"text_template"`
		DelayMillis  int    `toml:"delay_ms"`
	}
	type payload struct {
		Sender struct {
			FromEmail string `toml:"from_email"`
		} `toml:"sender"`
		Dispatch struct {
			PersistMode string   `toml:"persist_mode"`
			StateDir    string   `toml:"state_dir"`
			GlobalCC    []string `toml:"global_cc"`
		} `toml:"dispatch"`
		Campaigns map[string]campaign `toml:"campaigns"`
	}
	custom := payload{}
	custom.Sender.FromEmail = " NoReply@Example.com "
	custom.Dispatch.PersistMode = "End-Of-Run"
	custom.Dispatch.StateDir = "state"
	custom.Dispatch.GlobalCC = []string{"Ops@Example.com", "ops@example.com", " "}
	custom.Campaigns = map[string]campaign{
		"welcome": {
			Source:       "teams.json",
			SourceKind:   "TEAMS_JSON",
			Subject:      "Hello {{.team_name}}",
			TextTemplate: "Hi {{.team_name}}",
			DelayMillis:  1500,
		},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Sender.FromEmail != "noreply@example.com" {
		t.Fatalf("unexpected from email: %q", cfg.Sender.FromEmail)
	}
	if cfg.Dispatch.PersistMode != config.PersistEndOfRun {
		t.Fatalf("unexpected persist mode: %q", cfg.Dispatch.PersistMode)
	}
	if cfg.Dispatch.StateDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Dispatch.StateDir)
	}
	if len(cfg.Dispatch.GlobalCC) != 1 || cfg.Dispatch.GlobalCC[0] != "ops@example.com" {
		t.Fatalf("unexpected global cc: %v", cfg.Dispatch.GlobalCC)
	}

	c, err := cfg.Campaign("welcome")
	if err != nil {
		t.Fatalf("Campaign returned error: %v", err)
	}
	if c.Source != filepath.Join(tempDir, "teams.json") {
		t.Fatalf("unexpected source: %q", c.Source)
	}
	if c.SourceKind != config.SourceTeamsJSON {
		t.Fatalf("unexpected source kind: %q", c.SourceKind)
	}
	if c.LogPath != filepath.Join(tempDir, "state", "welcome_sent.json") {
		t.Fatalf("unexpected log path: %q", c.LogPath)
	}
	if got := cfg.DispatchDelay(c); got != 1500*time.Millisecond {
		t.Fatalf("unexpected campaign delay: %s", got)
	}
}

func TestCampaignLookupListsAvailableNames(t *testing.T) {
	cfg := config.Default()
	cfg.Campaigns["alpha"] = config.Campaign{}
	cfg.Campaigns["beta"] = config.Campaign{}

	_, err := cfg.Campaign("gamma")
	if err == nil {
		t.Fatal("expected error for unknown campaign")
	}
	if !strings.Contains(err.Error(), "alpha, beta") {
		t.Fatalf("expected available names in error, got %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Sender.FromEmail = "noreply@example.com"
		cfg.Campaigns["c"] = config.Campaign{
			Source:       "/tmp/teams.json",
			SourceKind:   config.SourceTeamsJSON,
			Subject:      "s",
			TextTemplate: "t",
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"persist mode", func(c *config.Config) { c.Dispatch.PersistMode = "sometimes" }, "dispatch.persist_mode"},
		{"negative delay", func(c *config.Config) { c.Dispatch.DelayMillis = -1 }, "dispatch.delay_ms"},
		{"test_to", func(c *config.Config) { c.Dispatch.TestTo = "nobody" }, "dispatch.test_to"},
		{"sender", func(c *config.Config) { c.Sender.FromEmail = "" }, "sender.from_email"},
		{"source kind", func(c *config.Config) {
			camp := c.Campaigns["c"]
			camp.SourceKind = "xml"
			c.Campaigns["c"] = camp
		}, "source_kind"},
		{"no template", func(c *config.Config) {
			camp := c.Campaigns["c"]
			camp.TextTemplate = ""
			c.Campaigns["c"] = camp
		}, "text or html template"},
		{"subject", func(c *config.Config) {
			camp := c.Campaigns["c"]
			camp.Subject = ""
			c.Campaigns["c"] = camp
		}, "subject"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			if err := cfg.Validate(); err != nil {
				t.Fatalf("base config invalid: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireBrevoKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireBrevoKey(); err == nil {
		t.Fatal("expected error when api key missing")
	}
	cfg.Brevo.APIKey = "k"
	if err := cfg.RequireBrevoKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BREVO_API_KEY", "")
	os.Unsetenv("BREVO_API_KEY")
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "festmail.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BREVO_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Brevo.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Brevo.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "festmail.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("BREVO-API-KEY=oops\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for malformed .env")
	}
	if !strings.Contains(err.Error(), envPath) {
		t.Fatalf("expected error to name %s, got %v", envPath, err)
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if got := cfg.CampaignNames(); len(got) != 2 || got[0] != "dlsprint" || got[1] != "iupc_slots" {
		t.Fatalf("unexpected campaigns: %v", got)
	}
}
