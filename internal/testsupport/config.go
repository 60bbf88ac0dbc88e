package testsupport

import (
	"path/filepath"
	"testing"

	"festmail/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Brevo.APIKey = "test"
	cfgVal.Sender.FromEmail = "noreply@fest.test"
	cfgVal.Sender.FromName = "Fest Ops"
	cfgVal.Dispatch.DelayMillis = 0
	cfgVal.Dispatch.StateDir = filepath.Join(base, "state")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBrevoEndpoint points the transport at a test server.
func WithBrevoEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Brevo.BaseURL = url
	}
}

// WithPersistMode sets dispatch.persist_mode.
func WithPersistMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.PersistMode = mode
	}
}

// WithTestTo sets the address test sends are redirected to.
func WithTestTo(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.TestTo = addr
	}
}

// WithGlobalCC sets addresses copied on every message.
func WithGlobalCC(addrs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.GlobalCC = addrs
	}
}

// WithCampaign registers a campaign. Relative Source and template file paths
// are resolved against the config's temp directory, and LogPath defaults to
// <state>/<name>_sent.json.
func WithCampaign(name string, campaign config.Campaign) ConfigOption {
	return func(b *configBuilder) {
		campaign.Source = b.resolve(campaign.Source)
		campaign.TextTemplateFile = b.resolve(campaign.TextTemplateFile)
		campaign.HTMLTemplateFile = b.resolve(campaign.HTMLTemplateFile)
		if campaign.SourceKind == "" {
			campaign.SourceKind = config.SourceTeamsJSON
		}
		if campaign.LogPath == "" {
			campaign.LogPath = filepath.Join(b.cfg.Dispatch.StateDir, name+"_sent.json")
		}
		if b.cfg.Campaigns == nil {
			b.cfg.Campaigns = map[string]config.Campaign{}
		}
		b.cfg.Campaigns[name] = campaign
	}
}

func (b *configBuilder) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Dispatch.StateDir)
}
