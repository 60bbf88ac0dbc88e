package preflight

import (
	"context"
	"path/filepath"

	"festmail/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are reported but do not block a run.
	Optional bool
}

// Options selects optional checks.
type Options struct {
	// Online adds checks that contact Brevo.
	Online bool
}

// RunAll executes the preflight checks for cfg: writable state and log
// directories, an API key, and for every campaign a readable source and a
// writable log directory.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Dispatch.StateDir))
	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}
	results = append(results, CheckBrevoKey(cfg))
	if opts.Online && cfg.RequireBrevoKey() == nil {
		results = append(results, CheckBrevo(ctx, cfg.Brevo.BaseURL, cfg.Brevo.APIKey))
	}

	for _, name := range cfg.CampaignNames() {
		campaign := cfg.Campaigns[name]
		results = append(results, CheckFileReadable("Campaign "+name+" source", campaign.Source))
		results = append(results, CheckDirectoryAccess("Campaign "+name+" log", filepath.Dir(campaign.LogPath)))
	}
	return results
}

// Failed returns the required results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
