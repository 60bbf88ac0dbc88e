package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"festmail/internal/textutil"
)

func (c *Config) normalize() error {
	c.normalizeBrevo()
	c.normalizeSender()
	if err := c.normalizeDispatch(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeRoster()
	if err := c.normalizeCampaigns(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeBrevo() {
	c.Brevo.APIKey = strings.TrimSpace(c.Brevo.APIKey)
	if c.Brevo.APIKey == "" {
		if value, ok := os.LookupEnv("BREVO_API_KEY"); ok {
			c.Brevo.APIKey = strings.TrimSpace(value)
		}
	}
	c.Brevo.BaseURL = strings.TrimSpace(c.Brevo.BaseURL)
	if c.Brevo.BaseURL == "" {
		c.Brevo.BaseURL = defaultBrevoBaseURL
	}
	if c.Brevo.RequestTimeout <= 0 {
		c.Brevo.RequestTimeout = defaultBrevoRequestTimeout
	}
}

func (c *Config) normalizeSender() {
	c.Sender.FromEmail = strings.ToLower(strings.TrimSpace(c.Sender.FromEmail))
	c.Sender.FromName = strings.TrimSpace(c.Sender.FromName)
}

func (c *Config) normalizeDispatch() error {
	var err error
	c.Dispatch.PersistMode = strings.ToLower(strings.TrimSpace(c.Dispatch.PersistMode))
	c.Dispatch.PersistMode = strings.ReplaceAll(c.Dispatch.PersistMode, "-", "_")
	if c.Dispatch.PersistMode == "" {
		c.Dispatch.PersistMode = defaultPersistMode
	}
	if strings.TrimSpace(c.Dispatch.StateDir) == "" {
		c.Dispatch.StateDir = defaultStateDir
	}
	if c.Dispatch.StateDir, err = c.ResolvePath(c.Dispatch.StateDir); err != nil {
		return fmt.Errorf("dispatch.state_dir: %w", err)
	}
	c.Dispatch.TestTo = strings.ToLower(strings.TrimSpace(c.Dispatch.TestTo))
	c.Dispatch.GlobalCC = normalizeAddressList(c.Dispatch.GlobalCC)
	return nil
}

func (c *Config) normalizeLogging() error {
	var err error
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		if c.Logging.Dir, err = c.ResolvePath(c.Logging.Dir); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FESTMAIL_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeRoster() {
	r := &c.Roster
	r.TeamNameColumn = defaultIfBlank(r.TeamNameColumn, defaultTeamNameColumn)
	r.SubmitterEmailColumn = defaultIfBlank(r.SubmitterEmailColumn, defaultSubmitterEmailColumn)
	r.TimestampColumn = defaultIfBlank(r.TimestampColumn, defaultTimestampColumn)
	r.UniversityColumn = defaultIfBlank(r.UniversityColumn, defaultUniversityColumn)
	r.CoachEmailColumn = defaultIfBlank(r.CoachEmailColumn, defaultCoachEmailColumn)
	if r.MaxTeamMembers <= 0 {
		r.MaxTeamMembers = defaultMaxTeamMembers
	}
	typos := make(map[string]string, len(r.UniversityTypos))
	for from, to := range r.UniversityTypos {
		from = strings.ToLower(strings.TrimSpace(from))
		if from == "" {
			continue
		}
		typos[from] = strings.ToLower(strings.TrimSpace(to))
	}
	r.UniversityTypos = typos
}

func (c *Config) normalizeCampaigns() error {
	if c.Campaigns == nil {
		c.Campaigns = map[string]Campaign{}
		return nil
	}
	for name, campaign := range c.Campaigns {
		var err error
		campaign.SourceKind = strings.ToLower(strings.TrimSpace(campaign.SourceKind))
		if campaign.SourceKind == "" {
			campaign.SourceKind = defaultCampaignSourceKind
		}
		if campaign.Source, err = c.ResolvePath(campaign.Source); err != nil {
			return fmt.Errorf("campaigns.%s.source: %w", name, err)
		}
		if campaign.TextTemplateFile, err = c.ResolvePath(campaign.TextTemplateFile); err != nil {
			return fmt.Errorf("campaigns.%s.text_template_file: %w", name, err)
		}
		if campaign.HTMLTemplateFile, err = c.ResolvePath(campaign.HTMLTemplateFile); err != nil {
			return fmt.Errorf("campaigns.%s.html_template_file: %w", name, err)
		}
		if strings.TrimSpace(campaign.LogPath) == "" {
			campaign.LogPath = filepath.Join(c.Dispatch.StateDir, textutil.SanitizeToken(name)+defaultCampaignLogFileSuffix)
		}
		if campaign.LogPath, err = c.ResolvePath(campaign.LogPath); err != nil {
			return fmt.Errorf("campaigns.%s.log_path: %w", name, err)
		}
		campaign.Subject = strings.TrimSpace(campaign.Subject)
		campaign.ReplyToEmail = strings.ToLower(strings.TrimSpace(campaign.ReplyToEmail))
		campaign.ReplyToName = strings.TrimSpace(campaign.ReplyToName)
		campaign.TestKey = strings.TrimSpace(campaign.TestKey)
		c.Campaigns[name] = campaign
	}
	return nil
}

func normalizeAddressList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func defaultIfBlank(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
