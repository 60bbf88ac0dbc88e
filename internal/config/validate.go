package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBrevo(); err != nil {
		return err
	}
	if err := c.validateSender(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateRoster(); err != nil {
		return err
	}
	for _, name := range c.CampaignNames() {
		if err := c.validateCampaign(name, c.Campaigns[name]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateBrevo() error {
	if !strings.HasPrefix(c.Brevo.BaseURL, "http://") && !strings.HasPrefix(c.Brevo.BaseURL, "https://") {
		return fmt.Errorf("brevo.base_url must be an http(s) URL, got %q", c.Brevo.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"brevo.request_timeout":         c.Brevo.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateSender() error {
	if len(c.Campaigns) == 0 {
		return nil
	}
	if !looksLikeAddress(c.Sender.FromEmail) {
		return errors.New("sender.from_email must be a valid address when campaigns are configured")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.PersistMode {
	case PersistWriteThrough, PersistEndOfRun:
	default:
		return fmt.Errorf("dispatch.persist_mode must be %q or %q, got %q", PersistWriteThrough, PersistEndOfRun, c.Dispatch.PersistMode)
	}
	if c.Dispatch.DelayMillis < 0 {
		return errors.New("dispatch.delay_ms must be >= 0")
	}
	if c.Dispatch.TestTo != "" && !looksLikeAddress(c.Dispatch.TestTo) {
		return fmt.Errorf("dispatch.test_to is not a valid address: %q", c.Dispatch.TestTo)
	}
	for _, addr := range c.Dispatch.GlobalCC {
		if !looksLikeAddress(addr) {
			return fmt.Errorf("dispatch.global_cc contains an invalid address: %q", addr)
		}
	}
	return nil
}

func (c *Config) validateRoster() error {
	if c.Roster.MaxTeamMembers < 1 {
		return errors.New("roster.max_team_members must be >= 1")
	}
	return nil
}

func (c *Config) validateCampaign(name string, campaign Campaign) error {
	prefix := "campaigns." + name
	if strings.TrimSpace(name) == "" {
		return errors.New("campaign names must not be empty")
	}
	if campaign.Source == "" {
		return fmt.Errorf("%s.source must be set", prefix)
	}
	switch campaign.SourceKind {
	case SourceTeamCSV, SourceTeamsJSON, SourceUniversitiesJSON:
	default:
		return fmt.Errorf("%s.source_kind must be one of %s, %s, %s (got %q)",
			prefix, SourceTeamCSV, SourceTeamsJSON, SourceUniversitiesJSON, campaign.SourceKind)
	}
	if campaign.Subject == "" {
		return fmt.Errorf("%s.subject must be set", prefix)
	}
	hasText := strings.TrimSpace(campaign.TextTemplate) != "" || campaign.TextTemplateFile != ""
	hasHTML := strings.TrimSpace(campaign.HTMLTemplate) != "" || campaign.HTMLTemplateFile != ""
	if !hasText && !hasHTML {
		return fmt.Errorf("%s requires a text or html template", prefix)
	}
	if strings.TrimSpace(campaign.TextTemplate) != "" && campaign.TextTemplateFile != "" {
		return fmt.Errorf("%s: set text_template or text_template_file, not both", prefix)
	}
	if strings.TrimSpace(campaign.HTMLTemplate) != "" && campaign.HTMLTemplateFile != "" {
		return fmt.Errorf("%s: set html_template or html_template_file, not both", prefix)
	}
	if campaign.ReplyToEmail != "" && !looksLikeAddress(campaign.ReplyToEmail) {
		return fmt.Errorf("%s.reply_to_email is not a valid address: %q", prefix, campaign.ReplyToEmail)
	}
	if campaign.PerTeamAmount < 0 {
		return fmt.Errorf("%s.per_team_amount must be >= 0", prefix)
	}
	if campaign.DelayMillis < 0 {
		return fmt.Errorf("%s.delay_ms must be >= 0", prefix)
	}
	return nil
}

func looksLikeAddress(value string) bool {
	at := strings.Index(value, "@")
	return at > 0 && at < len(value)-1 && !strings.ContainsAny(value, " \t,;")
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
