// Package campaign binds a configured mailing to its recipient source,
// compiled templates and envelope settings.
package campaign

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"festmail/internal/config"
	"festmail/internal/message"
	"festmail/internal/recipient"
	"festmail/internal/roster"
	"festmail/internal/transport"
)

// ErrSourceUnreadable reports a recipient source that could not be read or
// parsed. Runs abort before any side effect when they see it.
var ErrSourceUnreadable = errors.New("campaign source unreadable")

// Campaign is a loaded, ready-to-dispatch mailing.
type Campaign struct {
	Name       string
	Settings   config.Campaign
	Recipients []recipient.Recipient
	Rejected   []recipient.Rejection
	// Oversized lists teams over the configured member limit (team_csv only).
	Oversized []string

	template *message.Template
	static   map[string]string
	envelope transport.Envelope
}

// Load reads the named campaign's source and compiles its templates.
func Load(cfg *config.Config, name string) (*Campaign, error) {
	if cfg == nil {
		return nil, errors.New("campaign: config is required")
	}
	settings, err := cfg.Campaign(name)
	if err != nil {
		return nil, err
	}

	c := &Campaign{
		Name:     name,
		Settings: settings,
		static:   copyFields(settings.Fields),
	}

	builtin := BuiltinFields(settings.SourceKind)
	for _, field := range builtin {
		if _, clash := c.static[field]; clash {
			return nil, fmt.Errorf("campaigns.%s.fields.%s shadows a recipient field", name, field)
		}
	}

	set, err := templateSet(settings)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", name, err)
	}
	allowed := append(append([]string(nil), builtin...), sortedKeys(c.static)...)
	if c.template, err = message.Compile(set, allowed); err != nil {
		return nil, fmt.Errorf("campaign %s: %w", name, err)
	}

	if err := c.loadSource(cfg); err != nil {
		return nil, err
	}

	c.envelope = transport.Envelope{GlobalCC: cfg.Dispatch.GlobalCC}
	if settings.ReplyToEmail != "" {
		c.envelope.ReplyTo = &transport.Address{Email: settings.ReplyToEmail, Name: settings.ReplyToName}
	}
	return c, nil
}

func (c *Campaign) loadSource(cfg *config.Config) error {
	path := c.Settings.Source
	switch c.Settings.SourceKind {
	case config.SourceTeamCSV:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		defer f.Close()
		report, err := roster.ExtractTeams(f, roster.TeamOptions{
			TeamNameColumn:       cfg.Roster.TeamNameColumn,
			SubmitterEmailColumn: cfg.Roster.SubmitterEmailColumn,
			TimestampColumn:      cfg.Roster.TimestampColumn,
			MaxMembers:           cfg.Roster.MaxTeamMembers,
		})
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
		}
		c.Recipients, c.Rejected = roster.RecipientsFromTeams(report.Teams)
		c.Rejected = append(report.Dropped, c.Rejected...)
		c.Oversized = report.Oversized
	case config.SourceTeamsJSON:
		teams, err := roster.ReadTeamsFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		c.Recipients, c.Rejected = roster.RecipientsFromTeams(teams)
	case config.SourceUniversitiesJSON:
		unis, err := roster.ReadUniversitiesFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		c.Recipients, c.Rejected = roster.RecipientsFromUniversities(unis, roster.AmountOptions{
			PerTeamAmount: c.Settings.PerTeamAmount,
		})
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrSourceUnreadable, c.Settings.SourceKind)
	}
	return nil
}

// BuiltinFields lists the recipient fields a source kind provides.
func BuiltinFields(kind string) []string {
	switch kind {
	case config.SourceUniversitiesJSON:
		return roster.UniversityFields()
	default:
		return roster.TeamFields()
	}
}

// Fields returns the template data for r: static campaign fields plus the
// recipient's own fields.
func (c *Campaign) Fields(r recipient.Recipient) map[string]string {
	fields := make(map[string]string, len(c.static)+len(r.Fields))
	for k, v := range c.static {
		fields[k] = v
	}
	for k, v := range r.Fields {
		fields[k] = v
	}
	return fields
}

// Render renders the message content for r.
func (c *Campaign) Render(r recipient.Recipient) (message.Content, error) {
	return c.template.Render(c.Fields(r))
}

// Compose renders and addresses the message for r.
func (c *Campaign) Compose(r recipient.Recipient) (transport.Message, error) {
	content, err := c.Render(r)
	if err != nil {
		return transport.Message{}, err
	}
	return c.envelope.Address(r, content), nil
}

// ForTest returns a composer that redirects every message to testTo. An empty
// testTo keeps the recipient's own addresses.
func (c *Campaign) ForTest(testTo string) *Campaign {
	clone := *c
	clone.envelope.TestTo = strings.TrimSpace(testTo)
	return &clone
}

// Referenced returns the template fields the campaign uses.
func (c *Campaign) Referenced() []string {
	return c.template.Referenced()
}

func templateSet(settings config.Campaign) (message.TemplateSet, error) {
	set := message.TemplateSet{
		Subject: settings.Subject,
		Text:    settings.TextTemplate,
		HTML:    settings.HTMLTemplate,
	}
	if settings.TextTemplateFile != "" {
		data, err := os.ReadFile(settings.TextTemplateFile)
		if err != nil {
			return set, fmt.Errorf("read text template: %w", err)
		}
		set.Text = string(data)
	}
	if settings.HTMLTemplateFile != "" {
		data, err := os.ReadFile(settings.HTMLTemplateFile)
		if err != nil {
			return set, fmt.Errorf("read html template: %w", err)
		}
		set.HTML = string(data)
	}
	return set, nil
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
