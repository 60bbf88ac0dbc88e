package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Persistence modes for the dispatch log.
const (
	PersistWriteThrough = "write_through"
	PersistEndOfRun     = "end_of_run"
)

// Source kinds understood by campaigns.
const (
	SourceTeamCSV          = "team_csv"
	SourceTeamsJSON        = "teams_json"
	SourceUniversitiesJSON = "universities_json"
)

// Brevo contains transactional email API settings.
type Brevo struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Sender identifies the From address used on every message.
type Sender struct {
	FromEmail string `toml:"from_email"`
	FromName  string `toml:"from_name"`
}

// Dispatch contains pacing and tracking settings shared by campaigns.
type Dispatch struct {
	DelayMillis int      `toml:"delay_ms"`
	PersistMode string   `toml:"persist_mode"`
	StateDir    string   `toml:"state_dir"`
	TestTo      string   `toml:"test_to"`
	GlobalCC    []string `toml:"global_cc"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Notifications contains configuration for ntfy operator notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Roster contains column names and limits used when extracting rosters from
// registration spreadsheets.
type Roster struct {
	TeamNameColumn       string            `toml:"team_name_column"`
	SubmitterEmailColumn string            `toml:"submitter_email_column"`
	TimestampColumn      string            `toml:"timestamp_column"`
	UniversityColumn     string            `toml:"university_column"`
	CoachEmailColumn     string            `toml:"coach_email_column"`
	MaxTeamMembers       int               `toml:"max_team_members"`
	UniversityTypos      map[string]string `toml:"university_typos"`
}

// Campaign describes one mailing: where recipients come from, what they
// receive, and where delivery is tracked.
type Campaign struct {
	Source           string            `toml:"source"`
	SourceKind       string            `toml:"source_kind"`
	Subject          string            `toml:"subject"`
	TextTemplate     string            `toml:"text_template"`
	TextTemplateFile string            `toml:"text_template_file"`
	HTMLTemplate     string            `toml:"html_template"`
	HTMLTemplateFile string            `toml:"html_template_file"`
	ReplyToEmail     string            `toml:"reply_to_email"`
	ReplyToName      string            `toml:"reply_to_name"`
	Fields           map[string]string `toml:"fields"`
	TestKey          string            `toml:"test_key"`
	LogPath          string            `toml:"log_path"`
	PerTeamAmount    int               `toml:"per_team_amount"`
	DelayMillis      int               `toml:"delay_ms"`
}

// Config encapsulates all configuration values for festmail.
//
// Configuration sections:
//   - Brevo: transactional email API credentials and timeout
//   - Sender: From identity
//   - Dispatch: pacing, persistence mode, state directory, test redirect
//   - Logging: log format, level, and directory
//   - Notifications: ntfy run summaries
//   - Roster: spreadsheet column names for roster extraction
//   - Campaigns: named mailings keyed by campaign name
type Config struct {
	Brevo         Brevo               `toml:"brevo"`
	Sender        Sender              `toml:"sender"`
	Dispatch      Dispatch            `toml:"dispatch"`
	Logging       Logging             `toml:"logging"`
	Notifications Notifications       `toml:"notifications"`
	Roster        Roster              `toml:"roster"`
	Campaigns     map[string]Campaign `toml:"campaigns"`

	// baseDir anchors relative campaign paths; it is the config file's
	// directory when one was loaded, otherwise the working directory.
	baseDir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/festmail/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.baseDir = filepath.Dir(resolvedPath)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", false, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.baseDir = wd
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("festmail.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv populates missing environment variables from a .env file next to
// the config file and from the working directory. Existing variables win. A
// .env file that exists but does not parse is an error.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Dispatch.StateDir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Campaign returns the named campaign.
func (c *Config) Campaign(name string) (Campaign, error) {
	name = strings.TrimSpace(name)
	campaign, ok := c.Campaigns[name]
	if !ok {
		names := c.CampaignNames()
		if len(names) == 0 {
			return Campaign{}, fmt.Errorf("campaign %q not configured (no campaigns defined)", name)
		}
		return Campaign{}, fmt.Errorf("campaign %q not configured (available: %s)", name, strings.Join(names, ", "))
	}
	return campaign, nil
}

// CampaignNames returns configured campaign names in sorted order.
func (c *Config) CampaignNames() []string {
	names := make([]string, 0, len(c.Campaigns))
	for name := range c.Campaigns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DispatchDelay returns the pause between consecutive sends for a campaign.
func (c *Config) DispatchDelay(campaign Campaign) time.Duration {
	millis := c.Dispatch.DelayMillis
	if campaign.DelayMillis > 0 {
		millis = campaign.DelayMillis
	}
	if millis <= 0 {
		return 0
	}
	return time.Duration(millis) * time.Millisecond
}

// BrevoTimeout returns the per-request timeout for the email API.
func (c *Config) BrevoTimeout() time.Duration {
	return time.Duration(c.Brevo.RequestTimeout) * time.Second
}

// RequireBrevoKey reports a configuration error when no API key is available.
func (c *Config) RequireBrevoKey() error {
	if strings.TrimSpace(c.Brevo.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/festmail/config.toml"
		}
		return fmt.Errorf("brevo.api_key is required. Set BREVO_API_KEY (environment or .env) or edit %s", defaultPath)
	}
	return nil
}

// ResolvePath expands a user-supplied path. Relative paths are anchored at the
// config file's directory.
func (c *Config) ResolvePath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if !strings.HasPrefix(pathValue, "~") && !filepath.IsAbs(pathValue) && c.baseDir != "" {
		pathValue = filepath.Join(c.baseDir, pathValue)
	}
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
