package config

const (
	defaultBrevoBaseURL          = "https://api.brevo.com/v3/smtp/email"
	defaultBrevoRequestTimeout   = 30
	defaultDelayMillis           = 500
	defaultPersistMode           = PersistWriteThrough
	defaultStateDir              = "~/.local/share/festmail"
	defaultLogDir                = "~/.local/share/festmail/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
	defaultTeamNameColumn        = "Team Name"
	defaultSubmitterEmailColumn  = "Email address"
	defaultTimestampColumn       = "Timestamp"
	defaultUniversityColumn      = "Full Name of the University (Or IOI)"
	defaultCoachEmailColumn      = "Coach Email"
	defaultMaxTeamMembers        = 4
	defaultCampaignSourceKind    = SourceTeamsJSON
	defaultCampaignLogFileSuffix = "_sent.json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Brevo: Brevo{
			BaseURL:        defaultBrevoBaseURL,
			RequestTimeout: defaultBrevoRequestTimeout,
		},
		Dispatch: Dispatch{
			DelayMillis: defaultDelayMillis,
			PersistMode: defaultPersistMode,
			StateDir:    defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Roster: Roster{
			TeamNameColumn:       defaultTeamNameColumn,
			SubmitterEmailColumn: defaultSubmitterEmailColumn,
			TimestampColumn:      defaultTimestampColumn,
			UniversityColumn:     defaultUniversityColumn,
			CoachEmailColumn:     defaultCoachEmailColumn,
			MaxTeamMembers:       defaultMaxTeamMembers,
			UniversityTypos: map[string]string{
				"bangaldesh":  "bangladesh",
				"engineerign": "engineering",
				"gopalgonj":   "gopalganj",
			},
		},
		Campaigns: map[string]Campaign{},
	}
}
