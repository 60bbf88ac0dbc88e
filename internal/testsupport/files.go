package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"festmail/internal/fileutil"
	"festmail/internal/roster"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTeams writes a team_emails.json roster.
func WriteTeams(t testing.TB, path string, teams []roster.Team) {
	t.Helper()

	if err := fileutil.WriteJSONAtomic(path, teams); err != nil {
		t.Fatalf("write teams %s: %v", path, err)
	}
}

// WriteUniversities writes a university_teams.json roster.
func WriteUniversities(t testing.TB, path string, unis []roster.University) {
	t.Helper()

	if err := fileutil.WriteJSONAtomic(path, unis); err != nil {
		t.Fatalf("write universities %s: %v", path, err)
	}
}

// Teams builds teams named after keys, each with one address derived from
// the name.
func Teams(keys ...string) []roster.Team {
	teams := make([]roster.Team, 0, len(keys))
	for _, key := range keys {
		teams = append(teams, roster.Team{TeamName: key, Emails: []string{slug(key) + "@example.com"}})
	}
	return teams
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
