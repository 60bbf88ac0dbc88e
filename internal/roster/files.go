package roster

import (
	"fmt"
	"os"

	"festmail/internal/fileutil"
)

// ReadTeamsFile loads a team_emails.json roster.
func ReadTeamsFile(path string) ([]Team, error) {
	var teams []Team
	if err := fileutil.ReadJSON(path, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// ReadUniversitiesFile loads a university_teams.json roster.
func ReadUniversitiesFile(path string) ([]University, error) {
	var unis []University
	if err := fileutil.ReadJSON(path, &unis); err != nil {
		return nil, err
	}
	return unis, nil
}

// WriteJSONFile writes a roster atomically.
func WriteJSONFile(path string, v any) error {
	if err := fileutil.WriteJSONAtomic(path, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteCSVFile writes rendered CSV bytes atomically.
func WriteCSVFile(path string, data []byte) error {
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OpenCSV opens a CSV input for the extraction functions.
func OpenCSV(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	return f, nil
}
