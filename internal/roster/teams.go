package roster

import (
	"fmt"
	"io"
	"strings"

	"festmail/internal/recipient"
)

// Team is one entry of team_emails.json.
type Team struct {
	TeamName  string   `json:"team_name"`
	Emails    []string `json:"emails"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// TeamOptions names the registration form columns.
type TeamOptions struct {
	TeamNameColumn       string
	SubmitterEmailColumn string
	TimestampColumn      string
	MaxMembers           int
}

// TeamReport is the result of ExtractTeams.
type TeamReport struct {
	Teams []Team
	// Oversized lists teams with more member addresses than MaxMembers.
	Oversized []string
	// Dropped lists rows that produced no usable address or team name.
	Dropped []recipient.Rejection
	// Merged counts rows folded into an earlier row with the same team name.
	Merged int
}

// ExtractTeams reads a team registration CSV. Member addresses come from
// every column whose header contains "Email" except the form submitter
// column. Rows sharing a team name are merged.
func ExtractTeams(r io.Reader, opts TeamOptions) (TeamReport, error) {
	t, err := readTable(r)
	if err != nil {
		return TeamReport{}, err
	}
	if err := t.require(opts.TeamNameColumn); err != nil {
		return TeamReport{}, err
	}

	var emailColumns []int
	for i, name := range t.header {
		if strings.Contains(name, "Email") && name != opts.SubmitterEmailColumn {
			emailColumns = append(emailColumns, i)
		}
	}
	if len(emailColumns) == 0 {
		return TeamReport{}, fmt.Errorf("csv has no member email columns")
	}

	var report TeamReport
	index := map[string]int{}
	for n, row := range t.rows {
		name := t.cell(row, opts.TeamNameColumn)
		line := n + 2
		if name == "" {
			report.Dropped = append(report.Dropped, recipient.Rejection{
				Key:    fmt.Sprintf("row %d", line),
				Reason: "missing team name",
			})
			continue
		}

		raw := make([]string, 0, len(emailColumns))
		for _, i := range emailColumns {
			raw = append(raw, cellAt(row, i))
		}
		emails := recipient.CleanAddresses(raw)
		if len(emails) == 0 {
			report.Dropped = append(report.Dropped, recipient.Rejection{
				Key:    name,
				Reason: fmt.Sprintf("row %d has no usable email", line),
			})
			continue
		}

		if pos, ok := index[name]; ok {
			existing := report.Teams[pos]
			existing.Emails = recipient.CleanAddresses(append(existing.Emails, emails...))
			report.Teams[pos] = existing
			report.Merged++
			continue
		}
		index[name] = len(report.Teams)
		report.Teams = append(report.Teams, Team{
			TeamName:  name,
			Emails:    emails,
			Timestamp: t.cell(row, opts.TimestampColumn),
		})
	}

	if opts.MaxMembers > 0 {
		for _, team := range report.Teams {
			if len(team.Emails) > opts.MaxMembers {
				report.Oversized = append(report.Oversized, team.TeamName)
			}
		}
	}
	return report, nil
}

// EmailCount returns the number of member addresses across teams.
func EmailCount(teams []Team) int {
	total := 0
	for _, team := range teams {
		total += len(team.Emails)
	}
	return total
}
