package roster_test

import (
	"reflect"
	"strings"
	"testing"

	"festmail/internal/roster"
)

var teamOptions = roster.TeamOptions{
	TeamNameColumn:       "Team Name",
	SubmitterEmailColumn: "Email address",
	TimestampColumn:      "Timestamp",
	MaxMembers:           4,
}

const teamCSV = "\ufeffTimestamp,Email address,Team Name,Member 1 Email,Member 2 Email,Member 3 Email,Member 4 Email,Member 5 Email\n" +
	"1/1/2026 10:00,submit@example.com,Alpha,A1@example.com, a2@example.com ,a1@example.com,,\n" +
	"1/1/2026 10:05,submit@example.com,Beta,not-an-email,,,,\n" +
	"1/1/2026 10:06,submit@example.com,,x@example.com,,,,\n" +
	"1/1/2026 10:07,submit@example.com,Gamma,g1@example.com,g2@example.com,g3@example.com,g4@example.com,g5@example.com\n" +
	"1/1/2026 11:00,submit@example.com,Alpha,a3@example.com,,,,\n"

func TestExtractTeams(t *testing.T) {
	report, err := roster.ExtractTeams(strings.NewReader(teamCSV), teamOptions)
	if err != nil {
		t.Fatalf("ExtractTeams: %v", err)
	}
	if len(report.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %+v", report.Teams)
	}
	alpha := report.Teams[0]
	if alpha.TeamName != "Alpha" || alpha.Timestamp != "1/1/2026 10:00" {
		t.Fatalf("unexpected first team %+v", alpha)
	}
	if !reflect.DeepEqual(alpha.Emails, []string{"a1@example.com", "a2@example.com", "a3@example.com"}) {
		t.Fatalf("unexpected alpha emails %v", alpha.Emails)
	}
	for _, email := range alpha.Emails {
		if email == "submit@example.com" {
			t.Fatal("submitter column must be excluded")
		}
	}
	if report.Merged != 1 {
		t.Fatalf("expected one merged row, got %d", report.Merged)
	}
	if !reflect.DeepEqual(report.Oversized, []string{"Gamma"}) {
		t.Fatalf("unexpected oversized %v", report.Oversized)
	}
	if len(report.Dropped) != 2 || report.Dropped[0].Key != "Beta" || report.Dropped[1].Key != "row 4" {
		t.Fatalf("unexpected dropped %+v", report.Dropped)
	}
	if roster.EmailCount(report.Teams) != 8 {
		t.Fatalf("unexpected email count %d", roster.EmailCount(report.Teams))
	}
}

func TestExtractTeamsRequiresColumns(t *testing.T) {
	if _, err := roster.ExtractTeams(strings.NewReader("Name,Email\nx,y@z.com\n"), teamOptions); err == nil {
		t.Fatal("expected missing column error")
	}
	if _, err := roster.ExtractTeams(strings.NewReader("Team Name,Email address\nx,y@z.com\n"), teamOptions); err == nil {
		t.Fatal("expected no member columns error")
	}
	if _, err := roster.ExtractTeams(strings.NewReader(""), teamOptions); err == nil {
		t.Fatal("expected empty file error")
	}
}

func TestRecipientsFromTeams(t *testing.T) {
	teams := []roster.Team{
		{TeamName: "Alpha", Emails: []string{"a1@example.com", "a2@example.com"}},
		{TeamName: "Empty"},
		{TeamName: "Alpha", Emails: []string{"a3@example.com"}},
	}
	recipients, rejected := roster.RecipientsFromTeams(teams)
	if len(recipients) != 1 {
		t.Fatalf("expected merged recipients, got %+v", recipients)
	}
	r := recipients[0]
	if r.Key != "Alpha" || r.Name != "Alpha" || r.Primary != "a1@example.com" {
		t.Fatalf("unexpected recipient %+v", r)
	}
	if !reflect.DeepEqual(r.Secondary, []string{"a2@example.com", "a3@example.com"}) {
		t.Fatalf("unexpected secondary %v", r.Secondary)
	}
	if r.Fields[roster.FieldTeamName] != "Alpha" || r.Fields[roster.FieldMemberCount] != "2" {
		t.Fatalf("unexpected fields %v", r.Fields)
	}
	if len(rejected) != 1 || rejected[0].Key != "Empty" {
		t.Fatalf("unexpected rejected %+v", rejected)
	}
}
