package roster

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"festmail/internal/recipient"
)

// TeamRef is a team entry inside a University.
type TeamRef struct {
	TeamName   string `json:"team_name"`
	CoachEmail string `json:"coach_email"`
}

// PaymentInfo carries the bKash account a university pays from.
type PaymentInfo struct {
	BkashAccount      string `json:"bkash_account"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

// University is one entry of university_teams.json.
type University struct {
	University     string       `json:"university"`
	CoachEmails    []string     `json:"coach_emails"`
	TeamCount      int          `json:"team_count"`
	Teams          []TeamRef    `json:"teams"`
	AllocatedSlots *int         `json:"allocated_slots,omitempty"`
	PaymentInfo    *PaymentInfo `json:"payment_info,omitempty"`
}

// Slots returns the allocated slot count, 0 when unset.
func (u University) Slots() int {
	if u.AllocatedSlots == nil {
		return 0
	}
	return *u.AllocatedSlots
}

// UniversityOptions names the registration form columns.
type UniversityOptions struct {
	UniversityColumn string
	TeamNameColumn   string
	CoachEmailColumn string
	Typos            map[string]string
}

var (
	parenthesised = regexp.MustCompile(`\s*\([^)]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)
	lowerCaser    = cases.Lower(language.Und)
)

// NormalizeUniversityName folds spelling variants of a university name to a
// grouping key: lower case, parenthesised abbreviations removed, whitespace
// collapsed, "&" spelled "and", known typos fixed and trailing dots dropped.
func NormalizeUniversityName(name string, typos map[string]string) string {
	normalized := strings.TrimSpace(lowerCaser.String(name))
	normalized = parenthesised.ReplaceAllString(normalized, "")
	normalized = whitespace.ReplaceAllString(normalized, " ")
	normalized = strings.ReplaceAll(normalized, " & ", " and ")
	normalized = strings.ReplaceAll(normalized, "&", " and ")

	keys := make([]string, 0, len(typos))
	for typo := range typos {
		keys = append(keys, typo)
	}
	sort.Strings(keys)
	for _, typo := range keys {
		normalized = strings.ReplaceAll(normalized, typo, typos[typo])
	}

	normalized = strings.TrimRight(normalized, ".")
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// GroupUniversities reads a contest registration CSV and groups teams by
// normalized university name. The display name is the first spelling seen.
// Output is sorted by display name; coach emails are sorted and unique.
func GroupUniversities(r io.Reader, opts UniversityOptions) ([]University, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(opts.UniversityColumn, opts.TeamNameColumn, opts.CoachEmailColumn); err != nil {
		return nil, err
	}

	type group struct {
		display string
		teams   []TeamRef
		coaches map[string]struct{}
	}
	groups := map[string]*group{}

	for _, row := range t.rows {
		name := t.cell(row, opts.UniversityColumn)
		coach := recipient.CleanAddress(t.cell(row, opts.CoachEmailColumn))
		if name == "" || coach == "" {
			continue
		}
		key := NormalizeUniversityName(name, opts.Typos)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{display: name, coaches: map[string]struct{}{}}
			groups[key] = g
		}
		g.teams = append(g.teams, TeamRef{TeamName: t.cell(row, opts.TeamNameColumn), CoachEmail: coach})
		g.coaches[coach] = struct{}{}
	}

	out := make([]University, 0, len(groups))
	for _, g := range groups {
		coaches := make([]string, 0, len(g.coaches))
		for email := range g.coaches {
			coaches = append(coaches, email)
		}
		sort.Strings(coaches)
		out = append(out, University{
			University:  g.display,
			CoachEmails: coaches,
			TeamCount:   len(g.teams),
			Teams:       g.teams,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].University < out[j].University })
	return out, nil
}

// TeamTotal returns the number of teams across universities.
func TeamTotal(unis []University) int {
	total := 0
	for _, u := range unis {
		total += len(u.Teams)
	}
	return total
}

// EncodeGroupsCSV renders the coach CC overview sheet.
func EncodeGroupsCSV(unis []University) ([]byte, error) {
	records := make([][]string, 0, len(unis))
	for _, u := range unis {
		names := make([]string, 0, len(u.Teams))
		for _, team := range u.Teams {
			names = append(names, team.TeamName)
		}
		records = append(records, []string{
			u.University,
			strconv.Itoa(u.TeamCount),
			strings.Join(u.CoachEmails, "; "),
			strings.Join(names, "; "),
		})
	}
	data, err := encodeCSV([]string{"University", "Team Count", "Coach Emails (CC)", "Teams"}, records)
	if err != nil {
		return nil, fmt.Errorf("encode groups csv: %w", err)
	}
	return data, nil
}

// EncodeCountsCSV renders the University,Team Count sheet.
func EncodeCountsCSV(unis []University) ([]byte, error) {
	records := make([][]string, 0, len(unis))
	for _, u := range unis {
		records = append(records, []string{strings.TrimSpace(u.University), strconv.Itoa(u.TeamCount)})
	}
	data, err := encodeCSV([]string{"University", "Team Count"}, records)
	if err != nil {
		return nil, fmt.Errorf("encode counts csv: %w", err)
	}
	return data, nil
}
