package roster

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"festmail/internal/recipient"
)

// Template fields every recipient carries.
const (
	FieldRecipientKey = "recipient_key"
)

// Template fields of team recipients.
const (
	FieldTeamName    = "team_name"
	FieldMemberCount = "member_count"
	FieldTimestamp   = "timestamp"
)

// Template fields of university recipients.
const (
	FieldUniversity            = "university"
	FieldUniversityShort       = "university_short"
	FieldAllocatedSlots        = "allocated_slots"
	FieldTeamCount             = "team_count"
	FieldTeamList              = "team_list"
	FieldTeamListHTML          = "team_list_html"
	FieldBkashAccount          = "bkash_account"
	FieldAccountHolderName     = "account_holder_name"
	FieldAccountHolderInfo     = "account_holder_info"
	FieldAccountHolderInfoHTML = "account_holder_info_html"
	FieldPerTeamAmount         = "per_team_amount"
	FieldTotalAmount           = "total_amount"
)

// BkashNotAssigned fills bkash_account for universities with no payment row.
const BkashNotAssigned = "NOT ASSIGNED"

// TeamFields lists the template fields RecipientsFromTeams provides.
func TeamFields() []string {
	return []string{FieldRecipientKey, FieldTeamName, FieldMemberCount, FieldTimestamp}
}

// UniversityFields lists the template fields RecipientsFromUniversities provides.
func UniversityFields() []string {
	return []string{
		FieldRecipientKey, FieldUniversity, FieldUniversityShort, FieldAllocatedSlots,
		FieldTeamCount, FieldTeamList, FieldTeamListHTML, FieldBkashAccount,
		FieldAccountHolderName, FieldAccountHolderInfo, FieldAccountHolderInfoHTML,
		FieldPerTeamAmount, FieldTotalAmount,
	}
}

// RecipientsFromTeams turns teams into recipients keyed by team name. The
// first member address is primary and the rest are CC'd.
func RecipientsFromTeams(teams []Team) ([]recipient.Recipient, []recipient.Rejection) {
	out := make([]recipient.Recipient, 0, len(teams))
	var rejected []recipient.Rejection
	for _, team := range teams {
		r, err := recipient.New(team.TeamName, team.Emails, map[string]string{
			FieldRecipientKey: strings.TrimSpace(team.TeamName),
			FieldTeamName:     strings.TrimSpace(team.TeamName),
			FieldMemberCount:  strconv.Itoa(len(team.Emails)),
			FieldTimestamp:    team.Timestamp,
		})
		if err != nil {
			rejected = append(rejected, rejection(team.TeamName, err))
			continue
		}
		r.Name = r.Key
		out = append(out, r)
	}
	return recipient.Merge(out), rejected
}

// TeamsFromRecipients renders recipients in the team_emails.json shape so a
// subset such as the pending set can be saved and mailed as its own roster.
func TeamsFromRecipients(list []recipient.Recipient) []Team {
	teams := make([]Team, 0, len(list))
	for _, r := range list {
		ts, _ := r.Field(FieldTimestamp)
		teams = append(teams, Team{TeamName: r.Key, Emails: r.Addresses(), Timestamp: ts})
	}
	return teams
}

// AmountOptions controls the payment fields of university recipients.
type AmountOptions struct {
	PerTeamAmount int
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders n with thousands separators.
func FormatAmount(n int) string {
	return amountPrinter.Sprintf("%d", n)
}

// RecipientsFromUniversities turns universities into recipients keyed by
// university name. The first coach is primary and the rest are CC'd.
func RecipientsFromUniversities(unis []University, opts AmountOptions) ([]recipient.Recipient, []recipient.Rejection) {
	out := make([]recipient.Recipient, 0, len(unis))
	var rejected []recipient.Rejection
	for _, u := range unis {
		r, err := recipient.New(u.University, u.CoachEmails, universityFields(u, opts))
		if err != nil {
			rejected = append(rejected, rejection(u.University, err))
			continue
		}
		out = append(out, r)
	}
	return recipient.Merge(out), rejected
}

func universityFields(u University, opts AmountOptions) map[string]string {
	slots := u.Slots()
	bkash := BkashNotAssigned
	holder := ""
	if u.PaymentInfo != nil {
		if strings.TrimSpace(u.PaymentInfo.BkashAccount) != "" {
			bkash = u.PaymentInfo.BkashAccount
		}
		holder = strings.TrimSpace(u.PaymentInfo.AccountHolderName)
	}

	var text, markup strings.Builder
	markup.WriteString(`<ul style="margin: 10px 0;">`)
	for i, team := range u.Teams {
		if i > 0 {
			text.WriteByte('\n')
		}
		text.WriteString("  • ")
		text.WriteString(team.TeamName)
		markup.WriteString(`<li style="margin: 5px 0;">`)
		markup.WriteString(html.EscapeString(team.TeamName))
		markup.WriteString(`</li>`)
	}
	markup.WriteString(`</ul>`)

	holderInfo, holderInfoHTML := "", ""
	if holder != "" {
		holderInfo = "📝 Account holder: " + holder
		holderInfoHTML = `<div class="payment-detail"><strong>📝 Account holder:</strong> ` + html.EscapeString(holder) + `</div>`
	}

	return map[string]string{
		FieldRecipientKey:          strings.TrimSpace(u.University),
		FieldUniversity:            strings.TrimSpace(u.University),
		FieldUniversityShort:       ShortUniversityName(u.University),
		FieldAllocatedSlots:        strconv.Itoa(slots),
		FieldTeamCount:             strconv.Itoa(u.TeamCount),
		FieldTeamList:              text.String(),
		FieldTeamListHTML:          markup.String(),
		FieldBkashAccount:          bkash,
		FieldAccountHolderName:     holder,
		FieldAccountHolderInfo:     holderInfo,
		FieldAccountHolderInfoHTML: holderInfoHTML,
		FieldPerTeamAmount:         FormatAmount(opts.PerTeamAmount),
		FieldTotalAmount:           FormatAmount(opts.PerTeamAmount * slots),
	}
}

// ShortUniversityName drops "UNIVERSITY" and "OF" and keeps the first three
// remaining words.
func ShortUniversityName(name string) string {
	words := strings.Fields(strings.NewReplacer("UNIVERSITY", "", "OF", "").Replace(name))
	if len(words) > 3 {
		words = words[:3]
	}
	short := strings.TrimSpace(strings.Join(words, " "))
	if short != "" {
		return short
	}
	runes := []rune(name)
	if len(runes) > 20 {
		runes = runes[:20]
	}
	return string(runes)
}

func rejection(key string, err error) recipient.Rejection {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "(unnamed)"
	}
	return recipient.Rejection{Key: key, Reason: fmt.Sprint(err)}
}
