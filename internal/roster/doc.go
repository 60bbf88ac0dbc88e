// Package roster turns registration spreadsheet exports into the JSON rosters
// that campaigns mail from: per-team member lists, universities grouped with
// their coaches, slot allocations and bKash payment details.
//
// The functions here are pure transforms over readers and writers; the CLI
// owns file paths. RecipientsFromTeams and RecipientsFromUniversities are the
// boundary where roster rows become validated recipient.Recipient values.
package roster
