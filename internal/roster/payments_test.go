package roster_test

import (
	"reflect"
	"strings"
	"testing"

	"festmail/internal/roster"
)

func intPtr(n int) *int { return &n }

const paymentCSV = "\ufeffUniversity Name,Bkash,Name\n" +
	" buet ,1712345678,Rahim\n" +
	"North South University,017-1234-5679,\n" +
	",01700000000,Nobody\n"

func TestNormalizeBkash(t *testing.T) {
	tests := map[string]string{
		"1712345678":      "01712345678",
		"01712345678":     "01712345678",
		" 017-1234-5678 ": "01712345678",
		"+8801712345678":  "8801712345678",
		"":                "",
		"n/a":             "n/a",
	}
	for in, want := range tests {
		if got := roster.NormalizeBkash(in); got != want {
			t.Errorf("NormalizeBkash(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadAndMergePayments(t *testing.T) {
	payments, err := roster.LoadPayments(strings.NewReader(paymentCSV))
	if err != nil {
		t.Fatalf("LoadPayments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %v", payments)
	}
	if got := payments["BUET"]; got.BkashAccount != "01712345678" || got.AccountHolderName != "Rahim" {
		t.Fatalf("unexpected BUET payment %+v", got)
	}

	unis := []roster.University{{University: "BUET"}, {University: "north south university"}, {University: "DU"}}
	merged, unmatched := roster.MergePayments(unis, payments)
	if merged[0].PaymentInfo == nil || merged[1].PaymentInfo == nil || merged[2].PaymentInfo != nil {
		t.Fatalf("unexpected merge %+v", merged)
	}
	if merged[1].PaymentInfo.BkashAccount != "01712345679" {
		t.Fatalf("unexpected nsu account %q", merged[1].PaymentInfo.BkashAccount)
	}
	if !reflect.DeepEqual(unmatched, []string{"DU"}) {
		t.Fatalf("unexpected unmatched %v", unmatched)
	}
	if unis[0].PaymentInfo != nil {
		t.Fatal("MergePayments mutated its input")
	}
}

func TestSplitBySlots(t *testing.T) {
	payments := map[string]roster.PaymentInfo{"BUET": {BkashAccount: "01712345678"}}
	unis := []roster.University{
		{University: "BUET", AllocatedSlots: intPtr(2)},
		{University: "DU", AllocatedSlots: intPtr(1)},
		{University: "XU", AllocatedSlots: intPtr(0), PaymentInfo: &roster.PaymentInfo{BkashAccount: "x"}},
		{University: "YU"},
	}
	with, zero, unmatched := roster.SplitBySlots(unis, payments)
	if len(with) != 2 || with[0].PaymentInfo == nil || with[1].PaymentInfo != nil {
		t.Fatalf("unexpected with-payment %+v", with)
	}
	if len(zero) != 2 || zero[0].PaymentInfo != nil {
		t.Fatalf("unexpected zero-slot %+v", zero)
	}
	if !reflect.DeepEqual(unmatched, []string{"DU"}) {
		t.Fatalf("unexpected unmatched %v", unmatched)
	}
}

func TestLoadAndApplySlots(t *testing.T) {
	slots, err := roster.LoadSlots(strings.NewReader("University,Slots\nBUET,3\nDU,1\nGhost U,2\nbad row\n"))
	if err != nil {
		t.Fatalf("LoadSlots: %v", err)
	}
	unis := []roster.University{{University: "BUET", TeamCount: 5}, {University: "DU", TeamCount: 2}, {University: "XU", TeamCount: 1}}
	applied, orphans := roster.ApplySlots(unis, slots)
	if applied[0].Slots() != 3 || applied[1].Slots() != 1 || applied[2].AllocatedSlots == nil || applied[2].Slots() != 0 {
		t.Fatalf("unexpected slots %+v", applied)
	}
	if !reflect.DeepEqual(orphans, []string{"Ghost U"}) {
		t.Fatalf("unexpected orphans %v", orphans)
	}
	summary, err := roster.EncodeSlotSummaryCSV(applied)
	if err != nil {
		t.Fatalf("EncodeSlotSummaryCSV: %v", err)
	}
	want := "University,Teams (Applied),Allocated Slots\nBUET,5,3\nDU,2,1\nXU,1,0\n"
	if string(summary) != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

func TestLoadSlotsRejectsBadNumbers(t *testing.T) {
	if _, err := roster.LoadSlots(strings.NewReader("BUET,3\nDU,many\n")); err == nil {
		t.Fatal("expected error for non-numeric slot count")
	}
	if _, err := roster.LoadSlots(strings.NewReader("BUET,-1\n")); err == nil {
		t.Fatal("expected error for negative slot count")
	}
}

func TestFixBkashCSV(t *testing.T) {
	in := "University Name,bKash Number,Name\nBUET,1712345678,A\nDU,01712345678,B\nXU\n"
	out, report, err := roster.FixBkashCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("FixBkashCSV: %v", err)
	}
	if report.Column != "bKash Number" || report.Total != 3 || report.Changed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := "University Name,bKash Number,Name\nBUET,01712345678,A\nDU,01712345678,B\nXU,\n"
	if string(out) != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	if _, _, err := roster.FixBkashCSV(strings.NewReader("a,b\n1,2\n")); err == nil {
		t.Fatal("expected error when no bkash column")
	}
}

func TestRecipientsFromUniversities(t *testing.T) {
	unis := []roster.University{
		{
			University:     "BUET",
			CoachEmails:    []string{"c1@buet.ac.bd", "c2@buet.ac.bd"},
			TeamCount:      3,
			Teams:          []roster.TeamRef{{TeamName: "A<1>"}, {TeamName: "B"}},
			AllocatedSlots: intPtr(2),
			PaymentInfo:    &roster.PaymentInfo{BkashAccount: "01712345678", AccountHolderName: "Rahim"},
		},
		{University: "No Coach"},
		{University: "DU", CoachEmails: []string{"c@du.ac.bd"}, TeamCount: 1},
	}
	recipients, rejected := roster.RecipientsFromUniversities(unis, roster.AmountOptions{PerTeamAmount: 5500})
	if len(recipients) != 2 || len(rejected) != 1 || rejected[0].Key != "No Coach" {
		t.Fatalf("unexpected split %+v %+v", recipients, rejected)
	}
	buet := recipients[0]
	if buet.Primary != "c1@buet.ac.bd" || !reflect.DeepEqual(buet.Secondary, []string{"c2@buet.ac.bd"}) {
		t.Fatalf("unexpected addresses %+v", buet)
	}
	want := map[string]string{
		roster.FieldAllocatedSlots:    "2",
		roster.FieldTeamCount:         "3",
		roster.FieldTeamList:          "  • A<1>\n  • B",
		roster.FieldBkashAccount:      "01712345678",
		roster.FieldAccountHolderInfo: "📝 Account holder: Rahim",
		roster.FieldPerTeamAmount:     "5,500",
		roster.FieldTotalAmount:       "11,000",
	}
	for key, value := range want {
		if buet.Fields[key] != value {
			t.Errorf("field %s = %q, want %q", key, buet.Fields[key], value)
		}
	}
	if !strings.Contains(buet.Fields[roster.FieldTeamListHTML], "A&lt;1&gt;") {
		t.Fatalf("expected escaped team list html, got %q", buet.Fields[roster.FieldTeamListHTML])
	}

	du := recipients[1]
	if du.Fields[roster.FieldBkashAccount] != roster.BkashNotAssigned || du.Fields[roster.FieldAccountHolderInfo] != "" || du.Fields[roster.FieldTotalAmount] != "0" {
		t.Fatalf("unexpected defaults %v", du.Fields)
	}
	for _, name := range roster.UniversityFields() {
		if _, ok := du.Fields[name]; !ok {
			t.Errorf("field %s missing from recipient", name)
		}
	}
}

func TestShortUniversityName(t *testing.T) {
	if got := roster.ShortUniversityName("BANGLADESH UNIVERSITY OF ENGINEERING AND TECHNOLOGY"); got != "BANGLADESH ENGINEERING AND" {
		t.Fatalf("unexpected short name %q", got)
	}
}

func TestSuggestClosestNames(t *testing.T) {
	known := []string{
		"BANGLADESH UNIVERSITY OF ENGINEERING AND TECHNOLOGY",
		"UNIVERSITY OF DHAKA",
		"NORTH SOUTH UNIVERSITY",
	}
	got := roster.Suggest([]string{"Dhaka University", "Mars Institute"}, known)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", got)
	}
	if got[0].Closest != "UNIVERSITY OF DHAKA" {
		t.Fatalf("unexpected suggestion %+v", got[0])
	}
	if got[1].Closest != "" {
		t.Fatalf("expected no suggestion for unrelated name, got %+v", got[1])
	}
}
