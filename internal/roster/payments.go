package roster

import (
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Payment sheet columns.
const (
	PaymentUniversityColumn = "University Name"
	PaymentBkashColumn      = "Bkash"
	PaymentHolderColumn     = "Name"
)

var upperCaser = cases.Upper(language.Und)

// PaymentKey is the matching key between payment sheets and rosters.
func PaymentKey(university string) string {
	return upperCaser.String(strings.TrimSpace(university))
}

// LoadPayments reads a payment sheet into a map keyed by PaymentKey. bKash
// numbers are normalized on the way in.
func LoadPayments(r io.Reader) (map[string]PaymentInfo, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(PaymentUniversityColumn, PaymentBkashColumn); err != nil {
		return nil, err
	}
	payments := make(map[string]PaymentInfo, len(t.rows))
	for _, row := range t.rows {
		uni := t.cell(row, PaymentUniversityColumn)
		if uni == "" {
			continue
		}
		payments[PaymentKey(uni)] = PaymentInfo{
			BkashAccount:      NormalizeBkash(t.cell(row, PaymentBkashColumn)),
			AccountHolderName: t.cell(row, PaymentHolderColumn),
		}
	}
	return payments, nil
}

// MergePayments returns a copy of unis with payment_info set from payments,
// and the names of universities that had no matching row.
func MergePayments(unis []University, payments map[string]PaymentInfo) ([]University, []string) {
	out := make([]University, len(unis))
	var unmatched []string
	for i, u := range unis {
		if info, ok := payments[PaymentKey(u.University)]; ok {
			u.PaymentInfo = &info
		} else {
			unmatched = append(unmatched, u.University)
		}
		out[i] = u
	}
	return out, unmatched
}

// SplitBySlots separates universities with at least one allocated slot, which
// get payment details merged in, from those with none, which have payment
// details removed. The third result lists slotted universities with no
// payment row.
func SplitBySlots(unis []University, payments map[string]PaymentInfo) (withPayment, zeroSlots []University, unmatched []string) {
	withPayment = []University{}
	zeroSlots = []University{}
	for _, u := range unis {
		if u.Slots() > 0 {
			if info, ok := payments[PaymentKey(u.University)]; ok {
				u.PaymentInfo = &info
			} else {
				unmatched = append(unmatched, u.University)
			}
			withPayment = append(withPayment, u)
			continue
		}
		u.PaymentInfo = nil
		zeroSlots = append(zeroSlots, u)
	}
	return withPayment, zeroSlots, unmatched
}
