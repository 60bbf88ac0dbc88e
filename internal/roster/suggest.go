package roster

import (
	"sort"

	"festmail/internal/textutil"
)

// suggestThreshold is the minimum similarity for a suggestion.
const suggestThreshold = 0.4

// Suggestion pairs a name that matched nothing with the closest known name.
// Closest is empty when nothing was similar enough.
type Suggestion struct {
	Name    string
	Closest string
	Score   float64
}

// Suggest finds, for each unmatched name, the most similar entry in known.
func Suggest(unmatched, known []string) []Suggestion {
	if len(unmatched) == 0 {
		return nil
	}
	idx := textutil.NewIndex(known)
	out := make([]Suggestion, 0, len(unmatched))
	for _, name := range unmatched {
		s := Suggestion{Name: name}
		if m, ok := idx.Closest(name, suggestThreshold); ok {
			s.Closest, s.Score = m.Candidate, m.Score
		}
		out = append(out, s)
	}
	return out
}

// UniversityNames returns the names in unis.
func UniversityNames(unis []University) []string {
	names := make([]string, 0, len(unis))
	for _, u := range unis {
		names = append(names, u.University)
	}
	return names
}

// PaymentNames returns the payment sheet keys in sorted order.
func PaymentNames(payments map[string]PaymentInfo) []string {
	names := make([]string, 0, len(payments))
	for name := range payments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
