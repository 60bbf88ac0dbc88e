package textutil

import "strings"

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for term, w := range a.terms {
		if other, ok := b.terms[term]; ok {
			dot += w * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Match is a candidate and its similarity to a query.
type Match struct {
	Candidate string
	Score     float64
}

// Index compares queries against a fixed candidate list, weighting terms by
// their rarity among the candidates.
type Index struct {
	candidates []string
	prints     []*Fingerprint
	idf        map[string]float64
}

// NewIndex fingerprints candidates.
func NewIndex(candidates []string) *Index {
	raw := make([]*Fingerprint, len(candidates))
	for i, c := range candidates {
		raw[i] = NewFingerprint(c)
	}
	idx := &Index{
		candidates: append([]string(nil), candidates...),
		idf:        inverseFrequencies(raw),
	}
	idx.prints = make([]*Fingerprint, len(raw))
	for i, fp := range raw {
		idx.prints[i] = fp.weighted(idx.idf)
	}
	return idx
}

// Closest returns the best-scoring candidate for query. ok is false when no
// candidate reaches threshold. An exact case-insensitive match always wins
// with score 1.
func (idx *Index) Closest(query string, threshold float64) (Match, bool) {
	if idx == nil {
		return Match{}, false
	}
	trimmed := strings.TrimSpace(query)
	for _, c := range idx.candidates {
		if strings.EqualFold(strings.TrimSpace(c), trimmed) {
			return Match{Candidate: c, Score: 1}, true
		}
	}

	q := NewFingerprint(query).weighted(idx.idf)
	best := Match{}
	for i, fp := range idx.prints {
		if score := CosineSimilarity(q, fp); score > best.Score {
			best = Match{Candidate: idx.candidates[i], Score: score}
		}
	}
	if best.Candidate == "" || best.Score < threshold {
		return Match{}, false
	}
	return best, true
}
