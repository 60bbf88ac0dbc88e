package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint is a weighted term vector.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a term-frequency fingerprint of text. It returns nil
// when text has no usable terms.
func NewFingerprint(text string) *Fingerprint {
	counts := map[string]float64{}
	for _, term := range Tokenize(text) {
		counts[term]++
	}
	return newFingerprint(counts)
}

func newFingerprint(weights map[string]float64) *Fingerprint {
	var norm float64
	for term, w := range weights {
		if w == 0 {
			delete(weights, term)
			continue
		}
		norm += w * w
	}
	if len(weights) == 0 {
		return nil
	}
	return &Fingerprint{terms: weights, norm: math.Sqrt(norm)}
}

// Tokenize lowercases text and splits it into alphanumeric terms of at least
// three characters.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, term := range raw {
		if len(term) < 3 {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// TermCount returns the number of distinct terms.
func (f *Fingerprint) TermCount() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// weighted scales each term by idf[term]. Terms missing from idf keep their
// weight; terms weighted to zero are dropped.
func (f *Fingerprint) weighted(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weights := make(map[string]float64, len(f.terms))
	for term, count := range f.terms {
		if w, ok := idf[term]; ok {
			count *= w
		}
		weights[term] = count
	}
	return newFingerprint(weights)
}

// inverseFrequencies returns log((N+1)/(1+df)) per term over docs.
func inverseFrequencies(docs []*Fingerprint) map[string]float64 {
	docFreq := map[string]int{}
	n := 0
	for _, fp := range docs {
		if fp == nil {
			continue
		}
		n++
		for term := range fp.terms {
			docFreq[term]++
		}
	}
	if n == 0 {
		return nil
	}
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = math.Log(float64(n+1) / float64(1+df))
	}
	return idf
}
