// Package textutil provides text matching helpers used when reconciling
// spreadsheets against rosters.
//
// Names are tokenized into lowercase terms, weighted by how rare each term is
// across the candidate set, and compared with cosine similarity. This lets a
// payment row for "Bangladesh Univ of Engineering & Tech" point at the
// roster's "BANGLADESH UNIVERSITY OF ENGINEERING AND TECHNOLOGY" while
// "university" alone counts for little.
package textutil
