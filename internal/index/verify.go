package index

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// Verify checks the structural invariants the statistics rely on: every term
// has at least one non-empty posting, positions are strictly ascending and
// inside their document, and each document length equals the sum of its
// posting lengths.
func (x *InvertedIndex) Verify() error {
	sums := make(map[string]int, len(x.docLengths))
	for _, term := range x.terms {
		docs := x.postings[term]
		if len(docs) == 0 {
			return apperrors.Invariantf("term %q has no postings", term)
		}
		for docID, positions := range docs {
			length, known := x.docLengths[docID]
			if !known {
				return apperrors.Invariantf("term %q references unknown document %q", term, docID)
			}
			if len(positions) == 0 {
				return apperrors.Invariantf("empty posting for term %q in document %q", term, docID)
			}
			prev := -1
			for _, pos := range positions {
				if pos <= prev || pos >= length {
					return apperrors.Invariantf("bad position %d for term %q in document %q", pos, term, docID)
				}
				prev = pos
			}
			sums[docID] += len(positions)
		}
	}
	for docID, length := range x.docLengths {
		if length < 0 || sums[docID] != length {
			return apperrors.Invariantf("document %q has length %d but %d postings", docID, length, sums[docID])
		}
	}
	return nil
}
