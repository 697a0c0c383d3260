// Package index builds the positional inverted index: term -> document ->
// token positions, plus the document statistics derived from it. An
// InvertedIndex is immutable once built or loaded, so any number of
// goroutines may read it without locking.
package index

import (
	"sort"
)

type InvertedIndex struct {
	postings   map[string]map[string][]int
	docLengths map[string]int
	docs       []string
	terms      []string
}

func newInvertedIndex(postings map[string]map[string][]int, docLengths map[string]int) *InvertedIndex {
	docs := make([]string, 0, len(docLengths))
	for docID := range docLengths {
		docs = append(docs, docID)
	}
	sort.Strings(docs)
	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return &InvertedIndex{
		postings:   postings,
		docLengths: docLengths,
		docs:       docs,
		terms:      terms,
	}
}

// Search returns the postings of term ordered by document id, or nil when the
// term is not indexed. The position slices are shared and must not be
// modified.
func (x *InvertedIndex) Search(term string) PostingList {
	docs, exists := x.postings[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for docID, positions := range docs {
		result = append(result, Posting{DocID: docID, Positions: positions})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// DocIDs returns the ids of the documents containing term, unordered.
func (x *InvertedIndex) DocIDs(term string) []string {
	docs := x.postings[term]
	ids := make([]string, 0, len(docs))
	for docID := range docs {
		ids = append(ids, docID)
	}
	return ids
}

// Positions returns the positions of term in docID, nil when absent.
func (x *InvertedIndex) Positions(term, docID string) []int {
	return x.postings[term][docID]
}

func (x *InvertedIndex) DocumentFrequency(term string) int {
	return len(x.postings[term])
}

// TermFrequency is the raw occurrence count of term in docID.
func (x *InvertedIndex) TermFrequency(term, docID string) int {
	return len(x.postings[term][docID])
}

// TotalTerms is the token count of docID, the TF denominator.
func (x *InvertedIndex) TotalTerms(docID string) int {
	return x.docLengths[docID]
}

// CorpusSize counts every indexed document, including those without tokens.
func (x *InvertedIndex) CorpusSize() int {
	return len(x.docLengths)
}

// Universe returns all document ids in ascending order. Callers must not
// modify the returned slice.
func (x *InvertedIndex) Universe() []string {
	return x.docs
}

func (x *InvertedIndex) HasDocument(docID string) bool {
	_, ok := x.docLengths[docID]
	return ok
}

// Terms returns the vocabulary in ascending order. Callers must not modify
// the returned slice.
func (x *InvertedIndex) Terms() []string {
	return x.terms
}

func (x *InvertedIndex) TermCount() int {
	return len(x.terms)
}

// Stats returns the per-document statistics of term ordered by document id.
func (x *InvertedIndex) Stats(term string) []DocStats {
	postings := x.Search(term)
	stats := make([]DocStats, 0, len(postings))
	for _, p := range postings {
		stats = append(stats, DocStats{
			DocID:    p.DocID,
			DocLen:   x.docLengths[p.DocID],
			TermFreq: p.Frequency(),
		})
	}
	return stats
}

// Postings returns the document -> positions map of term. The map is shared
// and must be treated as read-only.
func (x *InvertedIndex) Postings(term string) map[string][]int {
	return x.postings[term]
}

// Documents returns the ids of all indexed documents in ascending order.
func (x *InvertedIndex) Documents() []string {
	return x.docs
}
