package vector

import (
	"container/heap"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Vectorize weights a token sequence against the collection: tf is taken
// over the whole sequence, idf from the corpus statistics. Tokens outside the
// vocabulary are ignored.
func (m *Model) Vectorize(tokens []string) Vector {
	v := make(Vector)
	if len(tokens) == 0 {
		return v
	}
	counts := make(map[string]int)
	for _, tok := range tokens {
		if _, ok := m.dims[tok]; ok {
			counts[tok]++
		}
	}
	total := float64(len(tokens))
	for term, n := range counts {
		if w := float64(n) / total * m.idf(term); w != 0 {
			v[term] = w
		}
	}
	return v
}

// Cosine returns the cosine similarity of a and b, 0 when either is a zero
// vector.
func Cosine(a, b Vector) float64 {
	return cosine(newSparse(a), newSparse(b))
}

func cosine(a, b sparse) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.terms) < len(a.terms) {
		a, b = b, a
	}
	var dot float64
	for _, term := range a.terms {
		if w, ok := b.weights[term]; ok {
			dot += a.weights[term] * w
		}
	}
	sim := dot / (a.norm * b.norm)
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

// Search ranks every document against the query tokens and returns the topK
// best, by score descending then document id ascending. Documents sharing no
// term with the query score 0 and are still eligible.
func (m *Model) Search(tokens []string, topK int) ([]ScoredDoc, error) {
	if topK <= 0 {
		return nil, apperrors.NewConfigurationError("top_k", topK, "must be positive")
	}
	query := newSparse(m.Vectorize(tokens))
	h := &scoredDocHeap{}
	for _, docID := range m.docs {
		doc := m.prepared[docID]
		var score float64
		if query.norm != 0 && doc.norm != 0 && overlaps(query, doc) {
			score = cosine(query, doc)
		}
		heap.Push(h, ScoredDoc{DocID: docID, Score: score})
		if h.Len() > topK {
			heap.Pop(h)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredDoc)
	}
	return result, nil
}

func overlaps(query, doc sparse) bool {
	for _, term := range query.terms {
		if _, ok := doc.weights[term]; ok {
			return true
		}
	}
	return false
}

// scoredDocHeap keeps the worst retained result on top.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
