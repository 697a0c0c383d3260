// Package vector implements the TF-IDF vector space model: a bounded
// vocabulary chosen by document frequency, sparse per-document weight
// vectors and cosine ranking of documents against a query.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// IndexStats is the part of an inverted index the model is built from.
// *index.InvertedIndex satisfies it.
type IndexStats interface {
	Terms() []string
	Documents() []string
	DocumentFrequency(term string) int
	CorpusSize() int
	TotalTerms(docID string) int
	Postings(term string) map[string][]int
}

// Vector is a sparse weight vector keyed by vocabulary term. Absent terms
// weigh zero.
type Vector map[string]float64

// Model is immutable once built or loaded.
type Model struct {
	vocabulary []string
	dims       map[string]int
	docFreq    map[string]int
	corpusSize int
	docs       []string
	vectors    map[string]Vector
	prepared   map[string]sparse
}

type options struct {
	workers int
}

type Option func(*options)

// WithWorkers sets how many vocabulary partitions are weighted concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// Build derives the model from index statistics. maxFeatures caps the
// vocabulary: when the corpus has more distinct terms, the terms with the
// highest document frequency are kept, ties going to the lexicographically
// smaller term.
func Build(ctx context.Context, stats IndexStats, maxFeatures int, opts ...Option) (*Model, error) {
	if maxFeatures <= 0 {
		return nil, apperrors.NewConfigurationError("max_features", maxFeatures, "must be positive")
	}
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	vocabulary := selectVocabulary(stats, maxFeatures)
	docFreq := make(map[string]int, len(vocabulary))
	for _, term := range vocabulary {
		df := stats.DocumentFrequency(term)
		if df == 0 {
			return nil, apperrors.Invariantf("vocabulary term %q has zero document frequency", term)
		}
		docFreq[term] = df
	}
	corpusSize := stats.CorpusSize()

	parts := splitRange(len(vocabulary), o.workers)
	partials := make([]map[string]Vector, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for p, bounds := range parts {
		g.Go(func() error {
			partial := make(map[string]Vector)
			for i, term := range vocabulary[bounds[0]:bounds[1]] {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				idf := math.Log(float64(corpusSize) / float64(docFreq[term]))
				for docID, positions := range stats.Postings(term) {
					total := stats.TotalTerms(docID)
					if total == 0 {
						continue
					}
					w := float64(len(positions)) / float64(total) * idf
					if w == 0 {
						continue
					}
					v, ok := partial[docID]
					if !ok {
						v = make(Vector)
						partial[docID] = v
					}
					v[term] = w
				}
			}
			partials[p] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("weighting document vectors: %w", err)
	}

	vectors := make(map[string]Vector, corpusSize)
	for _, docID := range stats.Documents() {
		vectors[docID] = make(Vector)
	}
	for _, partial := range partials {
		for docID, v := range partial {
			dst, ok := vectors[docID]
			if !ok {
				return nil, apperrors.Invariantf("posting for unknown document %q", docID)
			}
			for term, w := range v {
				dst[term] = w
			}
		}
	}

	m := newModel(vocabulary, docFreq, corpusSize, vectors)
	logger.WithComponent("vector-model").Debug("model built",
		"documents", len(m.docs),
		"distinct_terms", len(stats.Terms()),
		"vocabulary", len(vocabulary),
		"partitions", len(parts),
	)
	return m, nil
}

// BuildFromDocuments indexes docs and builds the model from that index.
func BuildFromDocuments(ctx context.Context, docs []index.Document, maxFeatures int, opts ...Option) (*Model, error) {
	if maxFeatures <= 0 {
		return nil, apperrors.NewConfigurationError("max_features", maxFeatures, "must be positive")
	}
	idx, _, err := index.BuildContext(ctx, docs)
	if err != nil {
		return nil, err
	}
	return Build(ctx, idx, maxFeatures, opts...)
}

func selectVocabulary(stats IndexStats, maxFeatures int) []string {
	terms := stats.Terms()
	vocabulary := make([]string, len(terms))
	copy(vocabulary, terms)
	if len(vocabulary) > maxFeatures {
		df := make(map[string]int, len(vocabulary))
		for _, term := range vocabulary {
			df[term] = stats.DocumentFrequency(term)
		}
		sort.Slice(vocabulary, func(i, j int) bool {
			a, b := vocabulary[i], vocabulary[j]
			if df[a] != df[b] {
				return df[a] > df[b]
			}
			return a < b
		})
		vocabulary = vocabulary[:maxFeatures]
	}
	sort.Strings(vocabulary)
	return vocabulary
}

// splitRange cuts [0,n) into at most parts contiguous, non-empty ranges.
func splitRange(n, parts int) [][2]int {
	if parts > n {
		parts = n
	}
	if parts < 1 {
		return nil
	}
	ranges := make([][2]int, 0, parts)
	size, rem := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		ranges = append(ranges, [2]int{start, end})
		start = end
	}
	return ranges
}

func newModel(vocabulary []string, docFreq map[string]int, corpusSize int, vectors map[string]Vector) *Model {
	dims := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		dims[term] = i
	}
	docs := make([]string, 0, len(vectors))
	prepared := make(map[string]sparse, len(vectors))
	for docID, v := range vectors {
		docs = append(docs, docID)
		prepared[docID] = newSparse(v)
	}
	sort.Strings(docs)
	return &Model{
		vocabulary: vocabulary,
		dims:       dims,
		docFreq:    docFreq,
		corpusSize: corpusSize,
		docs:       docs,
		vectors:    vectors,
		prepared:   prepared,
	}
}

// Vocabulary returns the retained terms; a term's offset is its dimension.
// Callers must not modify the slice.
func (m *Model) Vocabulary() []string {
	return m.vocabulary
}

func (m *Model) Dimension(term string) (int, bool) {
	d, ok := m.dims[term]
	return d, ok
}

func (m *Model) DocumentFrequency(term string) int {
	return m.docFreq[term]
}

func (m *Model) CorpusSize() int {
	return m.corpusSize
}

// Documents returns the ids of all modelled documents in ascending order.
func (m *Model) Documents() []string {
	return m.docs
}

// Vector returns the weights of docID. The map is shared and read-only.
func (m *Model) Vector(docID string) (Vector, bool) {
	v, ok := m.vectors[docID]
	return v, ok
}

func (m *Model) idf(term string) float64 {
	df := m.docFreq[term]
	if df == 0 {
		return 0
	}
	return math.Log(float64(m.corpusSize) / float64(df))
}

// Norm is the Euclidean length of v, summed in term order so the result is
// reproducible bit for bit.
func (v Vector) Norm() float64 {
	return newSparse(v).norm
}

// Terms returns the terms with a weight in ascending order.
func (v Vector) Terms() []string {
	terms := make([]string, 0, len(v))
	for term := range v {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// sparse pairs a vector with its ordered terms and norm.
type sparse struct {
	weights Vector
	terms   []string
	norm    float64
}

func newSparse(v Vector) sparse {
	s := sparse{weights: v, terms: v.Terms()}
	var sum float64
	for _, term := range s.terms {
		w := v[term]
		sum += w * w
	}
	s.norm = math.Sqrt(sum)
	return s
}
