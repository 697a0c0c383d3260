package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/boolean"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
)

const (
	kindBoolean = "boolean"
	kindVector  = "vector"
)

// Session answers queries over one built index and model. It is immutable,
// so concurrent queries need no locking.
type Session struct {
	RunID string

	index       *index.InvertedIndex
	model       *vector.Model
	normalizer  normalize.Normalizer
	evaluator   *boolean.Evaluator
	metrics     *metrics.Metrics
	defaultTopK int
	logger      *slog.Logger
}

// NewSession wraps an already built index and model. model may be nil, in
// which case only boolean queries are available. m may be nil.
func NewSession(idx *index.InvertedIndex, model *vector.Model, normalizer normalize.Normalizer, m *metrics.Metrics) *Session {
	return &Session{
		index:       idx,
		model:       model,
		normalizer:  normalizer,
		evaluator:   boolean.NewEvaluator(idx, normalizer.Normalize),
		metrics:     m,
		defaultTopK: 10,
		logger:      logger.WithComponent("session"),
	}
}

func (s *Session) Index() *index.InvertedIndex { return s.index }

func (s *Session) Model() *vector.Model { return s.model }

// DefaultTopK is the configured result count for vector queries.
func (s *Session) DefaultTopK() int { return s.defaultTopK }

// BooleanSearch evaluates a term-logic query and reports how long it took.
func (s *Session) BooleanSearch(query string) (boolean.DocSet, time.Duration, error) {
	result, elapsed, err := s.evaluator.Search(query)
	s.observe(kindBoolean, elapsed, len(result), err)
	return result, elapsed, err
}

// VectorSearch ranks documents by cosine similarity to query and returns the
// topK best.
func (s *Session) VectorSearch(query string, topK int) ([]vector.ScoredDoc, time.Duration, error) {
	if topK <= 0 {
		err := apperrors.NewConfigurationError("top_k", topK, "must be positive")
		s.observe(kindVector, 0, 0, err)
		return nil, 0, err
	}
	if s.model == nil {
		err := fmt.Errorf("vector search: no model in this session")
		s.observe(kindVector, 0, 0, err)
		return nil, 0, err
	}
	start := time.Now()
	tokens := s.normalizer.Normalize(query)
	results, err := s.model.Search(tokens, topK)
	elapsed := time.Since(start)

	matched := 0
	for _, r := range results {
		if r.Score > 0 {
			matched++
		}
	}
	s.observe(kindVector, elapsed, matched, err)
	s.logger.Debug("vector query evaluated",
		"query", query,
		"tokens", tokens,
		"top_k", topK,
		"matched", matched,
		"elapsed", elapsed,
	)
	return results, elapsed, err
}

func (s *Session) observe(kind string, elapsed time.Duration, results int, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "zero_result"
	}
	s.metrics.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	if err != nil {
		return
	}
	s.metrics.QueryLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	s.metrics.QueryResultsCount.WithLabelValues(kind).Observe(float64(results))
}
