package boolean

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

// Source is the read side of an inverted index the evaluator needs.
type Source interface {
	DocIDs(term string) []string
	Universe() []string
}

// DocSet is an unordered set of document ids.
type DocSet map[string]struct{}

func NewDocSet(ids ...string) DocSet {
	s := make(DocSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s DocSet) Len() int { return len(s) }

func (s DocSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s DocSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type Evaluator struct {
	source    Source
	normalize TermFunc
	logger    *slog.Logger
}

func NewEvaluator(source Source, normalize TermFunc) *Evaluator {
	return &Evaluator{
		source:    source,
		normalize: normalize,
		logger:    logger.WithComponent("boolean-evaluator"),
	}
}

// Search parses and evaluates query. The elapsed time covers both steps.
func (e *Evaluator) Search(query string) (DocSet, time.Duration, error) {
	start := time.Now()
	q, err := Parse(query, e.normalize)
	if err != nil {
		return nil, time.Since(start), err
	}
	result := e.Evaluate(q)
	elapsed := time.Since(start)
	e.logger.Debug("boolean query evaluated",
		"query", query,
		"terms", q.Terms(),
		"results", result.Len(),
		"elapsed", elapsed,
	)
	return result, elapsed, nil
}

// Evaluate folds the operands of q from left to right. Absent terms yield an
// empty set, never an error.
func (e *Evaluator) Evaluate(q *Query) DocSet {
	if len(q.Operands) == 0 {
		return NewDocSet()
	}
	result := e.operand(q.Operands[0])
	for i, op := range q.Ops {
		next := e.operand(q.Operands[i+1])
		switch op {
		case OpAnd:
			result = intersect(result, next)
		case OpOr:
			result = union(result, next)
		}
	}
	return result
}

func (e *Evaluator) operand(o Operand) DocSet {
	var docs DocSet
	if o.Term == "" {
		docs = NewDocSet()
	} else {
		docs = NewDocSet(e.source.DocIDs(o.Term)...)
	}
	if !o.Negated {
		return docs
	}
	universe := e.source.Universe()
	complement := make(DocSet, len(universe))
	for _, id := range universe {
		if !docs.Contains(id) {
			complement[id] = struct{}{}
		}
	}
	return complement
}

// intersect walks the smaller set and looks each id up in the larger one.
func intersect(a, b DocSet) DocSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	result := make(DocSet, len(a))
	for id := range a {
		if b.Contains(id) {
			result[id] = struct{}{}
		}
	}
	return result
}

// union adds the smaller set into the larger one. Both operands are owned by
// the evaluation, so reusing one is safe.
func union(a, b DocSet) DocSet {
	if len(b) > len(a) {
		a, b = b, a
	}
	for id := range b {
		a[id] = struct{}{}
	}
	return a
}
