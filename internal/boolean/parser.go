// Package boolean evaluates term-logic queries against an inverted index.
//
// A query is a sequence of terms joined by AND or OR, each optionally
// prefixed with NOT. Adjacent terms without a keyword are joined by AND.
// NOT binds to the term right after it; the AND/OR chain is then evaluated
// strictly left to right with no precedence between the two, so
// "a OR b AND c" means "(a OR b) AND c". Parentheses are not supported.
package boolean

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

type Op int

const (
	OpAnd Op = iota
	OpOr
)

func (o Op) String() string {
	if o == OpOr {
		return "OR"
	}
	return "AND"
}

// TermFunc maps one query word to normalized tokens. Only the first token is
// used as the term.
type TermFunc func(word string) []string

// Operand is one term of a query. An empty Term means the word normalized to
// nothing and matches no document.
type Operand struct {
	Word    string
	Term    string
	Negated bool
}

// Query is a parsed query: Ops[i] joins the running result with
// Operands[i+1].
type Query struct {
	Raw      string
	Operands []Operand
	Ops      []Op
}

// Terms returns the non-empty terms of q in query order.
func (q *Query) Terms() []string {
	terms := make([]string, 0, len(q.Operands))
	for _, o := range q.Operands {
		if o.Term != "" {
			terms = append(terms, o.Term)
		}
	}
	return terms
}

// Parse parses query, normalizing every term word with normalize. A nil
// normalize lowercases the word.
func Parse(query string, normalize TermFunc) (*Query, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, &apperrors.QuerySyntaxError{Reason: "empty query"}
	}
	q := &Query{Raw: query}

	var (
		pending    bool
		pendingOp  Op
		pendingPos int
		negated    bool
		negatedPos int
	)
	for i, word := range words {
		if strings.ContainsAny(word, "()") {
			return nil, syntaxError(word, i, "parentheses are not supported")
		}
		switch strings.ToUpper(word) {
		case "AND", "OR":
			switch {
			case negated:
				return nil, syntaxError(word, i, "NOT must be followed by a term")
			case len(q.Operands) == 0:
				return nil, syntaxError(word, i, "query cannot start with an operator")
			case pending:
				return nil, syntaxError(word, i, "consecutive operators")
			}
			pending, pendingPos = true, i
			pendingOp = OpAnd
			if strings.EqualFold(word, "OR") {
				pendingOp = OpOr
			}
		case "NOT":
			if negated {
				return nil, syntaxError(word, i, "NOT must be followed by a term")
			}
			negated, negatedPos = true, i
		default:
			if len(q.Operands) > 0 {
				op := OpAnd
				if pending {
					op = pendingOp
				}
				q.Ops = append(q.Ops, op)
			}
			q.Operands = append(q.Operands, Operand{
				Word:    word,
				Term:    normalizeTerm(word, normalize),
				Negated: negated,
			})
			pending, negated = false, false
		}
	}
	if negated {
		return nil, syntaxError(words[negatedPos], negatedPos, "NOT must be followed by a term")
	}
	if pending {
		return nil, syntaxError(words[pendingPos], pendingPos, "dangling operator")
	}
	return q, nil
}

func normalizeTerm(word string, normalize TermFunc) string {
	if normalize == nil {
		return strings.ToLower(word)
	}
	tokens := normalize(word)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func syntaxError(token string, pos int, reason string) error {
	return &apperrors.QuerySyntaxError{Token: token, Position: pos, Reason: reason}
}
