package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

type snapshot struct {
	Vocabulary        []string          `json:"vocabulary"`
	DocumentFrequency map[string]int    `json:"document_frequency"`
	CorpusSize        int               `json:"corpus_size"`
	Vectors           map[string]Vector `json:"vectors"`
}

// Save serialises m deterministically.
func Save(m *Model) ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Vocabulary:        m.vocabulary,
		DocumentFrequency: m.docFreq,
		CorpusSize:        m.corpusSize,
		Vectors:           m.vectors,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling model snapshot: %w", err)
	}
	return data, nil
}

// Load parses a snapshot written by Save, rejecting one that breaks the
// model invariants.
func Load(data []byte) (*Model, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing model snapshot: %w", err)
	}
	if err := snap.validate(); err != nil {
		return nil, fmt.Errorf("invalid model snapshot: %w", err)
	}
	for docID, v := range snap.Vectors {
		if v == nil {
			snap.Vectors[docID] = make(Vector)
		}
	}
	if snap.Vocabulary == nil {
		snap.Vocabulary = []string{}
	}
	return newModel(snap.Vocabulary, snap.DocumentFrequency, snap.CorpusSize, snap.Vectors), nil
}

func (s *snapshot) validate() error {
	if s.DocumentFrequency == nil || s.Vectors == nil {
		return fmt.Errorf("missing document_frequency or vectors")
	}
	if !sort.StringsAreSorted(s.Vocabulary) {
		return fmt.Errorf("vocabulary is not sorted")
	}
	if len(s.DocumentFrequency) != len(s.Vocabulary) {
		return fmt.Errorf("document_frequency has %d terms, vocabulary %d", len(s.DocumentFrequency), len(s.Vocabulary))
	}
	if len(s.Vectors) != s.CorpusSize {
		return fmt.Errorf("corpus_size %d but %d vectors", s.CorpusSize, len(s.Vectors))
	}
	inVocabulary := make(map[string]struct{}, len(s.Vocabulary))
	for i, term := range s.Vocabulary {
		if i > 0 && s.Vocabulary[i-1] == term {
			return fmt.Errorf("duplicate vocabulary term %q", term)
		}
		df, ok := s.DocumentFrequency[term]
		if !ok || df <= 0 || df > s.CorpusSize {
			return fmt.Errorf("bad document frequency %d for %q", df, term)
		}
		inVocabulary[term] = struct{}{}
	}
	for docID, v := range s.Vectors {
		for term, w := range v {
			if _, ok := inVocabulary[term]; !ok {
				return fmt.Errorf("document %q weights term %q outside the vocabulary", docID, term)
			}
			if w <= 0 || math.IsInf(w, 0) || math.IsNaN(w) {
				return fmt.Errorf("document %q has weight %v for %q", docID, w, term)
			}
		}
	}
	return nil
}
