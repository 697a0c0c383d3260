package vector

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(corpus ...string) []index.Document {
	out := make([]index.Document, 0, len(corpus)/2)
	for i := 0; i+1 < len(corpus); i += 2 {
		out = append(out, index.Document{ID: corpus[i], Tokens: strings.Fields(corpus[i+1])})
	}
	return out
}

func buildModel(t *testing.T, maxFeatures int, corpus ...string) *Model {
	t.Helper()
	m, err := BuildFromDocuments(context.Background(), docs(corpus...), maxFeatures)
	require.NoError(t, err)
	return m
}

func TestSingleFeatureScenario(t *testing.T) {
	m := buildModel(t, 1,
		"d1", "meeting group party",
		"d2", "tech computer party",
	)

	assert.Equal(t, []string{"party"}, m.Vocabulary())
	assert.Equal(t, 2, m.DocumentFrequency("party"))

	v1, ok := m.Vector("d1")
	require.True(t, ok)
	assert.Empty(t, v1)

	results, err := m.Search([]string{"party"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []ScoredDoc{{DocID: "d1", Score: 0}, {DocID: "d2", Score: 0}}, results)
}

func TestVocabularySelectionTies(t *testing.T) {
	m := buildModel(t, 3,
		"a", "zeta beta alpha",
		"b", "zeta beta gamma",
		"c", "zeta delta",
	)
	// zeta df=3, beta df=2, then alpha/delta/gamma tie at df=1.
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, m.Vocabulary())
	d, ok := m.Dimension("beta")
	assert.True(t, ok)
	assert.Equal(t, 1, d)
	_, ok = m.Dimension("gamma")
	assert.False(t, ok)
}

func TestWeights(t *testing.T) {
	m := buildModel(t, 100,
		"d1", "apple apple banana",
		"d2", "banana cherry",
		"d3", "",
	)
	v, _ := m.Vector("d1")
	assert.InDelta(t, 2.0/3.0*math.Log(3.0/1.0), v["apple"], 1e-12)
	assert.InDelta(t, 1.0/3.0*math.Log(3.0/2.0), v["banana"], 1e-12)

	empty, ok := m.Vector("d3")
	require.True(t, ok)
	assert.Empty(t, empty)
	assert.Equal(t, []string{"d1", "d2", "d3"}, m.Documents())

	q := m.Vectorize([]string{"apple", "unknown"})
	assert.InDelta(t, 0.5*math.Log(3.0), q["apple"], 1e-12)
	assert.NotContains(t, q, "unknown")
}

func TestCosineProperties(t *testing.T) {
	m := buildModel(t, 100,
		"d1", "apple banana cherry",
		"d2", "banana cherry durian",
		"d3", "eggplant fig",
		"d4", "apple apple fig",
	)
	ids := m.Documents()
	for _, a := range ids {
		va, _ := m.Vector(a)
		if va.Norm() > 0 {
			assert.InDelta(t, 1.0, Cosine(va, va), 1e-9, a)
		}
		for _, b := range ids {
			vb, _ := m.Vector(b)
			ab, ba := Cosine(va, vb), Cosine(vb, va)
			assert.Equal(t, ab, ba, "%s/%s", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
	assert.Equal(t, 0.0, Cosine(Vector{}, Vector{"x": 1}))
}

func TestSearchRanking(t *testing.T) {
	m := buildModel(t, 100,
		"d1", "golang meetup",
		"d2", "golang golang conference",
		"d3", "cooking class",
		"d4", "golang meetup",
	)
	results, err := m.Search([]string{"golang", "meetup"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "d4", results[1].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "d2", results[2].DocID)
	assert.Equal(t, ScoredDoc{DocID: "d3", Score: 0}, results[3])

	top, err := m.Search([]string{"golang", "meetup"}, 2)
	require.NoError(t, err)
	assert.Equal(t, results[:2], top)
}

func TestSearchRejectsNonPositiveTopK(t *testing.T) {
	m := buildModel(t, 10, "d1", "x y")
	for _, k := range []int{0, -3} {
		_, err := m.Search([]string{"x"}, k)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	}
}

func TestBuildRejectsNonPositiveMaxFeatures(t *testing.T) {
	_, err := BuildFromDocuments(context.Background(), docs("d1", "x"), 0)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestBuildIndependentOfWorkers(t *testing.T) {
	corpus := docs(
		"a", "one two three four",
		"b", "two three five",
		"c", "five six seven one",
		"d", "eight nine two",
		"e", "",
	)
	idx, _, err := index.Build(corpus)
	require.NoError(t, err)

	base, err := Build(context.Background(), idx, 6)
	require.NoError(t, err)
	want, err := Save(base)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 16} {
		m, err := Build(context.Background(), idx, 6, WithWorkers(workers))
		require.NoError(t, err)
		got, err := Save(m)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "workers=%d", workers)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := buildModel(t, 4,
		"d1", "apple banana cherry",
		"d2", "banana cherry durian",
		"d3", "",
	)
	data, err := Save(m)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, m.Vocabulary(), loaded.Vocabulary())
	assert.Equal(t, m.CorpusSize(), loaded.CorpusSize())
	for _, id := range m.Documents() {
		want, _ := m.Vector(id)
		got, ok := loaded.Vector(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	again, err := Save(loaded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestLoadRejectsInvalidSnapshots(t *testing.T) {
	cases := map[string]string{
		"not json":        `[`,
		"unsorted":        `{"vocabulary":["b","a"],"document_frequency":{"a":1,"b":1},"corpus_size":1,"vectors":{"d":{}}}`,
		"df mismatch":     `{"vocabulary":["a"],"document_frequency":{},"corpus_size":1,"vectors":{"d":{}}}`,
		"zero df":         `{"vocabulary":["a"],"document_frequency":{"a":0},"corpus_size":1,"vectors":{"d":{}}}`,
		"corpus mismatch": `{"vocabulary":[],"document_frequency":{},"corpus_size":2,"vectors":{"d":{}}}`,
		"foreign term":    `{"vocabulary":["a"],"document_frequency":{"a":1},"corpus_size":1,"vectors":{"d":{"z":0.5}}}`,
		"zero weight":     `{"vocabulary":["a"],"document_frequency":{"a":1},"corpus_size":1,"vectors":{"d":{"a":0}}}`,
		"missing vectors": `{"vocabulary":[],"document_frequency":{},"corpus_size":0}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(raw))
			assert.Error(t, err)
		})
	}
}
