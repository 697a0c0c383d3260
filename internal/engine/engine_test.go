package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/events"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineConfig(maxFeatures int) config.EngineConfig {
	return config.EngineConfig{MaxFeatures: maxFeatures, TopK: 10, Workers: 2}
}

func meetupCorpus() []corpus.Document {
	return []corpus.Document{
		{ID: "d1", Name: "meeting group party"},
		{ID: "d2", Name: "tech computer party"},
	}
}

func newEngine(t *testing.T, cfg config.EngineConfig, dir string, opts ...Option) *Engine {
	t.Helper()
	store, err := cache.NewFileStore(dir)
	require.NoError(t, err)
	e, err := New(cfg, store, normalize.Whitespace, opts...)
	require.NoError(t, err)
	return e
}

func TestMeetupScenario(t *testing.T) {
	e := newEngine(t, engineConfig(1), t.TempDir())
	session, summary, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Vocabulary)

	cases := map[string][]string{
		"party":             {"d1", "d2"},
		"meeting and group": {"d1"},
		"tech or computer":  {"d2"},
		"not party":         {},
	}
	for query, want := range cases {
		got, _, err := session.BooleanSearch(query)
		require.NoError(t, err, query)
		assert.ElementsMatch(t, want, got.Sorted(), query)
	}

	assert.Equal(t, []string{"party"}, session.Model().Vocabulary())
	results, _, err := session.VectorSearch("party", 2)
	require.NoError(t, err)
	assert.Equal(t, []vector.ScoredDoc{{DocID: "d1", Score: 0}, {DocID: "d2", Score: 0}}, results)
}

func TestRebuildHitsEveryStage(t *testing.T) {
	dir := t.TempDir()
	m := metrics.New()
	e := newEngine(t, engineConfig(100), dir, WithMetrics(m))

	_, first, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	for _, st := range first.Stages {
		assert.False(t, st.CacheHit, st.Name)
	}

	session, second, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	require.Len(t, second.Stages, 3)
	for i, st := range second.Stages {
		assert.True(t, st.CacheHit, st.Name)
		assert.Equal(t, first.Stages[i].Fingerprint, st.Fingerprint)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageBuildsTotal.WithLabelValues(StageModel, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageBuildsTotal.WithLabelValues(StageModel, "built")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocsIndexedTotal))

	got, _, err := session.BooleanSearch("party")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestFingerprintsIgnoreInputOrderAndPayloadsAreReproducible(t *testing.T) {
	docs := []corpus.Document{
		{ID: "a", Name: "golang meetup", Group: "gophers"},
		{ID: "b", Name: "rust meetup"},
		{ID: "c", Description: "golang golang workshop"},
	}
	reversed := []corpus.Document{docs[2], docs[1], docs[0]}

	dirA, dirB := t.TempDir(), t.TempDir()
	_, a, err := newEngine(t, engineConfig(3), dirA).Build(context.Background(), docs)
	require.NoError(t, err)
	_, b, err := newEngine(t, engineConfig(3), dirB).Build(context.Background(), reversed)
	require.NoError(t, err)

	for i := range a.Stages {
		assert.Equal(t, a.Stages[i].Fingerprint, b.Stages[i].Fingerprint)
		name := filepath.Join(a.Stages[i].Name, a.Stages[i].Fingerprint+".entry")
		bytesA, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		bytesB, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, bytesA, bytesB, a.Stages[i].Name)
	}
}

func TestMaxFeaturesOnlyInvalidatesModel(t *testing.T) {
	dir := t.TempDir()
	_, _, err := newEngine(t, engineConfig(100), dir).Build(context.Background(), meetupCorpus())
	require.NoError(t, err)

	_, summary, err := newEngine(t, engineConfig(2), dir).Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	assert.True(t, summary.Stages[0].CacheHit)
	assert.True(t, summary.Stages[1].CacheHit)
	assert.False(t, summary.Stages[2].CacheHit)
	assert.Equal(t, 2, summary.Vocabulary)
}

func TestCorruptEntryIsRebuilt(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, engineConfig(100), dir)
	_, first, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)

	indexEntry := filepath.Join(dir, StageIndex, first.Stages[1].Fingerprint+".entry")
	require.NoError(t, os.WriteFile(indexEntry, []byte("torn write"), 0644))

	session, second, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	assert.False(t, second.Stages[1].CacheHit)
	assert.Equal(t, 2, session.Index().CorpusSize())

	_, third, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	assert.True(t, third.Stages[1].CacheHit)
}

func TestBadDocumentsAreCountedNotFatal(t *testing.T) {
	e := newEngine(t, engineConfig(10), t.TempDir())
	docs := append(meetupCorpus(),
		corpus.Document{ID: "", Name: "orphan"},
		corpus.Document{ID: "d3"},
	)
	session, summary, err := e.Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Received)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 2, summary.Indexed)
	assert.False(t, session.Index().HasDocument("d3"))
}

func TestDuplicateDocumentRejectsBuild(t *testing.T) {
	e := newEngine(t, engineConfig(10), t.TempDir())
	docs := append(meetupCorpus(), corpus.Document{ID: "d1", Name: "again"})
	_, _, err := e.Build(context.Background(), docs)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

func TestNewValidatesConfiguration(t *testing.T) {
	cases := []config.EngineConfig{
		{MaxFeatures: 0, TopK: 10, Workers: 1},
		{MaxFeatures: 10, TopK: 0, Workers: 1},
		{MaxFeatures: 10, TopK: 10, Workers: 0},
	}
	for _, cfg := range cases {
		_, err := New(cfg, nil, normalize.Whitespace)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	}
	_, err := New(engineConfig(10), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestBuildPublishesEvents(t *testing.T) {
	rec := &events.Recorder{}
	e := newEngine(t, engineConfig(10), t.TempDir(), WithNotifier(rec))
	_, summary, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)

	got := rec.Events()
	require.Len(t, got, 3)
	for i, stage := range []string{StageNormalize, StageIndex, StageModel} {
		assert.Equal(t, stage, got[i].Stage)
		assert.Equal(t, summary.RunID, got[i].RunID)
		assert.Equal(t, summary.Stages[i].Fingerprint, got[i].Fingerprint)
	}
	assert.Equal(t, 5, got[1].Terms)
}

func TestProgressIsForwarded(t *testing.T) {
	var mu sync.Mutex
	last := 0
	e := newEngine(t, engineConfig(10), t.TempDir(), WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		last = done
	}))
	_, _, err := e.Build(context.Background(), meetupCorpus())
	require.NoError(t, err)
	assert.Equal(t, 2, last)
}

func TestSessionQueries(t *testing.T) {
	m := metrics.New()
	e := newEngine(t, engineConfig(10), t.TempDir(), WithMetrics(m))
	session, _, err := e.Build(context.Background(), []corpus.Document{
		{ID: "d1", Name: "golang meetup"},
		{ID: "d2", Name: "golang conference"},
		{ID: "d3", Name: "cooking class"},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, session.DefaultTopK())

	results, _, err := session.VectorSearch("golang meetup", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)

	_, _, err = session.VectorSearch("golang", 0)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, _, err = session.BooleanSearch("golang AND")
	assert.ErrorIs(t, err, apperrors.ErrQuerySyntax)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(kindVector, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(kindVector, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(kindBoolean, "error")))
}

func TestLoadCorpusCachesParsedFiles(t *testing.T) {
	data := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(data, name), []byte(body), 0644))
	}
	write("1.xml", `<event><id>e1</id><name>golang meetup</name></event>`)
	write("2.xml", `<event><id>e2</id><name>python meetup</name></event>`)
	write("3.xml", `<event><id>`)

	m := metrics.New()
	e := newEngine(t, engineConfig(10), t.TempDir(), WithMetrics(m))
	ctx := context.Background()

	first, st, err := e.LoadCorpus(ctx, data, 0)
	require.NoError(t, err)
	assert.False(t, st.CacheHit)
	assert.Equal(t, StageCorpus, st.Name)
	assert.Equal(t, 2, first.Report.Loaded)
	assert.Equal(t, 1, first.Report.Failed)

	second, again, err := e.LoadCorpus(ctx, data, 0)
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	assert.Equal(t, st.Fingerprint, again.Fingerprint)
	assert.Equal(t, first.Documents, second.Documents)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageBuildsTotal.WithLabelValues(StageCorpus, "hit")))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(data, "2.xml"), later, later))
	_, touched, err := e.LoadCorpus(ctx, data, 0)
	require.NoError(t, err)
	assert.False(t, touched.CacheHit)

	_, capped, err := e.LoadCorpus(ctx, data, 1)
	require.NoError(t, err)
	assert.False(t, capped.CacheHit)
	assert.NotEqual(t, touched.Fingerprint, capped.Fingerprint)

	_, _, err = e.LoadCorpus(ctx, filepath.Join(data, "missing"), 0)
	assert.Error(t, err)
}

func TestStagesListsEveryNamespace(t *testing.T) {
	assert.Equal(t, []string{StageCorpus, StageNormalize, StageIndex, StageModel}, Stages())
}
