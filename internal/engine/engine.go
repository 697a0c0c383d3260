// Package engine runs the retrieval pipeline: parse event files, normalize
// raw documents, build the inverted index, build the TF-IDF model. Each
// stage is memoized in a cache.Store under a fingerprint of everything that
// affects its output, so rebuilding an unchanged corpus only reads the cache.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/events"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage names double as cache namespaces.
const (
	StageCorpus    = "corpus"
	StageNormalize = "normalize"
	StageIndex     = "index"
	StageModel     = "model"
)

// formatVersion is mixed into every fingerprint; bump it when a payload
// layout or stage algorithm changes.
const formatVersion = 1

// NormalizedCorpus is the output of the normalize stage, ordered by id.
type NormalizedCorpus struct {
	Documents []index.Document `json:"documents"`
	Rejected  int              `json:"rejected"`
}

type modelInput struct {
	indexFingerprint string
	idx              *index.InvertedIndex
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithNotifier(n events.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithProgress forwards per-document progress of the index build.
func WithProgress(fn index.ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

type Engine struct {
	cfg        config.EngineConfig
	store      cache.Store
	normalizer normalize.Normalizer
	metrics    *metrics.Metrics
	notifier   events.Notifier
	progress   index.ProgressFunc
	logger     *slog.Logger

	corpusFn    func(context.Context, corpusInput) (LoadedCorpus, string, bool, error)
	normalizeFn func(context.Context, []corpus.Document) (NormalizedCorpus, string, bool, error)
	indexFn     func(context.Context, NormalizedCorpus) (*index.InvertedIndex, string, bool, error)
	modelFn     func(context.Context, modelInput) (*vector.Model, string, bool, error)
}

// New validates cfg and wires the cached stages. A nil store disables
// caching.
func New(cfg config.EngineConfig, store cache.Store, normalizer normalize.Normalizer, opts ...Option) (*Engine, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if normalizer == nil {
		return nil, apperrors.NewConfigurationError("normalizer", nil, "a normalizer is required")
	}
	if store == nil {
		store = cache.NopStore{}
	}
	e := &Engine{
		cfg:        cfg,
		store:      store,
		normalizer: normalizer,
		notifier:   events.Nop{},
		logger:     logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	indexCodec := cache.CodecFuncs[*index.InvertedIndex]{EncodeFn: index.Save, DecodeFn: index.Load}
	modelCodec := cache.CodecFuncs[*vector.Model]{EncodeFn: vector.Save, DecodeFn: vector.Load}

	e.corpusFn = cache.Cached(
		cache.NewStage[LoadedCorpus](StageCorpus, store, cache.JSONCodec[LoadedCorpus]{}, e.metrics),
		corpusFingerprint,
		loadCorpus,
	)
	e.normalizeFn = cache.Cached(
		cache.NewStage[NormalizedCorpus](StageNormalize, store, cache.JSONCodec[NormalizedCorpus]{}, e.metrics),
		e.normalizeFingerprint,
		e.normalizeDocuments,
	)
	e.indexFn = cache.Cached(
		cache.NewStage[*index.InvertedIndex](StageIndex, store, indexCodec, e.metrics),
		indexFingerprint,
		e.buildIndex,
	)
	e.modelFn = cache.Cached(
		cache.NewStage[*vector.Model](StageModel, store, modelCodec, e.metrics),
		e.modelFingerprint,
		e.buildModel,
	)
	return e, nil
}

func validate(cfg config.EngineConfig) error {
	if cfg.MaxFeatures <= 0 {
		return apperrors.NewConfigurationError("max_features", cfg.MaxFeatures, "must be positive")
	}
	if cfg.TopK <= 0 {
		return apperrors.NewConfigurationError("top_k", cfg.TopK, "must be positive")
	}
	if cfg.Workers <= 0 {
		return apperrors.NewConfigurationError("workers", cfg.Workers, "must be positive")
	}
	return nil
}

// StageSummary reports one stage of a build.
type StageSummary struct {
	Name        string        `json:"name"`
	Fingerprint string        `json:"fingerprint"`
	CacheHit    bool          `json:"cache_hit"`
	Duration    time.Duration `json:"duration_ns"`
}

type BuildSummary struct {
	RunID      string         `json:"run_id"`
	Received   int            `json:"received"`
	Rejected   int            `json:"rejected"`
	Indexed    int            `json:"indexed"`
	Terms      int            `json:"terms"`
	Vocabulary int            `json:"vocabulary"`
	Stages     []StageSummary `json:"stages"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
}

// Build runs all three stages over raw and returns a query session. Bad
// documents are counted in the summary; a duplicate id rejects the build.
func (e *Engine) Build(ctx context.Context, raw []corpus.Document) (*Session, BuildSummary, error) {
	start := time.Now()
	summary := BuildSummary{RunID: uuid.NewString(), Received: len(raw)}
	ctx = logger.WithRunID(ctx, summary.RunID)
	log := logger.FromContext(ctx).With("component", "engine")
	log.Info("build started", "documents", len(raw), "max_features", e.cfg.MaxFeatures)

	stageStart := time.Now()
	normalized, fp, hit, err := e.normalizeFn(ctx, raw)
	e.finishStage(ctx, &summary, StageNormalize, fp, hit, stageStart, err, len(normalized.Documents), 0, normalized.Rejected)
	if err != nil {
		return nil, summary, fmt.Errorf("normalize stage: %w", err)
	}
	summary.Rejected = normalized.Rejected
	if e.metrics != nil && normalized.Rejected > 0 {
		e.metrics.DocsRejectedTotal.WithLabelValues(StageNormalize).Add(float64(normalized.Rejected))
	}

	stageStart = time.Now()
	idx, indexFP, hit, err := e.indexFn(ctx, normalized)
	if err != nil {
		e.finishStage(ctx, &summary, StageIndex, indexFP, hit, stageStart, err, 0, 0, 0)
		return nil, summary, fmt.Errorf("index stage: %w", err)
	}
	e.finishStage(ctx, &summary, StageIndex, indexFP, hit, stageStart, nil, idx.CorpusSize(), idx.TermCount(), 0)
	summary.Indexed = idx.CorpusSize()
	summary.Terms = idx.TermCount()
	if e.metrics != nil {
		if !hit {
			e.metrics.DocsIndexedTotal.Add(float64(idx.CorpusSize()))
		}
		e.metrics.IndexTermCount.Set(float64(idx.TermCount()))
	}

	stageStart = time.Now()
	model, fp, hit, err := e.modelFn(ctx, modelInput{indexFingerprint: indexFP, idx: idx})
	if err != nil {
		e.finishStage(ctx, &summary, StageModel, fp, hit, stageStart, err, 0, 0, 0)
		return nil, summary, fmt.Errorf("model stage: %w", err)
	}
	e.finishStage(ctx, &summary, StageModel, fp, hit, stageStart, nil, model.CorpusSize(), len(model.Vocabulary()), 0)
	summary.Vocabulary = len(model.Vocabulary())
	if e.metrics != nil {
		e.metrics.VocabularySize.Set(float64(len(model.Vocabulary())))
	}

	summary.Elapsed = time.Since(start)
	log.Info("build finished",
		"indexed", summary.Indexed,
		"rejected", summary.Rejected,
		"terms", summary.Terms,
		"vocabulary", summary.Vocabulary,
		"elapsed", summary.Elapsed,
	)
	session := NewSession(idx, model, e.normalizer, e.metrics)
	session.RunID = summary.RunID
	session.defaultTopK = e.cfg.TopK
	return session, summary, nil
}

func (e *Engine) finishStage(ctx context.Context, summary *BuildSummary, stage, fp string, hit bool, start time.Time, err error, docs, terms, rejected int) {
	elapsed := time.Since(start)
	log := logger.FromContext(ctx).With("component", "engine", "stage", stage)
	result := "built"
	switch {
	case err != nil:
		result = "error"
		log.Error("stage failed", "error", err, "elapsed", elapsed)
	case hit:
		result = "hit"
		log.Info("stage loaded from cache", "fingerprint", fp, "elapsed", elapsed)
	default:
		log.Info("stage built", "fingerprint", fp, "elapsed", elapsed)
	}
	if e.metrics != nil {
		e.metrics.StageBuildsTotal.WithLabelValues(stage, result).Inc()
		e.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	}
	if err != nil {
		return
	}
	summary.Stages = append(summary.Stages, StageSummary{Name: stage, Fingerprint: fp, CacheHit: hit, Duration: elapsed})
	ev := events.BuildEvent{
		RunID:       summary.RunID,
		Stage:       stage,
		Fingerprint: fp,
		CacheHit:    hit,
		Documents:   docs,
		Terms:       terms,
		Rejected:    rejected,
		Duration:    elapsed,
		At:          time.Now().UTC(),
	}
	if err := e.notifier.Notify(ctx, ev); err != nil {
		log.Warn("build event not delivered", "error", err)
	}
}

// sortedRaw orders raw documents by id, then text, so that the normalize
// fingerprint and its payload do not depend on input order.
func sortedRaw(raw []corpus.Document) []corpus.Document {
	sorted := make([]corpus.Document, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Text() < sorted[j].Text()
	})
	return sorted
}

func (e *Engine) normalizeFingerprint(raw []corpus.Document) (string, error) {
	h := cache.NewHasher(StageNormalize).Int(formatVersion).Text(e.normalizer.Name()).Int(len(raw))
	for _, d := range sortedRaw(raw) {
		h.Text(d.ID).Text(d.Text())
	}
	return h.Sum(), nil
}

func (e *Engine) normalizeDocuments(ctx context.Context, raw []corpus.Document) (NormalizedCorpus, error) {
	var out NormalizedCorpus
	valid := make([]corpus.Document, 0, len(raw))
	for _, d := range sortedRaw(raw) {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Text()) == "" {
			out.Rejected++
			e.logger.Warn("rejecting document", "doc_id", d.ID, "path", d.Path, "reason", "missing id or text")
			continue
		}
		valid = append(valid, d)
	}

	out.Documents = make([]index.Document, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	const chunk = 512
	for lo := 0; lo < len(valid); lo += chunk {
		hi := min(lo+chunk, len(valid))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				tokens := e.normalizer.Normalize(valid[i].Text())
				if tokens == nil {
					tokens = []string{}
				}
				out.Documents[i] = index.Document{ID: valid[i].ID, Tokens: tokens}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return NormalizedCorpus{}, err
	}
	return out, nil
}

func indexFingerprint(in NormalizedCorpus) (string, error) {
	h := cache.NewHasher(StageIndex).Int(formatVersion).Int(len(in.Documents))
	for _, d := range in.Documents {
		h.Text(d.ID).List(d.Tokens)
	}
	return h.Sum(), nil
}

func (e *Engine) buildIndex(ctx context.Context, in NormalizedCorpus) (*index.InvertedIndex, error) {
	opts := []index.Option{index.WithWorkers(e.cfg.Workers)}
	if e.progress != nil {
		opts = append(opts, index.WithProgress(e.progress))
	}
	idx, report, err := index.BuildContext(ctx, in.Documents, opts...)
	if err != nil {
		return nil, err
	}
	if report.Skipped > 0 {
		e.logger.Warn("documents skipped by index builder", "skipped", report.Skipped)
	}
	if err := idx.Verify(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (e *Engine) modelFingerprint(in modelInput) (string, error) {
	return cache.NewHasher(StageModel).
		Int(formatVersion).
		Text(in.indexFingerprint).
		Int(e.cfg.MaxFeatures).
		Sum(), nil
}

func (e *Engine) buildModel(ctx context.Context, in modelInput) (*vector.Model, error) {
	return vector.Build(ctx, in.idx, e.cfg.MaxFeatures, vector.WithWorkers(e.cfg.Workers))
}
