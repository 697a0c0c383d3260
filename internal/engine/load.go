package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/corpus"
)

// Stages lists every cache namespace the engine writes, in pipeline order.
func Stages() []string {
	return []string{StageCorpus, StageNormalize, StageIndex, StageModel}
}

// LoadedCorpus is the output of the corpus stage.
type LoadedCorpus struct {
	Documents []corpus.Document `json:"documents"`
	Report    corpus.LoadReport `json:"report"`
}

type corpusInput struct {
	files     []corpus.FileInfo
	truncated bool
}

// LoadCorpus lists the event files under dir and parses them through the
// corpus stage. While no listed file changes path, size or modification
// time the parsed documents come from the cache.
func (e *Engine) LoadCorpus(ctx context.Context, dir string, maxFiles int) (LoadedCorpus, StageSummary, error) {
	start := time.Now()
	files, truncated, err := corpus.ListFiles(dir, maxFiles)
	if err != nil {
		return LoadedCorpus{}, StageSummary{}, err
	}
	loaded, fp, hit, err := e.corpusFn(ctx, corpusInput{files: files, truncated: truncated})
	elapsed := time.Since(start)

	result := "built"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	if e.metrics != nil {
		e.metrics.StageBuildsTotal.WithLabelValues(StageCorpus, result).Inc()
		e.metrics.StageDuration.WithLabelValues(StageCorpus).Observe(elapsed.Seconds())
	}
	if err != nil {
		e.logger.Error("corpus stage failed", "dir", dir, "error", err)
		return LoadedCorpus{}, StageSummary{}, fmt.Errorf("corpus stage: %w", err)
	}
	if e.metrics != nil && loaded.Report.Failed > 0 && !hit {
		e.metrics.DocsRejectedTotal.WithLabelValues(StageCorpus).Add(float64(loaded.Report.Failed))
	}
	e.logger.Info("corpus loaded",
		"dir", dir,
		"files", loaded.Report.Files,
		"loaded", loaded.Report.Loaded,
		"failed", loaded.Report.Failed,
		"truncated", loaded.Report.Truncated,
		"cache_hit", hit,
		"elapsed", elapsed,
	)
	return loaded, StageSummary{Name: StageCorpus, Fingerprint: fp, CacheHit: hit, Duration: elapsed}, nil
}

func corpusFingerprint(in corpusInput) (string, error) {
	h := cache.NewHasher(StageCorpus).Int(formatVersion).Int(len(in.files))
	if in.truncated {
		h.Int(1)
	} else {
		h.Int(0)
	}
	for _, f := range in.files {
		h.Text(f.Path).Int(int(f.Size)).Int(int(f.ModTime.UnixNano()))
	}
	return h.Sum(), nil
}

func loadCorpus(_ context.Context, in corpusInput) (LoadedCorpus, error) {
	docs, report := corpus.LoadFiles(in.files)
	report.Truncated = in.truncated
	return LoadedCorpus{Documents: docs, Report: report}, nil
}
