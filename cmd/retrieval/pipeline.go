package main

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/events"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
)

// built is the result of one pipeline run.
type built struct {
	session *engine.Session
	summary engine.BuildSummary
	load    corpus.LoadReport
	loadRun engine.StageSummary
	names   map[string]string
	metrics *metrics.Metrics
}

func (b *built) name(id string) string {
	return b.names[id]
}

// buildSession loads the corpus and runs every stage through the configured
// cache. The cache and notifier are closed before it returns; the session
// holds everything queries need.
func (a *app) buildSession(ctx context.Context) (*built, error) {
	log := logger.WithComponent("cli")
	cfg := a.cfg

	store, err := cache.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing cache", "backend", store.Name(), "error", err)
		}
	}()

	notifier := events.FromConfig(cfg.Kafka)
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warn("closing notifier", "error", err)
		}
	}()

	m := metrics.New()
	eng, err := engine.New(cfg.Engine, store, normalize.Simple{},
		engine.WithMetrics(m),
		engine.WithNotifier(notifier),
	)
	if err != nil {
		return nil, err
	}
	loaded, loadRun, err := eng.LoadCorpus(ctx, cfg.Engine.DataDir, cfg.Engine.MaxFiles)
	if err != nil {
		return nil, err
	}
	session, summary, err := eng.Build(ctx, loaded.Documents)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(loaded.Documents))
	for _, d := range loaded.Documents {
		names[d.ID] = d.Name
	}
	return &built{
		session: session,
		summary: summary,
		load:    loaded.Report,
		loadRun: loadRun,
		names:   names,
		metrics: m,
	}, nil
}
