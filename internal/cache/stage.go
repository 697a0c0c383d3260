package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Codec turns a stage result into a payload and back. Encode must be
// deterministic; Decode must reject payloads that are not a valid result.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// CodecFuncs adapts a pair of functions to Codec.
type CodecFuncs[T any] struct {
	EncodeFn func(T) ([]byte, error)
	DecodeFn func([]byte) (T, error)
}

func (c CodecFuncs[T]) Encode(v T) ([]byte, error) { return c.EncodeFn(v) }

func (c CodecFuncs[T]) Decode(data []byte) (T, error) { return c.DecodeFn(data) }

// JSONCodec encodes with encoding/json, which sorts map keys.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

type outcome[T any] struct {
	value T
	hit   bool
}

// Stage memoizes one pipeline stage.
type Stage[T any] struct {
	name    string
	store   Store
	codec   Codec[T]
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	corrupt atomic.Int64
}

// NewStage binds a stage name to a store and codec. m may be nil.
func NewStage[T any](name string, store Store, codec Codec[T], m *metrics.Metrics) *Stage[T] {
	return &Stage[T]{
		name:    name,
		store:   store,
		codec:   codec,
		metrics: m,
		logger:  logger.WithComponent("stage-cache").With("stage", name),
	}
}

func (s *Stage[T]) Name() string { return s.name }

// Run returns the cached result for fingerprint, or calls build, stores its
// result and returns it. Store failures and corrupt entries degrade to a
// miss; only build errors are returned. Concurrent runs for the same
// fingerprint share one build.
func (s *Stage[T]) Run(ctx context.Context, fingerprint string, build func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := s.lookup(ctx, fingerprint); ok {
		return v, true, nil
	}
	res, err, _ := s.group.Do(fingerprint, func() (interface{}, error) {
		if v, ok := s.lookup(ctx, fingerprint); ok {
			return outcome[T]{value: v, hit: true}, nil
		}
		s.misses.Add(1)
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues(s.name).Inc()
		}
		v, err := build(ctx)
		if err != nil {
			return nil, err
		}
		s.save(ctx, fingerprint, v)
		return outcome[T]{value: v}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	out := res.(outcome[T])
	return out.value, out.hit, nil
}

func (s *Stage[T]) lookup(ctx context.Context, fingerprint string) (T, bool) {
	var zero T
	entry, ok, err := s.store.Get(ctx, s.name, fingerprint)
	if err != nil {
		s.logger.Warn("cache get failed", "fingerprint", fingerprint, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := s.decode(fingerprint, entry)
	if err != nil {
		s.corrupt.Add(1)
		if s.metrics != nil {
			s.metrics.CacheCorruptTotal.WithLabelValues(s.name).Inc()
		}
		s.logger.Warn("discarding corrupt cache entry", "fingerprint", fingerprint, "error", err)
		return zero, false
	}
	s.hits.Add(1)
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(s.name).Inc()
	}
	s.logger.Debug("cache hit", "fingerprint", fingerprint)
	return v, true
}

func (s *Stage[T]) decode(fingerprint string, entry []byte) (T, error) {
	var zero T
	payload, err := openEntry(entry)
	if err != nil {
		return zero, &apperrors.CacheCorruptionError{Stage: s.name, Fingerprint: fingerprint, Err: err}
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		return zero, &apperrors.CacheCorruptionError{Stage: s.name, Fingerprint: fingerprint, Err: err}
	}
	return v, nil
}

// save persists v. Failing to cache never fails the stage.
func (s *Stage[T]) save(ctx context.Context, fingerprint string, v T) {
	payload, err := s.codec.Encode(v)
	if err != nil {
		s.logger.Error("encoding stage result failed", "fingerprint", fingerprint, "error", err)
		return
	}
	if err := s.store.Put(ctx, s.name, fingerprint, sealEntry(payload)); err != nil {
		s.logger.Error("cache put failed", "fingerprint", fingerprint, "error", err)
		return
	}
	s.logger.Debug("cache entry written", "fingerprint", fingerprint, "bytes", len(payload))
}

// Stats returns the hit, miss and corrupt-entry counts since creation.
func (s *Stage[T]) Stats() (hits, misses, corrupt int64) {
	return s.hits.Load(), s.misses.Load(), s.corrupt.Load()
}

// Cached composes a fingerprint function and a stage function into a
// memoized stage function. The bool result reports a cache hit; the string
// is the fingerprint used.
func Cached[I, T any](
	stage *Stage[T],
	fingerprintFn func(I) (string, error),
	stageFn func(context.Context, I) (T, error),
) func(context.Context, I) (T, string, bool, error) {
	return func(ctx context.Context, in I) (T, string, bool, error) {
		fp, err := fingerprintFn(in)
		if err != nil {
			var zero T
			return zero, "", false, fmt.Errorf("fingerprinting %s input: %w", stage.name, err)
		}
		v, hit, err := stage.Run(ctx, fp, func(ctx context.Context) (T, error) {
			return stageFn(ctx, in)
		})
		return v, fp, hit, err
	}
}
