package index

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/huichen/murmur"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of documents processed so far and the
// number to process. Calls are serialized.
type ProgressFunc func(done, total int)

type options struct {
	workers  int
	progress ProgressFunc
}

type Option func(*options)

// WithWorkers sets the number of shards documents are partitioned into and
// built concurrently. Values below one mean one.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// BuildReport summarises one build. Skipped documents are reported here
// rather than failing the build.
type BuildReport struct {
	Received  int   `json:"received"`
	Indexed   int   `json:"indexed"`
	Skipped   int   `json:"skipped"`
	SkippedAt []int `json:"skipped_at,omitempty"`
	Terms     int   `json:"terms"`
	Tokens    int   `json:"tokens"`
	Shards    int   `json:"shards"`
}

// Build indexes docs. See BuildContext.
func Build(docs []Document, opts ...Option) (*InvertedIndex, BuildReport, error) {
	return BuildContext(context.Background(), docs, opts...)
}

// BuildContext indexes docs. A document with an empty id is skipped and
// counted; a repeated id rejects the whole build with a
// DuplicateDocumentError naming the first repeat in input order. The result
// does not depend on document order or worker count. On cancellation all
// partial state is discarded.
func BuildContext(ctx context.Context, docs []Document, opts ...Option) (*InvertedIndex, BuildReport, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	report := BuildReport{Received: len(docs), Shards: o.workers}
	log := logger.WithComponent("index-builder")

	seen := make(map[string]struct{}, len(docs))
	accepted := make([]int, 0, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			report.Skipped++
			report.SkippedAt = append(report.SkippedAt, i)
			log.Warn("skipping document without id", "position", i)
			continue
		}
		if _, dup := seen[d.ID]; dup {
			return nil, report, &apperrors.DuplicateDocumentError{DocID: d.ID}
		}
		seen[d.ID] = struct{}{}
		accepted = append(accepted, i)
	}

	shards := partition(docs, accepted, o.workers)
	partials := make([]*shardIndex, len(shards))
	tracker := newProgressTracker(len(accepted), o.progress)

	g, gctx := errgroup.WithContext(ctx)
	for s := range shards {
		g.Go(func() error {
			partial, err := buildShard(gctx, docs, shards[s], tracker)
			if err != nil {
				return err
			}
			partials[s] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, fmt.Errorf("building index shards: %w", err)
	}

	postings, docLengths := merge(partials)
	idx := newInvertedIndex(postings, docLengths)
	report.Indexed = len(accepted)
	report.Terms = idx.TermCount()
	for _, n := range docLengths {
		report.Tokens += n
	}
	log.Debug("index built",
		"documents", report.Indexed,
		"skipped", report.Skipped,
		"terms", report.Terms,
		"shards", report.Shards,
	)
	return idx, report, nil
}

type shardIndex struct {
	postings   map[string]map[string][]int
	docLengths map[string]int
}

// partition assigns accepted document offsets to shards by murmur3 hash of
// the document id.
func partition(docs []Document, accepted []int, workers int) [][]int {
	if workers <= 1 {
		return [][]int{accepted}
	}
	shards := make([][]int, workers)
	for _, i := range accepted {
		s := murmur.Murmur3([]byte(docs[i].ID)) % uint32(workers)
		shards[s] = append(shards[s], i)
	}
	return shards
}

func buildShard(ctx context.Context, docs []Document, offsets []int, tracker *progressTracker) (*shardIndex, error) {
	shard := &shardIndex{
		postings:   make(map[string]map[string][]int),
		docLengths: make(map[string]int, len(offsets)),
	}
	for n, i := range offsets {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d := docs[i]
		shard.docLengths[d.ID] = len(d.Tokens)
		for pos, term := range d.Tokens {
			docMap, exists := shard.postings[term]
			if !exists {
				docMap = make(map[string][]int)
				shard.postings[term] = docMap
			}
			docMap[d.ID] = append(docMap[d.ID], pos)
		}
		tracker.tick()
	}
	return shard, nil
}

// merge folds shard results together. Shards never share a document, so
// per-document postings are moved, not combined.
func merge(partials []*shardIndex) (map[string]map[string][]int, map[string]int) {
	if len(partials) == 1 {
		return partials[0].postings, partials[0].docLengths
	}
	postings := make(map[string]map[string][]int)
	docLengths := make(map[string]int)
	for _, p := range partials {
		for docID, n := range p.docLengths {
			docLengths[docID] = n
		}
		for term, docs := range p.postings {
			dst, exists := postings[term]
			if !exists {
				postings[term] = docs
				continue
			}
			for docID, positions := range docs {
				dst[docID] = positions
			}
		}
	}
	return postings, docLengths
}

type progressTracker struct {
	mu    sync.Mutex
	done  int
	total int
	fn    ProgressFunc
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn}
}

func (p *progressTracker) tick() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.fn(p.done, p.total)
}
