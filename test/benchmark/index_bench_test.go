// Package benchmark contains Go benchmarks for index building, boolean
// evaluation, vector ranking and normalization, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
)

var vocabulary = []string{
	"golang", "meetup", "python", "hiking", "data", "cloud", "startup",
	"music", "yoga", "design", "writing", "chess", "running", "photo",
}

// syntheticCorpus returns n documents whose term mix varies with the id so
// that document frequencies differ.
func syntheticCorpus(n int) []index.Document {
	docs := make([]index.Document, n)
	for i := range docs {
		text := ""
		for j, word := range vocabulary {
			if (i+1)%(j+2) == 0 {
				text += word + " "
			}
		}
		text += fmt.Sprintf("event%d group%d", i, i%50)
		docs[i] = index.Document{ID: fmt.Sprintf("doc-%06d", i), Tokens: normalize.Simple{}.Normalize(text)}
	}
	return docs
}

// BenchmarkIndexBuild measures a full build for different worker counts.
func BenchmarkIndexBuild(b *testing.B) {
	docs := syntheticCorpus(10000)
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, _, err := index.BuildContext(context.Background(), docs, index.WithWorkers(workers)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkIndexSearch measures single-term lookup latency over 10 000
// documents.
func BenchmarkIndexSearch(b *testing.B) {
	idx, _, err := index.Build(syntheticCorpus(10000))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search("meetup")
	}
}

// BenchmarkIndexSearchParallel measures concurrent read throughput.
func BenchmarkIndexSearchParallel(b *testing.B) {
	idx, _, err := index.Build(syntheticCorpus(10000))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = idx.Search("meetup")
		}
	})
}

// BenchmarkSnapshotRoundTrip measures encoding and decoding a cached index.
func BenchmarkSnapshotRoundTrip(b *testing.B) {
	idx, _, err := index.Build(syntheticCorpus(2000))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := index.Save(idx)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := index.Load(data); err != nil {
			b.Fatal(err)
		}
	}
}
