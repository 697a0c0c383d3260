package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
)

var sampleTexts = map[string]string{
	"short": "Golang meetup: concurrency patterns for the working gopher",
	"medium": `Join us for an evening of lightning talks about building reliable
        services. We will cover worker pools, structured logging and caching
        strategies, followed by pizza and networking with other members of the
        group. Beginners are welcome and laptops are optional.`,
	"long": strings.Repeat(`Our hiking club organises weekend trips to the mountains
        surrounding the city. Routes range from gentle walks along the river to
        demanding ridge scrambles. Bring water, sturdy shoes and a packed lunch;
        carpooling is arranged from the central station. `, 20),
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = normalize.Simple{}.Normalize(text)
			}
		})
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = normalize.Simple{}.Normalize(text)
		}
	})
}

func BenchmarkWhitespace(b *testing.B) {
	text := sampleTexts["long"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = normalize.Whitespace.Normalize(text)
	}
}

func BenchmarkNormalizeVaryingSize(b *testing.B) {
	baseWord := "golang meetup organised weekly downtown "
	for _, size := range []int{10, 100, 500, 1000, 5000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = normalize.Simple{}.Normalize(text)
			}
		})
	}
}
