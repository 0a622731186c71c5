package response

import (
	"strconv"
	"strings"
	"testing"
)

func benchmarkPayload(n int) (string, []int) {
	var sb strings.Builder
	var exclude []int
	line := 0
	for i := range n {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("file: music/track" + strconv.Itoa(i) + ".flac\nTitle: Track " + strconv.Itoa(i))
		line += 2
		exclude = append(exclude, line-1)
	}
	return sb.String(), exclude
}

func BenchmarkSegments(b *testing.B) {
	payload, exclude := benchmarkPayload(1000)
	batch := New("OK MPD 0.23.5", payload, exclude)

	b.ReportAllocs()
	for b.Loop() {
		for range batch.Segments() {
		}
	}
}

func BenchmarkLen(b *testing.B) {
	payload, exclude := benchmarkPayload(1000)

	b.ReportAllocs()
	for b.Loop() {
		New("", payload, exclude).Len()
	}
}
