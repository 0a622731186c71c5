package response

import (
	"iter"
	"strings"
)

// Segments returns the per-command replies of the payload in protocol order.
//
// Segments are sliced out of the payload as they are consumed. The sequence
// can be ranged over any number of times and always yields the same values.
// An empty payload yields nothing.
func (b *Batch) Segments() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, segment := range b.All() {
			if !yield(segment) {
				return
			}
		}
	}
}

// All returns the segments of the payload together with their index.
func (b *Batch) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		if b.payload == "" {
			b.storeCount(0)
			return
		}

		payload := b.payload
		exclude := b.exclude

		start, pos := 0, 0
		line, index := 0, 0
		for {
			nl := strings.IndexByte(payload[pos:], '\n')
			if nl < 0 {
				if !yield(index, payload[start:]) {
					return
				}
				b.storeCount(index + 1)
				return
			}
			nl += pos
			pos = nl + 1
			line++

			for len(exclude) > 0 && exclude[0] < line {
				exclude = exclude[1:]
			}
			if len(exclude) > 0 && exclude[0] == line {
				continue
			}

			if !yield(index, payload[start:nl]) {
				return
			}
			index++
			start = pos
		}
	}
}

// Segment returns the i-th segment. It reports false when the batch has fewer
// than i+1 segments.
func (b *Batch) Segment(i int) (string, bool) {
	if i < 0 || (b.Counted() && i >= b.CountHint()) {
		return "", false
	}

	for index, segment := range b.All() {
		if index == i {
			return segment, true
		}
	}
	return "", false
}

// Slice returns all segments.
func (b *Batch) Slice() []string {
	segments := make([]string, 0, sizeHint(b))
	for segment := range b.Segments() {
		segments = append(segments, segment)
	}
	return segments
}

// sizeHint bounds CountHint by the most segments the payload can hold.
func sizeHint(b *Batch) int {
	return min(b.CountHint(), len(b.payload)+1)
}

// Len returns the number of segments. The value is computed once and
// memoized.
func (b *Batch) Len() int {
	if b.Counted() {
		return b.CountHint()
	}

	n := countSegments(b.payload, b.exclude)
	b.storeCount(n)
	return n
}

// countSegments counts newlines and subtracts the exclusions that fall on an
// actual newline.
func countSegments(payload string, exclude []int) int {
	if payload == "" {
		return 0
	}

	newlines := strings.Count(payload, "\n")
	suppressed := 0
	for _, k := range exclude {
		if k >= 1 && k <= newlines {
			suppressed++
		}
	}
	return newlines + 1 - suppressed
}
