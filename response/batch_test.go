package response

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		exclude []int
		want    []string
	}{
		{
			name:    "no exclusions",
			payload: "A\nB\nC",
			want:    []string{"A", "B", "C"},
		},
		{
			name:    "marker glued to previous line",
			payload: "A\nMARKER\nB",
			exclude: []int{1},
			want:    []string{"A\nMARKER", "B"},
		},
		{
			name:    "empty payload",
			payload: "",
			want:    []string{},
		},
		{
			name:    "single segment",
			payload: "OK",
			want:    []string{"OK"},
		},
		{
			name:    "all newlines excluded",
			payload: "a: 1\nb: 2\nc: 3",
			exclude: []int{1, 2},
			want:    []string{"a: 1\nb: 2\nc: 3"},
		},
		{
			name:    "exclusion beyond newline count",
			payload: "A\nB\nC",
			exclude: []int{7},
			want:    []string{"A", "B", "C"},
		},
		{
			name:    "zero and negative exclusions",
			payload: "A\nB",
			exclude: []int{-3, 0},
			want:    []string{"A", "B"},
		},
		{
			name:    "unsorted with duplicates",
			payload: "A\nB\nC\nD",
			exclude: []int{3, 1, 3},
			want:    []string{"A\nB", "C\nD"},
		},
		{
			name:    "empty lines are empty segments",
			payload: "\nvolume: 50\n",
			want:    []string{"", "volume: 50", ""},
		},
		{
			name:    "trailing newline",
			payload: "A\n",
			want:    []string{"A", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("OK MPD 0.23.5", tt.payload, tt.exclude)

			require.Equal(t, tt.want, b.Slice())
			require.Equal(t, len(tt.want), b.Len())
			require.Equal(t, len(tt.want), b.CountHint())
		})
	}
}

func TestCountHintDefaultsUntilComputed(t *testing.T) {
	b := New("", "A\nB\nC", nil)
	require.False(t, b.Counted())
	require.Equal(t, DefaultCountHint, b.CountHint())

	require.Equal(t, 3, b.Len())
	require.True(t, b.Counted())
	require.Equal(t, 3, b.CountHint())
}

func TestCountMemoizedByFullEnumeration(t *testing.T) {
	b := New("", "A\nMARKER\nB", []int{1})

	for range b.Segments() {
	}
	require.True(t, b.Counted())
	require.Equal(t, 2, b.CountHint())
}

func TestPartialEnumerationDoesNotMemoize(t *testing.T) {
	b := New("", "A\nB\nC", nil)

	for range b.Segments() {
		break
	}
	require.False(t, b.Counted())
}

func TestEmptyPayloadCountsZero(t *testing.T) {
	b := New("OK MPD 0.23.5", "", nil)
	require.Equal(t, 0, b.Len())
	require.Equal(t, 0, b.CountHint())
}

func TestSegmentsRestartable(t *testing.T) {
	b := New("", "a\nb\nc\nd", []int{2})

	first := b.Slice()
	second := b.Slice()
	require.Equal(t, first, second)
	require.Equal(t, []string{"a", "b\nc", "d"}, first)
}

func TestSegment(t *testing.T) {
	b := New("", "a\nb\nc\nd", []int{2})

	tests := []struct {
		index int
		want  string
		found bool
	}{
		{index: 0, want: "a", found: true},
		{index: 1, want: "b\nc", found: true},
		{index: 2, want: "d", found: true},
		{index: 3},
		{index: -1},
	}

	for _, tt := range tests {
		got, found := b.Segment(tt.index)
		require.Equal(t, tt.found, found, "index %d", tt.index)
		require.Equal(t, tt.want, got, "index %d", tt.index)
	}

	// same answers once the count is memoized
	require.Equal(t, 3, b.Len())
	got, found := b.Segment(2)
	require.True(t, found)
	require.Equal(t, "d", got)
	_, found = b.Segment(3)
	require.False(t, found)
}

func TestAllIndexes(t *testing.T) {
	b := New("", "x\ny", nil)

	var indexes []int
	for i := range b.All() {
		indexes = append(indexes, i)
	}
	require.Equal(t, []int{0, 1}, indexes)
}

func TestNewCopiesOffsets(t *testing.T) {
	exclude := []int{1}
	b := New("", "A\nB\nC", exclude)

	exclude[0] = 2
	require.Equal(t, []int{1}, b.ExcludeOffsets())

	got := b.ExcludeOffsets()
	got[0] = 2
	require.Equal(t, []int{1}, b.ExcludeOffsets())
	require.Equal(t, []string{"A\nB", "C"}, b.Slice())
}

func TestNewWithCount(t *testing.T) {
	b := NewWithCount("", "A\nB\nC", nil, 3)
	require.True(t, b.Counted())
	require.Equal(t, 3, b.CountHint())
	require.Equal(t, 3, b.Len())
}

func TestNewWithCountOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		counted bool
	}{
		{name: "negative", count: -1},
		{name: "max int32", count: math.MaxInt32},
		{name: "largest storable", count: math.MaxInt32 - 1, counted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewWithCount("", "A", nil, tt.count)
			require.Equal(t, tt.counted, b.Counted())
			if tt.counted {
				require.Equal(t, tt.count, b.CountHint())
			} else {
				require.Equal(t, DefaultCountHint, b.CountHint())
			}
		})
	}
}

func TestSliceCapacityBoundedByPayload(t *testing.T) {
	b := NewWithCount("", "A\nB", nil, math.MaxInt32-1)
	segments := b.Slice()
	require.Equal(t, []string{"A", "B"}, segments)
	require.LessOrEqual(t, cap(segments), len(b.Payload())+1)
}

func TestDerive(t *testing.T) {
	original := New("OK MPD 0.23.5", "A\nMARKER\nB", []int{1})
	require.Equal(t, 2, original.Len())

	derived := Derive(original)
	require.NotSame(t, original, derived)
	require.True(t, original.Equal(derived))
	require.Equal(t, original.ConnectionResult(), derived.ConnectionResult())
	require.Equal(t, original.Payload(), derived.Payload())
	require.Equal(t, original.ExcludeOffsets(), derived.ExcludeOffsets())
	require.True(t, derived.Counted())
	require.Equal(t, original.Slice(), derived.Slice())
}

func TestDeriveNil(t *testing.T) {
	require.Same(t, Empty(), Derive(nil))
}

func TestEmpty(t *testing.T) {
	b := Empty()
	require.True(t, b.IsEmpty())
	require.Equal(t, "", b.ConnectionResult())
	require.Equal(t, "", b.Payload())
	require.Empty(t, b.ExcludeOffsets())
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Slice())
	require.Same(t, Empty(), Empty())
}

func TestEmptyCountedBeforeUse(t *testing.T) {
	b := Empty()
	require.True(t, b.Counted())
	require.Equal(t, 0, b.CountHint())
}

func TestEqual(t *testing.T) {
	a := New("x", "A\nB", []int{1})
	b := New("x", "A\nB", []int{1})
	require.True(t, a.Equal(b))

	a.Len()
	require.False(t, a.Equal(b), "memo state differs")
	b.Len()
	require.True(t, a.Equal(b))

	require.False(t, a.Equal(New("y", "A\nB", []int{1})))
	require.False(t, a.Equal(nil))

	var nilBatch *Batch
	require.True(t, nilBatch.Equal(nil))
}

func TestConcurrentReads(t *testing.T) {
	b := New("OK MPD 0.23.5", "a: 1\nb: 2\nlist\nc: 3\nd: 4", []int{1, 4})
	want := []string{"a: 1\nb: 2", "list", "c: 3\nd: 4"}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				require.Equal(t, 3, b.Len())
				require.Equal(t, want, b.Slice())
				require.Equal(t, "OK MPD 0.23.5", b.ConnectionResult())
				require.Equal(t, []int{1, 4}, b.ExcludeOffsets())
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, b.CountHint())
}

func TestOutOfRangeExclusionMatchesNoExclusion(t *testing.T) {
	payloads := []string{"", "A", "A\nB", "A\n\nB\n"}
	for _, payload := range payloads {
		plain := New("", payload, nil)
		hinted := New("", payload, []int{100, 1 << 20})
		require.Equal(t, plain.Slice(), hinted.Slice(), "payload %q", payload)
		require.Equal(t, plain.Len(), hinted.Len(), "payload %q", payload)
	}
}

func FuzzSegments(f *testing.F) {
	f.Add("A\nB\nC", 1, 2)
	f.Add("A\nMARKER\nB", 1, 0)
	f.Add("", 0, 0)
	f.Add("\n\n\n", 2, 9)

	f.Fuzz(func(t *testing.T, payload string, x, y int) {
		b := New("", payload, []int{x, y})

		segments := b.Slice()
		require.Equal(t, len(segments), countSegments(payload, b.exclude))
		require.Equal(t, len(segments), b.Len())

		joined := ""
		for i, segment := range segments {
			if i > 0 {
				joined += "\n"
			}
			joined += segment
		}
		require.Equal(t, payload, joined)
	})
}
