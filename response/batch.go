package response

import (
	"math"
	"slices"
	"strconv"
	"sync/atomic"
)

// DefaultCountHint is reported by CountHint until the segment count has been
// computed.
const DefaultCountHint = 16

// empty is counted up front so its state never changes after first use.
var empty = func() *Batch {
	b := &Batch{}
	b.storeCount(0)
	return b
}()

// Batch is the raw result of one exchange with the server: the outcome of the
// connection handshake, the newline-delimited payload returned by one or more
// pipelined commands and the newline ordinals that are not segment boundaries.
//
// A Batch is immutable once constructed and safe for concurrent use.
type Batch struct {
	outcome string
	payload string
	exclude []int

	// count holds the segment count plus one, zero until computed.
	count atomic.Int32
}

// New returns a Batch whose segment count will be computed on first use.
//
// Each value k in exclude suppresses the k-th newline of payload (1-based),
// gluing line k onto the segment before it. Values outside 1..newlines are
// ignored. The slice is copied.
func New(outcome, payload string, exclude []int) *Batch {
	return &Batch{
		outcome: outcome,
		payload: payload,
		exclude: normalize(exclude),
	}
}

// NewWithCount returns a Batch carrying a segment count that was already
// determined by an earlier split of the same payload. A count that is negative
// or does not fit the memo leaves the batch uncounted.
func NewWithCount(outcome, payload string, exclude []int, count int) *Batch {
	b := New(outcome, payload, exclude)
	b.storeCount(count)
	return b
}

// Derive returns a copy of other. The copy shares no mutable state with other.
func Derive(other *Batch) *Batch {
	if other == nil {
		return Empty()
	}

	b := &Batch{
		outcome: other.outcome,
		payload: other.payload,
		exclude: slices.Clone(other.exclude),
	}
	b.count.Store(other.count.Load())
	return b
}

// Empty returns the canonical batch representing no result.
func Empty() *Batch {
	return empty
}

// ConnectionResult returns the outcome of the connection handshake.
func (b *Batch) ConnectionResult() string {
	return b.outcome
}

// Payload returns the unsplit server reply.
func (b *Batch) Payload() string {
	return b.payload
}

// ExcludeOffsets returns a copy of the excluded newline ordinals, ascending.
func (b *Batch) ExcludeOffsets() []int {
	return slices.Clone(b.exclude)
}

// CountHint returns the memoized segment count, or DefaultCountHint when it
// has not been computed yet.
func (b *Batch) CountHint() int {
	if c := b.count.Load(); c > 0 {
		return int(c - 1)
	}
	return DefaultCountHint
}

// Counted reports whether the segment count has been computed.
func (b *Batch) Counted() bool {
	return b.count.Load() > 0
}

// IsEmpty reports whether b holds neither a handshake outcome nor a payload.
func (b *Batch) IsEmpty() bool {
	return b.outcome == "" && b.payload == ""
}

// Equal reports whether b and other carry the same fields, including the
// memoized count.
func (b *Batch) Equal(other *Batch) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.outcome == other.outcome &&
		b.payload == other.payload &&
		slices.Equal(b.exclude, other.exclude) &&
		b.count.Load() == other.count.Load()
}

func (b *Batch) String() string {
	return "Batch{outcome=" + strconv.Quote(b.outcome) +
		" payload=" + strconv.Itoa(len(b.payload)) + "B" +
		" exclude=" + strconv.Itoa(len(b.exclude)) + "}"
}

func (b *Batch) storeCount(n int) {
	if n < 0 || n >= math.MaxInt32 {
		return
	}
	b.count.Store(int32(n) + 1)
}

// normalize copies offsets into ascending order without duplicates.
func normalize(offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}

	out := slices.Clone(offsets)
	if !isStrictlyAscending(out) {
		slices.Sort(out)
		out = slices.Compact(out)
	}
	return out
}

func isStrictlyAscending(s []int) bool {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return false
		}
	}
	return true
}
