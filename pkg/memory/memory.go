// Package memory provides coarse, high-water-mark accounting for the bytes a
// stripe read holds at once. Contexts are append-only while a read is in
// flight and are released in bulk when the owning scope closes. There is no
// fine-grained decrement protocol: the goal is bounding peak usage, not
// tracking instantaneous usage.
package memory

// AggregatedContext sums the reservations of all local contexts created from it.
// Not safe for concurrent use; a stripe read is single threaded.
type AggregatedContext struct {
	reserved int64
	peak     int64
}

func NewAggregatedContext() *AggregatedContext {
	return &AggregatedContext{}
}

// Reserved returns the bytes currently held across all child contexts.
func (a *AggregatedContext) Reserved() int64 {
	return a.reserved
}

// Peak returns the largest value Reserved has held since creation.
func (a *AggregatedContext) Peak() int64 {
	return a.peak
}

func (a *AggregatedContext) add(bytes int64) {
	a.reserved += bytes
	if a.reserved > a.peak {
		a.peak = a.reserved
	}
}

// NewLocalContext creates a child context whose reservations roll up into a.
func (a *AggregatedContext) NewLocalContext() *LocalContext {
	return &LocalContext{parent: a}
}

// LocalContext tracks the reservations of one component (e.g. one chunk
// loader). SetBytes may only grow the reservation; the held bytes are given
// back to the parent all at once by Close.
type LocalContext struct {
	parent *AggregatedContext
	bytes  int64
	closed bool
}

// SetBytes records that the owner now holds n bytes. Shrinking reservations
// are ignored, matching the reserve-high-water-mark policy.
func (l *LocalContext) SetBytes(n int64) {
	if l.closed || n <= l.bytes {
		return
	}
	l.parent.add(n - l.bytes)
	l.bytes = n
}

// Bytes returns the current reservation.
func (l *LocalContext) Bytes() int64 {
	return l.bytes
}

// Close releases the full reservation back to the parent.
func (l *LocalContext) Close() {
	if l.closed {
		return
	}
	l.parent.add(-l.bytes)
	l.bytes = 0
	l.closed = true
}
