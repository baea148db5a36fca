package common

import (
	"github.com/willf/bloom"
)

// ColumnStatistics summarizes one column over one row group (or, in the
// stripe footer, over the whole stripe). Min/Max are integer statistics and
// are nil for types that do not record them.
type ColumnStatistics struct {
	NumberOfValues int64
	NullCount      int64
	Min            *int64
	Max            *int64
	TotalBytes     uint64

	// Bloom is attached post-hoc from a BLOOM_FILTER_UTF8 (preferred) or
	// BLOOM_FILTER stream when one exists for the column.
	Bloom *bloom.BloomFilter
}

// AverageBytesPerValue estimates the encoded size of one value.
func (s *ColumnStatistics) AverageBytesPerValue() uint64 {
	if s == nil || s.NumberOfValues <= 0 {
		return 0
	}
	return s.TotalBytes / uint64(s.NumberOfValues)
}

// Predicate is the pushdown contract. Implementations receive the number of
// rows in the candidate row group and one statistics entry per column
// ordinal; entries are nil for columns with no statistics (excluded columns).
// Returning false prunes the row group.
type Predicate interface {
	Matches(rowCount int64, stats []*ColumnStatistics) bool
}

// MatchAll is the no-pushdown predicate.
type MatchAll struct{}

func (MatchAll) Matches(int64, []*ColumnStatistics) bool { return true }
