package common

// Block is one materialized batch of column values. Exactly one of the typed
// slices is populated, chosen by Kind; composite kinds populate Children.
//
// Nulls is nil when every position is non-null. When set it has NumValues
// entries and the typed slice holds one element per non-null position in
// order; null positions consume no element.
type Block struct {
	Kind      TypeKind
	NumValues int
	Nulls     []bool

	Int64s   []int64  // boolean(0/1), byte, short, int, long, timestamp (epoch millis), decimal (unscaled)
	Float64s []float64
	Bytes    [][]byte // string family and binary

	// Offsets holds NumValues+1 child boundaries for list and map blocks.
	Offsets  []int
	Children []*Block // struct fields, list element, map key+value
}

// NullCount returns the number of null positions.
func (b *Block) NullCount() int {
	if b.Nulls == nil {
		return 0
	}
	n := 0
	for _, isNull := range b.Nulls {
		if isNull {
			n++
		}
	}
	return n
}

// IsNull reports whether position i is null.
func (b *Block) IsNull(i int) bool {
	return b.Nulls != nil && b.Nulls[i]
}
