package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// floatColumnReader decodes float and double columns: an optional PRESENT
// stream plus a fixed-width little-endian IEEE754 DATA stream.
type floatColumnReader struct {
	column common.ColumnID
	kind   common.TypeKind
	width  int

	readOffset    int
	nextBatchSize int

	present    presentStream
	dataSource *StreamSource
	data       *FloatStream

	rowGroupOpen bool
}

func newFloatColumnReader(column common.ColumnID, kind common.TypeKind, width int) *floatColumnReader {
	return &floatColumnReader{
		column:  column,
		kind:    kind,
		width:   width,
		present: presentStream{column: column},
	}
}

func (r *floatColumnReader) StartStripe(*time.Location, []ColumnEncoding, *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.data = nil
	r.rowGroupOpen = false
	return nil
}

func (r *floatColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.data = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *floatColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *floatColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}
	if r.dataSource != nil {
		loader, err := r.dataSource.Open()
		if err != nil {
			return err
		}
		r.data = NewFloatStream(loader, r.width)
	}
	r.rowGroupOpen = true
	return nil
}

func (r *floatColumnReader) ReadBlock() (*common.Block, error) {
	if !r.rowGroupOpen {
		err := r.openRowGroup()
		if err != nil {
			return nil, err
		}
	}

	if r.readOffset > 0 {
		dataSkip, err := r.present.skip(r.readOffset)
		if err != nil {
			return nil, err
		}
		if dataSkip > 0 {
			if r.data == nil {
				return nil, missingStreamError(r.source(), common.StreamData)
			}
			err = r.data.Skip(dataSkip)
			if err != nil {
				return nil, err
			}
		}
	}

	n := r.nextBatchSize
	block := &common.Block{Kind: r.kind, NumValues: n}

	if n > 0 {
		nonNull := n
		if r.present.stream != nil {
			nulls := make([]bool, n)
			nullCount, err := r.present.read(n, nulls)
			if err != nil {
				return nil, err
			}
			if nullCount > 0 {
				block.Nulls = nulls
			}
			nonNull = n - nullCount
		}

		if nonNull > 0 {
			if r.data == nil {
				return nil, missingStreamError(r.source(), common.StreamData)
			}
			block.Float64s = make([]float64, nonNull)
			for i := 0; i < nonNull; i++ {
				v, err := r.data.Next()
				if err != nil {
					return nil, err
				}
				block.Float64s[i] = v
			}
		}
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *floatColumnReader) source() string {
	return fmt.Sprintf("column %d (%s)", r.column, r.kind)
}
