package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// longColumnReader decodes byte, short, int and long columns: an optional
// PRESENT stream plus a zigzag-varint DATA stream.
type longColumnReader struct {
	column common.ColumnID
	kind   common.TypeKind

	readOffset    int
	nextBatchSize int

	present    presentStream
	dataSource *StreamSource
	data       *LongStream

	rowGroupOpen bool
}

func newLongColumnReader(column common.ColumnID, kind common.TypeKind) *longColumnReader {
	return &longColumnReader{
		column:  column,
		kind:    kind,
		present: presentStream{column: column},
	}
}

func (r *longColumnReader) StartStripe(*time.Location, []ColumnEncoding, *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.data = nil
	r.rowGroupOpen = false
	return nil
}

func (r *longColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.data = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *longColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *longColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}
	if r.dataSource != nil {
		loader, err := r.dataSource.Open()
		if err != nil {
			return err
		}
		r.data = NewLongStream(loader, true)
	}
	r.rowGroupOpen = true
	return nil
}

func (r *longColumnReader) ReadBlock() (*common.Block, error) {
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
			block.Int64s = make([]int64, nonNull)
			err := r.data.NextInts(nonNull, block.Int64s)
			if err != nil {
				return nil, err
			}
		}
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *longColumnReader) source() string {
	return fmt.Sprintf("column %d (%s)", r.column, r.kind)
}
