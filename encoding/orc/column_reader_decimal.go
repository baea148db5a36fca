package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// decimalColumnReader decodes short-form decimals: the DATA stream carries
// zigzag-varint unscaled values and the scale is fixed by the schema.
type decimalColumnReader struct {
	column common.ColumnID
	scale  int32

	readOffset    int
	nextBatchSize int

	present    presentStream
	dataSource *StreamSource
	data       *LongStream

	rowGroupOpen bool
}

func newDecimalColumnReader(column common.ColumnID, scale int32) *decimalColumnReader {
	return &decimalColumnReader{
		column:  column,
		scale:   scale,
		present: presentStream{column: column},
	}
}

func (r *decimalColumnReader) StartStripe(*time.Location, []ColumnEncoding, *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.data = nil
	r.rowGroupOpen = false
	return nil
}

func (r *decimalColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.data = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *decimalColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *decimalColumnReader) openRowGroup() error {
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

func (r *decimalColumnReader) ReadBlock() (*common.Block, error) {
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
	block := &common.Block{Kind: common.TypeDecimal, NumValues: n}

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

func (r *decimalColumnReader) source() string {
	return fmt.Sprintf("column %d (decimal scale %d)", r.column, r.scale)
}
