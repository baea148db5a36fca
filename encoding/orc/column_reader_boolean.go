package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// booleanColumnReader decodes boolean columns: an optional PRESENT stream
// plus a bit-packed DATA stream.
type booleanColumnReader struct {
	column common.ColumnID

	readOffset    int
	nextBatchSize int

	present    presentStream
	dataSource *StreamSource
	data       *BooleanStream

	rowGroupOpen bool
}

func newBooleanColumnReader(column common.ColumnID) *booleanColumnReader {
	return &booleanColumnReader{
		column:  column,
		present: presentStream{column: column},
	}
}

func (r *booleanColumnReader) StartStripe(*time.Location, []ColumnEncoding, *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.data = nil
	r.rowGroupOpen = false
	return nil
}

func (r *booleanColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.data = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *booleanColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *booleanColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}
	if r.dataSource != nil {
		data, err := r.dataSource.OpenBoolean()
		if err != nil {
			return err
		}
		r.data = data
	}
	r.rowGroupOpen = true
	return nil
}

func (r *booleanColumnReader) ReadBlock() (*common.Block, error) {
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
	block := &common.Block{Kind: common.TypeBoolean, NumValues: n}

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
			for i := 0; i < nonNull; i++ {
				bit, err := r.data.NextBit()
				if err != nil {
					return nil, err
				}
				if bit {
					block.Int64s[i] = 1
				}
			}
		}
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *booleanColumnReader) source() string {
	return fmt.Sprintf("column %d (boolean)", r.column)
}
