package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// listColumnReader decodes list columns: an optional PRESENT stream plus an
// unsigned-varint LENGTH stream of per-row element counts; elements live in
// the owned child reader.
type listColumnReader struct {
	column  common.ColumnID
	element ColumnReader

	readOffset    int
	nextBatchSize int

	present      presentStream
	lengthSource *StreamSource
	lengths      *LongStream

	rowGroupOpen bool
}

func newListColumnReader(schema common.Schema, column common.ColumnID, storageTimeZone *time.Location) (*listColumnReader, error) {
	t := schema[column]
	if len(t.Children) != 1 {
		return nil, fmt.Errorf("list column %d has %d children, expected 1", column, len(t.Children))
	}
	element, err := NewColumnReader(schema, t.Children[0], storageTimeZone)
	if err != nil {
		return nil, err
	}

	return &listColumnReader{
		column:  column,
		element: element,
		present: presentStream{column: column},
	}, nil
}

func (r *listColumnReader) StartStripe(fileTimeZone *time.Location, encodings []ColumnEncoding, dictionarySources *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.lengthSource = nil
	r.lengths = nil
	r.rowGroupOpen = false
	return r.element.StartStripe(fileTimeZone, encodings, dictionarySources)
}

func (r *listColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.lengthSource = sources.Stream(r.column, common.StreamLength)
	r.lengths = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return r.element.StartRowGroup(sources)
}

func (r *listColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *listColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}
	if r.lengthSource != nil {
		loader, err := r.lengthSource.Open()
		if err != nil {
			return err
		}
		r.lengths = NewLongStream(loader, false)
	}
	r.rowGroupOpen = true
	return nil
}

func (r *listColumnReader) ReadBlock() (*common.Block, error) {
	if !r.rowGroupOpen {
		err := r.openRowGroup()
		if err != nil {
			return nil, err
		}
	}

	if r.readOffset > 0 {
		lengthSkip, err := r.present.skip(r.readOffset)
		if err != nil {
			return nil, err
		}
		elementSkip := int64(0)
		if lengthSkip > 0 {
			if r.lengths == nil {
				return nil, missingStreamError(r.source(), common.StreamLength)
			}
			elementSkip, err = r.lengths.SkipSum(lengthSkip)
			if err != nil {
				return nil, err
			}
		}
		r.element.PrepareNextRead(int(elementSkip))
	}

	n := r.nextBatchSize
	block := &common.Block{Kind: common.TypeList, NumValues: n}

	nonNull := n
	var nulls []bool
	if n > 0 && r.present.stream != nil {
		nulls = make([]bool, n)
		nullCount, err := r.present.read(n, nulls)
		if err != nil {
			return nil, err
		}
		if nullCount > 0 {
			block.Nulls = nulls
		}
		nonNull = n - nullCount
	}

	if nonNull > 0 && r.lengths == nil {
		return nil, missingStreamError(r.source(), common.StreamLength)
	}

	offsets := make([]int, n+1)
	total := 0
	for i := 0; i < n; i++ {
		if block.Nulls == nil || !block.Nulls[i] {
			length, err := r.lengths.Next()
			if err != nil {
				return nil, err
			}
			total += int(length)
		}
		offsets[i+1] = total
	}
	block.Offsets = offsets

	r.element.PrepareNextRead(total)
	child, err := r.element.ReadBlock()
	if err != nil {
		return nil, err
	}
	block.Children = []*common.Block{child}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *listColumnReader) source() string {
	return fmt.Sprintf("column %d (list)", r.column)
}
