package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// mapColumnReader decodes map columns exactly like lists, except each LENGTH
// entry counts key/value pairs and two child readers advance in lockstep.
type mapColumnReader struct {
	column common.ColumnID
	keys   ColumnReader
	values ColumnReader

	readOffset    int
	nextBatchSize int

	present      presentStream
	lengthSource *StreamSource
	lengths      *LongStream

	rowGroupOpen bool
}

func newMapColumnReader(schema common.Schema, column common.ColumnID, storageTimeZone *time.Location) (*mapColumnReader, error) {
	t := schema[column]
	if len(t.Children) != 2 {
		return nil, fmt.Errorf("map column %d has %d children, expected 2", column, len(t.Children))
	}
	keys, err := NewColumnReader(schema, t.Children[0], storageTimeZone)
	if err != nil {
		return nil, err
	}
	values, err := NewColumnReader(schema, t.Children[1], storageTimeZone)
	if err != nil {
		return nil, err
	}

	return &mapColumnReader{
		column:  column,
		keys:    keys,
		values:  values,
		present: presentStream{column: column},
	}, nil
}

func (r *mapColumnReader) StartStripe(fileTimeZone *time.Location, encodings []ColumnEncoding, dictionarySources *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.lengthSource = nil
	r.lengths = nil
	r.rowGroupOpen = false

	err := r.keys.StartStripe(fileTimeZone, encodings, dictionarySources)
	if err != nil {
		return err
	}
	return r.values.StartStripe(fileTimeZone, encodings, dictionarySources)
}

func (r *mapColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.lengthSource = sources.Stream(r.column, common.StreamLength)
	r.lengths = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false

	err := r.keys.StartRowGroup(sources)
	if err != nil {
		return err
	}
	return r.values.StartRowGroup(sources)
}

func (r *mapColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *mapColumnReader) openRowGroup() error {
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

func (r *mapColumnReader) ReadBlock() (*common.Block, error) {
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
		entrySkip := int64(0)
		if lengthSkip > 0 {
			if r.lengths == nil {
				return nil, missingStreamError(r.source(), common.StreamLength)
			}
			entrySkip, err = r.lengths.SkipSum(lengthSkip)
			if err != nil {
				return nil, err
			}
		}
		r.keys.PrepareNextRead(int(entrySkip))
		r.values.PrepareNextRead(int(entrySkip))
	}

	n := r.nextBatchSize
	block := &common.Block{Kind: common.TypeMap, NumValues: n}

	nonNull := n
	if n > 0 && r.present.stream != nil {
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

	r.keys.PrepareNextRead(total)
	keyBlock, err := r.keys.ReadBlock()
	if err != nil {
		return nil, err
	}
	r.values.PrepareNextRead(total)
	valueBlock, err := r.values.ReadBlock()
	if err != nil {
		return nil, err
	}
	block.Children = []*common.Block{keyBlock, valueBlock}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *mapColumnReader) source() string {
	return fmt.Sprintf("column %d (map)", r.column)
}
