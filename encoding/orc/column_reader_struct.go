package orc

import (
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// structColumnReader decodes row-typed columns. The struct itself only owns a
// PRESENT stream; each non-null row fans out into one value per field reader.
// Fields produce exactly the count of non-null rows, so an entirely-null
// batch asks every field for an empty block.
type structColumnReader struct {
	column common.ColumnID
	fields []ColumnReader

	readOffset    int
	nextBatchSize int

	present presentStream

	rowGroupOpen bool
}

func newStructColumnReader(schema common.Schema, column common.ColumnID, storageTimeZone *time.Location) (*structColumnReader, error) {
	t := schema[column]
	fields := make([]ColumnReader, 0, len(t.Children))
	for _, child := range t.Children {
		field, err := NewColumnReader(schema, child, storageTimeZone)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	return &structColumnReader{
		column:  column,
		fields:  fields,
		present: presentStream{column: column},
	}, nil
}

func (r *structColumnReader) StartStripe(fileTimeZone *time.Location, encodings []ColumnEncoding, dictionarySources *StreamSources) error {
	r.present.source = nil
	r.present.stream = nil
	r.rowGroupOpen = false

	for _, field := range r.fields {
		err := field.StartStripe(fileTimeZone, encodings, dictionarySources)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *structColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false

	for _, field := range r.fields {
		err := field.StartRowGroup(sources)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *structColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *structColumnReader) ReadBlock() (*common.Block, error) {
	if !r.rowGroupOpen {
		err := r.present.open()
		if err != nil {
			return nil, err
		}
		r.rowGroupOpen = true
	}

	if r.readOffset > 0 {
		fieldSkip, err := r.present.skip(r.readOffset)
		if err != nil {
			return nil, err
		}
		// the skip is queued on each field and resolved by its next ReadBlock
		for _, field := range r.fields {
			field.PrepareNextRead(fieldSkip)
		}
	}

	n := r.nextBatchSize
	block := &common.Block{Kind: common.TypeStruct, NumValues: n}

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

	block.Children = make([]*common.Block, len(r.fields))
	for i, field := range r.fields {
		field.PrepareNextRead(nonNull)
		child, err := field.ReadBlock()
		if err != nil {
			return nil, err
		}
		block.Children[i] = child
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}
