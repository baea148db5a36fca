package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// ColumnReader is the four-operation decode contract every column type
// implements. The state machine is strict: StartStripe, then StartRowGroup,
// then alternating PrepareNextRead/ReadBlock pairs until the row group is
// consumed, then the next StartRowGroup or StartStripe.
//
// Streams bind lazily: StartRowGroup only records the sources, and nothing is
// opened until the first ReadBlock. PrepareNextRead calls without an
// intervening ReadBlock accumulate into a skip that the next ReadBlock
// translates, through the present stream, into physical stream skips.
type ColumnReader interface {
	// StartStripe resets all per-stripe derived state and marks the column
	// not yet open for this stripe.
	StartStripe(fileTimeZone *time.Location, encodings []ColumnEncoding, dictionarySources *StreamSources) error

	// StartRowGroup rebinds the reader's stream sources to the row group's
	// lazy sources without opening them.
	StartRowGroup(sources *StreamSources) error

	// PrepareNextRead records the size of the next batch without reading.
	PrepareNextRead(batchSize int)

	// ReadBlock materializes the prepared batch.
	ReadBlock() (*common.Block, error)
}

// NewColumnReader builds the decoder for one column, recursively constructing
// child decoders for composite types. storageTimeZone is the zone timestamps
// are adjusted into; nil means UTC.
func NewColumnReader(schema common.Schema, column common.ColumnID, storageTimeZone *time.Location) (ColumnReader, error) {
	if int(column) >= len(schema) {
		return nil, fmt.Errorf("column %d outside schema of %d columns", column, len(schema))
	}
	if storageTimeZone == nil {
		storageTimeZone = time.UTC
	}

	t := schema[column]
	switch t.Kind {
	case common.TypeBoolean:
		return newBooleanColumnReader(column), nil
	case common.TypeByte, common.TypeShort, common.TypeInt, common.TypeLong:
		return newLongColumnReader(column, t.Kind), nil
	case common.TypeFloat:
		return newFloatColumnReader(column, common.TypeFloat, 4), nil
	case common.TypeDouble:
		return newFloatColumnReader(column, common.TypeDouble, 8), nil
	case common.TypeString, common.TypeVarchar, common.TypeChar, common.TypeBinary:
		return newSliceColumnReader(column, t.Kind), nil
	case common.TypeTimestamp:
		return newTimestampColumnReader(column, storageTimeZone), nil
	case common.TypeDecimal:
		return newDecimalColumnReader(column, t.Scale), nil
	case common.TypeStruct:
		return newStructColumnReader(schema, column, storageTimeZone)
	case common.TypeList:
		return newListColumnReader(schema, column, storageTimeZone)
	case common.TypeMap:
		return newMapColumnReader(schema, column, storageTimeZone)
	default:
		return nil, fmt.Errorf("unsupported column type %s", t.Kind)
	}
}

// presentStream is the shared handling of the optional PRESENT stream: lazy
// open plus logical-to-physical skip translation.
type presentStream struct {
	column common.ColumnID
	source *StreamSource
	stream *BooleanStream
}

func (p *presentStream) startRowGroup(sources *StreamSources) {
	p.source = sources.Stream(p.column, common.StreamPresent)
	p.stream = nil
}

func (p *presentStream) open() error {
	if p.source == nil {
		p.stream = nil
		return nil
	}
	stream, err := p.source.OpenBoolean()
	if err != nil {
		return err
	}
	p.stream = stream
	return nil
}

// skip consumes n logical rows and returns how many of them were non-null,
// i.e. how many physical positions the value streams must skip.
func (p *presentStream) skip(n int) (int, error) {
	if p.stream == nil {
		return n, nil
	}
	return p.stream.CountSetBits(n)
}

// read fills nulls[:n] and returns the null count. With no present stream
// every position is non-null.
func (p *presentStream) read(n int, nulls []bool) (int, error) {
	if p.stream == nil {
		return 0, nil
	}
	return p.stream.GetUnsetBits(n, nulls)
}

func missingStreamError(source string, kind common.StreamKind) error {
	return common.Corruptionf(source, "value is not null but %s stream is missing", kind)
}
