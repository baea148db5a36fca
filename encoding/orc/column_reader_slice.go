package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// sliceColumnReader decodes the string family (string, varchar, char) and
// binary columns. Direct encoding reads raw bytes from DATA sized by LENGTH;
// dictionary encoding reads uvarint indexes from DATA into a stripe-scoped
// dictionary built from DICTIONARY_DATA and its LENGTH stream.
type sliceColumnReader struct {
	column common.ColumnID
	kind   common.TypeKind

	// per-stripe state
	encoding          ColumnEncoding
	dictionarySources *StreamSources
	dictionary        [][]byte
	dictionaryLoaded  bool

	readOffset    int
	nextBatchSize int

	present      presentStream
	dataSource   *StreamSource
	lengthSource *StreamSource
	data         *ByteArrayStream
	indexes      *LongStream
	lengths      *LongStream

	rowGroupOpen bool
}

func newSliceColumnReader(column common.ColumnID, kind common.TypeKind) *sliceColumnReader {
	return &sliceColumnReader{
		column:  column,
		kind:    kind,
		present: presentStream{column: column},
	}
}

func (r *sliceColumnReader) StartStripe(_ *time.Location, encodings []ColumnEncoding, dictionarySources *StreamSources) error {
	r.encoding = ColumnEncoding{}
	if int(r.column) < len(encodings) {
		r.encoding = encodings[r.column]
	}
	r.dictionarySources = dictionarySources
	r.dictionary = nil
	r.dictionaryLoaded = false

	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.lengthSource = nil
	r.data = nil
	r.indexes = nil
	r.lengths = nil
	r.rowGroupOpen = false
	return nil
}

func (r *sliceColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.lengthSource = sources.Stream(r.column, common.StreamLength)
	r.data = nil
	r.indexes = nil
	r.lengths = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *sliceColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *sliceColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}

	if r.encoding.Kind == EncodingDictionary {
		err = r.loadDictionary()
		if err != nil {
			return err
		}
		if r.dataSource != nil {
			loader, err := r.dataSource.Open()
			if err != nil {
				return err
			}
			r.indexes = NewLongStream(loader, false)
		}
	} else {
		if r.dataSource != nil {
			loader, err := r.dataSource.Open()
			if err != nil {
				return err
			}
			r.data = NewByteArrayStream(loader)
		}
		if r.lengthSource != nil {
			loader, err := r.lengthSource.Open()
			if err != nil {
				return err
			}
			r.lengths = NewLongStream(loader, false)
		}
	}

	r.rowGroupOpen = true
	return nil
}

// loadDictionary materializes the stripe's dictionary once; later row groups
// of the same stripe reuse it.
func (r *sliceColumnReader) loadDictionary() error {
	if r.dictionaryLoaded {
		return nil
	}

	size := int(r.encoding.DictionarySize)
	r.dictionary = make([][]byte, 0, size)
	if size > 0 {
		dataSource := r.dictionarySources.Stream(r.column, common.StreamDictionaryData)
		lengthSource := r.dictionarySources.Stream(r.column, common.StreamLength)
		if dataSource == nil {
			return missingStreamError(r.source(), common.StreamDictionaryData)
		}
		if lengthSource == nil {
			return missingStreamError(r.source(), common.StreamLength)
		}

		dataLoader, err := dataSource.Open()
		if err != nil {
			return err
		}
		lengthLoader, err := lengthSource.Open()
		if err != nil {
			return err
		}
		data := NewByteArrayStream(dataLoader)
		lengths := NewLongStream(lengthLoader, false)

		for i := 0; i < size; i++ {
			length, err := lengths.Next()
			if err != nil {
				return err
			}
			entry, err := data.Next(int(length))
			if err != nil {
				return err
			}
			r.dictionary = append(r.dictionary, entry)
		}
	}

	r.dictionaryLoaded = true
	return nil
}

func (r *sliceColumnReader) ReadBlock() (*common.Block, error) {
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
			err = r.skipValues(dataSkip)
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
			values, err := r.readValues(nonNull)
			if err != nil {
				return nil, err
			}
			block.Bytes = values
		}
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

func (r *sliceColumnReader) skipValues(n int) error {
	if r.encoding.Kind == EncodingDictionary {
		if r.indexes == nil {
			return missingStreamError(r.source(), common.StreamData)
		}
		return r.indexes.Skip(n)
	}

	if r.lengths == nil {
		return missingStreamError(r.source(), common.StreamLength)
	}
	skipBytes, err := r.lengths.SkipSum(n)
	if err != nil {
		return err
	}
	if skipBytes > 0 {
		if r.data == nil {
			return missingStreamError(r.source(), common.StreamData)
		}
		return r.data.Skip(skipBytes)
	}
	return nil
}

func (r *sliceColumnReader) readValues(n int) ([][]byte, error) {
	values := make([][]byte, n)

	if r.encoding.Kind == EncodingDictionary {
		if r.indexes == nil {
			return nil, missingStreamError(r.source(), common.StreamData)
		}
		for i := 0; i < n; i++ {
			index, err := r.indexes.Next()
			if err != nil {
				return nil, err
			}
			if index < 0 || index >= int64(len(r.dictionary)) {
				return nil, common.Corruptionf(r.source(), "dictionary index %d outside dictionary of %d entries", index, len(r.dictionary))
			}
			values[i] = r.dictionary[index]
		}
		return values, nil
	}

	if r.lengths == nil {
		return nil, missingStreamError(r.source(), common.StreamLength)
	}
	for i := 0; i < n; i++ {
		length, err := r.lengths.Next()
		if err != nil {
			return nil, err
		}
		if length > 0 {
			if r.data == nil {
				return nil, missingStreamError(r.source(), common.StreamData)
			}
			values[i], err = r.data.Next(int(length))
			if err != nil {
				return nil, err
			}
		} else {
			values[i] = []byte{}
		}
	}
	return values, nil
}

func (r *sliceColumnReader) source() string {
	return fmt.Sprintf("column %d (%s)", r.column, r.kind)
}
