package orc

import (
	"time"

	"github.com/orcdb/orcdb/encoding/common"
	"github.com/orcdb/orcdb/pkg/memory"
)

// StreamSource is a deferred handle to one stream of one row group: the raw
// stream bytes plus the checkpoint of the row group's first value. Nothing is
// decompressed until Open; column readers bind sources at StartRowGroup and
// open them on the first ReadBlock.
type StreamSource struct {
	id         common.StreamID
	source     string
	data       []byte
	pool       ReaderPool
	checkpoint int64

	// bitOffset is the 0-7 bits to discard after seeking, for streams read
	// through a BooleanStream. Byte-granular consumers ignore it.
	bitOffset int

	mem *memory.AggregatedContext
}

func newStreamSource(id common.StreamID, source string, data []byte, pool ReaderPool, checkpoint int64, bitOffset int, mem *memory.AggregatedContext) *StreamSource {
	return &StreamSource{
		id:         id,
		source:     source,
		data:       data,
		pool:       pool,
		checkpoint: checkpoint,
		bitOffset:  bitOffset,
		mem:        mem,
	}
}

// Open yields a cursor positioned at the source's checkpoint.
func (s *StreamSource) Open() (*ChunkLoader, error) {
	var local *memory.LocalContext
	if s.mem != nil {
		local = s.mem.NewLocalContext()
	}
	loader := NewChunkLoader(s.source, s.data, s.pool, local)
	if s.checkpoint != 0 {
		_, err := loader.SeekToCheckpoint(s.checkpoint)
		if err != nil {
			return nil, err
		}
	}
	return loader, nil
}

// OpenBoolean yields a bit cursor positioned at the source's checkpoint,
// including the sub-byte bit offset.
func (s *StreamSource) OpenBoolean() (*BooleanStream, error) {
	loader, err := s.Open()
	if err != nil {
		return nil, err
	}
	stream := NewBooleanStream(loader)
	if s.bitOffset > 0 {
		err = stream.Skip(s.bitOffset)
		if err != nil {
			return nil, err
		}
	}
	return stream, nil
}

// StreamSources maps (column, kind) to a lazily openable stream for one row
// group (or, for dictionary sources, one stripe).
type StreamSources struct {
	sources map[common.StreamID]*StreamSource
}

func newStreamSources(sources map[common.StreamID]*StreamSource) *StreamSources {
	return &StreamSources{sources: sources}
}

// Stream returns the source for (column, kind), or nil when the stripe
// declared no such stream. A nil result for a stream the data requires is a
// corruption the column reader reports.
func (s *StreamSources) Stream(column common.ColumnID, kind common.StreamKind) *StreamSource {
	if s == nil {
		return nil
	}
	return s.sources[common.StreamID{Column: column, Kind: kind}]
}

// RowGroup is one bounded decode unit within a stripe.
type RowGroup struct {
	GroupID   int
	RowOffset uint64
	RowCount  uint64

	// MinAverageRowBytes estimates the encoded bytes of one row, summed from
	// the per-column statistics that were available.
	MinAverageRowBytes uint64

	StreamSources *StreamSources
}

// Stripe is the result of one stripe read: everything the column-batch
// materialization layer needs to decode the selected row groups. Immutable
// once returned; owned by the caller until the next stripe is requested.
type Stripe struct {
	RowCount        uint64
	FileTimeZone    *time.Location
	StorageTimeZone *time.Location
	Encodings       []ColumnEncoding
	RowGroups       []RowGroup

	// DictionarySources are stripe-scoped: dictionaries are shared by every
	// row group in the stripe.
	DictionarySources *StreamSources
}
