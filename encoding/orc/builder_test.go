package orc

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/willf/bloom"

	"github.com/orcdb/orcdb/backend"
	"github.com/orcdb/orcdb/backend/local"
	"github.com/orcdb/orcdb/encoding/common"
)

// stripeBuilder assembles a complete on-disk stripe from per-row-group raw
// stream segments: it frames chunks, computes checkpoints, writes row indexes
// and bloom filter streams, and emits the footer. Tests hand the result to a
// StripeReader through a real backend.
type stripeBuilder struct {
	t              testing.TB
	pool           WriterPool
	rows           uint64
	rowsInRowGroup uint64
	numGroups      int

	timeZone  string
	encodings []ColumnEncoding

	dataStreams []*builderStream
	stats       map[common.ColumnID][]common.ColumnStatistics
	blooms      []*builderBloom

	// mutateIndex, when set, edits the computed index entries before they are
	// marshaled. Used to plant corrupt checkpoints.
	mutateIndex func(map[common.ColumnID][]RowGroupIndexEntry)
}

type builderStream struct {
	column   common.ColumnID
	kind     common.StreamKind
	segments [][]byte // byte-granular streams, one segment per row group
	bits     [][]bool // bit-packed streams, one bit run per row group
	dict     bool
}

// builderPosition is a stream position at a row group's first value.
type builderPosition struct {
	checkpoint int64
	bitOffset  uint8
}

type builderBloom struct {
	column  common.ColumnID
	kind    common.StreamKind
	filters []*bloom.BloomFilter
}

func newStripeBuilder(t testing.TB, compression Compression, rows, rowsInRowGroup uint64) *stripeBuilder {
	pool, err := getWriterPool(compression)
	require.NoError(t, err)
	return &stripeBuilder{
		t:              t,
		pool:           pool,
		rows:           rows,
		rowsInRowGroup: rowsInRowGroup,
		numGroups:      rowGroupCount(rows, rowsInRowGroup),
		stats:          map[common.ColumnID][]common.ColumnStatistics{},
	}
}

// addStream registers a row-group-segmented stream. One segment per row group.
func (b *stripeBuilder) addStream(column common.ColumnID, kind common.StreamKind, segments ...[]byte) {
	require.Len(b.t, segments, b.numGroups)
	b.dataStreams = append(b.dataStreams, &builderStream{column: column, kind: kind, segments: segments})
}

// addBitStream registers a bit-packed stream. Bits are laid out continuously
// with no alignment between row groups, exactly as a writer produces them.
func (b *stripeBuilder) addBitStream(column common.ColumnID, kind common.StreamKind, groups ...[]bool) {
	require.Len(b.t, groups, b.numGroups)
	b.dataStreams = append(b.dataStreams, &builderStream{column: column, kind: kind, bits: groups})
}

// addDictionaryStream registers a stripe-scoped stream with no checkpoints.
func (b *stripeBuilder) addDictionaryStream(column common.ColumnID, kind common.StreamKind, data []byte) {
	b.dataStreams = append(b.dataStreams, &builderStream{column: column, kind: kind, segments: [][]byte{data}, dict: true})
}

func (b *stripeBuilder) setStats(column common.ColumnID, stats []common.ColumnStatistics) {
	require.Len(b.t, stats, b.numGroups)
	b.stats[column] = stats
}

func (b *stripeBuilder) addBloom(column common.ColumnID, kind common.StreamKind, filters []*bloom.BloomFilter) {
	require.Len(b.t, filters, b.numGroups)
	b.blooms = append(b.blooms, &builderBloom{column: column, kind: kind, filters: filters})
}

// build lays the stripe out at the given absolute offset and returns its raw
// bytes plus the directory entry a file tail would carry for it.
func (b *stripeBuilder) build(offset uint64) ([]byte, StripeInformation) {
	type encodedStream struct {
		stream    *Stream
		data      []byte
		positions []builderPosition
	}

	// encode the data region and record per-group positions
	var encoded []*encodedStream
	positions := map[common.StreamID][]builderPosition{}
	for _, s := range b.dataStreams {
		e := &encodedStream{stream: &Stream{Column: s.column, Kind: s.kind}}
		switch {
		case s.bits != nil:
			// pack the whole stream, then point each group at its first bit
			var all []bool
			for _, group := range s.bits {
				e.positions = append(e.positions, builderPosition{
					checkpoint: EncodeCheckpoint(0, len(all)/8),
					bitOffset:  uint8(len(all) % 8),
				})
				all = append(all, group...)
			}
			e.data = frameChunk(b.t, b.pool, packBits(all...))
		default:
			for _, segment := range s.segments {
				if b.pool == nil {
					e.positions = append(e.positions, builderPosition{checkpoint: EncodeCheckpoint(0, len(e.data))})
					e.data = append(e.data, segment...)
				} else {
					e.positions = append(e.positions, builderPosition{checkpoint: EncodeCheckpoint(len(e.data), 0)})
					e.data = append(e.data, frameChunk(b.t, b.pool, segment)...)
				}
			}
		}
		e.stream.Length = uint64(len(e.data))
		encoded = append(encoded, e)
		if !s.dict {
			positions[e.stream.ID()] = e.positions
		}
	}

	indexes := b.buildIndexEntries(positions)
	if b.mutateIndex != nil {
		b.mutateIndex(indexes)
	}

	// index region: one ROW_INDEX per indexed column, then bloom streams
	var indexStreams []*encodedStream
	for column := common.ColumnID(0); int(column) < len(b.encodings); column++ {
		entries, ok := indexes[column]
		if !ok {
			continue
		}
		data := frameChunk(b.t, b.pool, marshalRowGroupIndex(entries))
		indexStreams = append(indexStreams, &encodedStream{
			stream: &Stream{Column: column, Kind: common.StreamRowIndex, Length: uint64(len(data))},
			data:   data,
		})
	}
	for _, bf := range b.blooms {
		raw, err := marshalBloomFilterStream(bf.filters)
		require.NoError(b.t, err)
		data := frameChunk(b.t, b.pool, raw)
		indexStreams = append(indexStreams, &encodedStream{
			stream: &Stream{Column: bf.column, Kind: bf.kind, Length: uint64(len(data))},
			data:   data,
		})
	}

	footer := &StripeFooter{
		TimeZone:  b.timeZone,
		Encodings: b.encodings,
	}
	stripe := &bytes.Buffer{}
	indexLength := uint64(0)
	for _, e := range indexStreams {
		footer.Streams = append(footer.Streams, e.stream)
		stripe.Write(e.data)
		indexLength += uint64(len(e.data))
	}
	dataLength := uint64(0)
	for _, e := range encoded {
		footer.Streams = append(footer.Streams, e.stream)
		stripe.Write(e.data)
		dataLength += uint64(len(e.data))
	}
	footerData := frameChunk(b.t, b.pool, marshalStripeFooter(footer))
	stripe.Write(footerData)

	return stripe.Bytes(), StripeInformation{
		Offset:       offset,
		IndexLength:  indexLength,
		DataLength:   dataLength,
		FooterLength: uint64(len(footerData)),
		NumberOfRows: b.rows,
	}
}

func (b *stripeBuilder) buildIndexEntries(positions map[common.StreamID][]builderPosition) map[common.ColumnID][]RowGroupIndexEntry {
	indexes := map[common.ColumnID][]RowGroupIndexEntry{}

	for id, pos := range positions {
		entries, ok := indexes[id.Column]
		if !ok {
			entries = make([]RowGroupIndexEntry, b.numGroups)
			remaining := b.rows
			for g := range entries {
				rows := b.rowsInRowGroup
				if remaining < rows {
					rows = remaining
				}
				remaining -= rows
				entries[g].Statistics = common.ColumnStatistics{NumberOfValues: int64(rows)}
			}
			if stats, ok := b.stats[id.Column]; ok {
				for g := range entries {
					entries[g].Statistics = stats[g]
				}
			}
		}
		for g, p := range pos {
			switch id.Kind {
			case common.StreamPresent:
				entries[g].PresentCheckpoint = p.checkpoint
				entries[g].PresentBitOffset = p.bitOffset
			case common.StreamData:
				entries[g].DataCheckpoint = p.checkpoint
				entries[g].DataBitOffset = p.bitOffset
			case common.StreamLength:
				entries[g].LengthCheckpoint = p.checkpoint
			case common.StreamSecondary:
				entries[g].SecondaryCheckpoint = p.checkpoint
			}
		}
		indexes[id.Column] = entries
	}
	return indexes
}

// frameChunk wraps raw in a single framed chunk, or returns it untouched when
// the file is uncompressed.
func frameChunk(t testing.TB, pool WriterPool, raw []byte) []byte {
	if pool == nil {
		return raw
	}

	buf := &bytes.Buffer{}
	w, err := pool.GetWriter(buf)
	require.NoError(t, err)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	pool.PutWriter(w)

	return append(chunkHeader(buf.Len(), false), buf.Bytes()...)
}

func chunkHeader(length int, uncompressed bool) []byte {
	h := []byte{byte(length&0x7f) << 1, byte(length >> 7), byte(length >> 15)}
	if uncompressed {
		h[0] |= 1
	}
	return h
}

// packBits encodes booleans MSB first, padding the final byte with zeros.
func packBits(bits ...bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func zigzags(vals ...int64) []byte {
	var out []byte
	for _, v := range vals {
		out = binary.AppendVarint(out, v)
	}
	return out
}

func uvarints(vals ...uint64) []byte {
	var out []byte
	for _, v := range vals {
		out = binary.AppendUvarint(out, v)
	}
	return out
}

// writeTestFile places data in a local backend and returns a reader over it.
func writeTestFile(t testing.TB, data []byte) (backend.Reader, uuid.UUID) {
	r, w, err := local.New(&local.Config{Path: t.TempDir()})
	require.NoError(t, err)

	fileID := uuid.New()
	require.NoError(t, w.Write(context.Background(), fileID, data))
	t.Cleanup(r.Shutdown)
	return r, fileID
}

// rawSources wraps raw uncompressed stream bytes for driving column readers
// directly, without a stripe on disk.
func rawSources(streams map[common.StreamID][]byte) *StreamSources {
	sources := make(map[common.StreamID]*StreamSource, len(streams))
	for id, data := range streams {
		sources[id] = newStreamSource(id, "test stream "+id.String(), data, nil, 0, 0, nil)
	}
	return newStreamSources(sources)
}

func int64p(v int64) *int64 {
	return &v
}
