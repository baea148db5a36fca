package orc

import (
	"bytes"
	"encoding/binary"

	"github.com/orcdb/orcdb/encoding/common"
)

// RowGroupIndexEntry is one row group's worth of a column's ROW_INDEX stream:
// checkpoints into each of the column's value streams plus the statistics the
// row-group selector prunes on.
//
// Checkpoints address bytes. Bit-packed streams (PRESENT, boolean DATA) are
// written with no alignment at row-group boundaries, so a group may start
// mid-byte; the bit offsets carry the 0-7 bits to discard after seeking.
type RowGroupIndexEntry struct {
	PresentCheckpoint   int64
	DataCheckpoint      int64
	LengthCheckpoint    int64
	SecondaryCheckpoint int64

	PresentBitOffset uint8
	DataBitOffset    uint8

	Statistics common.ColumnStatistics
}

/*
  row index wire format (after decompression, little endian), one fixed-width
  entry per row group:

  | i64 present ckpt | i64 data ckpt | i64 length ckpt | i64 secondary ckpt |
  | u8 presentBits | u8 dataBits |
  | u8 flags | i64 min | i64 max | u32 numValues | u32 nullCount | u64 totalBytes |

  flags bit 0: min/max populated
*/

const rowGroupIndexEntryLength = 8*4 + 2 + 1 + 8 + 8 + 4 + 4 + 8

const indexFlagHasMinMax = 0x1

func marshalRowGroupIndex(entries []RowGroupIndexEntry) []byte {
	buf := &bytes.Buffer{}
	for i := range entries {
		e := &entries[i]
		_ = binary.Write(buf, binary.LittleEndian, e.PresentCheckpoint)
		_ = binary.Write(buf, binary.LittleEndian, e.DataCheckpoint)
		_ = binary.Write(buf, binary.LittleEndian, e.LengthCheckpoint)
		_ = binary.Write(buf, binary.LittleEndian, e.SecondaryCheckpoint)
		buf.WriteByte(e.PresentBitOffset)
		buf.WriteByte(e.DataBitOffset)

		var flags byte
		var min, max int64
		if e.Statistics.Min != nil && e.Statistics.Max != nil {
			flags |= indexFlagHasMinMax
			min, max = *e.Statistics.Min, *e.Statistics.Max
		}
		buf.WriteByte(flags)
		_ = binary.Write(buf, binary.LittleEndian, min)
		_ = binary.Write(buf, binary.LittleEndian, max)
		_ = binary.Write(buf, binary.LittleEndian, uint32(e.Statistics.NumberOfValues))
		_ = binary.Write(buf, binary.LittleEndian, uint32(e.Statistics.NullCount))
		_ = binary.Write(buf, binary.LittleEndian, e.Statistics.TotalBytes)
	}
	return buf.Bytes()
}

// unmarshalRowGroupIndex decodes a column's ROW_INDEX stream. The entry count
// must match the stripe's row group count; the caller checks that.
func unmarshalRowGroupIndex(b []byte, source string) ([]RowGroupIndexEntry, error) {
	if len(b)%rowGroupIndexEntryLength != 0 {
		return nil, common.Corruptionf(source, "row index is an unexpected number of bytes %d", len(b))
	}

	entries := make([]RowGroupIndexEntry, len(b)/rowGroupIndexEntryLength)
	for i := range entries {
		e := &entries[i]
		e.PresentCheckpoint = int64(binary.LittleEndian.Uint64(b))
		e.DataCheckpoint = int64(binary.LittleEndian.Uint64(b[8:]))
		e.LengthCheckpoint = int64(binary.LittleEndian.Uint64(b[16:]))
		e.SecondaryCheckpoint = int64(binary.LittleEndian.Uint64(b[24:]))

		e.PresentBitOffset = b[32]
		e.DataBitOffset = b[33]
		if e.PresentBitOffset > 7 || e.DataBitOffset > 7 {
			return nil, common.Corruptionf(source, "row index bit offset out of range: present %d, data %d", e.PresentBitOffset, e.DataBitOffset)
		}

		flags := b[34]
		if flags&indexFlagHasMinMax != 0 {
			min := int64(binary.LittleEndian.Uint64(b[35:]))
			max := int64(binary.LittleEndian.Uint64(b[43:]))
			e.Statistics.Min = &min
			e.Statistics.Max = &max
		}
		e.Statistics.NumberOfValues = int64(binary.LittleEndian.Uint32(b[51:]))
		e.Statistics.NullCount = int64(binary.LittleEndian.Uint32(b[55:]))
		e.Statistics.TotalBytes = binary.LittleEndian.Uint64(b[59:])

		b = b[rowGroupIndexEntryLength:]
	}
	return entries, nil
}

// checkpointForStream returns the entry's checkpoint for the given stream kind.
func (e *RowGroupIndexEntry) checkpointForStream(kind common.StreamKind) int64 {
	switch kind {
	case common.StreamPresent:
		return e.PresentCheckpoint
	case common.StreamData:
		return e.DataCheckpoint
	case common.StreamLength:
		return e.LengthCheckpoint
	case common.StreamSecondary:
		return e.SecondaryCheckpoint
	}
	return 0
}

// bitOffsetForStream returns the sub-byte bit offset for streams a
// BooleanStream consumes. Byte-granular streams always return 0.
func (e *RowGroupIndexEntry) bitOffsetForStream(kind common.StreamKind) int {
	switch kind {
	case common.StreamPresent:
		return int(e.PresentBitOffset)
	case common.StreamData:
		return int(e.DataBitOffset)
	}
	return 0
}

// validateCheckpoint confirms a decoded checkpoint can possibly point inside
// a stream of the given length under the given compression mode. A failure
// here is what triggers the whole-stripe fallback.
func validateCheckpoint(checkpoint int64, streamLength uint64, compressed bool, source string) error {
	blockOffset, decompressedOffset := DecodeCheckpoint(checkpoint)
	if blockOffset < 0 || decompressedOffset < 0 {
		return common.Corruptionf(source, "negative checkpoint %d", checkpoint)
	}
	if !compressed {
		if blockOffset != 0 {
			return common.Corruptionf(source, "checkpoint block offset %d in uncompressed stream", blockOffset)
		}
		if uint64(decompressedOffset) > streamLength {
			return common.Corruptionf(source, "checkpoint offset %d past end of %d byte stream", decompressedOffset, streamLength)
		}
		return nil
	}
	if uint64(blockOffset) > streamLength {
		return common.Corruptionf(source, "checkpoint block offset %d past end of %d byte stream", blockOffset, streamLength)
	}
	return nil
}
