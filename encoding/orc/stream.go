package orc

import (
	"github.com/orcdb/orcdb/encoding/common"
)

// Stream is one physical byte sequence declared by a stripe footer. Its
// offset within the stripe is implicit: streams are laid out back to back in
// declaration order, index streams first.
type Stream struct {
	Column common.ColumnID
	Kind   common.StreamKind
	Length uint64
}

func (s *Stream) ID() common.StreamID {
	return common.StreamID{Column: s.Column, Kind: s.Kind}
}

// streamDiskRanges walks streams in declaration order accumulating a running
// offset relative to the stripe start, and returns ranges for the streams
// include accepts. Zero-length streams get no disk range and thus no I/O, but
// every stream advances the offset.
func streamDiskRanges(streams []*Stream, include func(*Stream) bool) map[common.StreamID]common.DiskRange {
	ranges := make(map[common.StreamID]common.DiskRange)
	offset := uint64(0)
	for _, s := range streams {
		if s.Length > 0 && include(s) {
			ranges[s.ID()] = common.DiskRange{Offset: offset, Length: s.Length}
		}
		offset += s.Length
	}
	return ranges
}

// isSupportedStreamType gates streams before any I/O or decode is attempted.
// Legacy (non-UTF8) bloom filters hash string and timestamp values in a way
// this reader does not reproduce; UTF8 bloom filters cannot represent the
// padding of fixed-width char columns.
func isSupportedStreamType(stream *Stream, columnType common.TypeKind) bool {
	switch stream.Kind {
	case common.StreamBloomFilter:
		switch columnType {
		case common.TypeString, common.TypeVarchar, common.TypeChar, common.TypeTimestamp:
			return false
		}
		return true
	case common.StreamBloomFilterUTF8:
		return columnType != common.TypeChar
	}
	return true
}

// includedColumns flattens the requested root columns and all of their nested
// children into the full set of column ids whose streams must be fetched.
func includedColumns(schema common.Schema, columns []common.ColumnID) map[common.ColumnID]struct{} {
	include := make(map[common.ColumnID]struct{})
	var add func(id common.ColumnID)
	add = func(id common.ColumnID) {
		if _, ok := include[id]; ok {
			return
		}
		include[id] = struct{}{}
		if int(id) < len(schema) {
			for _, child := range schema[id].Children {
				add(child)
			}
		}
	}
	for _, id := range columns {
		add(id)
	}
	return include
}

// isDictionaryStream reports whether the stream belongs to the stripe-scoped
// dictionary set: DICTIONARY_DATA and DICTIONARY_COUNT always, plus the
// LENGTH stream of a dictionary-encoded column (it carries dictionary entry
// lengths there, not row lengths).
func isDictionaryStream(stream *Stream, encodings []ColumnEncoding) bool {
	switch stream.Kind {
	case common.StreamDictionaryData, common.StreamDictionaryCount:
		return true
	case common.StreamLength:
		return int(stream.Column) < len(encodings) && encodings[stream.Column].Kind == EncodingDictionary
	}
	return false
}
