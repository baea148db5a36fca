package orc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcdb/orcdb/encoding/common"
)

func TestStreamDiskRanges(t *testing.T) {
	streams := []*Stream{
		{Column: 0, Kind: common.StreamRowIndex, Length: 10},
		{Column: 1, Kind: common.StreamPresent, Length: 0},
		{Column: 1, Kind: common.StreamData, Length: 30},
		{Column: 2, Kind: common.StreamData, Length: 5},
	}

	ranges := streamDiskRanges(streams, func(*Stream) bool { return true })

	// zero-length streams get no range but still advance the offset
	assert.Len(t, ranges, 3)
	assert.Equal(t, common.DiskRange{Offset: 0, Length: 10}, ranges[common.StreamID{Column: 0, Kind: common.StreamRowIndex}])
	assert.Equal(t, common.DiskRange{Offset: 10, Length: 30}, ranges[common.StreamID{Column: 1, Kind: common.StreamData}])
	assert.Equal(t, common.DiskRange{Offset: 40, Length: 5}, ranges[common.StreamID{Column: 2, Kind: common.StreamData}])
}

func TestStreamDiskRangesExcluded(t *testing.T) {
	streams := []*Stream{
		{Column: 0, Kind: common.StreamData, Length: 10},
		{Column: 1, Kind: common.StreamData, Length: 20},
	}

	ranges := streamDiskRanges(streams, func(s *Stream) bool { return s.Column == 1 })

	// excluded streams still contribute to the running offset
	assert.Len(t, ranges, 1)
	assert.Equal(t, common.DiskRange{Offset: 10, Length: 20}, ranges[common.StreamID{Column: 1, Kind: common.StreamData}])
}

func TestIncludedColumns(t *testing.T) {
	schema := common.Schema{
		{Kind: common.TypeStruct, Children: []common.ColumnID{1, 2, 4}},
		{Kind: common.TypeLong},
		{Kind: common.TypeList, Children: []common.ColumnID{3}},
		{Kind: common.TypeString},
		{Kind: common.TypeDouble},
	}

	include := includedColumns(schema, []common.ColumnID{2})
	assert.Equal(t, map[common.ColumnID]struct{}{2: {}, 3: {}}, include)

	include = includedColumns(schema, []common.ColumnID{0})
	assert.Len(t, include, 5)
}

func TestIsSupportedStreamType(t *testing.T) {
	legacy := &Stream{Kind: common.StreamBloomFilter}
	utf8 := &Stream{Kind: common.StreamBloomFilterUTF8}
	data := &Stream{Kind: common.StreamData}

	assert.True(t, isSupportedStreamType(legacy, common.TypeLong))
	assert.False(t, isSupportedStreamType(legacy, common.TypeString))
	assert.False(t, isSupportedStreamType(legacy, common.TypeVarchar))
	assert.False(t, isSupportedStreamType(legacy, common.TypeChar))
	assert.False(t, isSupportedStreamType(legacy, common.TypeTimestamp))

	assert.True(t, isSupportedStreamType(utf8, common.TypeString))
	assert.False(t, isSupportedStreamType(utf8, common.TypeChar))

	assert.True(t, isSupportedStreamType(data, common.TypeChar))
}

func TestIsDictionaryStream(t *testing.T) {
	encodings := []ColumnEncoding{
		{Kind: EncodingDirect},
		{Kind: EncodingDictionary, DictionarySize: 4},
	}

	assert.True(t, isDictionaryStream(&Stream{Column: 0, Kind: common.StreamDictionaryData}, encodings))
	assert.True(t, isDictionaryStream(&Stream{Column: 1, Kind: common.StreamLength}, encodings))
	assert.False(t, isDictionaryStream(&Stream{Column: 0, Kind: common.StreamLength}, encodings))
	assert.False(t, isDictionaryStream(&Stream{Column: 1, Kind: common.StreamData}, encodings))
}
