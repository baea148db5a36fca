package common

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCorruptionErrorIs(t *testing.T) {
	err := Corruptionf("file abc stripe @0", "chunk length %d exceeds remaining %d bytes", 100, 10)

	assert.ErrorIs(t, err, ErrCorruption)
	assert.Contains(t, err.Error(), "file abc stripe @0")
	assert.Contains(t, err.Error(), "chunk length 100")

	// corruption survives wrapping
	wrapped := errors.Wrap(err, "reading stream")
	assert.ErrorIs(t, wrapped, ErrCorruption)

	assert.NotErrorIs(t, errors.New("other"), ErrCorruption)
}

func TestAverageBytesPerValue(t *testing.T) {
	s := &ColumnStatistics{NumberOfValues: 10, TotalBytes: 105}
	assert.Equal(t, uint64(10), s.AverageBytesPerValue())

	assert.Equal(t, uint64(0), (&ColumnStatistics{}).AverageBytesPerValue())
	assert.Equal(t, uint64(0), (*ColumnStatistics)(nil).AverageBytesPerValue())
}

func TestStreamKindString(t *testing.T) {
	assert.Equal(t, "PRESENT", StreamPresent.String())
	assert.Equal(t, "DICTIONARY_DATA", StreamDictionaryData.String())
	assert.Equal(t, "UNKNOWN(99)", StreamKind(99).String())
}

func TestStreamKindIsIndex(t *testing.T) {
	assert.True(t, StreamRowIndex.IsIndex())
	assert.True(t, StreamBloomFilter.IsIndex())
	assert.True(t, StreamBloomFilterUTF8.IsIndex())
	assert.False(t, StreamData.IsIndex())
	assert.False(t, StreamPresent.IsIndex())
}

func TestDiskRangeEnd(t *testing.T) {
	assert.Equal(t, uint64(15), DiskRange{Offset: 10, Length: 5}.End())
}
