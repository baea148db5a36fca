package orc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcdb/orcdb/encoding/common"
)

func TestParseNanos(t *testing.T) {
	// a non-zero 3-bit trailing-zeros count z restores value * 10^(z+1)
	assert.Equal(t, int64(0), parseNanos(0))
	assert.Equal(t, int64(1), parseNanos(1<<3))
	assert.Equal(t, int64(999_999_999), parseNanos(999_999_999<<3))
	assert.Equal(t, int64(500_000_000), parseNanos(5<<3|7))
	assert.Equal(t, int64(100), parseNanos(1<<3|1))
	assert.Equal(t, int64(123_456_000), parseNanos(123_456<<3|2))
}

func TestDecodeTimestamp(t *testing.T) {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	millis, err := decodeTimestamp(0, 0, base, "test")
	require.NoError(t, err)
	assert.Equal(t, base*1000, millis)

	millis, err = decodeTimestamp(1, 5<<3|7, base, "test")
	require.NoError(t, err)
	assert.Equal(t, (base+1)*1000+500, millis)

	// whole seconds before the base epoch need no correction
	millis, err = decodeTimestamp(-base-1, 0, base, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), millis)
}

func TestDecodeTimestampNegativeFloors(t *testing.T) {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	// negative values with a fractional part are corrected by a full second
	// before the nano contribution is added, flooring instead of truncating
	millis, err := decodeTimestamp(-base-1, 75<<3|6, base, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(-2000+750), millis)
}

func TestDecodeTimestampNanosOutOfRange(t *testing.T) {
	_, err := decodeTimestamp(0, 1_000_000_000<<3, 0, "test")
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestConvertTimeZone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	// 2015-01-01 00:00 written in Denver (UTC-7) read into UTC moves back 7h
	millis := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	converted := convertTimeZone(millis, denver, time.UTC)
	assert.Equal(t, millis-7*3600*1000, converted)

	// converting between identical zones is the identity
	assert.Equal(t, millis, convertTimeZone(millis, time.UTC, time.UTC))
}

func TestUTCEquivalent(t *testing.T) {
	assert.True(t, utcEquivalent(time.UTC))

	gmt, err := time.LoadLocation("Etc/GMT")
	require.NoError(t, err)
	assert.True(t, utcEquivalent(gmt))

	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	assert.False(t, utcEquivalent(denver))
}

func TestTimestampColumnReader(t *testing.T) {
	reader, err := NewColumnReader(common.Schema{{Kind: common.TypeTimestamp}}, 0, time.UTC)
	require.NoError(t, err)
	require.NoError(t, reader.StartStripe(time.UTC, nil, nil))

	sources := rawSources(map[common.StreamID][]byte{
		{Column: 0, Kind: common.StreamPresent}:   packBits(true, false, true),
		{Column: 0, Kind: common.StreamData}:      zigzags(1, 2),
		{Column: 0, Kind: common.StreamSecondary}: uvarints(uint64(5<<3|7), 0),
	})
	require.NoError(t, reader.StartRowGroup(sources))

	reader.PrepareNextRead(3)
	block, err := reader.ReadBlock()
	require.NoError(t, err)

	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, []bool{false, true, false}, block.Nulls)
	assert.Equal(t, []int64{(base + 1) * 1000 + 500, (base + 2) * 1000}, block.Int64s)
}

// nulls consume no positions in the DATA and SECONDARY streams, so a batch of
// n rows with k nulls reads exactly n-k pairs.
func TestTimestampColumnReaderNullAccounting(t *testing.T) {
	reader, err := NewColumnReader(common.Schema{{Kind: common.TypeTimestamp}}, 0, time.UTC)
	require.NoError(t, err)
	require.NoError(t, reader.StartStripe(time.UTC, nil, nil))

	// exactly two encoded values for five rows
	sources := rawSources(map[common.StreamID][]byte{
		{Column: 0, Kind: common.StreamPresent}:   packBits(false, true, false, true, false),
		{Column: 0, Kind: common.StreamData}:      zigzags(10, 20),
		{Column: 0, Kind: common.StreamSecondary}: uvarints(0, 0),
	})
	require.NoError(t, reader.StartRowGroup(sources))

	reader.PrepareNextRead(5)
	block, err := reader.ReadBlock()
	require.NoError(t, err)
	require.Len(t, block.Int64s, 2)
}

func TestTimestampColumnReaderZoneConversion(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	reader, err := NewColumnReader(common.Schema{{Kind: common.TypeTimestamp}}, 0, time.UTC)
	require.NoError(t, err)
	require.NoError(t, reader.StartStripe(denver, nil, nil))

	sources := rawSources(map[common.StreamID][]byte{
		{Column: 0, Kind: common.StreamData}:      zigzags(0),
		{Column: 0, Kind: common.StreamSecondary}: uvarints(0),
	})
	require.NoError(t, reader.StartRowGroup(sources))

	reader.PrepareNextRead(1)
	block, err := reader.ReadBlock()
	require.NoError(t, err)

	// the base epoch itself is zone-relative: 2015-01-01 00:00 in Denver
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, denver).UnixMilli()
	assert.Equal(t, []int64{base - 7*3600*1000}, block.Int64s)
}
