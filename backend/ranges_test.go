package backend

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcdb/orcdb/encoding/common"
)

// memReader serves ranges out of one in-memory file and counts reads.
type memReader struct {
	data  []byte
	reads int
}

func (m *memReader) ReadRange(_ context.Context, _ uuid.UUID, offset uint64, buffer []byte) error {
	m.reads++
	if offset+uint64(len(buffer)) > uint64(len(m.data)) {
		return ErrSizeExceeded
	}
	copy(buffer, m.data[offset:])
	return nil
}

func (m *memReader) Size(context.Context, uuid.UUID) (uint64, error) {
	return uint64(len(m.data)), nil
}

func (m *memReader) Shutdown() {}

func TestReadRanges(t *testing.T) {
	data := []byte("0123456789abcdef")
	r := &memReader{data: data}

	out, err := ReadRanges(context.Background(), r, uuid.New(), map[common.StreamID]common.DiskRange{
		{Column: 0, Kind: common.StreamPresent}: {Offset: 2, Length: 3},
		{Column: 0, Kind: common.StreamData}:    {Offset: 5, Length: 5},
		{Column: 1, Kind: common.StreamData}:    {Offset: 10, Length: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("234"), out[common.StreamID{Column: 0, Kind: common.StreamPresent}])
	assert.Equal(t, []byte("56789"), out[common.StreamID{Column: 0, Kind: common.StreamData}])
	assert.Equal(t, []byte("abcd"), out[common.StreamID{Column: 1, Kind: common.StreamData}])

	// adjacent ranges are served by one covering read
	assert.Equal(t, 1, r.reads)
}

func TestReadRangesEmpty(t *testing.T) {
	r := &memReader{}

	out, err := ReadRanges(context.Background(), r, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, r.reads)
}

func TestReadRangesOutOfBounds(t *testing.T) {
	r := &memReader{data: []byte("short")}

	_, err := ReadRanges(context.Background(), r, uuid.New(), map[common.StreamID]common.DiskRange{
		{Column: 0, Kind: common.StreamData}: {Offset: 3, Length: 100},
	})
	assert.ErrorIs(t, err, ErrSizeExceeded)
}

func TestReaderAt(t *testing.T) {
	r := &memReader{data: []byte("0123456789")}
	ra := NewReaderAt(uuid.New(), r)

	buf := make([]byte, 4)
	n, err := ra.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("3456"), buf)
}
