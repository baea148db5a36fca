package orc

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcdb/orcdb/encoding/common"
	"github.com/orcdb/orcdb/pkg/memory"
)

var allCompressions = []Compression{
	CompressionNone,
	CompressionZlib,
	CompressionSnappy,
	CompressionLz4,
	CompressionZstd,
	CompressionGzip,
}

func TestChunkLoaderRoundTrip(t *testing.T) {
	first := []byte("the first chunk of the stream")
	second := []byte("and the second, slightly longer chunk of the same stream")

	for _, compression := range allCompressions {
		t.Run(compression.String(), func(t *testing.T) {
			pool, err := getWriterPool(compression)
			require.NoError(t, err)

			var data []byte
			if pool == nil {
				data = append(append(data, first...), second...)
			} else {
				data = append(data, frameChunk(t, pool, first)...)
				data = append(data, frameChunk(t, pool, second)...)
			}

			readerPool, err := getReaderPool(compression)
			require.NoError(t, err)

			loader := NewChunkLoader("test stream", data, readerPool, nil)
			defer loader.Close()

			all, err := io.ReadAll(loader)
			require.NoError(t, err)
			assert.Equal(t, append(append([]byte{}, first...), second...), all)
		})
	}
}

func TestChunkLoaderUncompressedChunkFlag(t *testing.T) {
	raw := []byte("stored verbatim despite the zstd file codec")
	data := append(chunkHeader(len(raw), true), raw...)

	loader := NewChunkLoader("test stream", data, &Zstd, nil)
	defer loader.Close()

	all, err := io.ReadAll(loader)
	require.NoError(t, err)
	assert.Equal(t, raw, all)
}

func TestChunkLoaderCheckpointResume(t *testing.T) {
	first := []byte("0123456789")
	second := []byte("abcdefghij")

	for _, compression := range allCompressions {
		t.Run(compression.String(), func(t *testing.T) {
			pool, err := getWriterPool(compression)
			require.NoError(t, err)

			var data []byte
			if pool == nil {
				data = append(append(data, first...), second...)
			} else {
				data = append(data, frameChunk(t, pool, first)...)
				data = append(data, frameChunk(t, pool, second)...)
			}

			readerPool, err := getReaderPool(compression)
			require.NoError(t, err)

			loader := NewChunkLoader("test stream", data, readerPool, nil)
			buf := make([]byte, 4)
			_, err = io.ReadFull(loader, buf)
			require.NoError(t, err)

			checkpoint := loader.Checkpoint()
			rest, err := io.ReadAll(loader)
			require.NoError(t, err)
			loader.Close()

			// a fresh loader seeked to the checkpoint reads the same remainder
			resumed := NewChunkLoader("test stream", data, readerPool, nil)
			defer resumed.Close()
			_, err = resumed.SeekToCheckpoint(checkpoint)
			require.NoError(t, err)

			restAgain, err := io.ReadAll(resumed)
			require.NoError(t, err)
			assert.Equal(t, rest, restAgain)
		})
	}
}

func TestChunkLoaderCheckpointIsStable(t *testing.T) {
	raw := []byte("checkpoints do not move unless bytes are consumed")
	data := frameChunk(t, &Snappy, raw)

	loader := NewChunkLoader("test stream", data, &Snappy, nil)
	defer loader.Close()

	first := loader.Checkpoint()
	assert.Equal(t, first, loader.Checkpoint())

	buf := make([]byte, 8)
	_, err := io.ReadFull(loader, buf)
	require.NoError(t, err)

	after := loader.Checkpoint()
	assert.NotEqual(t, first, after)
	assert.Equal(t, after, loader.Checkpoint())
}

func TestChunkLoaderTruncatedHeader(t *testing.T) {
	data := frameChunk(t, &Zlib, []byte("whole chunk"))
	data = append(data, 0x02, 0x00) // two stray bytes where a header should be

	loader := NewChunkLoader("test stream", data, &Zlib, nil)
	defer loader.Close()

	_, err := io.ReadAll(loader)
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestChunkLoaderChunkLengthBeyondStream(t *testing.T) {
	data := append(chunkHeader(1000, true), []byte("short")...)

	loader := NewChunkLoader("test stream", data, &Zlib, nil)
	defer loader.Close()

	_, err := io.ReadAll(loader)
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestChunkLoaderSeekRejectsBlockOffsetWithoutCompression(t *testing.T) {
	loader := NewChunkLoader("test stream", []byte("raw"), nil, nil)
	defer loader.Close()

	_, err := loader.SeekToCheckpoint(EncodeCheckpoint(12, 0))
	assert.ErrorIs(t, err, common.ErrCorruption)
}

func TestChunkLoaderSkipFully(t *testing.T) {
	first := []byte("0123456789")
	second := []byte("abcdefghij")
	data := append(frameChunk(t, &Gzip, first), frameChunk(t, &Gzip, second)...)

	loader := NewChunkLoader("test stream", data, &Gzip, nil)
	defer loader.Close()

	require.NoError(t, loader.SkipFully(13))
	rest, err := io.ReadAll(loader)
	require.NoError(t, err)
	assert.Equal(t, []byte("defghij"), rest)

	assert.ErrorIs(t, loader.SkipFully(1), common.ErrCorruption)
}

func TestChunkLoaderTracksMemory(t *testing.T) {
	agg := memory.NewAggregatedContext()
	local := agg.NewLocalContext()

	raw := make([]byte, 4096)
	data := frameChunk(t, &Zstd, raw)

	loader := NewChunkLoader("test stream", data, &Zstd, local)
	_, err := io.ReadAll(loader)
	require.NoError(t, err)
	loader.Close()

	assert.GreaterOrEqual(t, agg.Reserved(), int64(len(raw)))
	local.Close()
	assert.Equal(t, int64(0), agg.Reserved())
}

func TestCheckpointRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		block, offset int
	}{
		{0, 0},
		{0, 17},
		{1 << 20, 0},
		{1 << 20, 1 << 20},
		{1<<31 - 1, 1<<31 - 1},
	} {
		block, offset := DecodeCheckpoint(EncodeCheckpoint(tc.block, tc.offset))
		assert.Equal(t, tc.block, block)
		assert.Equal(t, tc.offset, offset)
	}
}
