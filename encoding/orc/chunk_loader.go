package orc

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"

	orcdb_io "github.com/orcdb/orcdb/pkg/io"
	"github.com/orcdb/orcdb/pkg/memory"

	"github.com/orcdb/orcdb/encoding/common"
)

// chunkHeaderLength is the framing header in front of every compressed chunk:
// 3 bytes, little endian packed, chunkLength:23 | isUncompressed:1.
const chunkHeaderLength = 3

// maxChunkLength is the largest length the 23 header bits can carry.
const maxChunkLength = 1<<23 - 1

// ChunkLoader is a pull cursor over the decompressed bytes of one stream.
// When a ReaderPool is configured the stream is a sequence of framed chunks;
// without one the raw bytes are the stream.
//
// The decompression buffer is owned by the loader and reused across chunks.
// Bytes handed out by Read are copies; bytes observed through the internal
// current slice must never outlive the next advance.
type ChunkLoader struct {
	source string
	data   []byte
	pool   ReaderPool
	mem    *memory.LocalContext

	compressedReader io.Reader

	// compressedPos is the offset of the next unread chunk header.
	compressedPos int

	// current is the decompressed view of the last chunk read. For
	// uncompressed chunks it aliases data directly; otherwise it aliases
	// buffer. currentBlockStart is the data offset of the header that
	// produced it.
	current           []byte
	currentPos        int
	currentBlockStart int

	// buffer is the grow-only scratch arena decompression lands in.
	buffer []byte
}

// NewChunkLoader creates a loader over one stream's raw bytes. pool is nil
// for uncompressed files, in which case data is consumed as-is with no
// framing. source identifies the stream in corruption errors.
func NewChunkLoader(source string, data []byte, pool ReaderPool, mem *memory.LocalContext) *ChunkLoader {
	l := &ChunkLoader{
		source: source,
		data:   data,
		pool:   pool,
		mem:    mem,
	}
	if pool == nil {
		l.current = data
	}
	if mem != nil {
		mem.SetBytes(int64(len(data)))
	}
	return l
}

// Close returns the pooled decompressor.
func (l *ChunkLoader) Close() {
	if l.compressedReader != nil {
		l.pool.PutReader(l.compressedReader)
		l.compressedReader = nil
	}
}

// Read implements io.Reader over the decompressed stream.
func (l *ChunkLoader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for l.currentPos >= len(l.current) {
		ok, err := l.advance()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}
	n := copy(p, l.current[l.currentPos:])
	l.currentPos += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (l *ChunkLoader) ReadByte() (byte, error) {
	for l.currentPos >= len(l.current) {
		ok, err := l.advance()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}
	b := l.current[l.currentPos]
	l.currentPos++
	return b, nil
}

// advance decodes the next chunk header and loads the chunk. It returns
// false at the clean end of the stream.
func (l *ChunkLoader) advance() (bool, error) {
	if l.pool == nil {
		// raw streams have exactly one "chunk"
		return false, nil
	}
	if l.compressedPos == len(l.data) {
		return false, nil
	}
	if l.compressedPos+chunkHeaderLength > len(l.data) {
		return false, common.Corruptionf(l.source, "truncated chunk header at offset %d", l.compressedPos)
	}

	b0 := int(l.data[l.compressedPos])
	b1 := int(l.data[l.compressedPos+1])
	b2 := int(l.data[l.compressedPos+2])
	chunkLength := b2<<15 | b1<<7 | b0>>1
	isUncompressed := b0&1 == 1

	blockStart := l.compressedPos
	chunkStart := l.compressedPos + chunkHeaderLength
	if chunkLength > len(l.data)-chunkStart {
		return false, common.Corruptionf(l.source, "chunk length %d at offset %d exceeds remaining %d bytes", chunkLength, blockStart, len(l.data)-chunkStart)
	}

	chunk := l.data[chunkStart : chunkStart+chunkLength]
	l.compressedPos = chunkStart + chunkLength
	l.currentBlockStart = blockStart
	l.currentPos = 0

	if isUncompressed {
		l.current = chunk
		return true, nil
	}

	err := l.decompress(chunk)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *ChunkLoader) decompress(chunk []byte) error {
	var err error
	if l.compressedReader == nil {
		l.compressedReader, err = l.pool.GetReader(bytes.NewReader(chunk))
	} else {
		l.compressedReader, err = l.pool.ResetReader(bytes.NewReader(chunk), l.compressedReader)
	}
	if err != nil {
		return common.Corruptionf(l.source, "resetting decompressor: %s", err)
	}

	if decoder, ok := l.compressedReader.(*zstd.Decoder); ok {
		l.buffer, err = decoder.DecodeAll(chunk, l.buffer[:0])
	} else {
		l.buffer, err = orcdb_io.ReadAllWithBuffer(l.compressedReader, len(chunk)*3, l.buffer)
	}
	if err != nil {
		return common.Corruptionf(l.source, "decompressing chunk: %s", err)
	}

	l.current = l.buffer
	if l.mem != nil {
		l.mem.SetBytes(int64(len(l.data) + cap(l.buffer)))
	}
	return nil
}

// Checkpoint returns the resumable position of the next unread byte.
func (l *ChunkLoader) Checkpoint() int64 {
	if l.pool == nil {
		return EncodeCheckpoint(0, l.currentPos)
	}
	// with nothing buffered the checkpoint points at the next chunk
	if l.current == nil || (l.currentPos == 0 && len(l.current) == 0) {
		return EncodeCheckpoint(l.compressedPos, 0)
	}
	return EncodeCheckpoint(l.currentBlockStart, l.currentPos)
}

// SeekToCheckpoint repositions the loader at a checkpoint previously returned
// by Checkpoint (or decoded from a row index). It reports whether the
// buffered chunk had to be discarded.
func (l *ChunkLoader) SeekToCheckpoint(checkpoint int64) (bool, error) {
	blockOffset, decompressedOffset := DecodeCheckpoint(checkpoint)

	if l.pool == nil {
		if blockOffset != 0 {
			return false, common.Corruptionf(l.source, "checkpoint block offset %d requires compression but none is configured", blockOffset)
		}
		if decompressedOffset > len(l.data) {
			return false, common.Corruptionf(l.source, "checkpoint offset %d past end of %d byte stream", decompressedOffset, len(l.data))
		}
		l.currentPos = decompressedOffset
		return false, nil
	}

	if blockOffset < 0 || blockOffset > len(l.data) {
		return false, common.Corruptionf(l.source, "checkpoint block offset %d outside %d byte stream", blockOffset, len(l.data))
	}

	discarded := false
	if l.current == nil || blockOffset != l.currentBlockStart {
		l.compressedPos = blockOffset
		l.current = nil
		l.currentPos = 0
		discarded = true
	}

	if decompressedOffset == 0 && l.current == nil {
		return discarded, nil
	}

	if l.current == nil {
		ok, err := l.advance()
		if err != nil {
			return discarded, err
		}
		if !ok {
			return discarded, common.Corruptionf(l.source, "checkpoint block offset %d at end of stream", blockOffset)
		}
	}
	if decompressedOffset > len(l.current) {
		return discarded, common.Corruptionf(l.source, "checkpoint offset %d past end of %d byte chunk", decompressedOffset, len(l.current))
	}
	l.currentPos = decompressedOffset
	return discarded, nil
}

// SkipFully discards exactly n decompressed bytes, failing with corruption on
// a premature end of stream.
func (l *ChunkLoader) SkipFully(n int64) error {
	for n > 0 {
		remaining := int64(len(l.current) - l.currentPos)
		if remaining == 0 {
			ok, err := l.advance()
			if err != nil {
				return err
			}
			if !ok {
				return common.Corruptionf(l.source, "unexpected end of stream skipping %d bytes", n)
			}
			continue
		}
		skip := remaining
		if n < skip {
			skip = n
		}
		l.currentPos += int(skip)
		n -= skip
	}
	return nil
}
