package orc

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the chunk codec used by a file. Every chunk of every stream
// in the file is framed and compressed with the same codec.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionSnappy
	CompressionLz4
	CompressionZstd
	CompressionGzip
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionSnappy:
		return "snappy"
	case CompressionLz4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCompression returns the Compression named by s.
func ParseCompression(s string) (Compression, error) {
	for _, c := range []Compression{CompressionNone, CompressionZlib, CompressionSnappy, CompressionLz4, CompressionZstd, CompressionGzip} {
		if c.String() == s {
			return c, nil
		}
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", s)
}

// WriterPool is a pool of io.Writer
// This is used by every chunk to avoid unnecessary allocations.
type WriterPool interface {
	GetWriter(io.Writer) (io.WriteCloser, error)
	PutWriter(io.WriteCloser)
	Compression() Compression
}

// ReaderPool similar to WriterPool but for reading chunks.
type ReaderPool interface {
	GetReader(io.Reader) (io.Reader, error)
	ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error)
	PutReader(io.Reader)
	Compression() Compression
}

var (
	// Zlib is the zlib compression pool
	Zlib ZlibPool
	// Gzip is the gnu zip compression pool
	Gzip = GzipPool{level: gzip.DefaultCompression}
	// Lz4 is the lz4 compression pool
	Lz4 LZ4Pool
	// Snappy is the snappy compression pool
	Snappy SnappyPool
	// Zstd is the zstd compression pool
	Zstd ZstdPool
)

func getWriterPool(c Compression) (WriterPool, error) {
	p, err := getReaderPool(c)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return p.(WriterPool), nil
}

// getReaderPool returns nil for CompressionNone: streams in an uncompressed
// file carry no chunk framing at all.
func getReaderPool(c Compression) (ReaderPool, error) {
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionZlib:
		return &Zlib, nil
	case CompressionGzip:
		return &Gzip, nil
	case CompressionLz4:
		return &Lz4, nil
	case CompressionSnappy:
		return &Snappy, nil
	case CompressionZstd:
		return &Zstd, nil
	default:
		return nil, fmt.Errorf("unknown pool compression %d", c)
	}
}

// ZlibPool is a zlib compression pool
type ZlibPool struct {
	readers sync.Pool
	writers sync.Pool
}

// Compression implements WriterPool and ReaderPool
func (pool *ZlibPool) Compression() Compression {
	return CompressionZlib
}

// GetReader gets or creates a new CompressionReader and reset it to read from src
func (pool *ZlibPool) GetReader(src io.Reader) (io.Reader, error) {
	if r := pool.readers.Get(); r != nil {
		reader := r.(zlib.Resetter)
		err := reader.Reset(src, nil)
		if err != nil {
			return nil, err
		}
		return reader.(io.Reader), nil
	}
	return zlib.NewReader(src)
}

// ResetReader implements ReaderPool
func (pool *ZlibPool) ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error) {
	err := resetReader.(zlib.Resetter).Reset(src, nil)
	if err != nil {
		return nil, err
	}
	return resetReader, nil
}

// PutReader places back in the pool a CompressionReader
func (pool *ZlibPool) PutReader(reader io.Reader) {
	pool.readers.Put(reader)
}

// GetWriter gets or creates a new CompressionWriter and reset it to write to dst
func (pool *ZlibPool) GetWriter(dst io.Writer) (io.WriteCloser, error) {
	if w := pool.writers.Get(); w != nil {
		writer := w.(*zlib.Writer)
		writer.Reset(dst)
		return writer, nil
	}
	return zlib.NewWriter(dst), nil
}

// PutWriter places back in the pool a CompressionWriter
func (pool *ZlibPool) PutWriter(writer io.WriteCloser) {
	pool.writers.Put(writer)
}

// GzipPool is a gun zip compression pool
type GzipPool struct {
	readers sync.Pool
	writers sync.Pool
	level   int
}

// Compression implements WriterPool and ReaderPool
func (pool *GzipPool) Compression() Compression {
	return CompressionGzip
}

// GetReader gets or creates a new CompressionReader and reset it to read from src
func (pool *GzipPool) GetReader(src io.Reader) (io.Reader, error) {
	if r := pool.readers.Get(); r != nil {
		reader := r.(*gzip.Reader)
		err := reader.Reset(src)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
	return gzip.NewReader(src)
}

// ResetReader implements ReaderPool
func (pool *GzipPool) ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error) {
	err := resetReader.(*gzip.Reader).Reset(src)
	if err != nil {
		return nil, err
	}
	return resetReader, nil
}

// PutReader places back in the pool a CompressionReader
func (pool *GzipPool) PutReader(reader io.Reader) {
	pool.readers.Put(reader)
}

// GetWriter gets or creates a new CompressionWriter and reset it to write to dst
func (pool *GzipPool) GetWriter(dst io.Writer) (io.WriteCloser, error) {
	if w := pool.writers.Get(); w != nil {
		writer := w.(*gzip.Writer)
		writer.Reset(dst)
		return writer, nil
	}

	level := pool.level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return gzip.NewWriterLevel(dst, level)
}

// PutWriter places back in the pool a CompressionWriter
func (pool *GzipPool) PutWriter(writer io.WriteCloser) {
	pool.writers.Put(writer)
}

// LZ4Pool is an pool...of lz4s...
type LZ4Pool struct {
	readers sync.Pool
	writers sync.Pool
}

// Compression implements WriterPool and ReaderPool
func (pool *LZ4Pool) Compression() Compression {
	return CompressionLz4
}

// GetReader gets or creates a new CompressionReader and reset it to read from src
func (pool *LZ4Pool) GetReader(src io.Reader) (io.Reader, error) {
	var r *lz4.Reader
	if pooled := pool.readers.Get(); pooled != nil {
		r = pooled.(*lz4.Reader)
		r.Reset(src)
	} else {
		r = lz4.NewReader(src)
	}
	return r, nil
}

// ResetReader implements ReaderPool
func (pool *LZ4Pool) ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error) {
	resetReader.(*lz4.Reader).Reset(src)
	return resetReader, nil
}

// PutReader places back in the pool a CompressionReader
func (pool *LZ4Pool) PutReader(reader io.Reader) {
	pool.readers.Put(reader)
}

// GetWriter gets or creates a new CompressionWriter and reset it to write to dst
func (pool *LZ4Pool) GetWriter(dst io.Writer) (io.WriteCloser, error) {
	var w *lz4.Writer
	if fromPool := pool.writers.Get(); fromPool != nil {
		w = fromPool.(*lz4.Writer)
		w.Reset(dst)
	} else {
		w = lz4.NewWriter(dst)
	}
	err := w.Apply(
		lz4.ChecksumOption(false),
		lz4.CompressionLevelOption(lz4.Fast),
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// PutWriter places back in the pool a CompressionWriter
func (pool *LZ4Pool) PutWriter(writer io.WriteCloser) {
	pool.writers.Put(writer)
}

// SnappyPool is a really cool looking pool.  Dang that pool is _snappy_.
type SnappyPool struct {
	readers sync.Pool
	writers sync.Pool
}

// Compression implements WriterPool and ReaderPool
func (pool *SnappyPool) Compression() Compression {
	return CompressionSnappy
}

// GetReader gets or creates a new CompressionReader and reset it to read from src
func (pool *SnappyPool) GetReader(src io.Reader) (io.Reader, error) {
	if r := pool.readers.Get(); r != nil {
		reader := r.(*snappy.Reader)
		reader.Reset(src)
		return reader, nil
	}
	return snappy.NewReader(src), nil
}

// ResetReader implements ReaderPool
func (pool *SnappyPool) ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error) {
	resetReader.(*snappy.Reader).Reset(src)
	return resetReader, nil
}

// PutReader places back in the pool a CompressionReader
func (pool *SnappyPool) PutReader(reader io.Reader) {
	pool.readers.Put(reader)
}

// GetWriter gets or creates a new CompressionWriter and reset it to write to dst
func (pool *SnappyPool) GetWriter(dst io.Writer) (io.WriteCloser, error) {
	if w := pool.writers.Get(); w != nil {
		writer := w.(*snappy.Writer)
		writer.Reset(dst)
		return writer, nil
	}
	return snappy.NewBufferedWriter(dst), nil
}

// PutWriter places back in the pool a CompressionWriter
func (pool *SnappyPool) PutWriter(writer io.WriteCloser) {
	pool.writers.Put(writer)
}

// ZstdPool is a zstd compression pool
type ZstdPool struct {
	readers sync.Pool
	writers sync.Pool
}

// Compression implements WriterPool and ReaderPool
func (pool *ZstdPool) Compression() Compression {
	return CompressionZstd
}

// GetReader gets or creates a new CompressionReader and reset it to read from src
func (pool *ZstdPool) GetReader(src io.Reader) (io.Reader, error) {
	if r := pool.readers.Get(); r != nil {
		reader := r.(*zstd.Decoder)
		err := reader.Reset(src)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
	return zstd.NewReader(src)
}

// ResetReader implements ReaderPool
func (pool *ZstdPool) ResetReader(src io.Reader, resetReader io.Reader) (io.Reader, error) {
	err := resetReader.(*zstd.Decoder).Reset(src)
	if err != nil {
		return nil, err
	}
	return resetReader, nil
}

// PutReader places back in the pool a CompressionReader
func (pool *ZstdPool) PutReader(reader io.Reader) {
	pool.readers.Put(reader)
}

// GetWriter gets or creates a new CompressionWriter and reset it to write to dst
func (pool *ZstdPool) GetWriter(dst io.Writer) (io.WriteCloser, error) {
	if w := pool.writers.Get(); w != nil {
		writer := w.(*zstd.Encoder)
		writer.Reset(dst)
		return writer, nil
	}
	return zstd.NewWriter(dst)
}

// PutWriter places back in the pool a CompressionWriter
func (pool *ZstdPool) PutWriter(writer io.WriteCloser) {
	pool.writers.Put(writer)
}
