package orc

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/orcdb/orcdb/encoding/common"
)

// The typed value streams below sit on top of a ChunkLoader and decode one
// primitive encoding each. They are created positioned at a row-group
// checkpoint and only ever move forward.

// BooleanStream decodes bit-packed booleans, MSB first within each byte.
// It backs both PRESENT streams and boolean DATA streams.
type BooleanStream struct {
	in       *ChunkLoader
	byteBuf  byte
	bitsLeft int
}

func NewBooleanStream(in *ChunkLoader) *BooleanStream {
	return &BooleanStream{in: in}
}

func (s *BooleanStream) NextBit() (bool, error) {
	if s.bitsLeft == 0 {
		b, err := s.in.ReadByte()
		if err == io.EOF {
			return false, common.Corruptionf(s.in.source, "unexpected end of boolean stream")
		}
		if err != nil {
			return false, err
		}
		s.byteBuf = b
		s.bitsLeft = 8
	}
	s.bitsLeft--
	return s.byteBuf>>uint(s.bitsLeft)&1 == 1, nil
}

// GetUnsetBits reads n bits into nulls, true for each unset (null) position,
// and returns the number of unset bits.
func (s *BooleanStream) GetUnsetBits(n int, nulls []bool) (int, error) {
	unset := 0
	for i := 0; i < n; i++ {
		bit, err := s.NextBit()
		if err != nil {
			return 0, err
		}
		nulls[i] = !bit
		if !bit {
			unset++
		}
	}
	return unset, nil
}

// CountSetBits reads and discards n bits, returning how many were set. Used
// to translate a logical row skip into a physical data-stream skip: only
// non-null rows consume data-stream positions.
func (s *BooleanStream) CountSetBits(n int) (int, error) {
	set := 0
	for i := 0; i < n; i++ {
		bit, err := s.NextBit()
		if err != nil {
			return 0, err
		}
		if bit {
			set++
		}
	}
	return set, nil
}

// Skip discards n bits.
func (s *BooleanStream) Skip(n int) error {
	_, err := s.CountSetBits(n)
	return err
}

// LongStream decodes varint-encoded integers, zigzagged when signed.
type LongStream struct {
	in     *ChunkLoader
	signed bool
}

func NewLongStream(in *ChunkLoader, signed bool) *LongStream {
	return &LongStream{in: in, signed: signed}
}

func (s *LongStream) Next() (int64, error) {
	u, err := binary.ReadUvarint(s.in)
	if err == io.EOF {
		return 0, common.Corruptionf(s.in.source, "unexpected end of long stream")
	}
	if err != nil {
		return 0, err
	}
	if s.signed {
		return int64(u>>1) ^ -int64(u&1), nil
	}
	return int64(u), nil
}

// NextInts reads values into out[:n].
func (s *LongStream) NextInts(n int, out []int64) error {
	for i := 0; i < n; i++ {
		v, err := s.Next()
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// Skip discards n values.
func (s *LongStream) Skip(n int) error {
	for i := 0; i < n; i++ {
		_, err := s.Next()
		if err != nil {
			return err
		}
	}
	return nil
}

// SkipSum discards n values and returns their sum. List and map readers use
// this to turn a skipped row count into a skipped child count.
func (s *LongStream) SkipSum(n int) (int64, error) {
	var sum int64
	for i := 0; i < n; i++ {
		v, err := s.Next()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// ByteArrayStream reads raw bytes, used for string/binary DATA and
// DICTIONARY_DATA streams.
type ByteArrayStream struct {
	in *ChunkLoader
}

func NewByteArrayStream(in *ChunkLoader) *ByteArrayStream {
	return &ByteArrayStream{in: in}
}

// Next returns the next n bytes. The result is a copy; the loader's scratch
// buffer never escapes.
func (s *ByteArrayStream) Next(n int) ([]byte, error) {
	out := make([]byte, n)
	_, err := io.ReadFull(s.in, out)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, common.Corruptionf(s.in.source, "unexpected end of byte stream reading %d bytes", n)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Skip discards n bytes.
func (s *ByteArrayStream) Skip(n int64) error {
	return s.in.SkipFully(n)
}

// FloatStream decodes little-endian IEEE754 values of the given byte width
// (4 for float, 8 for double).
type FloatStream struct {
	in    *ChunkLoader
	width int
	buf   [8]byte
}

func NewFloatStream(in *ChunkLoader, width int) *FloatStream {
	return &FloatStream{in: in, width: width}
}

func (s *FloatStream) Next() (float64, error) {
	_, err := io.ReadFull(s.in, s.buf[:s.width])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return 0, common.Corruptionf(s.in.source, "unexpected end of float stream")
	}
	if err != nil {
		return 0, err
	}
	if s.width == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(s.buf[:4]))), nil
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(s.buf[:8])), nil
}

// Skip discards n values.
func (s *FloatStream) Skip(n int) error {
	return s.in.SkipFully(int64(n * s.width))
}
