package orc

import (
	"bytes"
	"encoding/binary"

	"github.com/orcdb/orcdb/encoding/common"
)

// StripeInformation locates one stripe within the file: index streams, data
// streams and footer laid out back to back starting at Offset.
type StripeInformation struct {
	Offset       uint64
	IndexLength  uint64
	DataLength   uint64
	FooterLength uint64
	NumberOfRows uint64
}

// FooterOffset returns the absolute offset of the stripe footer.
func (s *StripeInformation) FooterOffset() uint64 {
	return s.Offset + s.IndexLength + s.DataLength
}

// TotalLength returns the full on-disk size of the stripe.
func (s *StripeInformation) TotalLength() uint64 {
	return s.IndexLength + s.DataLength + s.FooterLength
}

// ColumnEncodingKind selects how one column's values are laid out in its streams.
type ColumnEncodingKind uint8

const (
	EncodingDirect ColumnEncodingKind = iota
	EncodingDictionary
)

func (k ColumnEncodingKind) String() string {
	if k == EncodingDictionary {
		return "dictionary"
	}
	return "direct"
}

// ColumnEncoding is the per-column encoding declared by a stripe footer.
type ColumnEncoding struct {
	Kind           ColumnEncodingKind
	DictionarySize uint32
}

// StripeFooter declares the stripe's writer time zone, one encoding per
// column id, and the ordered stream list.
type StripeFooter struct {
	TimeZone  string
	Encodings []ColumnEncoding
	Streams   []*Stream
}

/*
  stripe footer wire format (after decompression, little endian):

  | u16 tzLen | tz bytes | u32 encodingCount | encodings | u32 streamCount | streams |

  encoding: | u8 kind | u32 dictionarySize |
  stream:   | u32 column | u8 kind | u64 length |
*/

const (
	footerEncodingLength = 1 + 4
	footerStreamLength   = 4 + 1 + 8
)

func marshalStripeFooter(f *StripeFooter) []byte {
	buf := &bytes.Buffer{}

	_ = binary.Write(buf, binary.LittleEndian, uint16(len(f.TimeZone)))
	buf.WriteString(f.TimeZone)

	_ = binary.Write(buf, binary.LittleEndian, uint32(len(f.Encodings)))
	for _, e := range f.Encodings {
		buf.WriteByte(byte(e.Kind))
		_ = binary.Write(buf, binary.LittleEndian, e.DictionarySize)
	}

	_ = binary.Write(buf, binary.LittleEndian, uint32(len(f.Streams)))
	for _, s := range f.Streams {
		_ = binary.Write(buf, binary.LittleEndian, uint32(s.Column))
		buf.WriteByte(byte(s.Kind))
		_ = binary.Write(buf, binary.LittleEndian, s.Length)
	}

	return buf.Bytes()
}

func unmarshalStripeFooter(b []byte, source string) (*StripeFooter, error) {
	f := &StripeFooter{}

	if len(b) < 2 {
		return nil, common.Corruptionf(source, "stripe footer of %d bytes too small", len(b))
	}
	tzLen := int(binary.LittleEndian.Uint16(b))
	b = b[2:]
	if len(b) < tzLen+4 {
		return nil, common.Corruptionf(source, "stripe footer truncated in time zone")
	}
	f.TimeZone = string(b[:tzLen])
	b = b[tzLen:]

	encodingCount := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if len(b) < encodingCount*footerEncodingLength+4 {
		return nil, common.Corruptionf(source, "stripe footer truncated in %d column encodings", encodingCount)
	}
	f.Encodings = make([]ColumnEncoding, encodingCount)
	for i := range f.Encodings {
		f.Encodings[i].Kind = ColumnEncodingKind(b[0])
		f.Encodings[i].DictionarySize = binary.LittleEndian.Uint32(b[1:])
		b = b[footerEncodingLength:]
	}

	streamCount := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if len(b) != streamCount*footerStreamLength {
		return nil, common.Corruptionf(source, "stripe footer stream list is %d bytes, expected %d streams", len(b), streamCount)
	}
	f.Streams = make([]*Stream, streamCount)
	for i := range f.Streams {
		f.Streams[i] = &Stream{
			Column: common.ColumnID(binary.LittleEndian.Uint32(b)),
			Kind:   common.StreamKind(b[4]),
			Length: binary.LittleEndian.Uint64(b[5:]),
		}
		b = b[footerStreamLength:]
	}

	return f, nil
}
