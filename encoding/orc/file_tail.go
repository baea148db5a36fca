package orc

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/orcdb/orcdb/backend"
	"github.com/orcdb/orcdb/encoding/common"
)

// FileTail is the file-level directory: the flattened schema, the chunk
// codec, the row-group granularity the indexes were written with, and one
// StripeInformation per stripe.
type FileTail struct {
	Compression    Compression
	RowsInRowGroup uint64
	Schema         common.Schema
	Stripes        []StripeInformation
}

const fileMagic = "ORC1"

/*
  file layout:

  | stripes ... | tail | u32 tailLength | "ORC1" |

  tail (uncompressed, little endian):

  | u8 compression | u64 rowsInRowGroup | u32 typeCount | types | u32 stripeCount | stripes |

  type:   | u8 kind | i32 scale | u16 childCount | children |
  child:  | u32 column | u16 nameLen | name bytes |
  stripe: | u64 offset | u64 indexLength | u64 dataLength | u64 footerLength | u64 numberOfRows |
*/

const fileTailFooterLength = 4 + len(fileMagic)

func marshalFileTail(t *FileTail) []byte {
	buf := &bytes.Buffer{}

	buf.WriteByte(byte(t.Compression))
	_ = binary.Write(buf, binary.LittleEndian, t.RowsInRowGroup)

	_ = binary.Write(buf, binary.LittleEndian, uint32(len(t.Schema)))
	for i := range t.Schema {
		typ := &t.Schema[i]
		buf.WriteByte(byte(typ.Kind))
		_ = binary.Write(buf, binary.LittleEndian, typ.Scale)
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(typ.Children)))
		for j, child := range typ.Children {
			_ = binary.Write(buf, binary.LittleEndian, uint32(child))
			name := ""
			if j < len(typ.FieldNames) {
				name = typ.FieldNames[j]
			}
			_ = binary.Write(buf, binary.LittleEndian, uint16(len(name)))
			buf.WriteString(name)
		}
	}

	_ = binary.Write(buf, binary.LittleEndian, uint32(len(t.Stripes)))
	for _, s := range t.Stripes {
		_ = binary.Write(buf, binary.LittleEndian, s.Offset)
		_ = binary.Write(buf, binary.LittleEndian, s.IndexLength)
		_ = binary.Write(buf, binary.LittleEndian, s.DataLength)
		_ = binary.Write(buf, binary.LittleEndian, s.FooterLength)
		_ = binary.Write(buf, binary.LittleEndian, s.NumberOfRows)
	}

	_ = binary.Write(buf, binary.LittleEndian, uint32(buf.Len()+fileTailFooterLength))
	buf.WriteString(fileMagic)
	return buf.Bytes()
}

func unmarshalFileTail(b []byte, source string) (*FileTail, error) {
	t := &FileTail{}

	if len(b) < 13 {
		return nil, common.Corruptionf(source, "file tail of %d bytes too small", len(b))
	}
	t.Compression = Compression(b[0])
	t.RowsInRowGroup = binary.LittleEndian.Uint64(b[1:])
	b = b[9:]

	typeCount := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	t.Schema = make(common.Schema, typeCount)
	for i := 0; i < typeCount; i++ {
		if len(b) < 7 {
			return nil, common.Corruptionf(source, "file tail truncated in type %d", i)
		}
		typ := &t.Schema[i]
		typ.Kind = common.TypeKind(b[0])
		typ.Scale = int32(binary.LittleEndian.Uint32(b[1:]))
		childCount := int(binary.LittleEndian.Uint16(b[5:]))
		b = b[7:]
		for j := 0; j < childCount; j++ {
			if len(b) < 6 {
				return nil, common.Corruptionf(source, "file tail truncated in type %d child %d", i, j)
			}
			typ.Children = append(typ.Children, common.ColumnID(binary.LittleEndian.Uint32(b)))
			nameLen := int(binary.LittleEndian.Uint16(b[4:]))
			b = b[6:]
			if len(b) < nameLen {
				return nil, common.Corruptionf(source, "file tail truncated in type %d child name", i)
			}
			typ.FieldNames = append(typ.FieldNames, string(b[:nameLen]))
			b = b[nameLen:]
		}
	}

	if len(b) < 4 {
		return nil, common.Corruptionf(source, "file tail truncated before stripe list")
	}
	stripeCount := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if len(b) != stripeCount*40 {
		return nil, common.Corruptionf(source, "file tail stripe list is %d bytes, expected %d stripes", len(b), stripeCount)
	}
	t.Stripes = make([]StripeInformation, stripeCount)
	for i := range t.Stripes {
		t.Stripes[i] = StripeInformation{
			Offset:       binary.LittleEndian.Uint64(b),
			IndexLength:  binary.LittleEndian.Uint64(b[8:]),
			DataLength:   binary.LittleEndian.Uint64(b[16:]),
			FooterLength: binary.LittleEndian.Uint64(b[24:]),
			NumberOfRows: binary.LittleEndian.Uint64(b[32:]),
		}
		b = b[40:]
	}

	return t, nil
}

// ReadFileTail reads and parses the tail of the given file.
func ReadFileTail(ctx context.Context, r backend.Reader, fileID uuid.UUID) (*FileTail, error) {
	source := "file " + fileID.String()

	size, err := r.Size(ctx, fileID)
	if err != nil {
		return nil, errors.Wrapf(err, "error sizing %s", source)
	}
	if size < uint64(fileTailFooterLength) {
		return nil, common.Corruptionf(source, "file of %d bytes too small for a tail", size)
	}

	footer := make([]byte, fileTailFooterLength)
	err = r.ReadRange(ctx, fileID, size-uint64(fileTailFooterLength), footer)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading tail footer of %s", source)
	}
	if string(footer[4:]) != fileMagic {
		return nil, common.Corruptionf(source, "bad magic %q", footer[4:])
	}
	tailLength := uint64(binary.LittleEndian.Uint32(footer))
	if tailLength < uint64(fileTailFooterLength) || tailLength > size {
		return nil, common.Corruptionf(source, "tail length %d outside file of %d bytes", tailLength, size)
	}

	tail := make([]byte, tailLength-uint64(fileTailFooterLength))
	err = r.ReadRange(ctx, fileID, size-tailLength, tail)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading tail of %s", source)
	}
	return unmarshalFileTail(tail, source)
}
