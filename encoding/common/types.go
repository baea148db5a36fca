package common

import "fmt"

// This file contains types that need to be referenced by both the ./encoding/orc
// and ./backend packages. It primarily exists here to break dependency loops.

// ColumnID identifies a column in the flattened schema tree. The root struct
// is column 0 and nested children are numbered depth first.
type ColumnID uint32

// StreamKind is the purpose of one physical byte sequence within a stripe.
type StreamKind uint8

const (
	StreamPresent StreamKind = iota
	StreamData
	StreamSecondary
	StreamLength
	StreamDictionaryData
	StreamDictionaryCount
	StreamRowIndex
	StreamBloomFilter
	StreamBloomFilterUTF8
)

func (k StreamKind) String() string {
	switch k {
	case StreamPresent:
		return "PRESENT"
	case StreamData:
		return "DATA"
	case StreamSecondary:
		return "SECONDARY"
	case StreamLength:
		return "LENGTH"
	case StreamDictionaryData:
		return "DICTIONARY_DATA"
	case StreamDictionaryCount:
		return "DICTIONARY_COUNT"
	case StreamRowIndex:
		return "ROW_INDEX"
	case StreamBloomFilter:
		return "BLOOM_FILTER"
	case StreamBloomFilterUTF8:
		return "BLOOM_FILTER_UTF8"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
}

// IsIndex reports whether the stream belongs to the stripe's index region
// rather than its data region.
func (k StreamKind) IsIndex() bool {
	return k == StreamRowIndex || k == StreamBloomFilter || k == StreamBloomFilterUTF8
}

// StreamID names one stream: (column, kind).
type StreamID struct {
	Column ColumnID
	Kind   StreamKind
}

func (id StreamID) String() string {
	return fmt.Sprintf("%d/%s", id.Column, id.Kind)
}

// DiskRange is an absolute (offset, length) pair within a file.
type DiskRange struct {
	Offset uint64
	Length uint64
}

// End returns the first byte past the range.
func (d DiskRange) End() uint64 {
	return d.Offset + d.Length
}

// TypeKind enumerates the column types the decoder set covers.
type TypeKind uint8

const (
	TypeBoolean TypeKind = iota
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeVarchar
	TypeChar
	TypeBinary
	TypeTimestamp
	TypeDecimal
	TypeStruct
	TypeList
	TypeMap
)

func (k TypeKind) String() string {
	switch k {
	case TypeBoolean:
		return "boolean"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeVarchar:
		return "varchar"
	case TypeChar:
		return "char"
	case TypeBinary:
		return "binary"
	case TypeTimestamp:
		return "timestamp"
	case TypeDecimal:
		return "decimal"
	case TypeStruct:
		return "struct"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Type is one node of the flattened schema. Children are the column ids of
// nested fields (struct fields, the list element, the map key and value).
type Type struct {
	Kind       TypeKind
	Children   []ColumnID
	FieldNames []string // struct only, parallel to Children
	Scale      int32    // decimal only
}

// Schema is the full flattened type tree indexed by ColumnID.
type Schema []Type
