package orc

import (
	"bytes"
	"encoding/binary"

	"github.com/willf/bloom"

	"github.com/orcdb/orcdb/encoding/common"
)

// Bloom filter streams hold one serialized filter per row group:
// | u32 length | bloom.WriteTo bytes | repeated. Filters are attached
// positionally to the column's row-group index entries before predicate
// evaluation, enabling equality pushdown beyond min/max ranges.

func marshalBloomFilterStream(filters []*bloom.BloomFilter) ([]byte, error) {
	buf := &bytes.Buffer{}
	for _, f := range filters {
		single := &bytes.Buffer{}
		_, err := f.WriteTo(single)
		if err != nil {
			return nil, err
		}
		_ = binary.Write(buf, binary.LittleEndian, uint32(single.Len()))
		buf.Write(single.Bytes())
	}
	return buf.Bytes(), nil
}

func unmarshalBloomFilterStream(b []byte, source string) ([]*bloom.BloomFilter, error) {
	var filters []*bloom.BloomFilter
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, common.Corruptionf(source, "truncated bloom filter length")
		}
		length := int(binary.LittleEndian.Uint32(b))
		b = b[4:]
		if length > len(b) {
			return nil, common.Corruptionf(source, "bloom filter length %d exceeds remaining %d bytes", length, len(b))
		}

		f := &bloom.BloomFilter{}
		_, err := f.ReadFrom(bytes.NewReader(b[:length]))
		if err != nil {
			return nil, common.Corruptionf(source, "parsing bloom filter: %s", err)
		}
		filters = append(filters, f)
		b = b[length:]
	}
	return filters, nil
}
