package orc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willf/bloom"

	"github.com/orcdb/orcdb/encoding/common"
)

func TestBloomFilterStreamRoundTrip(t *testing.T) {
	first := bloom.NewWithEstimates(1000, 0.01)
	first.Add([]byte("alpha"))
	first.Add([]byte("beta"))
	second := bloom.NewWithEstimates(1000, 0.01)
	second.Add([]byte("gamma"))

	data, err := marshalBloomFilterStream([]*bloom.BloomFilter{first, second})
	require.NoError(t, err)

	filters, err := unmarshalBloomFilterStream(data, "test")
	require.NoError(t, err)
	require.Len(t, filters, 2)

	assert.True(t, filters[0].Test([]byte("alpha")))
	assert.True(t, filters[0].Test([]byte("beta")))
	assert.False(t, filters[0].Test([]byte("gamma")))
	assert.True(t, filters[1].Test([]byte("gamma")))
	assert.False(t, filters[1].Test([]byte("alpha")))
}

func TestBloomFilterStreamEmpty(t *testing.T) {
	filters, err := unmarshalBloomFilterStream(nil, "test")
	require.NoError(t, err)
	assert.Len(t, filters, 0)
}

func TestBloomFilterStreamCorrupt(t *testing.T) {
	f := bloom.NewWithEstimates(100, 0.01)
	f.Add([]byte("x"))
	data, err := marshalBloomFilterStream([]*bloom.BloomFilter{f})
	require.NoError(t, err)

	// truncated length prefix
	_, err = unmarshalBloomFilterStream(data[:2], "test")
	assert.ErrorIs(t, err, common.ErrCorruption)

	// declared length past the end of the stream
	_, err = unmarshalBloomFilterStream(data[:len(data)-1], "test")
	assert.ErrorIs(t, err, common.ErrCorruption)
}
