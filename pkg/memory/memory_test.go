package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalContextGrowsOnly(t *testing.T) {
	agg := NewAggregatedContext()
	local := agg.NewLocalContext()

	local.SetBytes(100)
	assert.Equal(t, int64(100), local.Bytes())
	assert.Equal(t, int64(100), agg.Reserved())

	// shrinking reservations are ignored
	local.SetBytes(50)
	assert.Equal(t, int64(100), local.Bytes())
	assert.Equal(t, int64(100), agg.Reserved())

	local.SetBytes(250)
	assert.Equal(t, int64(250), agg.Reserved())
}

func TestAggregatedContextTracksPeak(t *testing.T) {
	agg := NewAggregatedContext()

	first := agg.NewLocalContext()
	first.SetBytes(300)
	second := agg.NewLocalContext()
	second.SetBytes(200)

	assert.Equal(t, int64(500), agg.Reserved())
	assert.Equal(t, int64(500), agg.Peak())

	first.Close()
	assert.Equal(t, int64(200), agg.Reserved())
	assert.Equal(t, int64(500), agg.Peak())

	second.Close()
	assert.Equal(t, int64(0), agg.Reserved())
	assert.Equal(t, int64(500), agg.Peak())
}

func TestLocalContextCloseIsIdempotent(t *testing.T) {
	agg := NewAggregatedContext()
	local := agg.NewLocalContext()
	local.SetBytes(42)

	local.Close()
	local.Close()
	assert.Equal(t, int64(0), agg.Reserved())

	// a closed context accepts no further reservations
	local.SetBytes(1000)
	assert.Equal(t, int64(0), agg.Reserved())
}
