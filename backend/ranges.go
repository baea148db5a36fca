package backend

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/orcdb/orcdb/backend/instrumentation"
	"github.com/orcdb/orcdb/encoding/common"
)

// ReadRanges fetches all requested disk ranges with a single covering read
// and returns a per-stream view into the shared buffer. Ranges within a
// stripe are adjacent, so one read at [min offset, max end) wastes nothing.
// The returned slices alias one buffer; they are valid until the caller
// releases it.
func ReadRanges(ctx context.Context, r Reader, fileID uuid.UUID, ranges map[common.StreamID]common.DiskRange) (map[common.StreamID][]byte, error) {
	if len(ranges) == 0 {
		return map[common.StreamID][]byte{}, nil
	}

	var start, end uint64
	first := true
	for _, dr := range ranges {
		if first || dr.Offset < start {
			start = dr.Offset
		}
		if first || dr.End() > end {
			end = dr.End()
		}
		first = false
	}

	buffer := make([]byte, end-start)
	err := r.ReadRange(ctx, fileID, start, buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading ranges for file %v", fileID)
	}
	instrumentation.ObserveRangedRead(len(ranges), len(buffer))

	out := make(map[common.StreamID][]byte, len(ranges))
	for id, dr := range ranges {
		out[id] = buffer[dr.Offset-start : dr.End()-start]
	}
	return out, nil
}
