package orc

import (
	"fmt"
	"time"

	"github.com/orcdb/orcdb/encoding/common"
)

// timestampBaseTime is the epoch the DATA stream's seconds are relative to,
// interpreted in the stripe's file time zone.
var timestampBaseTime = struct{ year, month, day int }{2015, 1, 1}

// timestampColumnReader decodes timestamp columns into epoch milliseconds:
// an optional PRESENT stream, a zigzag-varint DATA stream of seconds relative
// to the file-zone base epoch, and an unsigned-varint SECONDARY stream of
// nanoseconds with a packed trailing-zero count.
type timestampColumnReader struct {
	column          common.ColumnID
	storageTimeZone *time.Location

	// per-stripe derived state
	fileTimeZone *time.Location
	baseSeconds  int64
	convertZones bool

	readOffset    int
	nextBatchSize int

	present         presentStream
	dataSource      *StreamSource
	secondarySource *StreamSource
	seconds         *LongStream
	nanos           *LongStream

	rowGroupOpen bool
}

func newTimestampColumnReader(column common.ColumnID, storageTimeZone *time.Location) *timestampColumnReader {
	return &timestampColumnReader{
		column:          column,
		storageTimeZone: storageTimeZone,
		present:         presentStream{column: column},
	}
}

func (r *timestampColumnReader) StartStripe(fileTimeZone *time.Location, _ []ColumnEncoding, _ *StreamSources) error {
	if fileTimeZone == nil {
		fileTimeZone = time.UTC
	}
	r.fileTimeZone = fileTimeZone
	r.baseSeconds = time.Date(timestampBaseTime.year, time.Month(timestampBaseTime.month), timestampBaseTime.day, 0, 0, 0, 0, fileTimeZone).Unix()

	// legacy semantics: values move between zones only when the zones differ
	// and are not both UTC-equivalent
	r.convertZones = fileTimeZone.String() != r.storageTimeZone.String() &&
		!(utcEquivalent(fileTimeZone) && utcEquivalent(r.storageTimeZone))

	r.present.source = nil
	r.present.stream = nil
	r.dataSource = nil
	r.secondarySource = nil
	r.seconds = nil
	r.nanos = nil
	r.rowGroupOpen = false
	return nil
}

func (r *timestampColumnReader) StartRowGroup(sources *StreamSources) error {
	r.present.startRowGroup(sources)
	r.dataSource = sources.Stream(r.column, common.StreamData)
	r.secondarySource = sources.Stream(r.column, common.StreamSecondary)
	r.seconds = nil
	r.nanos = nil
	r.readOffset = 0
	r.nextBatchSize = 0
	r.rowGroupOpen = false
	return nil
}

func (r *timestampColumnReader) PrepareNextRead(batchSize int) {
	r.readOffset += r.nextBatchSize
	r.nextBatchSize = batchSize
}

func (r *timestampColumnReader) openRowGroup() error {
	err := r.present.open()
	if err != nil {
		return err
	}
	if r.dataSource != nil {
		loader, err := r.dataSource.Open()
		if err != nil {
			return err
		}
		r.seconds = NewLongStream(loader, true)
	}
	if r.secondarySource != nil {
		loader, err := r.secondarySource.Open()
		if err != nil {
			return err
		}
		r.nanos = NewLongStream(loader, false)
	}
	r.rowGroupOpen = true
	return nil
}

func (r *timestampColumnReader) ReadBlock() (*common.Block, error) {
	if !r.rowGroupOpen {
		err := r.openRowGroup()
		if err != nil {
			return nil, err
		}
	}

	if r.readOffset > 0 {
		dataSkip, err := r.present.skip(r.readOffset)
		if err != nil {
			return nil, err
		}
		if dataSkip > 0 {
			if r.seconds == nil {
				return nil, missingStreamError(r.source(), common.StreamData)
			}
			if r.nanos == nil {
				return nil, missingStreamError(r.source(), common.StreamSecondary)
			}
			err = r.seconds.Skip(dataSkip)
			if err != nil {
				return nil, err
			}
			err = r.nanos.Skip(dataSkip)
			if err != nil {
				return nil, err
			}
		}
	}

	n := r.nextBatchSize
	block := &common.Block{Kind: common.TypeTimestamp, NumValues: n}

	if n > 0 {
		nonNull := n
		if r.present.stream != nil {
			nulls := make([]bool, n)
			nullCount, err := r.present.read(n, nulls)
			if err != nil {
				return nil, err
			}
			if nullCount > 0 {
				block.Nulls = nulls
			}
			nonNull = n - nullCount
		}

		if nonNull > 0 {
			if r.seconds == nil {
				return nil, missingStreamError(r.source(), common.StreamData)
			}
			if r.nanos == nil {
				return nil, missingStreamError(r.source(), common.StreamSecondary)
			}

			block.Int64s = make([]int64, nonNull)
			for i := 0; i < nonNull; i++ {
				seconds, err := r.seconds.Next()
				if err != nil {
					return nil, err
				}
				serializedNanos, err := r.nanos.Next()
				if err != nil {
					return nil, err
				}
				millis, err := decodeTimestamp(seconds, serializedNanos, r.baseSeconds, r.source())
				if err != nil {
					return nil, err
				}
				if r.convertZones {
					millis = convertTimeZone(millis, r.fileTimeZone, r.storageTimeZone)
				}
				block.Int64s[i] = millis
			}
		}
	}

	r.readOffset = 0
	r.nextBatchSize = 0
	return block, nil
}

// decodeTimestamp combines a (seconds, packed nanos) pair into epoch millis.
// Millisecond truncation must floor toward negative infinity: host integer
// division rounds toward zero, so negative values with a fractional part are
// corrected by a full second before the nano contribution is added.
func decodeTimestamp(seconds, serializedNanos, baseSeconds int64, source string) (int64, error) {
	millis := (seconds + baseSeconds) * 1000
	nanos := parseNanos(serializedNanos)
	if nanos < 0 || nanos > 999_999_999 {
		return 0, common.Corruptionf(source, "nanos field of timestamp out of range: %d", nanos)
	}
	if nanos != 0 {
		if millis < 0 {
			millis -= 1000
		}
		millis += nanos / 1_000_000
	}
	return millis, nil
}

// parseNanos unpacks the 3-bit trailing-zeros count: a non-zero count z means
// the stored value was divided by 10^(z+1).
func parseNanos(serialized int64) int64 {
	zeros := serialized & 0x7
	result := serialized >> 3
	if zeros != 0 {
		for i := int64(0); i <= zeros; i++ {
			result *= 10
		}
	}
	return result
}

// convertTimeZone reinterprets millis written in the from zone as a value in
// the to zone, using each zone's offset at that instant.
func convertTimeZone(millis int64, from, to *time.Location) int64 {
	t := time.UnixMilli(millis)
	_, fromOffset := t.In(from).Zone()
	_, toOffset := t.In(to).Zone()
	return millis + int64(fromOffset-toOffset)*1000
}

func utcEquivalent(loc *time.Location) bool {
	if loc == time.UTC {
		return true
	}
	switch loc.String() {
	case "", "UTC", "UCT", "GMT", "Zulu", "Etc/UTC", "Etc/UCT", "Etc/GMT", "Etc/Zulu":
		return true
	}
	return false
}

func (r *timestampColumnReader) source() string {
	return fmt.Sprintf("column %d (timestamp)", r.column)
}
