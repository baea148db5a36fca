package orc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/willf/bloom"

	"github.com/orcdb/orcdb/backend"
	"github.com/orcdb/orcdb/encoding/common"
	orcdb_io "github.com/orcdb/orcdb/pkg/io"
	"github.com/orcdb/orcdb/pkg/memory"
)

// StripeReader turns one stripe of a file into decodable row groups. It holds
// no state between ReadStripe calls; row-offset accounting across stripes
// belongs to the caller. A reader must not be shared between goroutines, but
// separate readers over the same file are independent.
type StripeReader struct {
	reader backend.Reader
	fileID uuid.UUID

	schema         common.Schema
	include        map[common.ColumnID]struct{}
	compression    Compression
	pool           ReaderPool
	rowsInRowGroup uint64
	predicate      common.Predicate

	storageTimeZone *time.Location
	logger          log.Logger
	mem             *memory.AggregatedContext
}

// NewStripeReader wires a reader over the given file. columns are the root
// column ids to decode; their nested children are included automatically.
// predicate may be nil for no pushdown.
func NewStripeReader(r backend.Reader, fileID uuid.UUID, schema common.Schema, columns []common.ColumnID, compression Compression, rowsInRowGroup uint64, predicate common.Predicate, storageTimeZone *time.Location, logger log.Logger, mem *memory.AggregatedContext) (*StripeReader, error) {
	pool, err := getReaderPool(compression)
	if err != nil {
		return nil, err
	}
	if rowsInRowGroup == 0 {
		return nil, fmt.Errorf("rowsInRowGroup must be positive")
	}
	if predicate == nil {
		predicate = common.MatchAll{}
	}
	if storageTimeZone == nil {
		storageTimeZone = time.UTC
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if mem == nil {
		mem = memory.NewAggregatedContext()
	}

	return &StripeReader{
		reader:          r,
		fileID:          fileID,
		schema:          schema,
		include:         includedColumns(schema, columns),
		compression:     compression,
		pool:            pool,
		rowsInRowGroup:  rowsInRowGroup,
		predicate:       predicate,
		storageTimeZone: storageTimeZone,
		logger:          logger,
		mem:             mem,
	}, nil
}

// ReadStripe materializes one stripe. It returns nil when the predicate
// prunes every row group; callers must treat that as "stripe fully pruned",
// not as a stripe with zero rows.
func (sr *StripeReader) ReadStripe(ctx context.Context, info StripeInformation) (*Stripe, error) {
	footer, err := sr.readStripeFooter(ctx, info)
	if err != nil {
		return nil, err
	}

	fileTimeZone := time.UTC
	if footer.TimeZone != "" {
		fileTimeZone, err = time.LoadLocation(footer.TimeZone)
		if err != nil {
			return nil, common.Corruptionf(sr.source(info), "unknown stripe time zone %q", footer.TimeZone)
		}
	}

	var (
		rowGroups  []RowGroup
		dictionary *StreamSources
		indexes    map[common.ColumnID][]RowGroupIndexEntry
	)

	if info.NumberOfRows > sr.rowsInRowGroup {
		res, err := sr.readMultipleRowGroups(ctx, info, footer)
		if err != nil {
			return nil, err
		}
		if res.pruned {
			metricStripesPruned.Inc()
			return nil, nil
		}
		indexes = res.indexes
		if res.fallback {
			// a corrupt mid-stripe index must not prevent reading data that
			// is otherwise intact: degrade to one row group for the stripe
			level.Warn(sr.logger).Log("msg", "invalid row group checkpoints, reading stripe as a single row group", "file", sr.fileID, "stripeOffset", info.Offset, "err", res.fallbackErr)
			metricStripeFallbacks.Inc()
		} else {
			rowGroups = res.rowGroups
			dictionary = res.dictionary
		}
	}

	if rowGroups == nil {
		rowGroups, dictionary, err = sr.readSingleRowGroup(ctx, info, footer, indexes)
		if err != nil {
			return nil, err
		}
	}

	metricStripesRead.Inc()
	return &Stripe{
		RowCount:          info.NumberOfRows,
		FileTimeZone:      fileTimeZone,
		StorageTimeZone:   sr.storageTimeZone,
		Encodings:         footer.Encodings,
		RowGroups:         rowGroups,
		DictionarySources: dictionary,
	}, nil
}

func (sr *StripeReader) readStripeFooter(ctx context.Context, info StripeInformation) (*StripeFooter, error) {
	source := sr.source(info)

	buffer := make([]byte, info.FooterLength)
	err := sr.reader.ReadRange(ctx, sr.fileID, info.FooterOffset(), buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading stripe footer of %s", source)
	}

	local := sr.mem.NewLocalContext()
	defer local.Close()

	return decodeStripeFooter(buffer, sr.pool, info, source, local)
}

func decodeStripeFooter(buffer []byte, pool ReaderPool, info StripeInformation, source string, local *memory.LocalContext) (*StripeFooter, error) {
	loader := NewChunkLoader(source+" footer", buffer, pool, local)
	defer loader.Close()

	footerBytes, err := orcdb_io.ReadAllWithEstimate(loader, int64(info.FooterLength)*3)
	if err != nil {
		return nil, err
	}
	return unmarshalStripeFooter(footerBytes, source)
}

// ReadStripeFooter reads and decodes the footer of a single stripe without
// constructing a StripeReader.
func ReadStripeFooter(ctx context.Context, r backend.Reader, fileID uuid.UUID, compression Compression, info StripeInformation) (*StripeFooter, error) {
	pool, err := getReaderPool(compression)
	if err != nil {
		return nil, err
	}
	source := fmt.Sprintf("file %s stripe @%d", fileID, info.Offset)

	buffer := make([]byte, info.FooterLength)
	err = r.ReadRange(ctx, fileID, info.FooterOffset(), buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading stripe footer of %s", source)
	}
	return decodeStripeFooter(buffer, pool, info, source, nil)
}

type multiGroupResult struct {
	rowGroups  []RowGroup
	dictionary *StreamSources
	indexes    map[common.ColumnID][]RowGroupIndexEntry
	pruned     bool

	// fallback means the row-index checkpoints were unusable and the stripe
	// must be re-read as a single row group. It is a result, not an error,
	// so the degrade path is ordinary control flow.
	fallback    bool
	fallbackErr error
}

func (sr *StripeReader) readMultipleRowGroups(ctx context.Context, info StripeInformation, footer *StripeFooter) (multiGroupResult, error) {
	source := sr.source(info)
	numGroups := rowGroupCount(info.NumberOfRows, sr.rowsInRowGroup)

	// one bulk read for every included stream, index and data alike
	ranges := sr.diskRanges(info, footer, func(s *Stream) bool {
		return sr.streamIncluded(s)
	})
	streamData, err := backend.ReadRanges(ctx, sr.reader, sr.fileID, ranges)
	if err != nil {
		return multiGroupResult{}, err
	}
	local := sr.mem.NewLocalContext()
	trackRanges(local, streamData)

	blooms, err := sr.decodeBloomFilters(footer, streamData, source)
	if err != nil {
		local.Close()
		return multiGroupResult{}, err
	}

	indexes := make(map[common.ColumnID][]RowGroupIndexEntry)
	for _, s := range footer.Streams {
		if s.Kind != common.StreamRowIndex {
			continue
		}
		data, ok := streamData[s.ID()]
		if !ok {
			continue
		}
		entries, err := sr.decodeRowGroupIndex(data, s, source)
		if err != nil {
			local.Close()
			return multiGroupResult{indexes: indexes, fallback: true, fallbackErr: err}, nil
		}
		if len(entries) != numGroups {
			local.Close()
			return multiGroupResult{indexes: indexes, fallback: true, fallbackErr: common.Corruptionf(source, "row index for column %d has %d entries, expected %d", s.Column, len(entries), numGroups)}, nil
		}
		if filters := blooms[s.Column]; filters != nil {
			for i := range entries {
				if i < len(filters) {
					entries[i].Statistics.Bloom = filters[i]
				}
			}
		}
		indexes[s.Column] = entries
	}

	selected := selectRowGroups(info.NumberOfRows, sr.rowsInRowGroup, len(sr.schema), indexes, sr.predicate)
	if len(selected) == 0 {
		// release all tracked memory immediately: nothing survives a prune
		local.Close()
		return multiGroupResult{pruned: true}, nil
	}
	metricRowGroupsSelected.Add(float64(len(selected)))

	dictionary, rowStreams := sr.splitDataStreams(footer, streamData, source)

	rowGroups := make([]RowGroup, 0, len(selected))
	for _, group := range selected {
		rg, err := sr.buildRowGroup(info, group, rowStreams, indexes, source)
		if err != nil {
			local.Close()
			return multiGroupResult{indexes: indexes, fallback: true, fallbackErr: err}, nil
		}
		rowGroups = append(rowGroups, rg)
	}

	return multiGroupResult{
		rowGroups:  rowGroups,
		dictionary: dictionary,
		indexes:    indexes,
	}, nil
}

// readSingleRowGroup derives one row group spanning the entire stripe. It is
// the fallback when checkpoints are invalid and the direct path for stripes
// no larger than a row group. indexes, when available from an abandoned
// multi-group attempt, only contribute the average-row-bytes estimate.
func (sr *StripeReader) readSingleRowGroup(ctx context.Context, info StripeInformation, footer *StripeFooter, indexes map[common.ColumnID][]RowGroupIndexEntry) ([]RowGroup, *StreamSources, error) {
	source := sr.source(info)

	// recomputed from scratch: only data streams, no index region
	ranges := sr.diskRanges(info, footer, func(s *Stream) bool {
		return !s.Kind.IsIndex() && sr.streamIncluded(s)
	})
	streamData, err := backend.ReadRanges(ctx, sr.reader, sr.fileID, ranges)
	if err != nil {
		return nil, nil, err
	}
	trackRanges(sr.mem.NewLocalContext(), streamData)

	dictionary, rowStreams := sr.splitDataStreams(footer, streamData, source)

	sources := make(map[common.StreamID]*StreamSource, len(rowStreams))
	for id, data := range rowStreams {
		sources[id] = newStreamSource(id, fmt.Sprintf("%s stream %s", source, id), data, sr.pool, 0, 0, sr.mem)
	}

	return []RowGroup{{
		GroupID:            0,
		RowOffset:          0,
		RowCount:           info.NumberOfRows,
		MinAverageRowBytes: averageRowBytes(indexes),
		StreamSources:      newStreamSources(sources),
	}}, dictionary, nil
}

func (sr *StripeReader) buildRowGroup(info StripeInformation, group int, rowStreams map[common.StreamID][]byte, indexes map[common.ColumnID][]RowGroupIndexEntry, source string) (RowGroup, error) {
	streamLengths := make(map[common.StreamID]uint64)

	sources := make(map[common.StreamID]*StreamSource, len(rowStreams))
	for id, data := range rowStreams {
		entries, ok := indexes[id.Column]
		if !ok {
			return RowGroup{}, common.Corruptionf(source, "no row index for column %d", id.Column)
		}
		checkpoint := entries[group].checkpointForStream(id.Kind)
		err := validateCheckpoint(checkpoint, uint64(len(data)), sr.pool != nil, fmt.Sprintf("%s stream %s", source, id))
		if err != nil {
			return RowGroup{}, err
		}
		bitOffset := entries[group].bitOffsetForStream(id.Kind)
		sources[id] = newStreamSource(id, fmt.Sprintf("%s stream %s", source, id), data, sr.pool, checkpoint, bitOffset, sr.mem)
		streamLengths[id] = uint64(len(data))
	}

	rowOffset := uint64(group) * sr.rowsInRowGroup
	rows := sr.rowsInRowGroup
	if info.NumberOfRows-rowOffset < rows {
		rows = info.NumberOfRows - rowOffset
	}

	var avg uint64
	for _, entries := range indexes {
		avg += entries[group].Statistics.AverageBytesPerValue()
	}

	return RowGroup{
		GroupID:            group,
		RowOffset:          rowOffset,
		RowCount:           rows,
		MinAverageRowBytes: avg,
		StreamSources:      newStreamSources(sources),
	}, nil
}

// decodeBloomFilters decodes the per-row-group bloom filter streams for every
// included column. The UTF8 variant wins; the legacy variant is decoded only
// for columns lacking a UTF8 stream.
func (sr *StripeReader) decodeBloomFilters(footer *StripeFooter, streamData map[common.StreamID][]byte, source string) (map[common.ColumnID][]*bloom.BloomFilter, error) {
	blooms := make(map[common.ColumnID][]*bloom.BloomFilter)

	for _, s := range footer.Streams {
		if s.Kind != common.StreamBloomFilterUTF8 {
			continue
		}
		if data, ok := streamData[s.ID()]; ok {
			filters, err := sr.decodeBloomFilterStream(data, s, source)
			if err != nil {
				return nil, err
			}
			blooms[s.Column] = filters
		}
	}
	for _, s := range footer.Streams {
		if s.Kind != common.StreamBloomFilter {
			continue
		}
		if _, exists := blooms[s.Column]; exists {
			continue
		}
		if data, ok := streamData[s.ID()]; ok {
			filters, err := sr.decodeBloomFilterStream(data, s, source)
			if err != nil {
				return nil, err
			}
			blooms[s.Column] = filters
		}
	}
	return blooms, nil
}

func (sr *StripeReader) decodeRowGroupIndex(data []byte, s *Stream, source string) ([]RowGroupIndexEntry, error) {
	raw, streamSource, err := sr.decodeIndexStream(data, s, source)
	if err != nil {
		return nil, err
	}
	return unmarshalRowGroupIndex(raw, streamSource)
}

func (sr *StripeReader) decodeBloomFilterStream(data []byte, s *Stream, source string) ([]*bloom.BloomFilter, error) {
	raw, streamSource, err := sr.decodeIndexStream(data, s, source)
	if err != nil {
		return nil, err
	}
	return unmarshalBloomFilterStream(raw, streamSource)
}

// decodeIndexStream runs an index-region stream through the chunk loader and
// returns the decompressed bytes along with the stream's source identity.
func (sr *StripeReader) decodeIndexStream(data []byte, s *Stream, source string) ([]byte, string, error) {
	local := sr.mem.NewLocalContext()
	defer local.Close()

	streamSource := fmt.Sprintf("%s stream %s", source, s.ID())
	loader := NewChunkLoader(streamSource, data, sr.pool, local)
	defer loader.Close()

	raw, err := orcdb_io.ReadAllWithEstimate(loader, int64(len(data))*3)
	return raw, streamSource, err
}

// splitDataStreams partitions the fetched data-region streams into the
// stripe-scoped dictionary set and the per-row-group set.
func (sr *StripeReader) splitDataStreams(footer *StripeFooter, streamData map[common.StreamID][]byte, source string) (*StreamSources, map[common.StreamID][]byte) {
	dictionary := make(map[common.StreamID]*StreamSource)
	rowStreams := make(map[common.StreamID][]byte)

	for _, s := range footer.Streams {
		data, ok := streamData[s.ID()]
		if !ok || s.Kind.IsIndex() {
			continue
		}
		if isDictionaryStream(s, footer.Encodings) {
			dictionary[s.ID()] = newStreamSource(s.ID(), fmt.Sprintf("%s stream %s", source, s.ID()), data, sr.pool, 0, 0, sr.mem)
		} else {
			rowStreams[s.ID()] = data
		}
	}
	return newStreamSources(dictionary), rowStreams
}

func (sr *StripeReader) diskRanges(info StripeInformation, footer *StripeFooter, include func(*Stream) bool) map[common.StreamID]common.DiskRange {
	ranges := streamDiskRanges(footer.Streams, include)
	for id, dr := range ranges {
		ranges[id] = common.DiskRange{Offset: info.Offset + dr.Offset, Length: dr.Length}
	}
	return ranges
}

func (sr *StripeReader) streamIncluded(s *Stream) bool {
	if _, ok := sr.include[s.Column]; !ok {
		return false
	}
	if int(s.Column) >= len(sr.schema) {
		return false
	}
	return isSupportedStreamType(s, sr.schema[s.Column].Kind)
}

func (sr *StripeReader) source(info StripeInformation) string {
	return fmt.Sprintf("file %s stripe @%d", sr.fileID, info.Offset)
}

func trackRanges(local *memory.LocalContext, streamData map[common.StreamID][]byte) {
	total := int64(0)
	for _, b := range streamData {
		total += int64(len(b))
	}
	local.SetBytes(total)
}

func averageRowBytes(indexes map[common.ColumnID][]RowGroupIndexEntry) uint64 {
	var avg uint64
	for _, entries := range indexes {
		var bytes, values uint64
		for i := range entries {
			bytes += entries[i].Statistics.TotalBytes
			if entries[i].Statistics.NumberOfValues > 0 {
				values += uint64(entries[i].Statistics.NumberOfValues)
			}
		}
		if values > 0 {
			avg += bytes / values
		}
	}
	return avg
}
