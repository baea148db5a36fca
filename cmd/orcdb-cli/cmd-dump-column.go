package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orcdb/orcdb/encoding/common"
	"github.com/orcdb/orcdb/encoding/orc"
)

type dumpColumnCmd struct {
	backendOptions

	FileID string `arg:"" help:"file ID to read"`
	Column uint32 `arg:"" help:"column ID to dump"`

	MaxRows int `help:"stop after this many rows" default:"100"`
}

func (cmd *dumpColumnCmd) Run(ctx *globalOptions) error {
	fileID, err := uuid.Parse(cmd.FileID)
	if err != nil {
		return err
	}

	r, err := loadBackend(&cmd.backendOptions, ctx)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	tail, err := orc.ReadFileTail(context.Background(), r, fileID)
	if err != nil {
		return err
	}
	if int(cmd.Column) >= len(tail.Schema) {
		return fmt.Errorf("column %d outside schema of %d columns", cmd.Column, len(tail.Schema))
	}

	column := common.ColumnID(cmd.Column)
	kind := tail.Schema[column].Kind
	switch kind {
	case common.TypeStruct, common.TypeList, common.TypeMap:
		return fmt.Errorf("column %d is a %s, dump one of its scalar children instead", cmd.Column, kind)
	}

	reader, err := orc.NewStripeReader(r, fileID, tail.Schema, []common.ColumnID{column}, tail.Compression, tail.RowsInRowGroup, nil, nil, newLogger(ctx), nil)
	if err != nil {
		return err
	}
	decoder, err := orc.NewColumnReader(tail.Schema, column, nil)
	if err != nil {
		return err
	}

	scale := tail.Schema[column].Scale
	printed := 0
	rowBase := uint64(0)

	for _, info := range tail.Stripes {
		stripe, err := reader.ReadStripe(context.Background(), info)
		if err != nil {
			return err
		}
		if stripe == nil {
			rowBase += info.NumberOfRows
			continue
		}

		err = decoder.StartStripe(stripe.FileTimeZone, stripe.Encodings, stripe.DictionarySources)
		if err != nil {
			return err
		}

		for i := range stripe.RowGroups {
			rg := &stripe.RowGroups[i]
			err = decoder.StartRowGroup(rg.StreamSources)
			if err != nil {
				return err
			}

			row := rowBase + rg.RowOffset
			remaining := int(rg.RowCount)
			for remaining > 0 {
				batch := remaining
				if batch > 1024 {
					batch = 1024
				}
				decoder.PrepareNextRead(batch)
				block, err := decoder.ReadBlock()
				if err != nil {
					return err
				}

				n := printBlock(block, scale, row, cmd.MaxRows-printed)
				printed += n
				if printed >= cmd.MaxRows {
					return nil
				}
				row += uint64(block.NumValues)
				remaining -= batch
			}
		}
		rowBase += info.NumberOfRows
	}
	return nil
}

// printBlock prints up to limit rows and returns the number printed. The
// typed slice holds one element per non-null position.
func printBlock(b *common.Block, scale int32, row uint64, limit int) int {
	next := 0
	printed := 0
	for i := 0; i < b.NumValues && printed < limit; i++ {
		if b.IsNull(i) {
			fmt.Printf("%d: NULL\n", row+uint64(i))
			printed++
			continue
		}
		fmt.Printf("%d: %s\n", row+uint64(i), formatValue(b, next, scale))
		next++
		printed++
	}
	return printed
}

func formatValue(b *common.Block, i int, scale int32) string {
	switch b.Kind {
	case common.TypeBoolean:
		return strconv.FormatBool(b.Int64s[i] != 0)
	case common.TypeByte, common.TypeShort, common.TypeInt, common.TypeLong:
		return strconv.FormatInt(b.Int64s[i], 10)
	case common.TypeFloat, common.TypeDouble:
		return strconv.FormatFloat(b.Float64s[i], 'g', -1, 64)
	case common.TypeString, common.TypeVarchar, common.TypeChar:
		return strconv.Quote(string(b.Bytes[i]))
	case common.TypeBinary:
		return hex.EncodeToString(b.Bytes[i])
	case common.TypeTimestamp:
		return time.UnixMilli(b.Int64s[i]).UTC().Format(time.RFC3339Nano)
	case common.TypeDecimal:
		return formatDecimal(b.Int64s[i], scale)
	}
	return fmt.Sprintf("<%s>", b.Kind)
}

func formatDecimal(unscaled int64, scale int32) string {
	s := strconv.FormatInt(unscaled, 10)
	if scale <= 0 {
		return s
	}
	neg := ""
	if strings.HasPrefix(s, "-") {
		neg = "-"
		s = s[1:]
	}
	for int32(len(s)) <= scale {
		s = "0" + s
	}
	point := len(s) - int(scale)
	return neg + s[:point] + "." + s[point:]
}
