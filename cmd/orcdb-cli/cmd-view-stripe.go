package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/orcdb/orcdb/encoding/common"
	"github.com/orcdb/orcdb/encoding/orc"
)

type viewStripeCmd struct {
	backendOptions

	FileID string `arg:"" help:"file ID to inspect"`
	Stripe int    `arg:"" help:"stripe index within the file"`
}

func (cmd *viewStripeCmd) Run(ctx *globalOptions) error {
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
	if cmd.Stripe < 0 || cmd.Stripe >= len(tail.Stripes) {
		return fmt.Errorf("stripe %d outside file with %d stripes", cmd.Stripe, len(tail.Stripes))
	}
	info := tail.Stripes[cmd.Stripe]

	footer, err := orc.ReadStripeFooter(context.Background(), r, fileID, tail.Compression, info)
	if err != nil {
		return err
	}

	fmt.Println("offset:", info.Offset)
	fmt.Println("rows:", humanize.Comma(int64(info.NumberOfRows)))
	fmt.Println("time zone:", footer.TimeZone)

	encodings := make([][]string, 0, len(footer.Encodings))
	for column, e := range footer.Encodings {
		row := []string{strconv.Itoa(column), typeName(tail.Schema, column), e.Kind.String(), ""}
		if e.Kind == orc.EncodingDictionary {
			row[3] = humanize.Comma(int64(e.DictionarySize))
		}
		encodings = append(encodings, row)
	}

	fmt.Println()
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"column", "type", "encoding", "dict size"})
	w.AppendBulk(encodings)
	w.Render()

	streams := make([][]string, 0, len(footer.Streams))
	offset := info.Offset
	for _, s := range footer.Streams {
		streams = append(streams, []string{
			strconv.FormatUint(uint64(s.Column), 10),
			s.Kind.String(),
			strconv.FormatUint(offset, 10),
			humanize.Bytes(s.Length),
		})
		offset += s.Length
	}

	fmt.Println()
	w = tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"column", "stream", "offset", "length"})
	w.AppendBulk(streams)
	w.Render()
	return nil
}

func typeName(schema common.Schema, column int) string {
	if column >= len(schema) {
		return "?"
	}
	return schema[column].Kind.String()
}
