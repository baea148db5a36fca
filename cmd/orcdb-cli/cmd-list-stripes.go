package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/orcdb/orcdb/encoding/orc"
)

type listStripesCmd struct {
	backendOptions

	FileID string `arg:"" help:"file ID to list"`
}

func (cmd *listStripesCmd) Run(ctx *globalOptions) error {
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

	fmt.Println("compression:", tail.Compression)
	fmt.Println("rows per row group:", tail.RowsInRowGroup)
	fmt.Println("columns:", len(tail.Schema))

	out := make([][]string, 0, len(tail.Stripes))
	totalRows := int64(0)
	totalBytes := uint64(0)
	for i, s := range tail.Stripes {
		out = append(out, []string{
			strconv.Itoa(i),
			strconv.FormatUint(s.Offset, 10),
			humanize.Comma(int64(s.NumberOfRows)),
			humanize.Bytes(s.IndexLength),
			humanize.Bytes(s.DataLength),
			humanize.Bytes(s.FooterLength),
		})
		totalRows += int64(s.NumberOfRows)
		totalBytes += s.TotalLength()
	}

	fmt.Println()
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"idx", "offset", "rows", "index", "data", "footer"})
	w.SetFooter([]string{"", "", humanize.Comma(totalRows), "", humanize.Bytes(totalBytes), ""})
	w.AppendBulk(out)
	w.Render()
	return nil
}
