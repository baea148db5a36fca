package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/orcdb/orcdb/encoding/common"
	"github.com/orcdb/orcdb/encoding/orc"
)

type viewSchemaCmd struct {
	backendOptions

	FileID string `arg:"" help:"file ID to inspect"`
}

func (cmd *viewSchemaCmd) Run(ctx *globalOptions) error {
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

	printColumn(tail.Schema, 0, "", 0)
	return nil
}

func printColumn(schema common.Schema, id common.ColumnID, name string, depth int) {
	if int(id) >= len(schema) {
		fmt.Printf("%scol %d <missing from schema>\n", strings.Repeat("  ", depth), id)
		return
	}

	t := schema[id]
	label := t.Kind.String()
	if t.Kind == common.TypeDecimal {
		label = fmt.Sprintf("%s(scale=%d)", label, t.Scale)
	}
	if name != "" {
		label = name + " " + label
	}
	fmt.Printf("%scol %-4d %s\n", strings.Repeat("  ", depth), id, label)

	for i, child := range t.Children {
		childName := ""
		if i < len(t.FieldNames) {
			childName = t.FieldNames[i]
		}
		printColumn(schema, child, childName, depth+1)
	}
}
