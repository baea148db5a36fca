package main

import (
	"github.com/alecthomas/kong"
)

var cli struct {
	globalOptions

	List struct {
		Stripes listStripesCmd `cmd:"" help:"List the stripes in a file."`
	} `cmd:""`

	View struct {
		Schema viewSchemaCmd `cmd:"" help:"View the schema of a file."`
		Stripe viewStripeCmd `cmd:"" help:"View the footer of a single stripe."`
	} `cmd:""`

	Dump struct {
		Column dumpColumnCmd `cmd:"" help:"Dump the decoded values of one column."`
	} `cmd:""`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("orcdb-cli"),
		kong.Description("orcdb file inspection tool"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli.globalOptions)
	ctx.FatalIfErrorf(err)
}
