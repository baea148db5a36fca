package main

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/orcdb/orcdb/backend"
	"github.com/orcdb/orcdb/backend/local"
)

type globalOptions struct {
	Verbose bool `short:"v" help:"enable verbose logging"`
}

type backendOptions struct {
	Path string `help:"path of the local backend" default:"."`
}

func loadBackend(b *backendOptions, _ *globalOptions) (backend.Reader, error) {
	r, _, err := local.New(&local.Config{Path: b.Path})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newLogger(g *globalOptions) log.Logger {
	if !g.Verbose {
		return log.NewNopLogger()
	}
	return level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowDebug())
}
