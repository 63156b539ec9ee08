package main

import (
	"errors"
	"os"

	"github.com/goliatone/go-widgetmcp"
	"github.com/goliatone/go-widgetmcp/internal/cli"
)

// Set via ldflags at build time.
var version = widgetmcp.Version

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
