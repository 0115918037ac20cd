/*
Command lcc imports legacy life-cycle cost projects, compiles them into
engine requests and serves the HTTP API.

USAGE:

	lcc import FILE...          Import documents and print a summary per file
	lcc compile FILE            Print the engine request of one document
	lcc serve                   Run the HTTP API (same as cmd/server)

GLOBAL FLAGS:

	--config FILE       YAML configuration file
	--log-level LEVEL   zerolog level (debug, info, warn, error)
	--log-format FMT    console or json
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
