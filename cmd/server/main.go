/*
main.go - API server entry point

PURPOSE:
  Starts the life-cycle cost HTTP API. Handles configuration, logging
  setup and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, optional file, LCC_* environment)
  2. Apply command-line flags
  3. Initialize logging
  4. Open SQLite store and dataset, start the dataset reloader
  5. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config   YAML configuration file
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: lcc.db)
            Use ":memory:" for in-memory database
  -dataset  Dataset YAML file with escalation and emissions tables

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the dataset reloader and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/lcc.db" -dataset=datasets/2023.yaml

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/serve.go: Server lifecycle
  - config/config.go: Configuration sources
  - cmd/lcc: Command-line tool with the same serve command
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/lcc-engine/api"
	"github.com/warp/lcc-engine/config"
	"github.com/warp/lcc-engine/logging"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	dataset := flag.String("dataset", "", "Dataset YAML file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Server.DB = *dbPath
	}
	if *dataset != "" {
		cfg.Dataset.Path = *dataset
	}

	logging.Init(cfg.Logging)
	logger := logging.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, logger)

	if err := api.Run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
