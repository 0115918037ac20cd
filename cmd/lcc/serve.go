package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/lcc-engine/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port    int
		dbPath  string
		dataset string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if port != 0 {
				cfg.Server.Port = port
			}
			if dbPath != "" {
				cfg.Server.DB = dbPath
			}
			if dataset != "" {
				cfg.Dataset.Path = dataset
			}
			return api.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset YAML file (overrides config)")
	return cmd
}
