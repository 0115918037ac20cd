package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/lcc-engine/config"
	"github.com/warp/lcc-engine/logging"
)

// rootOptions is shared by every subcommand. cfg is filled in before any
// subcommand runs.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lcc",
		Short:         "Life-cycle cost project tool",
		Long:          "lcc: Import legacy life-cycle cost projects and compile them into engine requests",
		SilenceUsage:  true,
		Example:       rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			if opts.logFormat != "" {
				cfg.Logging.Format = logging.Format(opts.logFormat)
			}
			opts.cfg = cfg

			logging.Init(cfg.Logging)
			cmd.SetContext(logging.WithContext(cmd.Context(), logging.Default()))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: console or json (overrides config)")

	cmd.AddCommand(newImportCmd(opts), newCompileCmd(opts), newServeCmd(opts))
	return cmd
}

const rootCmdExample = `  # Import two legacy projects into a database
  lcc import --db lcc.db hq.xml annex.xml

  # Print the engine request of a project with a dataset
  lcc compile --dataset datasets/2023.yaml hq.xml

  # Compile each cost separately
  lcc compile --line-items hq.xml

  # Serve the API on port 9090
  lcc serve --port 9090`
