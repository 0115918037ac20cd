package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/lcc-engine/cashflow"
	"github.com/warp/lcc-engine/datasource"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/legacy"
)

type compileOptions struct {
	dataset   string
	output    string
	lineItems bool
}

func newCompileCmd(opts *rootOptions) *cobra.Command {
	var flags compileOptions

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a legacy document into an engine request",
		Long: "Import a legacy XML document and print the engine request as JSON. " +
			"With --line-items the compiled items of each cost are printed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dataset == "" {
				flags.dataset = opts.cfg.Dataset.Path
			}

			out := cmd.OutOrStdout()
			if flags.output != "" {
				f, err := os.Create(flags.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			return compileFile(cmd.Context(), out, args[0], opts.cfg.Defaults, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataset, "dataset", "", "dataset YAML file (overrides config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.lineItems, "line-items", false, "print the line items of each cost")
	return cmd
}

func compileFile(ctx context.Context, w io.Writer, file string, defaults legacy.Defaults, flags compileOptions) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := legacy.Import(ctx, f, legacy.Options{Defaults: defaults})
	if err != nil {
		return fmt.Errorf("import %s: %w", file, err)
	}

	var src datasource.Source
	if flags.dataset != "" {
		fs, err := datasource.LoadFile(flags.dataset)
		if err != nil {
			return err
		}
		src = fs
	}
	env := datasource.Resolve(ctx, src, result.Project)

	var payload any
	if flags.lineItems {
		payload, err = lineItemsByCost(result.Project, result.Costs, env)
	} else {
		payload, err = cashflow.BuildRequest(result.Project, result.Alternatives, result.Costs, env)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

type costItems struct {
	CostID    lcc.ID              `json:"costId"`
	Name      string              `json:"name"`
	Kind      lcc.Kind            `json:"kind"`
	LineItems []cashflow.LineItem `json:"lineItems"`
}

func lineItemsByCost(p *lcc.Project, costs []lcc.Cost, env cashflow.Environment) ([]costItems, error) {
	compiler, err := cashflow.NewCompiler(p, env)
	if err != nil {
		return nil, err
	}

	out := make([]costItems, 0, len(costs))
	for _, c := range costs {
		out = append(out, costItems{
			CostID:    c.Base().ID,
			Name:      c.Base().Name,
			Kind:      c.Kind(),
			LineItems: compiler.Compile(c),
		})
	}
	return out, nil
}
