package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/lcc/store"
	"github.com/warp/lcc-engine/legacy"
	"github.com/warp/lcc-engine/store/sqlite"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// importOutcome is the result of importing one file.
type importOutcome struct {
	file      string
	projectID lcc.ID
	result    *legacy.Result
	err       error
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath       string
		showWarnings bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import legacy project documents",
		Long: "Import one or more legacy XML documents. Files are imported concurrently; " +
			"a file that fails does not stop the others. Without --db the projects are " +
			"kept in memory and only the summary is printed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			outcomes := importFiles(cmd.Context(), s, args, legacy.Options{Defaults: opts.cfg.Defaults})
			failed := printImportSummary(cmd.OutOrStdout(), outcomes, showWarnings)
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to import", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to store the projects in")
	cmd.Flags().BoolVar(&showWarnings, "warnings", false, "print every import warning")
	return cmd
}

// openStore returns a SQLite store for path, or a memory store when path
// is empty.
func openStore(path string) (lcc.Store, func(), error) {
	if path == "" {
		return store.NewMemory(), func() {}, nil
	}
	s, err := sqlite.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return s, func() { s.Close() }, nil
}

// importFiles imports every file with bounded concurrency. Outcomes keep
// the order of files.
func importFiles(ctx context.Context, s lcc.Store, files []string, opts legacy.Options) []importOutcome {
	outcomes := make([]importOutcome, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			outcomes[i] = importFile(gCtx, s, file, opts)
			// One bad file must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func importFile(ctx context.Context, s lcc.Store, file string, opts legacy.Options) importOutcome {
	out := importOutcome{file: file}

	f, err := os.Open(file)
	if err != nil {
		out.err = err
		return out
	}
	defer f.Close()

	result, err := legacy.Import(ctx, f, opts)
	if err != nil {
		out.err = err
		return out
	}
	out.result = result

	out.projectID, out.err = s.SaveImport(ctx, result.Project, result.Alternatives, result.Costs)
	return out
}

// printImportSummary writes one line per file and returns the number of
// failed files.
func printImportSummary(w io.Writer, outcomes []importOutcome, showWarnings bool) int {
	p := message.NewPrinter(language.English)
	failed := 0

	for _, o := range outcomes {
		if o.err != nil {
			failed++
			p.Fprintf(w, "%s: FAILED: %v\n", o.file, o.err)
			continue
		}

		r := o.result
		p.Fprintf(w, "%s: project %d %q, %d alternatives, %d costs, %d warnings\n",
			o.file, o.projectID, r.Project.Name, len(r.Alternatives), len(r.Costs), len(r.Warnings))
		if showWarnings {
			for _, warning := range r.Warnings {
				p.Fprintf(w, "  warning: %s\n", warning)
			}
		}
	}

	p.Fprintf(w, "%d of %d files imported\n", len(outcomes)-failed, len(outcomes))
	return failed
}
