/*
Package datasource supplies the external datasets a compilation can use.

PURPOSE:
  Escalation rates, emission factors and the social cost of carbon are
  published outside the project file. They are fetched once, before the
  compiler runs, and handed over as a cashflow.Environment. A dataset that
  cannot be fetched is absent: the compiler then skips the items that
  depend on it or falls back to a flat recurrence.

KEY CONCEPTS:
  - Source: Anything that can answer the three dataset queries
  - FileSource: A YAML dataset file loaded into memory
  - Resolve: Runs the queries for one project and never fails

SEE ALSO:
  - cashflow/lineitem.go: Environment
*/
package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/warp/lcc-engine/cashflow"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/logging"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a dataset has no entry for the query.
var ErrNotFound = errors.New("dataset entry not found")

// Query selects the dataset rows that apply to a project.
type Query struct {
	ReleaseYear int
	StudyPeriod int
	Location    lcc.Location
	GHG         lcc.GHG
}

// QueryFor builds the query of a project.
func QueryFor(p *lcc.Project) Query {
	return Query{
		ReleaseYear: p.ReleaseYear,
		StudyPeriod: p.StudyPeriod,
		Location:    p.Location,
		GHG:         p.GHG,
	}
}

type Source interface {
	EscalationRates(ctx context.Context, q Query) ([]lcc.EscalationRate, error)
	Emissions(ctx context.Context, q Query) ([]float64, error)
	SocialCostOfCarbon(ctx context.Context, q Query) ([]float64, error)
}

// =============================================================================
// RESOLVE
// =============================================================================

// Resolve fetches every dataset for a project. Lookups run concurrently; any
// failure leaves that dataset absent and is logged. A nil source yields an
// empty environment. Escalation rates are skipped when the project carries
// its own table.
func Resolve(ctx context.Context, src Source, p *lcc.Project) cashflow.Environment {
	var env cashflow.Environment
	if src == nil {
		return env
	}

	logger := logging.Component(ctx, "datasource")
	q := QueryFor(p)

	fallback := func(dataset string, err error) {
		logger.Warn().
			Err(err).
			Str("dataset", dataset).
			Int("release_year", q.ReleaseYear).
			Str("state", q.Location.State).
			Msg("dataset unavailable, compiling without it")
	}

	var g errgroup.Group
	if len(p.EscalationRates) == 0 {
		g.Go(func() error {
			rows, err := src.EscalationRates(ctx, q)
			if err != nil {
				fallback("escalation rates", err)
				return nil
			}
			env.EscalationRates = rows
			return nil
		})
	}
	g.Go(func() error {
		values, err := src.Emissions(ctx, q)
		if err != nil {
			fallback("emissions", err)
			return nil
		}
		env.Emissions = values
		return nil
	})
	g.Go(func() error {
		values, err := src.SocialCostOfCarbon(ctx, q)
		if err != nil {
			fallback("social cost of carbon", err)
			return nil
		}
		env.SocialCostOfCarbon = values
		return nil
	})
	_ = g.Wait()

	return env
}

// =============================================================================
// FILE SOURCE
// =============================================================================

// Dataset is the YAML layout of a dataset file.
type Dataset struct {
	Escalation         []EscalationTable `yaml:"escalation"`
	Emissions          []EmissionsTable  `yaml:"emissions"`
	SocialCostOfCarbon []SeriesTable     `yaml:"socialCostOfCarbon"`
}

// EscalationTable holds the escalation rates published in one release.
type EscalationTable struct {
	ReleaseYear int                  `yaml:"releaseYear"`
	Rates       []lcc.EscalationRate `yaml:"rates"`
}

// EmissionsTable holds yearly kg CO2e per MWh for one region. ZipPrefix is
// preferred over State when both could match.
type EmissionsTable struct {
	ReleaseYear int                   `yaml:"releaseYear"`
	State       string                `yaml:"state"`
	ZipPrefix   string                `yaml:"zipPrefix"`
	DataSource  lcc.GHGDataSource     `yaml:"dataSource"`
	RateType    lcc.EmissionsRateType `yaml:"rateType"`
	Values      []float64             `yaml:"values"`
}

// SeriesTable is a yearly series published in one release.
type SeriesTable struct {
	ReleaseYear int       `yaml:"releaseYear"`
	Values      []float64 `yaml:"values"`
}

// FileSource answers queries from a dataset loaded in memory. It is read
// only after construction and safe for concurrent use.
type FileSource struct {
	data Dataset
}

var _ Source = (*FileSource)(nil)

// LoadFile reads a YAML dataset file.
func LoadFile(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML dataset.
func Parse(raw []byte) (*FileSource, error) {
	var d Dataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &FileSource{data: d}, nil
}

func (s *FileSource) EscalationRates(ctx context.Context, q Query) ([]lcc.EscalationRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, t := range s.data.Escalation {
		if t.ReleaseYear != q.ReleaseYear {
			continue
		}
		rows := append([]lcc.EscalationRate(nil), t.Rates...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
		return rows, nil
	}
	return nil, fmt.Errorf("%w: escalation rates for release %d", ErrNotFound, q.ReleaseYear)
}

func (s *FileSource) Emissions(ctx context.Context, q Query) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var byState *EmissionsTable
	for i := range s.data.Emissions {
		t := &s.data.Emissions[i]
		if t.ReleaseYear != q.ReleaseYear || !t.matchesGHG(q.GHG) {
			continue
		}
		if t.ZipPrefix != "" && q.Location.Zipcode != "" && strings.HasPrefix(q.Location.Zipcode, t.ZipPrefix) {
			return clip(t.Values, q.StudyPeriod), nil
		}
		if byState == nil && t.ZipPrefix == "" && t.State != "" && t.State == q.Location.State {
			byState = t
		}
	}
	if byState != nil {
		return clip(byState.Values, q.StudyPeriod), nil
	}
	return nil, fmt.Errorf("%w: emissions for %q release %d", ErrNotFound, q.Location.State, q.ReleaseYear)
}

func (s *FileSource) SocialCostOfCarbon(ctx context.Context, q Query) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, t := range s.data.SocialCostOfCarbon {
		if t.ReleaseYear == q.ReleaseYear {
			return clip(t.Values, q.StudyPeriod), nil
		}
	}
	return nil, fmt.Errorf("%w: social cost of carbon for release %d", ErrNotFound, q.ReleaseYear)
}

// matchesGHG treats empty settings on either side as a wildcard.
func (t *EmissionsTable) matchesGHG(g lcc.GHG) bool {
	if t.DataSource != "" && g.DataSource != "" && t.DataSource != g.DataSource {
		return false
	}
	if t.RateType != "" && g.EmissionsRateType != "" && t.RateType != g.EmissionsRateType {
		return false
	}
	return true
}

// clip copies at most studyPeriod+1 values.
func clip(values []float64, studyPeriod int) []float64 {
	n := len(values)
	if studyPeriod > 0 && n > studyPeriod+1 {
		n = studyPeriod + 1
	}
	return append([]float64(nil), values[:n]...)
}
