package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lcc-engine/lcc"
)

const datasetYAML = `
escalation:
  - releaseYear: 2023
    rates:
      - {year: 2024, sector: Commercial, electricity: 0.02, naturalGas: 0.03}
      - {year: 2023, sector: Commercial, electricity: 0.01, naturalGas: 0.02}
emissions:
  - releaseYear: 2023
    state: AZ
    values: [400, 390, 380, 370]
  - releaseYear: 2023
    zipPrefix: "850"
    values: [420, 410]
  - releaseYear: 2023
    state: OH
    dataSource: NREL Cambium
    values: [500]
socialCostOfCarbon:
  - releaseYear: 2023
    values: [0.05, 0.06, 0.07]
`

func testProject() *lcc.Project {
	return &lcc.Project{
		ReleaseYear: 2023,
		StudyPeriod: 2,
		Location:    lcc.Location{Country: lcc.CountryUSA, State: "AZ"},
		GHG:         lcc.GHG{DataSource: lcc.NISTNETL, EmissionsRateType: lcc.AverageEmissions},
	}
}

func TestFileSource_Lookups(t *testing.T) {
	src, err := Parse([]byte(datasetYAML))
	require.NoError(t, err)
	ctx := context.Background()
	q := QueryFor(testProject())

	t.Run("escalation rows sorted by year", func(t *testing.T) {
		rows, err := src.EscalationRates(ctx, q)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 2023, rows[0].Year)
		assert.Equal(t, lcc.Commercial, rows[0].Sector)
		assert.Equal(t, 0.02, rows[0].NaturalGas)
	})

	t.Run("emissions by state clipped to the study", func(t *testing.T) {
		values, err := src.Emissions(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []float64{400, 390, 380}, values)
	})

	t.Run("zip prefix wins over state", func(t *testing.T) {
		zq := q
		zq.Location.Zipcode = "85001"
		values, err := src.Emissions(ctx, zq)
		require.NoError(t, err)
		assert.Equal(t, []float64{420, 410}, values)
	})

	t.Run("data source mismatch is not found", func(t *testing.T) {
		oq := q
		oq.Location.State = "OH"
		_, err := src.Emissions(ctx, oq)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown release", func(t *testing.T) {
		rq := q
		rq.ReleaseYear = 1999
		_, err := src.SocialCostOfCarbon(ctx, rq)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("emissions: [this is: not valid"))
	assert.Error(t, err)
}

func TestResolve_FillsEnvironment(t *testing.T) {
	src, err := Parse([]byte(datasetYAML))
	require.NoError(t, err)

	env := Resolve(context.Background(), src, testProject())

	assert.Len(t, env.EscalationRates, 2)
	assert.Equal(t, []float64{400, 390, 380}, env.Emissions)
	assert.Equal(t, []float64{0.05, 0.06, 0.07}, env.SocialCostOfCarbon)
}

func TestResolve_ProjectTableSkipsEscalationLookup(t *testing.T) {
	src, err := Parse([]byte(datasetYAML))
	require.NoError(t, err)
	p := testProject()
	p.EscalationRates = []lcc.EscalationRate{{Year: 2023, Sector: lcc.Commercial, Electricity: 0.5}}

	env := Resolve(context.Background(), src, p)

	assert.Nil(t, env.EscalationRates)
}

type failingSource struct{}

func (failingSource) EscalationRates(context.Context, Query) ([]lcc.EscalationRate, error) {
	return nil, errors.New("timeout")
}

func (failingSource) Emissions(context.Context, Query) ([]float64, error) {
	return nil, errors.New("timeout")
}

func (failingSource) SocialCostOfCarbon(context.Context, Query) ([]float64, error) {
	return nil, errors.New("timeout")
}

func TestResolve_FailuresLeaveDatasetsAbsent(t *testing.T) {
	// GIVEN: A source whose every lookup fails
	// WHEN: Resolving
	// THEN: The environment is empty and no error escapes

	env := Resolve(context.Background(), failingSource{}, testProject())

	assert.Nil(t, env.EscalationRates)
	assert.Nil(t, env.Emissions)
	assert.Nil(t, env.SocialCostOfCarbon)
}

func TestResolve_NilSource(t *testing.T) {
	env := Resolve(context.Background(), nil, testProject())
	assert.Nil(t, env.Emissions)
}
