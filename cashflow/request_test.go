package cashflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lcc-engine/lcc"
)

func TestBuildRequest_FirstAlternativeBecomesBaseline(t *testing.T) {
	// GIVEN: Two alternatives sharing cost 0, neither flagged as baseline
	// WHEN: Building the engine request
	// THEN: The first alternative is the baseline and the shared cost is in both

	costs := oneOfEachKind()
	alts := []lcc.Alternative{
		{ID: 0, Name: "Existing", Costs: []lcc.ID{0, 4}},
		{ID: 1, Name: "Retrofit", Costs: []lcc.ID{0, 1, 1}},
	}

	req, err := BuildRequest(federalFinancedProject(), alts, costs, Environment{})
	require.NoError(t, err)

	require.Len(t, req.Alternatives, 2)
	assert.True(t, req.Alternatives[0].Baseline)
	assert.False(t, req.Alternatives[1].Baseline)
	assert.Len(t, req.Alternatives[0].Items, 3, "capital, its residual and the OMR item")
	assert.Len(t, req.Alternatives[1].Items, 4, "capital, its residual and twice the energy item")
	assert.Equal(t, req.Alternatives[0].Items[0], req.Alternatives[1].Items[0])

	a := req.Analysis
	assert.Equal(t, 15, a.StudyPeriod)
	assert.Equal(t, "End of Year", a.TimestepComp)
	assert.False(t, a.OutputReal)
	assert.Equal(t, 0.03, a.DiscountRateReal)
	assert.InDelta(t, 1.03*1.023-1, a.DiscountRateNominal, 1e-12)
}

func TestBuildRequest_KeepsFlaggedBaseline(t *testing.T) {
	alts := []lcc.Alternative{
		{ID: 0, Name: "A", Costs: []lcc.ID{4}},
		{ID: 1, Name: "B", Baseline: true, Costs: []lcc.ID{5}},
	}

	req, err := BuildRequest(constantProject(10), alts, oneOfEachKind(), Environment{})
	require.NoError(t, err)

	assert.False(t, req.Alternatives[0].Baseline)
	assert.True(t, req.Alternatives[1].Baseline)
	assert.True(t, req.Analysis.OutputReal)
}

func TestBuildRequest_DanglingCost(t *testing.T) {
	alts := []lcc.Alternative{{ID: 3, Name: "A", Costs: []lcc.ID{4, 42}}}

	_, err := BuildRequest(constantProject(10), alts, oneOfEachKind(), Environment{})

	assert.ErrorIs(t, err, lcc.ErrDanglingCostReference)
	var dangling *lcc.DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, lcc.ID(42), dangling.CostID)
	assert.Equal(t, lcc.ID(3), dangling.AlternativeID)
}

func TestBuildRequest_MultipleBaselines(t *testing.T) {
	alts := []lcc.Alternative{
		{ID: 0, Name: "A", Baseline: true},
		{ID: 1, Name: "B", Baseline: true},
	}

	_, err := BuildRequest(constantProject(10), alts, nil, Environment{})

	assert.ErrorIs(t, err, lcc.ErrMultipleBaselines)
}

func TestBuildRequest_MidYearDiscounting(t *testing.T) {
	p := constantProject(10)
	p.DiscountingMethod = lcc.MidYear

	req, err := BuildRequest(p, []lcc.Alternative{{ID: 0, Name: "A"}}, nil, Environment{})
	require.NoError(t, err)

	assert.Equal(t, "Middle of Year", req.Analysis.TimestepComp)
}
