package schedule_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lcc-engine/schedule"
)

// =============================================================================
// DURATION TESTS
// =============================================================================

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want schedule.Duration
	}{
		{"years and months", "15 years 0 months", schedule.Duration{Years: 15, Exact: true}},
		{"singular units", "1 year 1 month", schedule.Duration{Years: 1, Exact: true}},
		{"with days", "3 years 2 months 10 days", schedule.Duration{Years: 3, Exact: true}},
		{"remaining", "Remaining", schedule.Duration{Remaining: true, Exact: true}},
		{"surrounding whitespace", "\n\t\t10 years 0 months\n\t", schedule.Duration{Years: 10, Exact: true}},
		{"lowercase remaining falls back", "remaining", schedule.Duration{Years: 1}},
		{"garbage falls back", "soon", schedule.Duration{Years: 1}},
		{"empty falls back", "", schedule.Duration{Years: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.ParseDuration(tt.text))
		})
	}
}

// =============================================================================
// RESOLVE TESTS
// =============================================================================

func TestResolve_RemainingShortcut(t *testing.T) {
	// GIVEN: A single Remaining interval
	// WHEN: Resolving against any horizon
	// THEN: The scalar comes back unchanged

	for _, horizon := range []int{0, 1, 15, 40} {
		v, err := schedule.Resolve("Remaining", "0.035", horizon)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.False(t, v.IsSeries())
		assert.Equal(t, 0.035, v.Constant)
	}
}

func TestResolve_TenYearsThenRemaining(t *testing.T) {
	// GIVEN: 1.0 for ten years, then 0.0 for the rest
	// WHEN: Resolving over a 15 year horizon
	// THEN: Years 0-9 are 1.0 and years 10-15 are 0.0

	v, err := schedule.Resolve("10 years 0 months,Remaining", "1.0,0.0", 15)
	require.NoError(t, err)
	require.NotNil(t, v, "not every position is zero")
	require.True(t, v.IsSeries())
	require.Len(t, v.Yearly, 16)

	for year := 0; year < 10; year++ {
		assert.Equal(t, 1.0, v.Yearly[year], "year %d", year)
	}
	for year := 10; year < 16; year++ {
		assert.Equal(t, 0.0, v.Yearly[year], "year %d", year)
	}
}

func TestResolve_ZeroCollapse(t *testing.T) {
	inputs := []struct{ intervals, values string }{
		{"10 years 0 months,Remaining", "0.0,0.0"},
		{"5 years 0 months", "0"},
		{"1 year 0 months,2 years 0 months,Remaining", "0,0.0,0"},
	}

	for _, in := range inputs {
		v, err := schedule.Resolve(in.intervals, in.values, 20)
		require.NoError(t, err)
		assert.Nil(t, v, "all-zero schedule %q must mean no override", in.values)
	}
}

func TestResolve_LengthIsMaxOfValuesAndHorizon(t *testing.T) {
	v, err := schedule.Resolve("1 year 0 months,1 year 0 months,1 year 0 months", "1,2,3", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v.Yearly)

	v, err = schedule.Resolve("2 years 0 months", "0.5", 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0, 0, 0}, v.Yearly)
}

func TestResolve_ClipsPastHorizon(t *testing.T) {
	v, err := schedule.Resolve("30 years 0 months", "0.02", 5)
	require.NoError(t, err)
	assert.Len(t, v.Yearly, 6)
	assert.Equal(t, 0.02, v.Yearly[5])
}

func TestResolve_MismatchedCounts(t *testing.T) {
	// GIVEN: Two intervals but three values
	// WHEN: Resolving
	// THEN: A MalformedScheduleError is returned instead of a ragged zip

	_, err := schedule.Resolve("5 years 0 months,Remaining", "0.1,0.2,0.3", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrMalformedSchedule)

	var malformed *schedule.MalformedScheduleError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "0.1,0.2,0.3", malformed.Values)
}

func TestResolve_NonNumericValue(t *testing.T) {
	_, err := schedule.Resolve("Remaining", "abc", 10)
	assert.ErrorIs(t, err, schedule.ErrMalformedSchedule)
}

// =============================================================================
// PHASE-IN TESTS
// =============================================================================

func TestResolvePhaseIn_SpreadsPortionOverInterval(t *testing.T) {
	fractions, err := schedule.ResolvePhaseIn("2 years 0 months,1 year 0 months", "0.5,0.5", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.25, 0.5}, fractions)
	assert.NoError(t, schedule.ValidatePhaseIn(fractions))
}

func TestResolvePhaseIn_RemainingFillsConstructionPeriod(t *testing.T) {
	fractions, err := schedule.ResolvePhaseIn("1 year 0 months,Remaining", "0.4,0.6", 4)
	require.NoError(t, err)
	require.Len(t, fractions, 4)
	assert.InDelta(t, 0.4, fractions[0], 1e-12)
	assert.InDelta(t, 0.2, fractions[3], 1e-12)
	assert.NoError(t, schedule.ValidatePhaseIn(fractions))
}

func TestValidatePhaseIn_RejectsNonConserving(t *testing.T) {
	err := schedule.ValidatePhaseIn([]float64{0.5, 0.4})
	assert.ErrorIs(t, err, schedule.ErrPhaseInNotConserved)
}

// =============================================================================
// VARYING TESTS
// =============================================================================

func TestVarying_JSON(t *testing.T) {
	var c schedule.Varying
	require.NoError(t, json.Unmarshal([]byte(`0.02`), &c))
	assert.False(t, c.IsSeries())
	assert.Equal(t, 0.02, c.Constant)

	var s schedule.Varying
	require.NoError(t, json.Unmarshal([]byte(`[0, 0.01, 0.02]`), &s))
	assert.True(t, s.IsSeries())
	assert.Equal(t, []float64{0, 0.01, 0.02}, s.Yearly)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[0, 0.01, 0.02]`, string(out))
}

func TestVarying_AtAndMap(t *testing.T) {
	v := schedule.Series(1, 2, 3)
	assert.Equal(t, 2.0, v.At(1))
	assert.Equal(t, 3.0, v.At(10))

	doubled := v.Map(func(x float64) float64 { return x * 2 })
	assert.Equal(t, []float64{2, 4, 6}, doubled.Yearly)
	assert.Equal(t, []float64{1, 2, 3}, v.Yearly, "Map must not mutate the receiver")

	var absent *schedule.Varying
	assert.Nil(t, absent.Map(func(x float64) float64 { return x }))
	assert.Equal(t, 0.0, absent.At(3))
}
