/*
import_test.go - Tests for the legacy project importer

Tests for:
- Project settings and enum codes of a real legacy file
- Cost id order and sub-cost naming
- Deduplication of identical fragments
- Fallbacks recorded as warnings
*/
package legacy

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/rates"
	"github.com/warp/lcc-engine/units"
)

func importFixture(t *testing.T) *Result {
	t.Helper()
	f, err := os.Open("testdata/federal_financed.xml")
	require.NoError(t, err)
	defer f.Close()

	result, err := Import(context.Background(), f, Options{Defaults: DefaultDefaults()})
	require.NoError(t, err)
	return result
}

func importString(t *testing.T, doc string) *Result {
	t.Helper()
	result, err := Import(context.Background(), strings.NewReader(doc), Options{})
	require.NoError(t, err)
	return result
}

// =============================================================================
// PROJECT SETTINGS
// =============================================================================

func TestImport_FederalFinancedProject(t *testing.T) {
	// GIVEN: The federal financed lighting retrofit file
	// WHEN: Importing it
	// THEN: Enum codes, periods and rates are mapped, inflation falls back

	p := importFixture(t).Project

	assert.Equal(t, "Lighting/Daylighting", p.Name)
	assert.Equal(t, "Replace existing lighting system with \nnew system financed through a utility \ncontract.", p.Description)
	assert.Equal(t, "Derek Filben", p.Analyst)
	assert.Equal(t, lcc.FederalFinanced, p.AnalysisType)
	assert.Empty(t, p.Purpose)
	assert.Equal(t, lcc.DollarCurrent, p.DollarMethod)
	assert.Equal(t, lcc.EndOfYear, p.DiscountingMethod)
	assert.Equal(t, 15, p.StudyPeriod)
	assert.Equal(t, 0, p.ConstructionPeriod)
	assert.Equal(t, lcc.Location{Country: lcc.CountryUSA, State: "AZ"}, p.Location)
	assert.NotEmpty(t, p.ImportID)

	require.NotNil(t, p.RealDiscountRate)
	require.NotNil(t, p.InflationRate)
	require.NotNil(t, p.NominalDiscountRate)
	assert.Equal(t, 0.03, *p.RealDiscountRate)
	assert.Equal(t, 0.023, *p.InflationRate)
	assert.InDelta(t, rates.ToNominal(0.03, 0.023), *p.NominalDiscountRate, 1e-12)
}

func TestImport_FederalFinancedAlternatives(t *testing.T) {
	result := importFixture(t)

	require.Len(t, result.Alternatives, 2)
	existing, retrofit := result.Alternatives[0], result.Alternatives[1]

	assert.Equal(t, "Existing", existing.Name)
	assert.Equal(t, "Base Case: Keep existing system for\nremaining 15 years of its useful life.", existing.Description)
	assert.Equal(t, []lcc.ID{0, 1, 2}, existing.Costs)
	assert.False(t, existing.Baseline)

	assert.Equal(t, "Lighting Retrofit", retrofit.Name)
	assert.Empty(t, retrofit.Description)
	assert.Equal(t, []lcc.ID{3, 4, 5, 6}, retrofit.Costs)

	assert.Len(t, result.Costs, 7)
	assert.Equal(t, []lcc.ID{0, 1}, result.Project.Alternatives)
	assert.Equal(t, []lcc.ID{0, 1, 2, 3, 4, 5, 6}, result.Project.Costs)
	assert.NoError(t, lcc.ValidateProject(result.Project, result.Alternatives, result.Costs))
}

// =============================================================================
// COSTS
// =============================================================================

func TestImport_FederalFinancedCosts(t *testing.T) {
	costs := importFixture(t).Costs
	require.Len(t, costs, 7)

	t.Run("existing system", func(t *testing.T) {
		c, ok := costs[0].(*lcc.CapitalCost)
		require.True(t, ok, "got %T", costs[0])
		assert.Equal(t, "Existing System", c.Name)
		assert.Equal(t, "Keep existing system for the remaining\n15 years of its useful life.", c.Description)
		assert.Nil(t, c.InitialCost)
		assert.Nil(t, c.AnnualRateOfChange)
		assert.Equal(t, 15, c.ExpectedLife)
		assert.Zero(t, c.CostAdjustment)
		assert.Nil(t, c.PhaseIn)
		assert.Nil(t, c.ResidualValue)
		assert.Nil(t, c.Location)
	})

	t.Run("existing system recurring cost", func(t *testing.T) {
		c, ok := costs[1].(*lcc.OMRCost)
		require.True(t, ok, "got %T", costs[1])
		assert.Equal(t, "Existing System cost", c.Name)
		assert.True(t, c.InitialCost.Equal(decimal.NewFromInt(5600)))
		assert.Equal(t, 1, c.InitialOccurrence)
		require.NotNil(t, c.Recurring)
		assert.Equal(t, 1, c.Recurring.RateOfRecurrence)
		assert.Nil(t, c.Recurring.RateOfChangeValue)
	})

	t.Run("electricity", func(t *testing.T) {
		c, ok := costs[2].(*lcc.EnergyCost)
		require.True(t, ok, "got %T", costs[2])
		assert.Equal(t, units.Electricity, c.FuelType)
		assert.Equal(t, lcc.Commercial, c.CustomerSector)
		assert.Nil(t, c.Location, "same state as the project")
		assert.True(t, c.CostPerUnit.Equal(decimal.RequireFromString("0.046")))
		assert.Equal(t, 1082633.0, c.AnnualConsumption)
		assert.Equal(t, units.KWh, c.Unit)
		require.NotNil(t, c.DemandCharge)
		assert.True(t, c.DemandCharge.Equal(decimal.NewFromInt(30105)))
		assert.Nil(t, c.Rebate)
		assert.Nil(t, c.Escalation)
		require.NotNil(t, c.UseIndex)
		assert.False(t, c.UseIndex.IsSeries())
		assert.Equal(t, 1.0, c.UseIndex.Constant)
	})

	t.Run("new system", func(t *testing.T) {
		c, ok := costs[3].(*lcc.CapitalCost)
		require.True(t, ok, "got %T", costs[3])
		assert.Equal(t, "New System", c.Name)
		assert.Nil(t, c.InitialCost)
		require.NotNil(t, c.AmountFinanced)
		assert.True(t, c.AmountFinanced.Equal(decimal.NewFromInt(390480)))
		assert.Equal(t, 20, c.ExpectedLife)
		require.NotNil(t, c.ResidualValue)
		assert.Equal(t, lcc.ResidualPercent, c.ResidualValue.Approach)
		assert.True(t, c.ResidualValue.Value.Equal(decimal.RequireFromString("0.25")))
	})

	t.Run("post-contract maintenance starts after ten years", func(t *testing.T) {
		c, ok := costs[4].(*lcc.OMRCost)
		require.True(t, ok, "got %T", costs[4])
		assert.Equal(t, "New System Post-Contract OM Costs", c.Name)
		assert.True(t, c.InitialCost.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, 11, c.InitialOccurrence)
	})

	t.Run("annual contract payment", func(t *testing.T) {
		c, ok := costs[6].(*lcc.RecurringContractCost)
		require.True(t, ok, "got %T", costs[6])
		assert.Equal(t, "Annual Contract Payment", c.Name)
		assert.True(t, c.InitialCost.Equal(decimal.NewFromInt(67000)))
		assert.Equal(t, 1, c.InitialOccurrence)
		require.NotNil(t, c.Recurring)
		assert.Equal(t, 1, c.Recurring.RateOfRecurrence)

		// current dollars: the real escalation is stored as nominal
		require.NotNil(t, c.Recurring.RateOfChangeValue)
		assert.True(t, c.Recurring.Nominal)
		assert.InDelta(t, rates.ToNominal(-9.990009990008542e-4, 0.023), c.Recurring.RateOfChangeValue.Constant, 1e-12)

		require.NotNil(t, c.Recurring.RateOfChangeUnits)
		multipliers := c.Recurring.RateOfChangeUnits.Yearly
		require.Len(t, multipliers, 16)
		assert.Equal(t, 1.0, multipliers[0])
		assert.Equal(t, 1.0, multipliers[9])
		assert.Equal(t, 0.0, multipliers[10])
	})
}

func TestImport_WarnsForFallbacks(t *testing.T) {
	// GIVEN: The fixture has no inflation rate and contract costs without start
	// WHEN: Importing
	// THEN: Each fallback shows up as a warning

	warnings := importFixture(t).Warnings

	var fields []string
	for _, w := range warnings {
		fields = append(fields, w.Field)
	}
	assert.Contains(t, fields, "InflationRate")
	assert.Contains(t, fields, "Start")
	assert.Contains(t, fields, "Interval")
}

// =============================================================================
// DEDUPLICATION
// =============================================================================

const sharedCostDoc = `<Project>
  <Name>Shared</Name>
  <DollarMethod>0</DollarMethod>
  <AnalysisType>0</AnalysisType>
  <DiscountingMethod>1</DiscountingMethod>
  <Duration>10 years 0 months</Duration>
  <DiscountRate>0.03</DiscountRate>
  <InflationRate>0.02</InflationRate>
  <Alternatives>
    <Alternative>
      <Name>A</Name>
      <NonRecurringContractCosts>
        <NonRecurringContractCost><Name>Audit</Name><Amount>100.0</Amount><Start>2 years 0 months</Start></NonRecurringContractCost>
        <NonRecurringContractCost><Name>Audit</Name><Amount>100.0</Amount><Start>2 years 0 months</Start></NonRecurringContractCost>
      </NonRecurringContractCosts>
    </Alternative>
    <Alternative>
      <Name>B</Name>
      <NonRecurringContractCosts>
        <NonRecurringContractCost><Start>2 years 0 months</Start><Amount>100.0</Amount><Name>Audit</Name></NonRecurringContractCost>
        <NonRecurringContractCost><Name>Audit</Name><Amount>200.0</Amount><Start>2 years 0 months</Start></NonRecurringContractCost>
      </NonRecurringContractCosts>
    </Alternative>
  </Alternatives>
</Project>`

func TestImport_DeduplicatesIdenticalFragments(t *testing.T) {
	// GIVEN: The same contract cost listed twice in A and once, reordered, in B
	// WHEN: Importing
	// THEN: One cost is created and shared, the differing amount gets a new id

	result := importString(t, sharedCostDoc)

	require.Len(t, result.Costs, 2)
	assert.Equal(t, []lcc.ID{0, 0}, result.Alternatives[0].Costs)
	assert.Equal(t, []lcc.ID{0, 1}, result.Alternatives[1].Costs)

	contract := result.Costs[0].(*lcc.ImplementationContractCost)
	assert.Equal(t, 2, contract.Occurrence)
	assert.True(t, contract.Cost.Equal(decimal.NewFromInt(100)))
}

func TestImport_IsIdempotent(t *testing.T) {
	first := importString(t, sharedCostDoc)
	second := importString(t, sharedCostDoc)

	assert.Equal(t, first.Alternatives, second.Alternatives)
	assert.Equal(t, first.Costs, second.Costs)
	assert.NotEqual(t, first.Project.ImportID, second.Project.ImportID)
}

func TestImport_SubCostsOfDifferentParentsStayDistinct(t *testing.T) {
	// GIVEN: Two capital components with byte-identical maintenance children
	// WHEN: Importing
	// THEN: Renaming with the parent name keeps the children apart

	doc := `<Project><Duration>5 years 0 months</Duration><DollarMethod>0</DollarMethod>
  <Alternatives><Alternative><Name>A</Name><CapitalComponents>
    <CapitalComponent><Name>Boiler</Name><Duration>5 years 0 months</Duration>
      <NonRecurringCosts><NonRecurringCost><Name>Service</Name><Amount>50.0</Amount><Start>3 years 0 months</Start></NonRecurringCost></NonRecurringCosts>
    </CapitalComponent>
    <CapitalComponent><Duration>5 years 0 months</Duration>
      <NonRecurringCosts><NonRecurringCost><Name>Service</Name><Amount>50.0</Amount><Start>3 years 0 months</Start></NonRecurringCost></NonRecurringCosts>
    </CapitalComponent>
  </CapitalComponents></Alternative></Alternatives></Project>`

	result := importString(t, doc)

	require.Len(t, result.Costs, 4)
	assert.Equal(t, "Boiler Service", result.Costs[2].Base().Name)
	assert.Equal(t, "Unnamed Cost Service", result.Costs[3].Base().Name)
	assert.Equal(t, 3, result.Costs[2].(*lcc.OMRCost).InitialOccurrence)
}

// =============================================================================
// ERRORS AND FALLBACKS
// =============================================================================

func TestImport_RejectsMalformedXML(t *testing.T) {
	_, err := Import(context.Background(), strings.NewReader("<Project><Name>x</Project"), Options{})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestImport_KeepsReaderErrorInChain(t *testing.T) {
	// GIVEN: A reader that fails partway through the document
	// WHEN: Importing
	// THEN: The error is an invalid document and still carries the read error

	readErr := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("<Project><Name>"), iotest.ErrReader(readErr))

	_, err := Import(context.Background(), r, Options{})
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, readErr)
}

func TestImport_RejectsProjectWithoutAlternatives(t *testing.T) {
	_, err := Import(context.Background(), strings.NewReader("<Project><Name>x</Name></Project>"), Options{})
	assert.ErrorIs(t, err, ErrNoAlternatives)
}

func TestImport_UnknownCodesFallBack(t *testing.T) {
	doc := `<Project><AnalysisType>9</AnalysisType><DollarMethod>7</DollarMethod><DiscountingMethod>5</DiscountingMethod>
  <Duration>Remaining</Duration>
  <Alternatives><Alternative><Name>A</Name></Alternative></Alternatives></Project>`

	result := importString(t, doc)
	p := result.Project

	assert.Equal(t, lcc.FEMPEnergy, p.AnalysisType)
	assert.Equal(t, lcc.DollarConstant, p.DollarMethod)
	assert.Equal(t, lcc.EndOfYear, p.DiscountingMethod)
	assert.Equal(t, DefaultDefaults().StudyPeriod, p.StudyPeriod)
	assert.Equal(t, lcc.Location{Country: lcc.CountryUSA}, p.Location)
	assert.GreaterOrEqual(t, len(result.Warnings), 4)
}

func TestImport_EnergyInAnotherStateKeepsLocation(t *testing.T) {
	doc := `<Project><Location>Arizona</Location><DollarMethod>0</DollarMethod><Duration>5 years 0 months</Duration>
  <Alternatives><Alternative><Name>A</Name><EnergyUsages><EnergyUsage>
    <Name>Gas</Name><FuelType>NatGas</FuelType><Units>Therm</Units><YearlyUsage>10.0</YearlyUsage><UnitCost>1.0</UnitCost>
    <State>Ohio</State>
    <Escalation><SimpleEscalation><Rate>0.01</Rate></SimpleEscalation></Escalation>
  </EnergyUsage></EnergyUsages></Alternative></Alternatives></Project>`

	gas := importString(t, doc).Costs[0].(*lcc.EnergyCost)

	require.NotNil(t, gas.Location)
	assert.Equal(t, "OH", gas.Location.State)
	assert.Equal(t, units.NaturalGas, gas.FuelType)
	assert.Equal(t, units.Therm, gas.Unit)
	require.NotNil(t, gas.Escalation)
	assert.Equal(t, 0.01, gas.Escalation.Constant)
}
