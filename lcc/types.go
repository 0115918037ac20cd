/*
Package lcc provides the life-cycle cost data model.

PURPOSE:
  A Project is studied over a fixed number of years and compares mutually
  exclusive Alternatives. Every Alternative references Costs from a pool
  shared by the whole Project. Costs come in nine kinds (cost.go) and are
  compiled into engine line items by the cashflow package.

KEY CONCEPTS IN THIS FILE (types.go):
  - ID: Integer identifier for projects, alternatives and costs
  - Project: Study settings, rates, location and id lists
  - Alternative: Named, ordered list of cost ids
  - Rates: Discount and inflation rates after derivation

REFERENCES:
  Projects and Alternatives reference Costs by id, never by embedding. The
  same cost id may appear twice in one Alternative when the legacy importer
  collapsed two identical fragments.

SEE ALSO:
  - cost.go: The nine cost kinds
  - validate.go: Cross-record invariants
  - legacy/import.go: Builds these records from legacy XML
*/
package lcc

import (
	"fmt"

	"github.com/warp/lcc-engine/rates"
	"github.com/warp/lcc-engine/units"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ID int

// =============================================================================
// ENUMERATIONS
// =============================================================================

type DollarMethod string

const (
	DollarConstant DollarMethod = "Constant"
	DollarCurrent  DollarMethod = "Current"
)

type DiscountingMethod string

const (
	EndOfYear DiscountingMethod = "End of Year"
	MidYear   DiscountingMethod = "Mid Year"
)

type AnalysisType string

const (
	FederalFinanced AnalysisType = "Federal Analysis, Financed Project"
	FEMPEnergy      AnalysisType = "FEMP Analysis, Energy Project"
	OMBNonEnergy    AnalysisType = "OMB Analysis, Non-Energy Project"
	MILCONEnergy    AnalysisType = "MILCON Analysis, Energy Project"
	MILCONNonEnergy AnalysisType = "MILCON Analysis, Non-Energy Project"
	MILCONECIP      AnalysisType = "MILCON Analysis, ERCIP (formerly ECIP) Project"
)

// Purpose only applies to OMB non-energy analyses.
type Purpose string

const (
	PurposeInvestRegulation Purpose = "Cost-effectiveness, lease-purchase, internal government investment, and asset sales"
	PurposeCostLease        Purpose = "Public investment and regulatory analyses"
)

type CustomerSector string

const (
	Residential CustomerSector = "Residential"
	Commercial  CustomerSector = "Commercial"
	Industrial  CustomerSector = "Industrial"
)

type GHGDataSource string

const (
	NISTNETL    GHGDataSource = "NIST NETL"
	NRELCambium GHGDataSource = "NREL Cambium"
)

type EmissionsRateType string

const (
	AverageEmissions         EmissionsRateType = "Average"
	LongRunMarginalEmissions EmissionsRateType = "Long-Run Marginal (lrm)"
)

// =============================================================================
// LOCATION
// =============================================================================

const CountryUSA = "United States of America"

type Location struct {
	Country string `json:"country" yaml:"country"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	Zipcode string `json:"zipcode,omitempty" yaml:"zipcode,omitempty"`
}

// SameRegion reports whether two locations share country and state.
func (l Location) SameRegion(o Location) bool {
	return l.Country == o.Country && l.State == o.State
}

// =============================================================================
// PROJECT
// =============================================================================

type GHG struct {
	DataSource        GHGDataSource     `json:"dataSource"`
	EmissionsRateType EmissionsRateType `json:"emissionsRateType"`
}

// EscalationRate is one row of a project-wide escalation table.
type EscalationRate struct {
	Year              int            `json:"year" yaml:"year"`
	Sector            CustomerSector `json:"sector" yaml:"sector"`
	Electricity       float64        `json:"electricity" yaml:"electricity"`
	Propane           float64        `json:"propane" yaml:"propane"`
	NaturalGas        float64        `json:"naturalGas" yaml:"naturalGas"`
	Coal              float64        `json:"coal" yaml:"coal"`
	DistillateFuelOil float64        `json:"distillateFuelOil" yaml:"distillateFuelOil"`
	ResidualFuelOil   float64        `json:"residualFuelOil" yaml:"residualFuelOil"`
}

// ForFuel returns the rate for a fuel. Fuels without a column yield 0.
func (r EscalationRate) ForFuel(fuel units.FuelType) float64 {
	switch fuel {
	case units.Electricity:
		return r.Electricity
	case units.Propane:
		return r.Propane
	case units.NaturalGas:
		return r.NaturalGas
	case units.Coal:
		return r.Coal
	case units.DistillateOil:
		return r.DistillateFuelOil
	case units.ResidualOil:
		return r.ResidualFuelOil
	default:
		return 0
	}
}

type Project struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Analyst     string `json:"analyst,omitempty"`

	AnalysisType      AnalysisType      `json:"analysisType"`
	Purpose           Purpose           `json:"purpose,omitempty"`
	DollarMethod      DollarMethod      `json:"dollarMethod"`
	DiscountingMethod DiscountingMethod `json:"discountingMethod"`

	StudyPeriod        int `json:"studyPeriod"`
	ConstructionPeriod int `json:"constructionPeriod"`

	// Rates are optional individually; ResolveRates derives what it can.
	RealDiscountRate    *float64 `json:"realDiscountRate,omitempty"`
	NominalDiscountRate *float64 `json:"nominalDiscountRate,omitempty"`
	InflationRate       *float64 `json:"inflationRate,omitempty"`

	ReleaseYear     int              `json:"releaseYear"`
	Location        Location         `json:"location"`
	GHG             GHG              `json:"ghg"`
	EscalationRates []EscalationRate `json:"projectEscalationRates,omitempty"`

	Alternatives []ID `json:"alternatives"`
	Costs        []ID `json:"costs"`

	// ImportID identifies the import run that produced the project.
	ImportID string `json:"importId,omitempty"`
}

// Rates holds every rate of a Project after derivation.
type Rates struct {
	Real      float64
	Nominal   float64
	Inflation float64
}

// ResolveRates returns the project rates, deriving a missing real or nominal
// rate from the other and inflation. Current dollar projects need inflation
// and a nominal rate. Constant dollar projects need a real rate.
func (p *Project) ResolveRates() (Rates, error) {
	var r Rates
	if p.InflationRate != nil {
		r.Inflation = *p.InflationRate
	}

	realRate, nominalRate := p.RealDiscountRate, p.NominalDiscountRate
	if realRate == nil && nominalRate != nil && p.InflationRate != nil {
		v := rates.ToReal(*nominalRate, *p.InflationRate)
		realRate = &v
	}
	if nominalRate == nil && realRate != nil && p.InflationRate != nil {
		v := rates.ToNominal(*realRate, *p.InflationRate)
		nominalRate = &v
	}

	switch p.DollarMethod {
	case DollarCurrent:
		if p.InflationRate == nil {
			return Rates{}, &RateError{Method: p.DollarMethod, Missing: "inflation rate"}
		}
		if nominalRate == nil {
			return Rates{}, &RateError{Method: p.DollarMethod, Missing: "nominal discount rate"}
		}
	default:
		if realRate == nil {
			return Rates{}, &RateError{Method: p.DollarMethod, Missing: "real discount rate"}
		}
	}

	if realRate != nil {
		r.Real = *realRate
	}
	if nominalRate != nil {
		r.Nominal = *nominalRate
	}
	return r, nil
}

// IsCurrent reports whether the project is analysed in nominal dollars.
func (p *Project) IsCurrent() bool {
	return p.DollarMethod == DollarCurrent
}

func (p *Project) String() string {
	return fmt.Sprintf("project %d %q (%d years)", p.ID, p.Name, p.StudyPeriod)
}

// =============================================================================
// ALTERNATIVE
// =============================================================================

type Alternative struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Baseline    bool   `json:"baseline,omitempty"`
	Costs       []ID   `json:"costs"`
}

// Float returns a pointer to v, for optional rate fields.
func Float(v float64) *float64 {
	return &v
}
