/*
cost.go - The nine cost kinds

PURPOSE:
  Cost is a closed set of nine record types. The set is sealed with an
  unexported method so that no other package can add a kind, and every
  consumer dispatches through CostVisitor. A new kind therefore has to add
  a Visit method, which breaks every visitor until it handles the kind.

KINDS:
  Capital                  Up-front investment, optional phase-in and residual
  Energy                   Annual fuel consumption priced per unit
  Water                    Seasonal usage and disposal
  ReplacementCapital       Future one-off replacement with residual
  OMR                      Operation, maintenance and repair
  ImplementationContract   One-time contract payment
  RecurringContract        Periodic contract payment
  Other                    Free-form monetary cost or benefit
  OtherNonMonetary         Free-form non-monetary quantity

MONEY:
  Money fields use decimal.Decimal. Rates, indices and physical quantities
  are float64 because they feed exponentiation and unit conversion.

SEE ALSO:
  - cashflow/compiler.go: Visits every kind
  - factory/cost.go: JSON encoding with a "type" discriminator
*/
package lcc

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lcc-engine/schedule"
	"github.com/warp/lcc-engine/units"
)

// =============================================================================
// KIND
// =============================================================================

type Kind string

const (
	KindCapital                Kind = "Capital"
	KindEnergy                 Kind = "Energy"
	KindWater                  Kind = "Water"
	KindReplacementCapital     Kind = "Replacement Capital"
	KindOMR                    Kind = "OMR"
	KindImplementationContract Kind = "Contract Implementation"
	KindRecurringContract      Kind = "Recurring Contract"
	KindOther                  Kind = "Other Monetary"
	KindOtherNonMonetary       Kind = "Other Non-Monetary"
)

// Kinds lists every cost kind.
var Kinds = []Kind{
	KindCapital,
	KindEnergy,
	KindWater,
	KindReplacementCapital,
	KindOMR,
	KindImplementationContract,
	KindRecurringContract,
	KindOther,
	KindOtherNonMonetary,
}

// =============================================================================
// COST INTERFACE
// =============================================================================

// Cost is implemented by exactly the nine kinds in this file.
type Cost interface {
	Base() *BaseCost
	Kind() Kind
	Accept(v CostVisitor)
	sealed()
}

// CostVisitor has one method per cost kind.
type CostVisitor interface {
	VisitCapital(c *CapitalCost)
	VisitEnergy(c *EnergyCost)
	VisitWater(c *WaterCost)
	VisitReplacementCapital(c *ReplacementCapitalCost)
	VisitOMR(c *OMRCost)
	VisitImplementationContract(c *ImplementationContractCost)
	VisitRecurringContract(c *RecurringContractCost)
	VisitOther(c *OtherCost)
	VisitOtherNonMonetary(c *OtherNonMonetaryCost)
}

// BaseCost holds the fields every kind shares.
type BaseCost struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    *Location `json:"location,omitempty"`

	// CostSavings marks the cost as a saving. Compiled quantities are negated.
	CostSavings bool `json:"costSavings,omitempty"`
}

func (b *BaseCost) Base() *BaseCost { return b }
func (b *BaseCost) sealed()         {}

// =============================================================================
// SHARED SUB-RECORDS
// =============================================================================

type ResidualApproach string

const (
	ResidualPercent ResidualApproach = "%"
	ResidualDollar  ResidualApproach = "$"
)

// ResidualValue is either a fraction of the cost's base amount or a fixed
// dollar amount, realised at the end of the asset life or the study.
type ResidualValue struct {
	Approach ResidualApproach `json:"approach"`
	Value    decimal.Decimal  `json:"value"`
}

// Recurring describes how an OMR, contract or other cost repeats.
type Recurring struct {
	// RateOfRecurrence is the interval in years. Zero means non-recurring.
	RateOfRecurrence int `json:"rateOfRecurrence,omitempty"`

	RateOfChangeValue *schedule.Varying `json:"rateOfChangeValue,omitempty"`
	RateOfChangeUnits *schedule.Varying `json:"rateOfChangeUnits,omitempty"`

	// Duration is how many years the recurrence lasts. Zero runs to the end.
	Duration int `json:"duration,omitempty"`

	// Nominal marks RateOfChangeValue as already expressed in nominal terms.
	Nominal bool `json:"nominal,omitempty"`
}

type Season string

const (
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
	Winter Season = "Winter"
)

type SeasonUsage struct {
	Season      Season          `json:"season"`
	Amount      float64         `json:"amount"`
	CostPerUnit decimal.Decimal `json:"costPerUnit"`
}

type CostBenefit string

const (
	IsCost    CostBenefit = "Cost"
	IsBenefit CostBenefit = "Benefit"
)

// =============================================================================
// KINDS
// =============================================================================

type CapitalCost struct {
	BaseCost
	InitialCost        *decimal.Decimal  `json:"initialCost,omitempty"`
	AmountFinanced     *decimal.Decimal  `json:"amountFinanced,omitempty"`
	AnnualRateOfChange *schedule.Varying `json:"annualRateOfChange,omitempty"`
	ExpectedLife       int               `json:"expectedLife"`
	CostAdjustment     float64           `json:"costAdjustment,omitempty"`
	PhaseIn            []float64         `json:"phaseIn,omitempty"`
	ResidualValue      *ResidualValue    `json:"residualValue,omitempty"`
}

type EnergyCost struct {
	BaseCost
	FuelType          units.FuelType    `json:"fuelType"`
	CustomerSector    CustomerSector    `json:"customerSector,omitempty"`
	CostPerUnit       decimal.Decimal   `json:"costPerUnit"`
	AnnualConsumption float64           `json:"annualConsumption"`
	Unit              units.Unit        `json:"unit"`
	DemandCharge      *decimal.Decimal  `json:"demandCharge,omitempty"`
	Rebate            *decimal.Decimal  `json:"rebate,omitempty"`
	Escalation        *schedule.Varying `json:"escalation,omitempty"`
	UseIndex          *schedule.Varying `json:"useIndex,omitempty"`

	// Emissions overrides the injected per-year emission factors.
	Emissions []float64 `json:"emissions,omitempty"`
}

type WaterCost struct {
	BaseCost
	Unit          units.Unit        `json:"unit"`
	Usage         []SeasonUsage     `json:"usage"`
	Disposal      []SeasonUsage     `json:"disposal"`
	Escalation    *schedule.Varying `json:"escalation,omitempty"`
	UseIndex      *schedule.Varying `json:"useIndex,omitempty"`
	DisposalIndex *schedule.Varying `json:"disposalIndex,omitempty"`
}

type ReplacementCapitalCost struct {
	BaseCost
	InitialCost        decimal.Decimal   `json:"initialCost"`
	InitialOccurrence  int               `json:"initialOccurrence"`
	ExpectedLife       int               `json:"expectedLife"`
	AnnualRateOfChange *schedule.Varying `json:"annualRateOfChange,omitempty"`
	ResidualValue      *ResidualValue    `json:"residualValue,omitempty"`
}

type OMRCost struct {
	BaseCost
	InitialCost       decimal.Decimal `json:"initialCost"`
	InitialOccurrence int             `json:"initialOccurrence"`
	Recurring         *Recurring      `json:"recurring,omitempty"`
}

type ImplementationContractCost struct {
	BaseCost
	Cost       decimal.Decimal `json:"cost"`
	Occurrence int             `json:"occurrence"`
}

type RecurringContractCost struct {
	BaseCost
	InitialCost       decimal.Decimal `json:"initialCost"`
	InitialOccurrence int             `json:"initialOccurrence"`
	Recurring         *Recurring      `json:"recurring,omitempty"`
}

type OtherCost struct {
	BaseCost
	CostOrBenefit     CostBenefit     `json:"costOrBenefit"`
	Tags              []string        `json:"tags,omitempty"`
	InitialOccurrence int             `json:"initialOccurrence"`
	ValuePerUnit      decimal.Decimal `json:"valuePerUnit"`
	NumberOfUnits     float64         `json:"numberOfUnits"`
	Unit              string          `json:"unit,omitempty"`
	Recurring         *Recurring      `json:"recurring,omitempty"`
}

type OtherNonMonetaryCost struct {
	BaseCost
	Tags              []string   `json:"tags,omitempty"`
	InitialOccurrence int        `json:"initialOccurrence"`
	NumberOfUnits     float64    `json:"numberOfUnits"`
	Unit              string     `json:"unit,omitempty"`
	Recurring         *Recurring `json:"recurring,omitempty"`
}

func (c *CapitalCost) Kind() Kind                { return KindCapital }
func (c *EnergyCost) Kind() Kind                 { return KindEnergy }
func (c *WaterCost) Kind() Kind                  { return KindWater }
func (c *ReplacementCapitalCost) Kind() Kind     { return KindReplacementCapital }
func (c *OMRCost) Kind() Kind                    { return KindOMR }
func (c *ImplementationContractCost) Kind() Kind { return KindImplementationContract }
func (c *RecurringContractCost) Kind() Kind      { return KindRecurringContract }
func (c *OtherCost) Kind() Kind                  { return KindOther }
func (c *OtherNonMonetaryCost) Kind() Kind       { return KindOtherNonMonetary }

func (c *CapitalCost) Accept(v CostVisitor)                { v.VisitCapital(c) }
func (c *EnergyCost) Accept(v CostVisitor)                 { v.VisitEnergy(c) }
func (c *WaterCost) Accept(v CostVisitor)                  { v.VisitWater(c) }
func (c *ReplacementCapitalCost) Accept(v CostVisitor)     { v.VisitReplacementCapital(c) }
func (c *OMRCost) Accept(v CostVisitor)                    { v.VisitOMR(c) }
func (c *ImplementationContractCost) Accept(v CostVisitor) { v.VisitImplementationContract(c) }
func (c *RecurringContractCost) Accept(v CostVisitor)      { v.VisitRecurringContract(c) }
func (c *OtherCost) Accept(v CostVisitor)                  { v.VisitOther(c) }
func (c *OtherNonMonetaryCost) Accept(v CostVisitor)       { v.VisitOtherNonMonetary(c) }

// Decimal returns a pointer to a decimal built from v.
func Decimal(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// IndexCosts returns the costs keyed by id.
func IndexCosts(costs []Cost) map[ID]Cost {
	out := make(map[ID]Cost, len(costs))
	for _, c := range costs {
		out[c.Base().ID] = c
	}
	return out
}
