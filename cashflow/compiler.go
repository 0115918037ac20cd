/*
compiler.go - Per-kind compilation of costs into line items

PURPOSE:
  Compiler turns one cost into the line items the engine needs. It is built
  once per project, resolving rates up front, and never fails afterwards.

OCCURRENCE YEARS:
  Capital                  0, or i for phase-in year i
  Energy, Water            constructionPeriod + 1, every year
  OMR, RecurringContract   initialOccurrence + constructionPeriod
  Other, OtherNonMonetary  initialOccurrence + constructionPeriod
  ImplementationContract   occurrence + constructionPeriod
  ReplacementCapital       occurrence + constructionPeriod
  Residual value           min(expectedLife, studyPeriod)

RATE SERIES:
  Every rate-of-change series handed to the engine starts with a 0 for the
  occurrence year itself. Series are converted from real to nominal terms
  when the project is in current dollars and the cost has not stored them
  as nominal already.

ESCALATION PRIORITY (energy):
  1. The cost's own escalation
  2. The project escalation table (or the injected one), by sector and fuel
  3. None: flat recurrence

SEE ALSO:
  - lineitem.go: Output records
  - lcc/cost.go: The visitor that makes dispatch exhaustive
*/
package cashflow

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/rates"
	"github.com/warp/lcc-engine/schedule"
	"github.com/warp/lcc-engine/units"
)

// =============================================================================
// COMPILER
// =============================================================================

type Compiler struct {
	project *lcc.Project
	rates   lcc.Rates
	env     Environment

	escalation []escalationResolver
}

// escalationResolver returns the escalation for an energy cost, or nil to
// let the next resolver try.
type escalationResolver func(c *lcc.EnergyCost) *schedule.Varying

// NewCompiler resolves the project rates. It fails only when the rates the
// dollar method needs cannot be derived.
func NewCompiler(project *lcc.Project, env Environment) (*Compiler, error) {
	r, err := project.ResolveRates()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", project, err)
	}

	c := &Compiler{project: project, rates: r, env: env}
	c.escalation = []escalationResolver{
		func(e *lcc.EnergyCost) *schedule.Varying { return e.Escalation },
		c.tableEscalation,
	}
	return c, nil
}

// Rates returns the resolved project rates.
func (c *Compiler) Rates() lcc.Rates {
	return c.rates
}

// Compile returns the line items of one cost. Every kind yields at least one
// item.
func (c *Compiler) Compile(cost lcc.Cost) []LineItem {
	v := &visitor{c: c}
	cost.Accept(v)

	base := cost.Base()
	for i := range v.items {
		v.items[i].CostID = base.ID
		if base.CostSavings {
			v.items[i].Quantity = v.items[i].Quantity.Neg()
		}
	}
	return v.items
}

// CompileAll compiles every cost, keyed by cost id.
func (c *Compiler) CompileAll(costs []lcc.Cost) map[lcc.ID][]LineItem {
	out := make(map[lcc.ID][]LineItem, len(costs))
	for _, cost := range costs {
		out[cost.Base().ID] = c.Compile(cost)
	}
	return out
}

// =============================================================================
// VISITOR - One method per cost kind
// =============================================================================

type visitor struct {
	c     *Compiler
	items []LineItem
}

var _ lcc.CostVisitor = (*visitor)(nil)

func (v *visitor) emit(items ...LineItem) {
	v.items = append(v.items, items...)
}

func (v *visitor) VisitCapital(cost *lcc.CapitalCost) {
	tag := "Initial Investment"
	initial := decimal.Zero
	if cost.InitialCost != nil {
		initial = *cost.InitialCost
	}

	if len(cost.PhaseIn) > 0 {
		adjusted := initial.Mul(decimal.NewFromFloat(math.Pow(1+cost.CostAdjustment, float64(len(cost.PhaseIn)))))
		for i, frac := range cost.PhaseIn {
			v.emit(LineItem{
				Name:              fmt.Sprintf("%s Phase-In year %d", cost.Name, i),
				Tags:              []string{tag, "LCC"},
				Type:              TypeCost,
				SubType:           SubTypeDirect,
				Real:              true,
				Invest:            true,
				InitialOccurrence: i,
				Life:              cost.ExpectedLife,
				Quantity:          decimal.NewFromInt(1),
				QuantityValue:     adjusted.Mul(decimal.NewFromFloat(frac)),
			})
		}
	} else {
		v.emit(LineItem{
			Name:              cost.Name,
			Tags:              []string{tag, "LCC"},
			Type:              TypeCost,
			SubType:           SubTypeDirect,
			Real:              true,
			Invest:            true,
			InitialOccurrence: 0,
			Life:              cost.ExpectedLife,
			Quantity:          decimal.NewFromInt(1),
			QuantityValue:     initial,
		})
	}

	if cost.ResidualValue != nil {
		base := initial
		if cost.AmountFinanced != nil {
			base = base.Add(*cost.AmountFinanced)
		}
		v.emit(v.c.residual(cost.Name, base, cost.ResidualValue, cost.AnnualRateOfChange, cost.ExpectedLife, tag))
	}
}

func (v *visitor) VisitEnergy(cost *lcc.EnergyCost) {
	c := v.c
	recur := c.everyYear(c.energyEscalation(cost), false)
	occurrence := c.project.ConstructionPeriod + 1

	tags := []string{"Energy", string(cost.FuelType), string(cost.Unit), "LCC"}
	if cost.CustomerSector != "" {
		tags = append(tags, string(cost.CustomerSector))
	}
	main := LineItem{
		Name:              cost.Name,
		Tags:              tags,
		Type:              TypeCost,
		SubType:           SubTypeDirect,
		Real:              true,
		InitialOccurrence: occurrence,
		Recurrence:        recur,
		Quantity:          decimal.NewFromFloat(cost.AnnualConsumption),
		QuantityValue:     cost.CostPerUnit,
		QuantityUnit:      string(cost.Unit),
	}
	if index := c.multipliers(cost.UseIndex); index != nil {
		main.QuantityVarRate = YearByYear
		main.QuantityVarValue = index
	}
	v.emit(main)

	if cost.DemandCharge != nil {
		v.emit(LineItem{
			Name:              cost.Name + " Demand Charge",
			Tags:              []string{"Demand Charge", "LCC"},
			Type:              TypeCost,
			SubType:           SubTypeDirect,
			Real:              true,
			InitialOccurrence: occurrence,
			Recurrence:        recur,
			Quantity:          decimal.NewFromInt(1),
			QuantityValue:     *cost.DemandCharge,
		})
	}

	if cost.Rebate != nil {
		v.emit(LineItem{
			Name:              cost.Name + " Rebate",
			Tags:              []string{"Rebate", "LCC"},
			Type:              TypeBenefit,
			SubType:           SubTypeDirect,
			Real:              true,
			InitialOccurrence: occurrence,
			Recurrence:        recur,
			Quantity:          decimal.NewFromInt(1),
			QuantityValue:     cost.Rebate.Neg(),
		})
	}

	v.emit(c.emissions(cost, occurrence)...)
}

func (v *visitor) VisitWater(cost *lcc.WaterCost) {
	c := v.c
	recur := c.everyYear(cost.Escalation, false)
	occurrence := c.project.ConstructionPeriod + 1

	unit := cost.Unit
	if units.IsVolume(unit) {
		unit = units.Liter
	}

	add := func(category string, seasons []lcc.SeasonUsage, index *schedule.Varying) {
		multipliers := c.multipliers(index)
		for _, s := range seasons {
			item := LineItem{
				Name:              fmt.Sprintf("%s %s Water %s", cost.Name, s.Season, category),
				Tags:              []string{string(unit), "LCC", "Water", category, string(s.Season)},
				Type:              TypeCost,
				SubType:           SubTypeDirect,
				Real:              true,
				InitialOccurrence: occurrence,
				Recurrence:        recur,
				Quantity:          decimal.NewFromFloat(units.ToLiters(s.Amount, cost.Unit)),
				QuantityValue:     units.CostPerUnitToLiters(s.CostPerUnit, cost.Unit),
				QuantityUnit:      string(unit),
			}
			if multipliers != nil {
				item.QuantityVarRate = YearByYear
				item.QuantityVarValue = multipliers
			}
			v.emit(item)
		}
	}
	add("Usage", cost.Usage, cost.UseIndex)
	add("Disposal", cost.Disposal, cost.DisposalIndex)
}

func (v *visitor) VisitReplacementCapital(cost *lcc.ReplacementCapitalCost) {
	tag := "Replacement Capital"
	v.emit(LineItem{
		Name:              cost.Name,
		Tags:              []string{tag, "LCC"},
		Type:              TypeCost,
		SubType:           SubTypeDirect,
		Real:              true,
		Invest:            true,
		InitialOccurrence: cost.InitialOccurrence + v.c.project.ConstructionPeriod,
		Life:              cost.ExpectedLife,
		Quantity:          decimal.NewFromInt(1),
		QuantityValue:     cost.InitialCost,
	})

	if cost.ResidualValue != nil {
		v.emit(v.c.residual(cost.Name, cost.InitialCost, cost.ResidualValue, cost.AnnualRateOfChange, cost.ExpectedLife, tag))
	}
}

func (v *visitor) VisitOMR(cost *lcc.OMRCost) {
	item := LineItem{
		Name:          cost.Name,
		Tags:          []string{"OMR", "LCC"},
		Type:          TypeCost,
		SubType:       SubTypeDirect,
		Real:          true,
		Quantity:      decimal.NewFromInt(1),
		QuantityValue: cost.InitialCost,
	}
	v.c.occur(&item, cost.InitialOccurrence, cost.Recurring)
	if item.Recurrence != nil {
		item.Tags = append(item.Tags, "OMR Recurring")
	} else {
		item.Tags = append(item.Tags, "OMR Non-Recurring")
	}
	v.emit(item)
}

func (v *visitor) VisitImplementationContract(cost *lcc.ImplementationContractCost) {
	v.emit(LineItem{
		Name:              cost.Name,
		Tags:              []string{"Implementation Contract Cost", "LCC"},
		Type:              TypeCost,
		SubType:           SubTypeDirect,
		Real:              true,
		Invest:            true,
		InitialOccurrence: cost.Occurrence + v.c.project.ConstructionPeriod,
		Quantity:          decimal.NewFromInt(1),
		QuantityValue:     cost.Cost,
	})
}

func (v *visitor) VisitRecurringContract(cost *lcc.RecurringContractCost) {
	item := LineItem{
		Name:          cost.Name,
		Tags:          []string{"Recurring Contract Cost", "LCC"},
		Type:          TypeCost,
		SubType:       SubTypeDirect,
		Real:          true,
		Invest:        true,
		Quantity:      decimal.NewFromInt(1),
		QuantityValue: cost.InitialCost,
	}
	v.c.occur(&item, cost.InitialOccurrence, cost.Recurring)
	v.emit(item)
}

func (v *visitor) VisitOther(cost *lcc.OtherCost) {
	typ := TypeCost
	if cost.CostOrBenefit == lcc.IsBenefit {
		typ = TypeBenefit
	}

	tags := append([]string{"Other", "LCC"}, cost.Tags...)
	if cost.Unit != "" {
		tags = append(tags, cost.Unit)
	}
	item := LineItem{
		Name:          cost.Name,
		Tags:          tags,
		Type:          typ,
		SubType:       SubTypeDirect,
		Real:          true,
		Invest:        true,
		Quantity:      decimal.NewFromFloat(cost.NumberOfUnits),
		QuantityValue: cost.ValuePerUnit,
		QuantityUnit:  cost.Unit,
	}
	v.c.occur(&item, cost.InitialOccurrence, cost.Recurring)
	v.emit(item)
}

func (v *visitor) VisitOtherNonMonetary(cost *lcc.OtherNonMonetaryCost) {
	tags := []string{"Other Non-Monetary"}
	if cost.Unit != "" {
		tags = append(tags, cost.Unit)
	}
	tags = append(tags, cost.Tags...)

	item := LineItem{
		Name:          cost.Name,
		Tags:          tags,
		Type:          TypeNonMonetary,
		SubType:       SubTypeDirect,
		Quantity:      decimal.NewFromFloat(cost.NumberOfUnits),
		QuantityValue: decimal.NewFromInt(1),
		QuantityUnit:  cost.Unit,
	}
	v.c.occur(&item, cost.InitialOccurrence, cost.Recurring)
	v.emit(item)
}

// =============================================================================
// SHARED RULES
// =============================================================================

// occur places an item at initialOccurrence + constructionPeriod and makes it
// recur when the Recurring record has a positive interval.
func (c *Compiler) occur(item *LineItem, initialOccurrence int, rec *lcc.Recurring) {
	item.InitialOccurrence = initialOccurrence + c.project.ConstructionPeriod
	if rec == nil || rec.RateOfRecurrence <= 0 {
		return
	}

	recur := &Recurrence{Interval: rec.RateOfRecurrence}
	if rec.Duration > 0 {
		end := item.InitialOccurrence + rec.Duration - 1
		recur.End = &end
	}
	if series := c.rateSeries(rec.RateOfChangeValue, rec.Nominal); series != nil {
		recur.VarRate = PercentDelta
		recur.VarValue = series
	}
	item.Recurrence = recur

	if multipliers := c.multipliers(rec.RateOfChangeUnits); multipliers != nil {
		item.QuantityVarRate = YearByYear
		item.QuantityVarValue = multipliers
	}
}

// everyYear is the yearly recurrence of energy and water items.
func (c *Compiler) everyYear(escalation *schedule.Varying, nominal bool) *Recurrence {
	recur := &Recurrence{Interval: 1}
	if series := c.rateSeries(escalation, nominal); series != nil {
		recur.VarRate = PercentDelta
		recur.VarValue = series
	}
	return recur
}

// residual builds the residual value item realised at the end of the asset
// life or of the study, whichever comes first. It is a cost with a negative
// value so that it lowers the life-cycle cost.
func (c *Compiler) residual(name string, base decimal.Decimal, rv *lcc.ResidualValue, roc *schedule.Varying, expectedLife int, parentTag string) LineItem {
	year := min(expectedLife, c.project.StudyPeriod)

	var value decimal.Decimal
	switch {
	case rv.Approach == lcc.ResidualDollar:
		value = rv.Value.Neg()
	case roc.IsSeries():
		value = rv.Value.Mul(base).Neg()
	default:
		rate := 0.0
		if roc != nil {
			rate = roc.Constant
		}
		growth := decimal.NewFromFloat(math.Pow(1+rate, float64(year)))
		value = rv.Value.Mul(base).Mul(growth).Neg()
	}

	return LineItem{
		Name:              name + " Residual Value",
		Tags:              []string{parentTag, "LCC", "Residual Value"},
		Type:              TypeCost,
		SubType:           SubTypeDirect,
		Real:              true,
		InitialOccurrence: year,
		Quantity:          decimal.NewFromInt(1),
		QuantityValue:     value,
	}
}

// rateSeries expands a rate of change to one value per study year, prefixed
// with a 0 for the occurrence year. Longer series are clipped so scalars and
// series reach the engine with the same length.
func (c *Compiler) rateSeries(v *schedule.Varying, nominal bool) []float64 {
	if v == nil {
		return nil
	}
	if c.project.IsCurrent() && !nominal {
		v = rates.VaryingToNominal(v, c.rates.Inflation)
	}

	var values []float64
	if v.IsSeries() {
		values = v.Values()
		if len(values) > c.project.StudyPeriod {
			values = values[:c.project.StudyPeriod]
		}
	} else {
		values = make([]float64, c.project.StudyPeriod)
		for i := range values {
			values[i] = v.Constant
		}
	}
	return append([]float64{0}, values...)
}

// multipliers expands a quantity index to one value per year.
func (c *Compiler) multipliers(v *schedule.Varying) []float64 {
	if v == nil {
		return nil
	}
	if v.IsSeries() {
		return v.Values()
	}
	out := make([]float64, c.project.StudyPeriod+1)
	for i := range out {
		out[i] = v.Constant
	}
	return out
}

// =============================================================================
// ENERGY HELPERS
// =============================================================================

func (c *Compiler) energyEscalation(cost *lcc.EnergyCost) *schedule.Varying {
	for _, resolve := range c.escalation {
		if esc := resolve(cost); esc != nil {
			return esc
		}
	}
	return nil
}

// tableEscalation reads the escalation table rows of the cost's sector in
// year order and picks the column of its fuel. A cost without a sector has
// no table rows.
func (c *Compiler) tableEscalation(cost *lcc.EnergyCost) *schedule.Varying {
	if cost.CustomerSector == "" {
		return nil
	}
	table := c.project.EscalationRates
	if len(table) == 0 {
		table = c.env.EscalationRates
	}

	var rows []lcc.EscalationRate
	for _, r := range table {
		if r.Sector == cost.CustomerSector {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.ForFuel(cost.FuelType)
	}
	return schedule.Series(values...)
}

// emissions returns the emissions item, and the social cost of carbon item
// when that dataset is present too.
func (c *Compiler) emissions(cost *lcc.EnergyCost, occurrence int) []LineItem {
	factors := cost.Emissions
	if len(factors) == 0 {
		factors = c.env.Emissions
	}
	if len(factors) == 0 {
		return nil
	}
	mwh, ok := units.ToMWh(cost.FuelType, cost.Unit, cost.AnnualConsumption)
	if !ok {
		return nil
	}

	kg := make([]float64, len(factors))
	for i, f := range factors {
		kg[i] = f * mwh
	}

	items := []LineItem{{
		Name:              cost.Name + " Emissions",
		Tags:              []string{"Emissions", fmt.Sprintf("%s Emissions", cost.FuelType), string(units.KgCO2e)},
		Type:              TypeNonMonetary,
		Real:              true,
		InitialOccurrence: occurrence,
		Recurrence:        &Recurrence{Interval: 1},
		Quantity:          decimal.NewFromInt(1),
		QuantityValue:     decimal.NewFromInt(1),
		QuantityUnit:      string(units.KgCO2e),
		QuantityVarRate:   YearByYear,
		QuantityVarValue:  kg,
	}}

	scc := c.env.SocialCostOfCarbon
	if len(scc) == 0 {
		return items
	}
	n := min(len(scc), len(kg))
	dollars := make([]float64, n)
	for i := 0; i < n; i++ {
		dollars[i] = scc[i] * kg[i]
	}
	return append(items, LineItem{
		Name:              cost.Name + " SCC",
		Tags:              []string{"SCC", fmt.Sprintf("%s SCC", cost.FuelType), string(units.DollarPerKgCO2e)},
		Type:              TypeCost,
		Real:              true,
		InitialOccurrence: occurrence,
		Recurrence:        &Recurrence{Interval: 1},
		Quantity:          decimal.NewFromInt(1),
		QuantityValue:     decimal.NewFromInt(1),
		QuantityUnit:      string(units.DollarPerKgCO2e),
		QuantityVarRate:   YearByYear,
		QuantityVarValue:  dollars,
	})
}
