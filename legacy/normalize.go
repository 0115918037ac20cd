/*
normalize.go - Legacy cost fragments to canonical cost records

PURPOSE:
  A legacy alternative lists eight kinds of cost components. Each raw
  component (a Fragment) is mapped onto one of the nine lcc cost kinds,
  resolving date-difference strings and escalation schedules on the way.

COMPONENT MAPPING:
  CapitalComponent          -> Capital
  CapitalReplacement        -> ReplacementCapital
  RecurringCost             -> OMR (recurring every year)
  NonRecurringCost          -> OMR (one-off)
  EnergyUsage               -> Energy
  WaterUsage                -> Water
  RecurringContractCost     -> RecurringContract
  NonRecurringContractCost  -> ImplementationContract

DEDUPLICATION:
  Normalizer hashes each raw fragment before normalizing it. A fragment
  whose hash was already seen in this import reuses the existing cost id
  and creates nothing. Ids are handed out sequentially in first-seen order
  across the whole import. A Normalizer belongs to one import and is never
  shared.

LENIENCY:
  Nothing in a fragment makes normalization fail. Unparsable durations,
  unknown units and malformed schedules fall back to defaults and are
  recorded as Warnings.

SEE ALSO:
  - hash.go: Structural fragment hash
  - import.go: Walks the document and feeds fragments in order
*/
package legacy

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/rates"
	"github.com/warp/lcc-engine/schedule"
	"github.com/warp/lcc-engine/units"
)

// =============================================================================
// FRAGMENTS
// =============================================================================

// Component is the element name of a legacy cost component.
type Component string

const (
	CapitalComponent         Component = "CapitalComponent"
	CapitalReplacement       Component = "CapitalReplacement"
	RecurringCost            Component = "RecurringCost"
	NonRecurringCost         Component = "NonRecurringCost"
	EnergyUsage              Component = "EnergyUsage"
	WaterUsage               Component = "WaterUsage"
	RecurringContractCost    Component = "RecurringContractCost"
	NonRecurringContractCost Component = "NonRecurringContractCost"
)

// Fragment is one raw cost component of a legacy document.
type Fragment struct {
	Component Component
	Node      *Node
}

// Context carries the project settings a fragment is normalized against.
type Context struct {
	StudyPeriod        int
	ConstructionPeriod int
	Location           lcc.Location
	DollarMethod       lcc.DollarMethod
	Inflation          float64
}

// Warning records a value the importer had to guess.
type Warning struct {
	Cost    string `json:"cost,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Cost == "" {
		return fmt.Sprintf("%s: %s", w.Field, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Cost, w.Field, w.Message)
}

// =============================================================================
// NORMALIZER - Per-import arena and dedup index
// =============================================================================

type Normalizer struct {
	ctx      Context
	costs    []lcc.Cost
	index    map[uint64]lcc.ID
	warnings []Warning
}

// NewNormalizer returns an empty normalizer for one import.
func NewNormalizer(ctx Context) *Normalizer {
	return &Normalizer{ctx: ctx, index: make(map[uint64]lcc.ID)}
}

// Add returns the cost id for a fragment, normalizing it on first sight.
func (n *Normalizer) Add(f Fragment) (lcc.ID, error) {
	h := Hash(f)
	if id, ok := n.index[h]; ok {
		return id, nil
	}

	id := lcc.ID(len(n.costs))
	cost, warnings, err := NormalizeCost(f, n.ctx, id)
	if err != nil {
		return 0, err
	}
	n.costs = append(n.costs, cost)
	n.index[h] = id
	n.warnings = append(n.warnings, warnings...)
	return id, nil
}

// Costs returns the arena in id order.
func (n *Normalizer) Costs() []lcc.Cost {
	return append([]lcc.Cost(nil), n.costs...)
}

// Warnings returns every warning recorded so far.
func (n *Normalizer) Warnings() []Warning {
	return append([]Warning(nil), n.warnings...)
}

// =============================================================================
// NORMALIZE
// =============================================================================

// NormalizeCost maps one fragment onto a cost record with the given id.
// It fails only for components it does not know.
func NormalizeCost(f Fragment, ctx Context, id lcc.ID) (lcc.Cost, []Warning, error) {
	c := &converter{ctx: ctx, node: f.Node, name: f.Node.String("Name")}
	base := lcc.BaseCost{ID: id, Name: c.name, Description: f.Node.String("Comment")}

	var cost lcc.Cost
	switch f.Component {
	case CapitalComponent:
		cost = c.capital(base)
	case CapitalReplacement:
		cost = c.replacement(base)
	case RecurringCost:
		cost = c.recurringOMR(base)
	case NonRecurringCost:
		cost = c.nonRecurringOMR(base)
	case EnergyUsage:
		cost = c.energy(base)
	case WaterUsage:
		cost = c.water(base)
	case RecurringContractCost:
		cost = c.recurringContract(base)
	case NonRecurringContractCost:
		cost = c.implementationContract(base)
	default:
		return nil, nil, fmt.Errorf("%w: unknown cost component %q", ErrInvalidDocument, f.Component)
	}
	return cost, c.warnings, nil
}

type converter struct {
	ctx      Context
	node     *Node
	name     string
	warnings []Warning
}

func (c *converter) warn(field, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Cost: c.name, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *converter) capital(base lcc.BaseCost) *lcc.CapitalCost {
	cost := &lcc.CapitalCost{
		BaseCost:           base,
		InitialCost:        c.optionalMoney("InitialCost"),
		AmountFinanced:     c.optionalMoney("AmountFinanced"),
		AnnualRateOfChange: c.escalation("ResaleEscalation"),
		ExpectedLife:       c.years("Duration", c.ctx.StudyPeriod),
	}

	if adj := c.escalation("Escalation"); adj != nil {
		if adj.IsSeries() {
			c.warn("Escalation", "varying cost adjustment is not supported, using %g", adj.At(0))
		}
		cost.CostAdjustment = adj.At(0)
	}

	if phaseIn := c.node.Path("PhaseIn", "PhaseIn"); phaseIn != nil {
		fractions, err := schedule.ResolvePhaseIn(phaseIn.String("Intervals"), phaseIn.String("Portions"), c.ctx.ConstructionPeriod)
		switch {
		case err != nil:
			c.warn("PhaseIn", "ignored: %v", err)
		case fractions == nil:
		default:
			if err := schedule.ValidatePhaseIn(fractions); err != nil {
				c.warn("PhaseIn", "ignored: %v", err)
			} else {
				cost.PhaseIn = fractions
			}
		}
	}

	if factor, ok := c.node.Float("ResaleValueFactor"); ok && factor != 0 {
		cost.ResidualValue = &lcc.ResidualValue{Approach: lcc.ResidualPercent, Value: decimal.NewFromFloat(factor)}
	}
	return cost
}

func (c *converter) replacement(base lcc.BaseCost) *lcc.ReplacementCapitalCost {
	life := c.years("Duration", c.ctx.StudyPeriod)
	cost := &lcc.ReplacementCapitalCost{
		BaseCost:           base,
		InitialCost:        c.money("InitialCost"),
		InitialOccurrence:  life,
		ExpectedLife:       life,
		AnnualRateOfChange: c.escalation("Escalation"),
	}
	if factor, ok := c.node.Float("ResaleValueFactor"); ok && factor != 0 {
		cost.ResidualValue = &lcc.ResidualValue{Approach: lcc.ResidualPercent, Value: decimal.NewFromFloat(factor)}
	}
	return cost
}

func (c *converter) recurringOMR(base lcc.BaseCost) *lcc.OMRCost {
	index := c.usageIndex(c.node.Path("Index", "UsageIndex"), "Index")
	return &lcc.OMRCost{
		BaseCost:          base,
		InitialCost:       c.money("Amount"),
		InitialOccurrence: firstActiveYear(index),
		Recurring: &lcc.Recurring{
			RateOfRecurrence:  1,
			RateOfChangeValue: c.escalation("Escalation"),
		},
	}
}

func (c *converter) nonRecurringOMR(base lcc.BaseCost) *lcc.OMRCost {
	cost := &lcc.OMRCost{
		BaseCost:          base,
		InitialCost:       c.money("Amount"),
		InitialOccurrence: c.years("Start", 0),
	}
	if esc := c.escalation("Escalation"); esc != nil {
		cost.Recurring = &lcc.Recurring{RateOfChangeValue: esc}
	}
	return cost
}

func (c *converter) energy(base lcc.BaseCost) *lcc.EnergyCost {
	cost := &lcc.EnergyCost{
		BaseCost:          base,
		FuelType:          parseFuelType(c.node.String("FuelType")),
		CustomerSector:    lcc.CustomerSector(c.node.String("RateSchedule")),
		CostPerUnit:       c.money("UnitCost"),
		AnnualConsumption: c.float("YearlyUsage"),
		Unit:              c.unit(),
		DemandCharge:      c.optionalMoney("DemandCharge"),
		Rebate:            c.optionalMoney("UtilityRebate"),
		Escalation:        c.escalation("Escalation"),
		UseIndex:          c.usageIndex(c.node.Path("UsageIndex", "UsageIndex"), "UsageIndex"),
	}
	cost.Location = c.location()
	return cost
}

func (c *converter) water(base lcc.BaseCost) *lcc.WaterCost {
	cost := &lcc.WaterCost{
		BaseCost:      base,
		Unit:          c.unit(),
		Usage:         c.seasons("Usage"),
		Disposal:      c.seasons("Disposal"),
		Escalation:    c.escalation("UsageEscalation"),
		UseIndex:      c.usageIndex(c.node.Path("UsageIndex", "UsageIndex"), "UsageIndex"),
		DisposalIndex: c.usageIndex(c.node.Path("DisposalIndex", "UsageIndex"), "DisposalIndex"),
	}
	cost.Location = c.location()
	return cost
}

func (c *converter) recurringContract(base lcc.BaseCost) *lcc.RecurringContractCost {
	esc := c.escalation("Escalation")
	nominal := false
	if esc != nil && c.ctx.DollarMethod == lcc.DollarCurrent {
		esc = rates.VaryingToNominal(esc, c.ctx.Inflation)
		nominal = true
	}

	return &lcc.RecurringContractCost{
		BaseCost:          base,
		InitialCost:       c.money("Amount"),
		InitialOccurrence: c.years("Start", 0),
		Recurring: &lcc.Recurring{
			RateOfRecurrence:  c.years("Interval", c.ctx.StudyPeriod),
			RateOfChangeValue: esc,
			RateOfChangeUnits: c.usageIndex(c.node.Path("Index", "UsageIndex"), "Index"),
			Nominal:           nominal,
		},
	}
}

func (c *converter) implementationContract(base lcc.BaseCost) *lcc.ImplementationContractCost {
	return &lcc.ImplementationContractCost{
		BaseCost:   base,
		Cost:       c.money("Amount"),
		Occurrence: c.years("Start", 0),
	}
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

// years parses a date-difference field. Remaining resolves to remaining;
// missing or unparsable text falls back to one year with a warning.
func (c *converter) years(field string, remaining int) int {
	text := c.node.String(field)
	d := schedule.ParseDuration(text)
	switch {
	case d.Remaining:
		return remaining
	case !d.Exact && text == "":
		c.warn(field, "missing, using 1 year")
	case !d.Exact:
		c.warn(field, "cannot parse %q, using 1 year", text)
	}
	return d.Years
}

func (c *converter) float(field string) float64 {
	v, ok := c.node.Float(field)
	if !ok && c.node.Has(field) {
		c.warn(field, "not a number: %q", c.node.String(field))
	}
	return v
}

func (c *converter) money(field string) decimal.Decimal {
	return decimal.NewFromFloat(c.float(field))
}

func (c *converter) optionalMoney(field string) *decimal.Decimal {
	v, ok := c.node.Float(field)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(v)
	return &d
}

func (c *converter) unit() units.Unit {
	name := c.node.String("Units")
	u, ok := units.ParseLegacy(name)
	if !ok {
		c.warn("Units", "unknown unit %q", name)
	}
	return u
}

// location returns the cost's own location when it differs from the project.
func (c *converter) location() *lcc.Location {
	state := c.node.String("State")
	if state == "" {
		return nil
	}
	loc := lcc.USLocation(state)
	if loc.SameRegion(c.ctx.Location) {
		return nil
	}
	return &loc
}

// escalation reads a SimpleEscalation or VaryingEscalation child of field.
func (c *converter) escalation(field string) *schedule.Varying {
	esc := c.node.Child(field)
	if esc == nil || len(esc.Children) == 0 {
		return nil
	}

	kind := esc.Children[0]
	switch kind.Name {
	case "SimpleEscalation":
		rate, ok := kind.Float("Rate")
		if !ok {
			return nil
		}
		return schedule.Constant(rate)
	case "VaryingEscalation":
		return c.varying(kind, field)
	default:
		c.warn(field, "unknown escalation %q", kind.Name)
		return nil
	}
}

func (c *converter) usageIndex(n *Node, field string) *schedule.Varying {
	if n == nil {
		return nil
	}
	return c.varying(n, field)
}

func (c *converter) varying(n *Node, field string) *schedule.Varying {
	intervals, values := n.String("Intervals"), n.String("Values")
	if intervals == "" && values == "" {
		return nil
	}
	v, err := schedule.Resolve(intervals, values, c.ctx.StudyPeriod)
	if err != nil {
		c.warn(field, "ignored: %v", err)
		return nil
	}
	return v
}

// seasons reads the summer and winter entries of a water usage category.
func (c *converter) seasons(category string) []lcc.SeasonUsage {
	out := make([]lcc.SeasonUsage, 0, 2)
	for _, season := range []lcc.Season{lcc.Summer, lcc.Winter} {
		out = append(out, lcc.SeasonUsage{
			Season:      season,
			Amount:      c.float(fmt.Sprintf("%sYearly%s", season, category)),
			CostPerUnit: c.money(fmt.Sprintf("%s%sUnitCost", season, category)),
		})
	}
	return out
}

// firstActiveYear is 1 for a constant index, otherwise one past the first
// year whose multiplier is not zero.
func firstActiveYear(index *schedule.Varying) int {
	if !index.IsSeries() {
		return 1
	}
	for i, v := range index.Yearly {
		if v != 0 {
			return i + 1
		}
	}
	return 1
}

func parseFuelType(code string) units.FuelType {
	switch code {
	case "Electricity":
		return units.Electricity
	case "NatGas":
		return units.NaturalGas
	case "LPG":
		return units.Propane
	case "DistOil":
		return units.DistillateOil
	case "ResidOil":
		return units.ResidualOil
	default:
		return units.OtherFuel
	}
}
