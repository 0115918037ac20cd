/*
import.go - Legacy project document importer

PURPOSE:
  Reads a legacy XML project file and produces a Project, its Alternatives
  and a deduplicated pool of Costs. The importer never rejects a document
  for bad field values; it falls back to defaults and reports every guess
  as a Warning, both in the Result and in the log.

DOCUMENT ORDER:
  For each Alternative the cost components are read in this order:
    1. CapitalComponents
    2. Sub-costs of each capital component, renamed "<parent> <child>":
       CapitalReplacements, RecurringCosts, NonRecurringCosts
    3. EnergyUsages
    4. WaterUsages
    5. RecurringContractCosts
    6. NonRecurringContractCosts
  Cost ids follow first-seen order over the whole document.

ENUMERATIONS:
  AnalysisType       0 FEMP energy, 1 federal financed, 2 MILCON energy,
                     3 MILCON ECIP, 4 OMB non-energy, 5 MILCON non-energy
  AnalysisPurpose    0 invest/regulation, 1 cost/lease, otherwise none
  DollarMethod       0 constant, 1 current
  DiscountingMethod  0 and 1 end of year, 2 mid year

SEE ALSO:
  - normalize.go: Per-component mapping and dedup
  - xml.go: Document tree
*/
package legacy

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/logging"
	"github.com/warp/lcc-engine/rates"
	"github.com/warp/lcc-engine/schedule"
)

// Defaults fill in project settings a legacy document leaves out.
type Defaults struct {
	RealDiscountRate   float64 `yaml:"realDiscountRate" json:"realDiscountRate"`
	InflationRate      float64 `yaml:"inflationRate" json:"inflationRate"`
	ReleaseYear        int     `yaml:"releaseYear" json:"releaseYear"`
	StudyPeriod        int     `yaml:"studyPeriod" json:"studyPeriod"`
	ConstructionPeriod int     `yaml:"constructionPeriod" json:"constructionPeriod"`
}

// DefaultDefaults returns the fallback project settings.
func DefaultDefaults() Defaults {
	return Defaults{
		RealDiscountRate:   0.03,
		InflationRate:      0.023,
		ReleaseYear:        2023,
		StudyPeriod:        25,
		ConstructionPeriod: 0,
	}
}

type Options struct {
	Defaults Defaults
}

// Result is everything one import produced.
type Result struct {
	Project      *lcc.Project
	Alternatives []lcc.Alternative
	Costs        []lcc.Cost
	Warnings     []Warning
}

// sub-cost sections of a capital component, in document order
var capitalSubComponents = []Component{CapitalReplacement, RecurringCost, NonRecurringCost}

// alternative-level sections after the capital components
var alternativeComponents = []Component{EnergyUsage, WaterUsage, RecurringContractCost, NonRecurringContractCost}

// Import parses a legacy document. The returned records are not yet stored:
// the project and alternative ids are positional and the caller persists them.
func Import(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	logger := logging.Component(ctx, "legacy")
	if opts.Defaults == (Defaults{}) {
		opts.Defaults = DefaultDefaults()
	}

	root, err := parseDocument(r)
	if err != nil {
		return nil, err
	}
	if root.Name != "Project" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <Project>", ErrInvalidDocument, root.Name)
	}

	alternatives := root.Path("Alternatives").All("Alternative")
	if len(alternatives) == 0 {
		return nil, ErrNoAlternatives
	}

	p := &projectReader{node: root, defaults: opts.Defaults}
	project := p.project()

	norm := NewNormalizer(Context{
		StudyPeriod:        project.StudyPeriod,
		ConstructionPeriod: project.ConstructionPeriod,
		Location:           project.Location,
		DollarMethod:       project.DollarMethod,
		Inflation:          *project.InflationRate,
	})

	result := &Result{Project: project}
	for i, altNode := range alternatives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		alt := lcc.Alternative{
			ID:          lcc.ID(i),
			Name:        altNode.String("Name"),
			Description: altNode.String("Comment"),
		}
		for _, f := range fragments(altNode) {
			id, err := norm.Add(f)
			if err != nil {
				return nil, fmt.Errorf("alternative %q: %w", alt.Name, err)
			}
			alt.Costs = append(alt.Costs, id)
		}

		result.Alternatives = append(result.Alternatives, alt)
		project.Alternatives = append(project.Alternatives, alt.ID)
	}

	result.Costs = norm.Costs()
	for _, c := range result.Costs {
		project.Costs = append(project.Costs, c.Base().ID)
	}

	result.Warnings = append(p.warnings, norm.Warnings()...)
	for _, w := range result.Warnings {
		logger.Warn().
			Str("import_id", project.ImportID).
			Str("cost", w.Cost).
			Str("field", w.Field).
			Msg(w.Message)
	}

	logger.Info().
		Str("import_id", project.ImportID).
		Str("project", project.Name).
		Int("alternatives", len(result.Alternatives)).
		Int("costs", len(result.Costs)).
		Int("warnings", len(result.Warnings)).
		Msg("legacy project imported")

	return result, nil
}

// fragments lists the cost components of one alternative in document order.
func fragments(alt *Node) []Fragment {
	var out []Fragment

	capitals := section(alt, CapitalComponent)
	for _, n := range capitals {
		out = append(out, Fragment{Component: CapitalComponent, Node: n})
	}

	for _, capital := range capitals {
		parent := capital.String("Name")
		if parent == "" {
			parent = "Unnamed Cost"
		}
		for _, kind := range capitalSubComponents {
			for _, n := range section(capital, kind) {
				renamed := n.withText("Name", parent+" "+n.String("Name"))
				out = append(out, Fragment{Component: kind, Node: renamed})
			}
		}
	}

	for _, kind := range alternativeComponents {
		for _, n := range section(alt, kind) {
			out = append(out, Fragment{Component: kind, Node: n})
		}
	}
	return out
}

// section returns the <Kind> children of the <Kinds> wrapper.
func section(n *Node, kind Component) []*Node {
	return n.Child(string(kind) + "s").All(string(kind))
}

// =============================================================================
// PROJECT SETTINGS
// =============================================================================

type projectReader struct {
	node     *Node
	defaults Defaults
	warnings []Warning
}

func (p *projectReader) warn(field, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p *projectReader) project() *lcc.Project {
	n := p.node

	project := &lcc.Project{
		Name:              n.String("Name"),
		Description:       n.String("Comment"),
		Analyst:           n.String("Analyst"),
		AnalysisType:      p.analysisType(),
		Purpose:           p.purpose(),
		DollarMethod:      p.dollarMethod(),
		DiscountingMethod: p.discountingMethod(),
		StudyPeriod:       p.studyPeriod(),
		ReleaseYear:       p.defaults.ReleaseYear,
		Location:          p.location(),
		GHG:               lcc.GHG{DataSource: lcc.NISTNETL, EmissionsRateType: lcc.AverageEmissions},
		ImportID:          uuid.NewString(),
	}
	project.ConstructionPeriod = p.constructionPeriod()

	realRate, ok := n.Float("DiscountRate")
	if !ok {
		p.warn("DiscountRate", "missing, using %g", p.defaults.RealDiscountRate)
		realRate = p.defaults.RealDiscountRate
	}
	inflation, ok := n.Float("InflationRate")
	if !ok {
		p.warn("InflationRate", "missing, using %g", p.defaults.InflationRate)
		inflation = p.defaults.InflationRate
	}
	project.RealDiscountRate = lcc.Float(realRate)
	project.InflationRate = lcc.Float(inflation)
	project.NominalDiscountRate = lcc.Float(rates.ToNominal(realRate, inflation))

	return project
}

func (p *projectReader) studyPeriod() int {
	text := p.node.String("Duration")
	d := schedule.ParseDuration(text)
	if d.Remaining || !d.Exact || d.Years <= 0 {
		p.warn("Duration", "cannot use study period %q, using %d years", text, p.defaults.StudyPeriod)
		return p.defaults.StudyPeriod
	}
	return d.Years
}

func (p *projectReader) constructionPeriod() int {
	text := p.node.String("PCPeriod")
	if text == "" {
		return p.defaults.ConstructionPeriod
	}
	d := schedule.ParseDuration(text)
	if d.Remaining || !d.Exact {
		p.warn("PCPeriod", "cannot parse %q, using %d years", text, p.defaults.ConstructionPeriod)
		return p.defaults.ConstructionPeriod
	}
	return d.Years
}

func (p *projectReader) location() lcc.Location {
	state := p.node.String("Location")
	if state == "" {
		return lcc.Location{Country: lcc.CountryUSA}
	}
	loc := lcc.USLocation(state)
	if loc.State == "" {
		p.warn("Location", "unknown state %q", state)
	}
	return loc
}

func (p *projectReader) analysisType() lcc.AnalysisType {
	code, ok := p.node.Int("AnalysisType")
	switch {
	case ok && code == 0:
		return lcc.FEMPEnergy
	case ok && code == 1:
		return lcc.FederalFinanced
	case ok && code == 2:
		return lcc.MILCONEnergy
	case ok && code == 3:
		return lcc.MILCONECIP
	case ok && code == 4:
		return lcc.OMBNonEnergy
	case ok && code == 5:
		return lcc.MILCONNonEnergy
	}
	p.warn("AnalysisType", "unknown code %q, using %s", p.node.String("AnalysisType"), lcc.FEMPEnergy)
	return lcc.FEMPEnergy
}

func (p *projectReader) purpose() lcc.Purpose {
	code, ok := p.node.Int("AnalysisPurpose")
	switch {
	case ok && code == 0:
		return lcc.PurposeInvestRegulation
	case ok && code == 1:
		return lcc.PurposeCostLease
	default:
		return ""
	}
}

func (p *projectReader) dollarMethod() lcc.DollarMethod {
	code, ok := p.node.Int("DollarMethod")
	switch {
	case ok && code == 0:
		return lcc.DollarConstant
	case ok && code == 1:
		return lcc.DollarCurrent
	}
	p.warn("DollarMethod", "unknown code %q, using %s", p.node.String("DollarMethod"), lcc.DollarConstant)
	return lcc.DollarConstant
}

func (p *projectReader) discountingMethod() lcc.DiscountingMethod {
	code, ok := p.node.Int("DiscountingMethod")
	switch {
	case ok && (code == 0 || code == 1):
		return lcc.EndOfYear
	case ok && code == 2:
		return lcc.MidYear
	}
	p.warn("DiscountingMethod", "unknown code %q, using %s", p.node.String("DiscountingMethod"), lcc.EndOfYear)
	return lcc.EndOfYear
}
