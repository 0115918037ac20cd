package cashflow

import (
	"fmt"

	"github.com/warp/lcc-engine/lcc"
)

// Analysis is the header of an engine request.
type Analysis struct {
	Type                string  `json:"type"`
	ProjectType         string  `json:"projectType"`
	StudyPeriod         int     `json:"studyPeriod"`
	TimestepValue       string  `json:"timestepValue"`
	TimestepComp        string  `json:"timestepComp"`
	OutputReal          bool    `json:"outputRealBool"`
	DiscountRateReal    float64 `json:"dRateReal"`
	DiscountRateNominal float64 `json:"dRateNom"`
	InflationRate       float64 `json:"inflationRate"`
	ReinvestRate        float64 `json:"reinvestRate"`
}

// AlternativeRequest is one alternative with its compiled items.
type AlternativeRequest struct {
	ID       lcc.ID     `json:"id"`
	Name     string     `json:"name"`
	Baseline bool       `json:"baselineBool"`
	Items    []LineItem `json:"bcnObjects"`
}

// Request is a complete engine request for one project.
type Request struct {
	Analysis     Analysis             `json:"analysisObject"`
	Alternatives []AlternativeRequest `json:"alternativeObjects"`
}

// BuildRequest compiles every alternative of a project. Each cost is
// compiled once even when several alternatives reference it. When no
// alternative is flagged as baseline the first one becomes the baseline.
func BuildRequest(project *lcc.Project, alternatives []lcc.Alternative, costs []lcc.Cost, env Environment) (*Request, error) {
	compiler, err := NewCompiler(project, env)
	if err != nil {
		return nil, err
	}

	pool := lcc.IndexCosts(costs)
	compiled := make(map[lcc.ID][]LineItem, len(pool))

	req := &Request{Analysis: compiler.analysis()}
	baselines := 0
	for _, alt := range alternatives {
		if alt.Baseline {
			baselines++
		}

		entry := AlternativeRequest{ID: alt.ID, Name: alt.Name, Baseline: alt.Baseline}
		for _, id := range alt.Costs {
			cost, ok := pool[id]
			if !ok {
				return nil, &lcc.DanglingReferenceError{AlternativeID: alt.ID, CostID: id}
			}
			items, ok := compiled[id]
			if !ok {
				items = compiler.Compile(cost)
				compiled[id] = items
			}
			entry.Items = append(entry.Items, items...)
		}
		req.Alternatives = append(req.Alternatives, entry)
	}

	if baselines > 1 {
		return nil, fmt.Errorf("%s: %w", project, lcc.ErrMultipleBaselines)
	}
	if baselines == 0 && len(req.Alternatives) > 0 {
		req.Alternatives[0].Baseline = true
	}
	return req, nil
}

func (c *Compiler) analysis() Analysis {
	comp := "End of Year"
	if c.project.DiscountingMethod == lcc.MidYear {
		comp = "Middle of Year"
	}

	return Analysis{
		Type:                "LCCA",
		ProjectType:         "Other",
		StudyPeriod:         c.project.StudyPeriod,
		TimestepValue:       "Year",
		TimestepComp:        comp,
		OutputReal:          !c.project.IsCurrent(),
		DiscountRateReal:    c.rates.Real,
		DiscountRateNominal: c.rates.Nominal,
		InflationRate:       c.rates.Inflation,
		ReinvestRate:        c.rates.Inflation,
	}
}
