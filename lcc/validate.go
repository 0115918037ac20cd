package lcc

import (
	"errors"
	"fmt"

	"github.com/warp/lcc-engine/schedule"
)

// ValidateProject checks the invariants that span a project, its
// alternatives and its cost pool. Every violation is reported.
func ValidateProject(p *Project, alternatives []Alternative, costs []Cost) error {
	var errs []error

	if _, err := p.ResolveRates(); err != nil {
		errs = append(errs, err)
	}

	pool := IndexCosts(costs)
	baselines := 0
	for _, alt := range alternatives {
		if alt.Baseline {
			baselines++
		}
		for _, id := range alt.Costs {
			if _, ok := pool[id]; !ok {
				errs = append(errs, &DanglingReferenceError{AlternativeID: alt.ID, CostID: id})
			}
		}
	}
	if baselines > 1 {
		errs = append(errs, fmt.Errorf("%w: %d flagged", ErrMultipleBaselines, baselines))
	}

	for _, c := range costs {
		if err := ValidateCost(c); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateCost checks the invariants of a single cost record.
func ValidateCost(c Cost) error {
	switch cost := c.(type) {
	case *WaterCost:
		if err := validateSeasons(cost.ID, "usage", cost.Usage); err != nil {
			return err
		}
		return validateSeasons(cost.ID, "disposal", cost.Disposal)
	case *CapitalCost:
		if cost.PhaseIn == nil {
			return nil
		}
		if err := schedule.ValidatePhaseIn(cost.PhaseIn); err != nil {
			return &CostError{CostID: cost.ID, Field: "phaseIn", Err: fmt.Errorf("%w: %w", ErrInvalidCost, err)}
		}
	}
	return nil
}

func validateSeasons(id ID, field string, seasons []SeasonUsage) error {
	if len(seasons) < 1 || len(seasons) > 4 {
		return &CostError{CostID: id, Field: field, Err: fmt.Errorf("%w: %d seasons", ErrInvalidCost, len(seasons))}
	}
	seen := make(map[Season]bool, len(seasons))
	for _, s := range seasons {
		switch s.Season {
		case Spring, Summer, Autumn, Winter:
		default:
			return &CostError{CostID: id, Field: field, Err: fmt.Errorf("%w: unknown season %q", ErrInvalidCost, s.Season)}
		}
		if seen[s.Season] {
			return &CostError{CostID: id, Field: field, Err: fmt.Errorf("%w: %s", ErrDuplicateSeason, s.Season)}
		}
		seen[s.Season] = true
	}
	return nil
}
