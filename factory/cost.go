/*
Package factory provides JSON to Go cost conversion.

PURPOSE:
  Converts JSON cost records into lcc.Cost values and back. This is the
  path the UI uses to create and edit costs without going through the
  legacy importer, and the encoding the SQLite store keeps in its costs
  table.

JSON SCHEMA:
  Every record carries a "type" discriminator holding the cost kind name.
  The remaining fields are the kind's own fields:

  {
    "type": "OMR",
    "id": 3,
    "name": "Boiler maintenance",
    "initialCost": "5600",
    "initialOccurrence": 1,
    "recurring": {"rateOfRecurrence": 1, "rateOfChangeValue": [0, 0.01]}
  }

  Money fields are decimal strings, rates are numbers or arrays.

USAGE:
  f := NewCostFactory()
  cost, err := f.ParseCost(data)
  data, err := f.MarshalCost(cost)

SEE ALSO:
  - lcc/cost.go: Cost kinds
  - store/sqlite/sqlite.go: Stores costs in this encoding
  - api/handlers.go: PUT /projects/{id}/costs/{costID}
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/lcc-engine/lcc"
)

// =============================================================================
// COST FACTORY
// =============================================================================

// CostFactory converts JSON costs to Go structs.
type CostFactory struct {
	constructors map[lcc.Kind]func() lcc.Cost
}

// NewCostFactory creates a new cost factory.
func NewCostFactory() *CostFactory {
	return &CostFactory{
		constructors: map[lcc.Kind]func() lcc.Cost{
			lcc.KindCapital:                func() lcc.Cost { return &lcc.CapitalCost{} },
			lcc.KindEnergy:                 func() lcc.Cost { return &lcc.EnergyCost{} },
			lcc.KindWater:                  func() lcc.Cost { return &lcc.WaterCost{} },
			lcc.KindReplacementCapital:     func() lcc.Cost { return &lcc.ReplacementCapitalCost{} },
			lcc.KindOMR:                    func() lcc.Cost { return &lcc.OMRCost{} },
			lcc.KindImplementationContract: func() lcc.Cost { return &lcc.ImplementationContractCost{} },
			lcc.KindRecurringContract:      func() lcc.Cost { return &lcc.RecurringContractCost{} },
			lcc.KindOther:                  func() lcc.Cost { return &lcc.OtherCost{} },
			lcc.KindOtherNonMonetary:       func() lcc.Cost { return &lcc.OtherNonMonetaryCost{} },
		},
	}
}

type envelope struct {
	Type lcc.Kind `json:"type"`
}

// ParseCost decodes one cost record and validates it.
func (f *CostFactory) ParseCost(data []byte) (lcc.Cost, error) {
	cost, err := f.DecodeCost(data)
	if err != nil {
		return nil, err
	}
	if cost.Base().Name == "" {
		return nil, &lcc.CostError{CostID: cost.Base().ID, Field: "name", Err: fmt.Errorf("%w: name is required", lcc.ErrInvalidCost)}
	}
	if err := lcc.ValidateCost(cost); err != nil {
		return nil, err
	}
	return cost, nil
}

// DecodeCost decodes one cost record without validating it. Stored records
// were validated when they were written.
func (f *CostFactory) DecodeCost(data []byte) (lcc.Cost, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to parse cost JSON: %v", lcc.ErrInvalidCost, err)
	}

	newCost, ok := f.constructors[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown cost type %q", lcc.ErrInvalidCost, env.Type)
	}

	cost := newCost()
	if err := json.Unmarshal(data, cost); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", lcc.ErrInvalidCost, env.Type, err)
	}
	return cost, nil
}

// MarshalCost encodes a cost with its "type" discriminator.
func (f *CostFactory) MarshalCost(cost lcc.Cost) ([]byte, error) {
	body, err := json.Marshal(cost)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, err := json.Marshal(cost.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	return json.Marshal(fields)
}

// ParseCosts decodes a JSON array of cost records.
func (f *CostFactory) ParseCosts(data []byte) ([]lcc.Cost, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cost list JSON: %w", err)
	}

	costs := make([]lcc.Cost, 0, len(raw))
	for i, r := range raw {
		c, err := f.ParseCost(r)
		if err != nil {
			return nil, fmt.Errorf("cost %d: %w", i, err)
		}
		costs = append(costs, c)
	}
	return costs, nil
}
