/*
Package cashflow compiles life-cycle costs into engine line items.

PURPOSE:
  The external analysis engine does not know about cost kinds. It consumes
  flat LineItems: a base quantity times a unit value, placed at an initial
  occurrence year, optionally recurring, optionally modulated by a year by
  year multiplier series. Tags drive how results are summed by category.

KEY CONCEPTS:
  - LineItem: One engine cash-flow record
  - Recurrence: Interval and rate-of-change of a recurring item
  - Environment: Datasets injected before compilation (emissions, SCC)
  - Compiler: Per-project compiler, one Compile call per cost
  - Request: Full engine request for every alternative of a project

SEE ALSO:
  - compiler.go: Per-kind compilation rules
  - request.go: Request assembly
*/
package cashflow

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lcc-engine/lcc"
)

// =============================================================================
// LINE ITEM
// =============================================================================

type ItemType string

const (
	TypeCost        ItemType = "Cost"
	TypeBenefit     ItemType = "Benefit"
	TypeNonMonetary ItemType = "Non-Monetary"
)

type SubType string

const SubTypeDirect SubType = "Direct"

// VarRate tells the engine how to read a variation series.
type VarRate string

const (
	// PercentDelta series hold per-year rates of change.
	PercentDelta VarRate = "Percent Delta"

	// YearByYear series hold per-year multipliers or values.
	YearByYear VarRate = "Year by Year"
)

// Recurrence describes how a line item repeats.
type Recurrence struct {
	Interval int `json:"interval"`

	// End is the last year the item recurs. Nil runs to the end of the study.
	End *int `json:"end,omitempty"`

	VarRate  VarRate   `json:"varRate,omitempty"`
	VarValue []float64 `json:"varValue,omitempty"`
}

type LineItem struct {
	CostID lcc.ID `json:"costId"`

	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Type    ItemType `json:"type"`
	SubType SubType  `json:"subType,omitempty"`
	Real    bool     `json:"real"`
	Invest  bool     `json:"invest,omitempty"`

	InitialOccurrence int         `json:"initialOccurrence"`
	Life              int         `json:"life,omitempty"`
	Recurrence        *Recurrence `json:"recur,omitempty"`

	Quantity         decimal.Decimal `json:"quantity"`
	QuantityValue    decimal.Decimal `json:"quantityValue"`
	QuantityUnit     string          `json:"quantityUnit,omitempty"`
	QuantityVarRate  VarRate         `json:"quantityVarRate,omitempty"`
	QuantityVarValue []float64       `json:"quantityVarValue,omitempty"`
}

// Amount is the value of one occurrence before any variation.
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.QuantityValue)
}

// HasTag reports whether the item carries tag.
func (li LineItem) HasTag(tag string) bool {
	for _, t := range li.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Environment holds externally sourced datasets. A nil slice means the
// dataset is absent and the items depending on it are not emitted.
type Environment struct {
	// Emissions is kg CO2e per MWh, one value per study year.
	Emissions []float64 `json:"emissions,omitempty"`

	// SocialCostOfCarbon is dollars per kg CO2e, one value per study year.
	SocialCostOfCarbon []float64 `json:"socialCostOfCarbon,omitempty"`

	// EscalationRates is used when the project carries no table of its own.
	EscalationRates []lcc.EscalationRate `json:"escalationRates,omitempty"`
}
