/*
units.go - Energy and water unit conversions

PURPOSE:
  Emissions factors are published per MWh, and water line items are priced
  per liter. This file converts the units a cost may be entered in to those
  two canonical units.

CONVERSIONS:
  Energy units convert for every fuel with a known heat content. Cubic
  units only convert for natural gas and propane, and liquid units only for
  propane. Coal and "Other" fuels have no conversion and ToMWh reports false,
  which callers treat as "no emissions line item".

SEE ALSO:
  - cashflow/compiler.go: Emissions line items and liter conversion of
    seasonal water usage
*/
package units

import "github.com/shopspring/decimal"

// Unit is a measurement unit for a cost quantity.
type Unit string

const (
	KWh   Unit = "kWh"
	Therm Unit = "Therm"
	MBtu  Unit = "MBtu"
	MJ    Unit = "MJ"
	GJ    Unit = "GJ"

	CubicMeters Unit = "Cubic meters"
	CubicFeet   Unit = "Cubic feet"

	Liter      Unit = "Liter"
	KiloLiter  Unit = "1000 liters"
	Gallon     Unit = "Gallon"
	KiloGallon Unit = "1000 gallons"

	Kilogram Unit = "kg"
	Pound    Unit = "Pound"

	// Canonical output units.
	MWh             Unit = "MWh"
	KgCO2e          Unit = "kg CO2e"
	DollarPerKgCO2e Unit = "$/kg CO2e"
)

// FuelType identifies the energy carrier of an energy cost.
type FuelType string

const (
	Electricity   FuelType = "Electricity"
	DistillateOil FuelType = "Distillate Fuel Oil (#1, #2)"
	ResidualOil   FuelType = "Residual Fuel Oil (#4, #5, #6)"
	NaturalGas    FuelType = "Natural Gas"
	Propane       FuelType = "Liquefied Petroleum Gas / Propane"
	Coal          FuelType = "Coal"
	OtherFuel     FuelType = "Other (Steam, etc.)"
)

const (
	joulesPerMWh = 3.6e9

	propaneJoulesPerGallon     = 9.63e7
	naturalGasJoulesPerCubicFt = 1.09e6

	litersPerGallon     = 3.785411784
	litersPerCubicMeter = 1000.0
	litersPerCubicFoot  = 28.316846592
	cubicFeetPerCubicM  = litersPerCubicMeter / litersPerCubicFoot
)

// =============================================================================
// ENERGY
// =============================================================================

var energyToMWh = map[Unit]float64{
	KWh:   1.0 / 1000,
	Therm: 1.0 / 34.13,
	GJ:    1.0 / 3.6,
	MJ:    1.0 / 3600,
	MBtu:  1.0 / 3.412,
}

// ToMWh converts a fuel quantity to MWh. The second result is false when
// the fuel and unit combination has no conversion.
func ToMWh(fuel FuelType, unit Unit, value float64) (float64, bool) {
	if f, ok := energyToMWh[unit]; ok {
		switch fuel {
		case Electricity, NaturalGas, Propane, DistillateOil, ResidualOil:
			return value * f, true
		}
		return 0, false
	}

	switch fuel {
	case NaturalGas:
		switch unit {
		case CubicFeet:
			return value * naturalGasJoulesPerCubicFt / joulesPerMWh, true
		case CubicMeters:
			return value * cubicFeetPerCubicM * naturalGasJoulesPerCubicFt / joulesPerMWh, true
		}
	case Propane:
		if liters, ok := liquidToLiters[unit]; ok {
			gallons := value * liters / litersPerGallon
			return gallons * propaneJoulesPerGallon / joulesPerMWh, true
		}
	}
	return 0, false
}

// =============================================================================
// WATER
// =============================================================================

var liquidToLiters = map[Unit]float64{
	Liter:       1,
	KiloLiter:   1000,
	Gallon:      litersPerGallon,
	KiloGallon:  1000 * litersPerGallon,
	CubicMeters: litersPerCubicMeter,
	CubicFeet:   litersPerCubicFoot,
}

// ToLiters converts a volume to liters. Units that are not volumes are
// returned unchanged.
func ToLiters(value float64, unit Unit) float64 {
	if f, ok := liquidToLiters[unit]; ok {
		return value * f
	}
	return value
}

// CostPerUnitToLiters converts a price per unit to a price per liter. Prices
// of units that are not volumes are returned unchanged.
func CostPerUnitToLiters(costPerUnit decimal.Decimal, unit Unit) decimal.Decimal {
	if f, ok := liquidToLiters[unit]; ok {
		return costPerUnit.Div(decimal.NewFromFloat(f))
	}
	return costPerUnit
}

// IsVolume reports whether the unit is a liquid or cubic volume.
func IsVolume(unit Unit) bool {
	_, ok := liquidToLiters[unit]
	return ok
}

var legacyUnits = map[string]Unit{
	"kWh":          KWh,
	"GJ":           GJ,
	"MJ":           MJ,
	"Therm":        Therm,
	"MBtu":         MBtu,
	"Liter":        Liter,
	"1,000 Liter":  KiloLiter,
	"Gallon":       Gallon,
	"1,000 Gallon": KiloGallon,
	"Cubic Meters": CubicMeters,
	"Cubic Feet":   CubicFeet,
	"kg":           Kilogram,
	"Pound":        Pound,
}

// ParseLegacy maps a unit name from the legacy project format. The second
// result is false for names the format does not define.
func ParseLegacy(name string) (Unit, bool) {
	u, ok := legacyUnits[name]
	return u, ok
}
