// Package rates converts discount and escalation rates between real and
// nominal dollars using the Fisher relation.
package rates

import "github.com/warp/lcc-engine/schedule"

// ToNominal converts a real rate to nominal terms: (1+r)(1+i) - 1.
func ToNominal(real, inflation float64) float64 {
	return (1+real)*(1+inflation) - 1
}

// ToReal converts a nominal rate to real terms: (1+n)/(1+i) - 1.
func ToReal(nominal, inflation float64) float64 {
	return (1+nominal)/(1+inflation) - 1
}

// VaryingToNominal applies ToNominal to a constant or element-wise to a series.
func VaryingToNominal(v *schedule.Varying, inflation float64) *schedule.Varying {
	return v.Map(func(r float64) float64 { return ToNominal(r, inflation) })
}

// VaryingToReal applies ToReal to a constant or element-wise to a series.
func VaryingToReal(v *schedule.Varying, inflation float64) *schedule.Varying {
	return v.Map(func(n float64) float64 { return ToReal(n, inflation) })
}
