/*
varying.go - Scalar-or-series values and the interval resolver

PURPOSE:
  Escalation rates, usage indices and phase-in schedules are all expressed
  in the legacy format as two comma-joined lists: a list of intervals
  ("5 years 0 months,Remaining") and a list of values ("0.02,0.01").
  Resolve expands such a pair into a dense year-indexed series.

VARYING:
  A Varying is either a constant (one value for every year) or a yearly
  series. A nil *Varying means "no override" everywhere in this module:
  callers must never see an all-zero series, Resolve collapses those to nil.

WALK:
  stride starts at 0. For each (value, interval) pair:
    Years(n)   fill [stride, stride+n) and advance stride by n
    Remaining  fill [stride, end) and stop
  Writes past the end of the output are dropped.

SEE ALSO:
  - duration.go: Interval parsing
  - rates/rates.go: Real/nominal conversion over a Varying
*/
package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// VARYING VALUE
// =============================================================================

// Varying is a value that is either constant across the study or given per year.
type Varying struct {
	Constant float64
	Yearly   []float64
}

// Constant returns a constant Varying.
func Constant(v float64) *Varying {
	return &Varying{Constant: v}
}

// Series returns a yearly Varying holding a copy of values.
func Series(values ...float64) *Varying {
	out := make([]float64, len(values))
	copy(out, values)
	return &Varying{Yearly: out}
}

// IsSeries reports whether the value is given per year.
func (v *Varying) IsSeries() bool {
	return v != nil && v.Yearly != nil
}

// At returns the value for the given year. Series read past their end
// yield the last value.
func (v *Varying) At(year int) float64 {
	if v == nil {
		return 0
	}
	if !v.IsSeries() {
		return v.Constant
	}
	if len(v.Yearly) == 0 {
		return 0
	}
	if year < 0 {
		year = 0
	}
	if year >= len(v.Yearly) {
		return v.Yearly[len(v.Yearly)-1]
	}
	return v.Yearly[year]
}

// Values returns the series, or a one-element slice holding the constant.
func (v *Varying) Values() []float64 {
	if v == nil {
		return nil
	}
	if v.IsSeries() {
		out := make([]float64, len(v.Yearly))
		copy(out, v.Yearly)
		return out
	}
	return []float64{v.Constant}
}

// Map applies fn to the constant or to every element of the series.
func (v *Varying) Map(fn func(float64) float64) *Varying {
	if v == nil {
		return nil
	}
	if !v.IsSeries() {
		return Constant(fn(v.Constant))
	}
	out := make([]float64, len(v.Yearly))
	for i, x := range v.Yearly {
		out[i] = fn(x)
	}
	return &Varying{Yearly: out}
}

// MarshalJSON encodes a constant as a number and a series as an array.
func (v Varying) MarshalJSON() ([]byte, error) {
	if v.Yearly != nil {
		return json.Marshal(v.Yearly)
	}
	return json.Marshal(v.Constant)
}

// UnmarshalJSON accepts either a number or an array of numbers.
func (v *Varying) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		if values == nil {
			values = []float64{}
		}
		*v = Varying{Yearly: values}
		return nil
	}

	var c float64
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("varying value must be a number or an array: %w", err)
	}
	*v = Varying{Constant: c}
	return nil
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolve expands comma-joined intervals and values into a yearly series of
// length max(len(values), horizon+1). The single interval "Remaining" returns
// its value as a constant. A result whose every position is zero is nil.
func Resolve(intervals, values string, horizon int) (*Varying, error) {
	if strings.TrimSpace(intervals) == RemainingLiteral {
		portions, err := parsePortions(intervals, values)
		if err != nil {
			return nil, err
		}
		if len(portions) != 1 {
			return nil, &MalformedScheduleError{
				Intervals: intervals,
				Values:    values,
				Reason:    fmt.Sprintf("single Remaining interval with %d values", len(portions)),
			}
		}
		return Constant(portions[0]), nil
	}

	portions, durations, err := pair(intervals, values)
	if err != nil {
		return nil, err
	}

	length := horizon + 1
	if len(portions) > length {
		length = len(portions)
	}
	result := make([]float64, length)

	stride := 0
	for i, portion := range portions {
		d := durations[i]
		if d.Remaining {
			fill(result, stride, len(result), portion)
			break
		}
		fill(result, stride, stride+d.Years, portion)
		stride += d.Years
	}

	if allZero(result) {
		return nil, nil
	}
	return &Varying{Yearly: result}, nil
}

// ResolvePhaseIn expands phase-in portions into per-year fractions. Each
// portion is spread evenly over its interval. Remaining spans the rest of the
// construction period and always covers at least one year. The result covers
// exactly the years the intervals span; an all-zero result is nil.
func ResolvePhaseIn(intervals, portions string, constructionPeriod int) ([]float64, error) {
	values, durations, err := pair(intervals, portions)
	if err != nil {
		return nil, err
	}

	var result []float64
	for i, portion := range values {
		n := durations[i].Years
		if durations[i].Remaining {
			n = constructionPeriod - len(result)
			if n < 1 {
				n = 1
			}
		}
		for j := 0; j < n; j++ {
			result = append(result, portion/float64(n))
		}
		if durations[i].Remaining {
			break
		}
	}

	if allZero(result) {
		return nil, nil
	}
	return result, nil
}

// ValidatePhaseIn checks that fractions sum to one within 1e-9. It never
// rescales.
func ValidatePhaseIn(fractions []float64) error {
	sum := 0.0
	for _, f := range fractions {
		sum += f
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: sum is %g", ErrPhaseInNotConserved, sum)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func pair(intervals, values string) ([]float64, []Duration, error) {
	portions, err := parsePortions(intervals, values)
	if err != nil {
		return nil, nil, err
	}

	parts := strings.Split(intervals, ",")
	if len(parts) != len(portions) {
		return nil, nil, &MalformedScheduleError{
			Intervals: intervals,
			Values:    values,
			Reason:    fmt.Sprintf("%d intervals for %d values", len(parts), len(portions)),
		}
	}

	durations := make([]Duration, len(parts))
	for i, p := range parts {
		durations[i] = ParseDuration(p)
	}
	return portions, durations, nil
}

func parsePortions(intervals, values string) ([]float64, error) {
	parts := strings.Split(values, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &MalformedScheduleError{
				Intervals: intervals,
				Values:    values,
				Reason:    fmt.Sprintf("value %q is not a number", strings.TrimSpace(p)),
			}
		}
		out[i] = f
	}
	return out, nil
}

func fill(dst []float64, from, to int, v float64) {
	if to > len(dst) {
		to = len(dst)
	}
	for j := from; j < to; j++ {
		dst[j] = v
	}
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
