/*
duration.go - Date-difference strings used by the legacy project format

PURPOSE:
  Legacy documents describe every interval as free text of the form
  "N years M months [D days]" or the literal "Remaining". This file turns
  that text into a whole-year count that the resolvers and the importer
  can do arithmetic with.

FORMAT:
  "10 years 0 months"          -> Years(10)
  "1 year 6 months 3 days"     -> Years(1)   (months and days are dropped)
  "Remaining"                  -> Remaining
  anything else                -> Years(1), Exact=false

  Text is trimmed before matching because XML text nodes routinely carry
  surrounding newlines and indentation.

SEE ALSO:
  - varying.go: Uses ParseDuration to walk interval lists
  - legacy/normalize.go: Records a warning when a duration is not Exact
*/
package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// RemainingLiteral marks an interval that extends to the end of the horizon.
const RemainingLiteral = "Remaining"

var durationPattern = regexp.MustCompile(`(\d+) years? (\d+) months?( (\d+) days?)?`)

// Duration is a parsed legacy interval.
type Duration struct {
	Years     int
	Remaining bool

	// Exact is false when the text matched neither form and Years holds the
	// one-year fallback.
	Exact bool
}

// ParseDuration parses a legacy date-difference string. It never fails:
// unrecognised text yields one year with Exact unset.
func ParseDuration(text string) Duration {
	text = strings.TrimSpace(text)
	if text == RemainingLiteral {
		return Duration{Remaining: true, Exact: true}
	}

	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return Duration{Years: 1}
	}

	years, err := strconv.Atoi(m[1])
	if err != nil {
		return Duration{Years: 1}
	}
	return Duration{Years: years, Exact: true}
}

func (d Duration) String() string {
	if d.Remaining {
		return RemainingLiteral
	}
	return strconv.Itoa(d.Years) + " years"
}
