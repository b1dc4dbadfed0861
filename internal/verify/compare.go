package verify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// decimalLiteral matches plain decimal numbers with an optional exponent.
// Hex floats, infinities, digit separators and padding do not match.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Outcome is the result of comparing two cells or two columns.
type Outcome int

const (
	Equal Outcome = iota
	NotEqual
	// Incomparable means the operands have different shapes, e.g. a column
	// with a different number of rows.
	Incomparable
)

func (o Outcome) String() string {
	switch o {
	case Equal:
		return "equal"
	case NotEqual:
		return "not-equal"
	case Incomparable:
		return "incomparable"
	default:
		return "unknown"
	}
}

// IsNaN reports whether v coerces to a number that is NaN. Values that are
// not numeric at all are not NaN.
func IsNaN(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && math.IsNaN(f)
}

// CompareCells compares two values. Identical strings are equal, two NaN
// values are equal, and two plain decimal literals with the same value are
// equal ("1" and "1.0"). Any other pair of distinct strings is not equal.
func CompareCells(a, b string) Outcome {
	if a == b {
		return Equal
	}
	if IsNaN(a) && IsNaN(b) {
		return Equal
	}
	if !decimalLiteral.MatchString(a) || !decimalLiteral.MatchString(b) {
		return NotEqual
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return NotEqual
	}
	if fa == fb {
		return Equal
	}
	return NotEqual
}

// CompareSeries compares two columns elementwise.
func CompareSeries(a, b []string) Outcome {
	if len(a) != len(b) {
		return Incomparable
	}
	for i := range a {
		if CompareCells(a[i], b[i]) != Equal {
			return NotEqual
		}
	}
	return Equal
}
