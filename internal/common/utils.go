package common

import (
	"math"
	"strings"
)

// ContainsAnyFold reports whether s contains any of the substrings, ignoring case.
// It returns the first matching substring in argument order.
func ContainsAnyFold(s string, subs ...string) (string, bool) {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(sub)) {
			return sub, true
		}
	}
	return "", false
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
