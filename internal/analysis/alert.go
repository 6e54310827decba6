package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/frankdevcode/lp2-taller3/internal/common"
)

// rapidChangeSpan is the number of samples covered by the rate-of-change rule,
// counting the latest one.
const rapidChangeSpan = 6

// Thresholds holds the alert limits for one variable class.
type Thresholds struct {
	High        float64
	Low         float64
	RapidChange float64
}

type classRule struct {
	class      VariableClass
	label      string
	substrings []string
	limits     Thresholds
}

// classRules is matched in order; the first class whose substring appears in a
// variable name wins.
var classRules = []classRule{
	{
		class:      ClassTemperature,
		label:      "temperatura",
		substrings: []string{"temp"},
		limits:     Thresholds{High: 35, Low: 0, RapidChange: 10},
	},
	{
		class:      ClassHumidity,
		label:      "humedad",
		substrings: []string{"hum"},
		limits:     Thresholds{High: 90, Low: 20, RapidChange: 30},
	},
	{
		class:      ClassPressure,
		label:      "presión",
		substrings: []string{"pres"},
		limits:     Thresholds{High: 1040, Low: 990, RapidChange: 15},
	},
}

// ClassifyVariable maps a variable name onto a threshold class by case-insensitive
// substring match. Names matching no class are ClassUnknown.
func ClassifyVariable(name string) VariableClass {
	for _, rule := range classRules {
		if _, ok := common.ContainsAnyFold(name, rule.substrings...); ok {
			return rule.class
		}
	}
	return ClassUnknown
}

// ThresholdsFor returns the alert limits of a class. ok is false for ClassUnknown.
func ThresholdsFor(class VariableClass) (Thresholds, bool) {
	rule, ok := ruleFor(class)
	return rule.limits, ok
}

func ruleFor(class VariableClass) (classRule, bool) {
	for _, rule := range classRules {
		if rule.class == class {
			return rule, true
		}
	}
	return classRule{}, false
}

// EvaluateAlert applies the class thresholds to the latest sample and the
// six-sample rate of change. At most one alert is returned; nil means nothing
// triggered. Comparisons are strict, so boundary values never alert.
func EvaluateAlert(series Series, class VariableClass) *Alert {
	if len(series) == 0 {
		return nil
	}
	rule, ok := ruleFor(class)
	if !ok {
		return nil
	}

	latest := series[len(series)-1].Value
	if !common.IsFinite(latest) {
		return nil
	}

	reference := latest
	if len(series) >= rapidChangeSpan {
		if v := series[len(series)-rapidChangeSpan].Value; common.IsFinite(v) {
			reference = v
		}
	}
	delta := math.Abs(latest - reference)

	switch {
	case latest > rule.limits.High:
		return &Alert{
			Category: AlertHigh,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s alta: %s", capitalize(rule.label), formatValue(latest)),
			Color:    "red",
		}
	case latest < rule.limits.Low:
		return &Alert{
			Category: AlertLow,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s baja: %s", capitalize(rule.label), formatValue(latest)),
			Color:    "blue",
		}
	case delta > rule.limits.RapidChange:
		return &Alert{
			Category: AlertRapidChange,
			Severity: SeverityCaution,
			Message: fmt.Sprintf("Cambio rápido en %s: %s en %d muestras",
				rule.label, formatValue(common.Round(delta, 2)), rapidChangeSpan),
			Color: "orange",
		}
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
