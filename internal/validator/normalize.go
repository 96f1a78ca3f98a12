package validator

import (
	"math"
	"strconv"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// nullWords are the textual forms treated as null-like during rule and
// distribution matching.
var nullWords = map[string]bool{
	"none":      true,
	"nan":       true,
	"null":      true,
	"n/a":       true,
	"na":        true,
	"":          true,
	"undefined": true,
}

// TextMeansNone reports whether a string is one of the null-like spellings.
func TextMeansNone(s string) bool {
	return nullWords[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeString renders a value for pattern matching and counting.
// Numbers drop any trailing ".0" so 123.0 counts the same as 123.
func NormalizeString(v models.Value) string {
	s := v.String()
	if v.Kind == models.KindNumber && strings.HasSuffix(s, ".0") && len(s) > 2 {
		return s[:len(s)-2]
	}
	return s
}

// TransformationRules is the parsed form of a mapping's
// data_transformation_rules list.
type TransformationRules struct {
	TimestampToDate  bool
	NormalizeNullNaN bool
	RoundFloat       *int
}

// Empty reports whether no rule was requested.
func (r TransformationRules) Empty() bool {
	return !r.TimestampToDate && !r.NormalizeNullNaN && r.RoundFloat == nil
}

// ParseTransformationRules interprets the rule names. A malformed
// round_float_to_decimal suffix falls back to 2 decimal places.
func ParseTransformationRules(names []string) TransformationRules {
	var rules TransformationRules
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "timestamp_to_date_only":
			rules.TimestampToDate = true
		case name == "normalize_null_nan":
			rules.NormalizeNullNaN = true
		case strings.HasPrefix(name, "round_float_to_decimal"):
			n := 2
			if _, suffix, ok := strings.Cut(name, ":"); ok {
				if parsed, err := strconv.Atoi(strings.TrimSpace(suffix)); err == nil {
					n = parsed
				}
			}
			rules.RoundFloat = &n
		}
	}
	return rules
}

// ApplyRules normalizes one value: timestamp truncation first, then float
// rounding, then null/NaN canonicalization. The order matters because the
// null check must see the final value.
func ApplyRules(v models.Value, rules TransformationRules) models.Value {
	if rules.TimestampToDate && v.Kind == models.KindTimestamp {
		v = models.TextValue(v.Time.Format("2006-01-02"))
	}

	if rules.RoundFloat != nil && v.Kind == models.KindNumber && !math.IsNaN(v.Number) {
		shift := math.Pow(10, float64(*rules.RoundFloat))
		v = models.NumberValue(math.Round(v.Number*shift) / shift)
	}

	if rules.NormalizeNullNaN {
		if v.IsNaN() {
			v = models.TextValue("nan")
		} else if v.IsNull() {
			v = models.TextValue("null")
		}
	}

	return v
}
