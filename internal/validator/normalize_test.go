package validator

import (
	"math"
	"testing"
	"time"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

func TestTextMeansNone(t *testing.T) {
	for _, s := range []string{"none", "None", "NONE", "nan", "NULL", "n/a", "NA", "", "  ", "undefined"} {
		if !TextMeansNone(s) {
			t.Errorf("Expected %q to be null-like", s)
		}
	}
	for _, s := range []string{"0", "false", "nil", "null-island"} {
		if TextMeansNone(s) {
			t.Errorf("Expected %q to not be null-like", s)
		}
	}
}

func TestParseTransformationRules(t *testing.T) {
	rules := ParseTransformationRules([]string{"timestamp_to_date_only", "normalize_null_nan"})
	if !rules.TimestampToDate || !rules.NormalizeNullNaN || rules.RoundFloat != nil {
		t.Errorf("Unexpected parse result: %+v", rules)
	}

	rules = ParseTransformationRules([]string{"round_float_to_decimal:3"})
	if rules.RoundFloat == nil || *rules.RoundFloat != 3 {
		t.Errorf("Expected RoundFloat 3, got %+v", rules.RoundFloat)
	}

	// Malformed suffix falls back to 2 decimal places
	rules = ParseTransformationRules([]string{"round_float_to_decimal:lots"})
	if rules.RoundFloat == nil || *rules.RoundFloat != 2 {
		t.Errorf("Expected fallback RoundFloat 2, got %+v", rules.RoundFloat)
	}

	rules = ParseTransformationRules([]string{"unknown_rule"})
	if !rules.Empty() {
		t.Errorf("Expected unknown rule to parse as empty, got %+v", rules)
	}
}

func TestApplyRulesTimestampToDate(t *testing.T) {
	rules := TransformationRules{TimestampToDate: true}
	v := ApplyRules(models.TimestampValue(time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)), rules)
	if v.Kind != models.KindText || v.Text != "2024-03-01" {
		t.Errorf("Expected date-only text, got %+v", v)
	}

	// Non-timestamps pass through
	v = ApplyRules(models.TextValue("2024-03-01 17:45:00"), rules)
	if v.Text != "2024-03-01 17:45:00" {
		t.Errorf("Expected text untouched, got %+v", v)
	}
}

func TestApplyRulesRoundFloat(t *testing.T) {
	two := 2
	rules := TransformationRules{RoundFloat: &two}

	v := ApplyRules(models.NumberValue(1.2349), rules)
	if v.Number != 1.23 {
		t.Errorf("Expected 1.23, got %v", v.Number)
	}

	v = ApplyRules(models.NumberValue(math.NaN()), rules)
	if !v.IsNaN() {
		t.Errorf("Expected NaN to survive rounding, got %+v", v)
	}
}

func TestApplyRulesNormalizeNullNaN(t *testing.T) {
	rules := TransformationRules{NormalizeNullNaN: true}

	v := ApplyRules(models.NullValue(), rules)
	if v.Kind != models.KindText || v.Text != "null" {
		t.Errorf("Expected canonical null text, got %+v", v)
	}

	v = ApplyRules(models.NumberValue(math.NaN()), rules)
	if v.Kind != models.KindText || v.Text != "nan" {
		t.Errorf("Expected canonical nan text, got %+v", v)
	}

	v = ApplyRules(models.NumberValue(5), rules)
	if v.Kind != models.KindNumber {
		t.Errorf("Expected plain number untouched, got %+v", v)
	}
}

func TestNormalizeString(t *testing.T) {
	if got := NormalizeString(models.NumberValue(123)); got != "123" {
		t.Errorf("Expected 123, got %q", got)
	}
	if got := NormalizeString(models.NullValue()); got != "null" {
		t.Errorf("Expected null, got %q", got)
	}
}
