package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// matchAnyPattern accepts every value; it is the default when a rule only
// constrains nullability or uniqueness.
const matchAnyPattern = "^.*$"

// describePattern builds the self-describing text for an implicit pattern.
func describePattern(nullable, unique bool) string {
	description := "Accept any value"
	var constraints []string
	if unique {
		constraints = append(constraints, "Have to be unique")
	}
	if !nullable {
		constraints = append(constraints, "not null")
	}
	if len(constraints) > 0 {
		description += " (" + strings.Join(constraints, " and ") + ")"
	}
	return description
}

// compileFullMatch anchors a pattern so it must match the whole value, the
// way the rule semantics demand.
func compileFullMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)\z`)
}

// reportBreakChars are the characters treated as word boundaries by the
// sample truncation heuristic.
const reportBreakChars = " \t\n\r-"

// truncateForReport shortens a long sample value. A leading run longer than
// maxWord with no break character truncates at maxWord; otherwise values
// longer than maxItem truncate at maxItem. A zero threshold disables that
// check.
func truncateForReport(item string, maxWord, maxItem int) string {
	if maxWord > 0 && len(item) > maxWord && !strings.ContainsAny(item[:maxWord], reportBreakChars) {
		return `"` + item[:maxWord] + `..."`
	}
	if maxItem > 0 && len(item) > maxItem {
		return `"` + item[:maxItem] + `..."`
	}
	return item
}

func boundedRuleSamples(set map[string]bool, limit, maxWord, maxItem int) []string {
	samples := boundedSortedSample(set, limit)
	for i, item := range samples {
		samples[i] = truncateForReport(item, maxWord, maxItem)
	}
	return samples
}

// RuleBasedValidation checks the configured per-column rules against one
// side's sampled rows. Only columns that are both key columns and have a
// rule participate; nil is returned when none do.
func RuleBasedValidation(rows []models.Row, keyColumns []string, mapping *models.TableMapping) (*models.RuleBasedDataValidationResult, error) {
	columnIndex := make(map[string]int, len(keyColumns))
	for i, col := range keyColumns {
		columnIndex[col] = i
	}

	applicable := make([]string, 0, len(mapping.RuleBasedValidation))
	for col := range mapping.RuleBasedValidation {
		if _, ok := columnIndex[col]; ok {
			applicable = append(applicable, col)
		}
	}
	if len(applicable) == 0 {
		return nil, nil
	}
	sort.Strings(applicable)

	result := &models.RuleBasedDataValidationResult{
		TotalRecords:        len(rows),
		PassedRecordCount:   make(map[string]int, len(applicable)),
		FailedRecordCount:   make(map[string]int, len(applicable)),
		FailedRecordSamples: make(map[string][]string),
		PassedRecordSamples: make(map[string][]string),
		AppliedRules:        make(map[string]string, len(applicable)),
	}

	maxWord := mapping.EffectiveMaxWordLength()
	maxItem := mapping.EffectiveMaxItemLength()

	for _, column := range applicable {
		rule := mapping.RuleBasedValidation[column]
		idx := columnIndex[column]

		nullable := cast.ToBool(rule.Nullable)
		unique := cast.ToBool(rule.Unique)

		pattern := rule.Pattern
		description := rule.PatternDescription
		if pattern == "" {
			pattern = matchAnyPattern
			if description == "" {
				description = describePattern(nullable, unique)
			}
		}
		result.AppliedRules[column] = description

		re, err := compileFullMatch(pattern)
		if err != nil {
			return nil, fmt.Errorf("rule pattern for column %s: %w", column, err)
		}

		passed := make(map[string]bool)
		failed := make(map[string]bool)
		failedCount := 0

		for _, row := range rows {
			if idx >= len(row) {
				continue
			}
			value := row[idx]
			normalized := NormalizeString(value)
			nullLike := value.IsNull() || TextMeansNone(normalized)

			switch {
			case nullLike && nullable:
				passed[normalized] = true
			case nullLike:
				failed[normalized] = true
				failedCount++
			case unique && passed[normalized]:
				failed[normalized] = true
				failedCount++
			case !re.MatchString(normalized):
				failed[normalized] = true
				failedCount++
			default:
				passed[normalized] = true
			}
		}

		result.FailedRecordCount[column] = failedCount
		result.PassedRecordCount[column] = len(rows) - failedCount
		if len(failed) > 0 {
			result.FailedRecordSamples[column] = boundedRuleSamples(failed, mapping.ReportSampleCount, maxWord, maxItem)
		}
		if len(passed) > 0 {
			result.PassedRecordSamples[column] = boundedRuleSamples(passed, mapping.ReportSampleCount, maxWord, maxItem)
		}
	}

	return result, nil
}
