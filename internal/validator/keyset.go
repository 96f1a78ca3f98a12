package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// keyTupleString renders a row's key values as a fixed-order tuple string.
// It doubles as the set key and the reported sample form.
func keyTupleString(row models.Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// BuildKeySet collapses sampled rows into a set of key tuples, applying the
// requested transformation rules uniformly per value. Duplicate rows
// collapse by construction.
func BuildKeySet(rows []models.Row, rules TransformationRules) map[string]bool {
	set := make(map[string]bool, len(rows))
	for _, row := range rows {
		if rules.Empty() {
			set[keyTupleString(row)] = true
			continue
		}
		transformed := make(models.Row, len(row))
		for i, v := range row {
			transformed[i] = ApplyRules(v, rules)
		}
		set[keyTupleString(transformed)] = true
	}
	return set
}

// boundedSortedSample returns the first limit keys in lexicographic order.
func boundedSortedSample(keys map[string]bool, limit int) []string {
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// compareSampleData samples both sides, runs the optional rule and
// distribution validators, and intersects the key sets. Any failure inside
// is converted into a FAIL issue on the result rather than an error, so a
// broken sample never aborts the table's other checks.
func (v *Validator) compareSampleData(ctx context.Context, mapping *models.TableMapping, sampleSize int) *models.CompareSampleDataResult {
	if mapping.SampleSize > 0 {
		sampleSize = mapping.SampleSize
	}

	result := &models.CompareSampleDataResult{SampleSize: sampleSize}

	fail := func(err error) *models.CompareSampleDataResult {
		message := fmt.Sprintf("Error comparing sample data for %s: %s", mapping.SourceTable, truncateError(err))
		v.logger.Error(message)
		result.Issues = append(result.Issues, models.ValidationIssue{
			Type:        "Error_comparing_sample_data",
			Description: message,
			Severity:    models.SeverityFail,
		})
		return result
	}

	sourceSample, err := v.source.Sample(ctx, mapping.SourceTable, mapping.KeyColumns, mapping.KeyColumnCastTypes, sampleSize)
	if err != nil {
		return fail(err)
	}
	targetSample, err := v.target.Sample(ctx, mapping.TargetTable, mapping.KeyColumns, mapping.KeyColumnCastTypes, sampleSize)
	if err != nil {
		return fail(err)
	}

	result.SourceSampleCount = len(sourceSample)
	result.TargetSampleCount = len(targetSample)

	if len(mapping.RuleBasedValidation) > 0 && v.settings.Validation.EnableRuleBasedValidation {
		if result.RuleBasedSource, err = RuleBasedValidation(sourceSample, mapping.KeyColumns, mapping); err != nil {
			return fail(err)
		}
		if result.RuleBasedTarget, err = RuleBasedValidation(targetSample, mapping.KeyColumns, mapping); err != nil {
			return fail(err)
		}
	}

	if len(mapping.DistributionBasedValidation) > 0 && v.settings.Validation.EnableDistributionBasedValidation {
		result.DistributionSource = DistributionBasedValidation(sourceSample, mapping.KeyColumns, mapping)
		result.DistributionTarget = DistributionBasedValidation(targetSample, mapping.KeyColumns, mapping)
		for _, d := range []*models.DistributionBasedDataValidationResult{result.DistributionSource, result.DistributionTarget} {
			result.Issues = append(result.Issues, d.AllIssues()...)
		}
	}

	rules := ParseTransformationRules(mapping.DataTransformationRules)
	sourceSet := BuildKeySet(sourceSample, rules)
	targetSet := BuildKeySet(targetSample, rules)

	matching := make(map[string]bool)
	sourceUnmatched := make(map[string]bool)
	for key := range sourceSet {
		if targetSet[key] {
			matching[key] = true
		} else {
			sourceUnmatched[key] = true
		}
	}
	targetUnmatched := make(map[string]bool)
	for key := range targetSet {
		if !matching[key] {
			targetUnmatched[key] = true
		}
	}

	result.SourceSetCount = len(sourceSet)
	result.TargetSetCount = len(targetSet)
	result.MatchingSetCount = len(matching)

	limit := mapping.ReportSampleCount
	result.MatchingKeySamples = boundedSortedSample(matching, limit)
	result.SourceUnmatchedKeySamples = boundedSortedSample(sourceUnmatched, limit)
	result.TargetUnmatchedKeySamples = boundedSortedSample(targetUnmatched, limit)

	return result
}
