package validator

import (
	"fmt"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// nullCategory is the reserved category that collects null-like values when
// a distribution declares it.
const nullCategory = "null"

// DistributionBasedValidation tallies one side's sampled values against the
// configured per-column expected distributions. Only key columns with a
// distribution participate; nil is returned when none do. Values matching
// no category and no alias are ignored.
func DistributionBasedValidation(rows []models.Row, keyColumns []string, mapping *models.TableMapping) *models.DistributionBasedDataValidationResult {
	columnIndex := make(map[string]int, len(keyColumns))
	for i, col := range keyColumns {
		columnIndex[col] = i
	}

	applicable := make(map[string]*models.ColumnDistribution)
	for col, dist := range mapping.DistributionBasedValidation {
		if _, ok := columnIndex[col]; ok && dist != nil {
			applicable[col] = dist
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	result := &models.DistributionBasedDataValidationResult{
		TotalRecords: len(rows),
		Columns:      make(map[string]map[string]*models.CategoryCount, len(applicable)),
	}

	for column, dist := range applicable {
		idx := columnIndex[column]
		result.MinItemsCount = dist.MinItemsCount
		result.MaxItemsCount = dist.MaxItemsCount

		// Distribution matching is case insensitive.
		expected := make(map[string]models.CategoryBounds, len(dist.ExpectedDistribution))
		categoryOrder := make([]string, 0, len(dist.ExpectedDistribution))
		for name, bounds := range dist.ExpectedDistribution {
			lower := strings.ToLower(name)
			expected[lower] = bounds
			categoryOrder = append(categoryOrder, lower)
		}

		counts := make(map[string]*models.CategoryCount, len(expected))
		for name, bounds := range expected {
			counts[name] = &models.CategoryCount{
				Or:         bounds.Or,
				MinCount:   bounds.MinCount,
				MaxCount:   bounds.MaxCount,
				MinPercent: bounds.MinPercent,
				MaxPercent: bounds.MaxPercent,
			}
		}

		for _, row := range rows {
			if idx >= len(row) {
				continue
			}
			value := row[idx]
			item := strings.ToLower(NormalizeString(value))

			if _, hasNull := counts[nullCategory]; hasNull && (value.IsNull() || TextMeansNone(item)) {
				counts[nullCategory].Count++
				continue
			}
			if stats, ok := counts[item]; ok {
				stats.Count++
				continue
			}
			for _, name := range categoryOrder {
				matched := false
				for _, alias := range expected[name].Or {
					if item == strings.ToLower(strings.TrimSpace(alias)) {
						counts[name].Count++
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
		}

		for name, stats := range counts {
			checkCategoryBounds(name, stats, result.TotalRecords)
		}
		result.Columns[column] = counts
	}

	return result
}

// checkCategoryBounds derives the percentage and emits the bound issues for
// one observed category.
func checkCategoryBounds(category string, stats *models.CategoryCount, totalRecords int) {
	if totalRecords > 0 {
		stats.Percentage = float64(stats.Count) / float64(totalRecords) * 100.0
	}

	if stats.MinCount != nil && stats.MaxCount != nil && *stats.MinCount > *stats.MaxCount {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("min_count_%d_>_max_count_%d", *stats.MinCount, *stats.MaxCount),
			Description: fmt.Sprintf("For value '%s', the expected min_count %d is greater than max_count %d.", category, *stats.MinCount, *stats.MaxCount),
			Severity:    models.SeverityWarning,
		})
	}
	if stats.MinCount != nil && stats.Count < *stats.MinCount {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("distribution_below_min_count_%d", *stats.MinCount),
			Description: fmt.Sprintf("Value '%s' count %d is below expected minimum %d.", category, stats.Count, *stats.MinCount),
			Severity:    models.SeverityFail,
		})
	}
	if stats.MaxCount != nil && stats.Count > *stats.MaxCount {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("distribution_above_max_count_%d", *stats.MaxCount),
			Description: fmt.Sprintf("Value '%s' count %d is above expected maximum %d.", category, stats.Count, *stats.MaxCount),
			Severity:    models.SeverityFail,
		})
	}

	if stats.MinPercent != nil && stats.MaxPercent != nil && *stats.MinPercent > *stats.MaxPercent {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("min_percent_%v_>_max_percent_%v", *stats.MinPercent, *stats.MaxPercent),
			Description: fmt.Sprintf("For value '%s', the expected min_percent %v is greater than max_percent %v.", category, *stats.MinPercent, *stats.MaxPercent),
			Severity:    models.SeverityWarning,
		})
	}
	if stats.MinPercent != nil && stats.Percentage < *stats.MinPercent {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("distribution_below_min_percent_%v", *stats.MinPercent),
			Description: fmt.Sprintf("Value '%s' percentage %.2f%% is below expected minimum %v%%.", category, stats.Percentage, *stats.MinPercent),
			Severity:    models.SeverityFail,
		})
	}
	if stats.MaxPercent != nil && stats.Percentage > *stats.MaxPercent {
		stats.Issues = append(stats.Issues, models.ValidationIssue{
			Type:        fmt.Sprintf("distribution_above_max_percent_%v", *stats.MaxPercent),
			Description: fmt.Sprintf("Value '%s' percentage %.2f%% is above expected maximum %v%%.", category, stats.Percentage, *stats.MaxPercent),
			Severity:    models.SeverityFail,
		})
	}
}
