package validator

import (
	"sort"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// finalize computes the run summary, orders the report sections per the
// configured sort specs, and regroups the data results: the grouped view is
// built and the flat list is rebuilt in grouped order.
func (v *Validator) finalize(result *models.OverallValidationResult) {
	result.Summary = result.ComputeSummary()
	result.Summary.SampleSize = v.settings.Validation.SampleSize

	sorting := v.settings.ReportSorting
	sortSchemaResults(result.SchemaResults, sorting.SchemaReport)
	sortDataResults(result.DataResults, sorting.DataMatchReport, dataMatchSeverity)
	result.DataResults, result.DataResultsGrouped = regroupDataResults(result.DataResults, sorting.DetailedDataMatchReport)
}

func dataMatchSeverity(r *models.DataMatchValidationResult) models.Severity {
	return r.DataMatchStatus()
}

// compareOrdered turns a three-way comparison into the configured direction.
func compareOrdered(cmp int, spec config.SortSpec) int {
	if spec.Descending() {
		return -cmp
	}
	return cmp
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortSchemaResults applies the sort specs in priority order: later specs
// are applied first so stable sorting leaves the first spec dominant.
func sortSchemaResults(results []*models.SchemaValidationResult, specs []config.SortSpec) {
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		sort.SliceStable(results, func(a, b int) bool {
			var cmp int
			switch spec.SortBy {
			case "severity_status":
				cmp = compareInts(int(results[a].Status), int(results[b].Status))
			case "table_view_name":
				cmp = strings.Compare(results[a].SourceTable, results[b].SourceTable)
			default:
				return false
			}
			return compareOrdered(cmp, spec) < 0
		})
	}
}

func sortDataResults(results []*models.DataMatchValidationResult, specs []config.SortSpec, severityOf func(*models.DataMatchValidationResult) models.Severity) {
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		sort.SliceStable(results, func(a, b int) bool {
			var cmp int
			switch spec.SortBy {
			case "severity_status":
				cmp = compareInts(int(severityOf(results[a])), int(severityOf(results[b])))
			case "group_name":
				cmp = strings.Compare(groupKey(results[a]), groupKey(results[b]))
			case "key_columns_length":
				cmp = compareInts(len(results[a].KeyColumns), len(results[b].KeyColumns))
			case "table_view_name":
				cmp = strings.Compare(results[a].TableName, results[b].TableName)
			default:
				return false
			}
			return compareOrdered(cmp, spec) < 0
		})
	}
}

// SortedForRowCountReport returns a copy of the data results ordered for
// the row-count report section, where severity means the row-count
// sub-status.
func SortedForRowCountReport(results []*models.DataMatchValidationResult, specs []config.SortSpec) []*models.DataMatchValidationResult {
	out := make([]*models.DataMatchValidationResult, len(results))
	copy(out, results)
	sortDataResults(out, specs, func(r *models.DataMatchValidationResult) models.Severity {
		return r.RowCountStatus()
	})
	return out
}

func groupKey(r *models.DataMatchValidationResult) string {
	if r.Group == "" {
		return models.NoGroupKey
	}
	return r.Group
}

// regroupDataResults buckets the data results by their group tag and rebuilds
// the flat list in grouped order: grouped tables first, group by group, then
// ungrouped tables last. Group names keep their first-appearance order unless
// a group_name sort spec asks otherwise; tables within a group are ordered by
// the key_columns_length and table_view_name specs. Ungrouped tables land
// under the reserved key.
func regroupDataResults(results []*models.DataMatchValidationResult, specs []config.SortSpec) ([]*models.DataMatchValidationResult, map[string][]*models.DataMatchValidationResult) {
	if len(results) == 0 {
		return results, nil
	}

	grouped := make(map[string][]*models.DataMatchValidationResult)
	var order []string
	var ungrouped []*models.DataMatchValidationResult
	for _, r := range results {
		if r.Group == "" {
			ungrouped = append(ungrouped, r)
			continue
		}
		if _, seen := grouped[r.Group]; !seen {
			order = append(order, r.Group)
		}
		grouped[r.Group] = append(grouped[r.Group], r)
	}

	for _, spec := range specs {
		if spec.SortBy != "group_name" {
			continue
		}
		sort.SliceStable(order, func(a, b int) bool {
			return compareOrdered(strings.Compare(order[a], order[b]), spec) < 0
		})
	}

	within := withinGroupSpecs(specs)
	for _, bucket := range grouped {
		sortDataResults(bucket, within, func(r *models.DataMatchValidationResult) models.Severity {
			return r.Status
		})
	}

	flat := make([]*models.DataMatchValidationResult, 0, len(results))
	for _, group := range order {
		flat = append(flat, grouped[group]...)
	}
	flat = append(flat, ungrouped...)

	grouped[models.NoGroupKey] = ungrouped
	return flat, grouped
}

// withinGroupSpecs keeps the specs that order tables inside a group.
func withinGroupSpecs(specs []config.SortSpec) []config.SortSpec {
	var out []config.SortSpec
	for _, spec := range specs {
		if spec.SortBy == "key_columns_length" || spec.SortBy == "table_view_name" {
			out = append(out, spec)
		}
	}
	return out
}
