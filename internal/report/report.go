package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/validator"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// WriteJSON writes the complete validation result to path as indented JSON.
func WriteJSON(path string, result *models.OverallValidationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal validation result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

func banner(w io.Writer, title string) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

// WriteSchemaReport prints the per-table schema section in the order the
// aggregator left it.
func WriteSchemaReport(w io.Writer, result *models.OverallValidationResult) {
	if len(result.SchemaResults) == 0 {
		return
	}

	banner(w, "SCHEMA VALIDATION REPORT")
	for _, res := range result.SchemaResults {
		fmt.Fprintf(w, "%-7s %s -> %s\n", res.Status, res.SourceTable, res.TargetTable)
		if len(res.MissingColumns) > 0 {
			fmt.Fprintf(w, "        missing in target: %s\n", strings.Join(res.MissingColumns, ", "))
		}
		if len(res.ExtraColumns) > 0 {
			fmt.Fprintf(w, "        extra in target: %s\n", strings.Join(res.ExtraColumns, ", "))
		}
		for _, mismatch := range res.TypeMismatches {
			fmt.Fprintf(w, "        type mismatch %s: %s -> %s\n", mismatch.Column, mismatch.SourceType, mismatch.TargetType)
		}
		for _, issue := range res.Issues {
			fmt.Fprintf(w, "        [%s] %s\n", issue.Severity, issue.Description)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

// WriteRowCountReport prints the row-count section, ordered per the
// row-count sort specs.
func WriteRowCountReport(w io.Writer, result *models.OverallValidationResult, specs []config.SortSpec) {
	if len(result.DataResults) == 0 {
		return
	}

	banner(w, "ROW COUNT VALIDATION REPORT")
	for _, res := range validator.SortedForRowCountReport(result.DataResults, specs) {
		fmt.Fprintf(w, "%-7s %s: source=%d target=%d (%.2f%% difference)\n",
			res.RowCountStatus(), res.TableName, res.SourceCount, res.TargetCount, res.PercentCountDifference())
		for _, issue := range res.RowCountIssues {
			fmt.Fprintf(w, "        [%s] %s\n", issue.Severity, issue.Description)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

// WriteDataMatchReport prints the grouped data-match section. Groups come
// out in the order the aggregator flattened them, ungrouped tables last.
func WriteDataMatchReport(w io.Writer, result *models.OverallValidationResult) {
	if len(result.DataResults) == 0 {
		return
	}

	banner(w, "DATA MATCH VALIDATION REPORT")
	for _, group := range groupOrder(result) {
		if group != models.NoGroupKey {
			fmt.Fprintf(w, "\nGroup: %s\n", group)
		}
		for _, res := range result.DataResultsGrouped[group] {
			fmt.Fprintf(w, "%-7s %s: %d estimated matching of %d sampled (keys: %s)\n",
				res.DataMatchStatus(), res.TableName, res.MatchingRecords, res.SampleSize,
				strings.Join(res.KeyColumns, ", "))
			for _, issue := range res.DataMatchIssues {
				fmt.Fprintf(w, "        [%s] %s\n", issue.Severity, issue.Description)
			}
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

// groupOrder walks the flat data results, which the aggregator already
// rebuilt in grouped order, and returns the group names as they appear.
func groupOrder(result *models.OverallValidationResult) []string {
	seen := make(map[string]bool)
	var groups []string
	hasUngrouped := false
	for _, res := range result.DataResults {
		if res.Group == "" {
			hasUngrouped = true
			continue
		}
		if !seen[res.Group] {
			seen[res.Group] = true
			groups = append(groups, res.Group)
		}
	}
	if hasUngrouped {
		groups = append(groups, models.NoGroupKey)
	}
	return groups
}
