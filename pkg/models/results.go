package models

// TypeMismatch records one common column whose source and target types did
// not classify as PASS.
type TypeMismatch struct {
	Column     string `json:"column"`
	SourceType string `json:"source_type"`
	TargetType string `json:"target_type"`
}

// SchemaValidationResult is the per-table outcome of schema comparison.
type SchemaValidationResult struct {
	SourceTable       string            `json:"source_table_name"`
	TargetTable       string            `json:"target_table_name"`
	SourceTableOrView string            `json:"source_table_or_view,omitempty"`
	TargetTableOrView string            `json:"target_table_or_view,omitempty"`
	Status            Severity          `json:"status"`
	SourceColumns     []string          `json:"source_col_names"`
	TargetColumns     []string          `json:"target_col_names"`
	MissingColumns    []string          `json:"missing_columns,omitempty"`
	ExtraColumns      []string          `json:"extra_columns,omitempty"`
	TypeMismatches    []TypeMismatch    `json:"type_mismatches,omitempty"`
	Issues            []ValidationIssue `json:"validation_issues"`
}

// RuleBasedDataValidationResult holds per-column pass/fail counts for one
// side's sampled rows.
type RuleBasedDataValidationResult struct {
	TotalRecords        int                 `json:"total_records"`
	PassedRecordCount   map[string]int      `json:"passed_records_count"`
	FailedRecordCount   map[string]int      `json:"failed_records_count"`
	FailedRecordSamples map[string][]string `json:"failed_record_samples,omitempty"`
	PassedRecordSamples map[string][]string `json:"success_record_samples,omitempty"`
	AppliedRules        map[string]string   `json:"applied_rules,omitempty"`
}

// HasFailures reports whether any column recorded a failed value.
func (r *RuleBasedDataValidationResult) HasFailures() bool {
	if r == nil {
		return false
	}
	for _, n := range r.FailedRecordCount {
		if n > 0 {
			return true
		}
	}
	return false
}

// CategoryCount is the observed tally for one expected category.
type CategoryCount struct {
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage"`
	Or         []string          `json:"or,omitempty"`
	MinCount   *int              `json:"min_count,omitempty"`
	MaxCount   *int              `json:"max_count,omitempty"`
	MinPercent *float64          `json:"min_percent,omitempty"`
	MaxPercent *float64          `json:"max_percent,omitempty"`
	Issues     []ValidationIssue `json:"issues,omitempty"`
}

// DistributionBasedDataValidationResult holds observed category counts per
// column for one side's sampled rows.
type DistributionBasedDataValidationResult struct {
	TotalRecords  int                                  `json:"total_records"`
	Columns       map[string]map[string]*CategoryCount `json:"values_to_count"`
	MinItemsCount *int                                 `json:"min_items_count,omitempty"`
	MaxItemsCount *int                                 `json:"max_items_count,omitempty"`
}

// Issues flattens every category issue of every column.
func (d *DistributionBasedDataValidationResult) AllIssues() []ValidationIssue {
	if d == nil {
		return nil
	}
	var issues []ValidationIssue
	for _, categories := range d.Columns {
		for _, stats := range categories {
			issues = append(issues, stats.Issues...)
		}
	}
	return issues
}

// CompareSampleDataResult is the outcome of key-set comparison on sampled
// rows, plus the optional per-side rule and distribution sub-results.
type CompareSampleDataResult struct {
	SampleSize        int `json:"sample_size"`
	SourceSampleCount int `json:"source_sample_count"`
	TargetSampleCount int `json:"target_sample_count"`
	SourceSetCount    int `json:"source_sample_set_count"`
	TargetSetCount    int `json:"target_sample_set_count"`
	MatchingSetCount  int `json:"matching_set_record_count"`

	MatchingKeySamples        []string `json:"matching_keys_set_sample,omitempty"`
	SourceUnmatchedKeySamples []string `json:"source_unmatched_keys_sample,omitempty"`
	TargetUnmatchedKeySamples []string `json:"target_unmatched_keys_sample,omitempty"`

	RuleBasedSource    *RuleBasedDataValidationResult `json:"rule_based_data_validation_source,omitempty"`
	RuleBasedTarget    *RuleBasedDataValidationResult `json:"rule_based_data_validation_target,omitempty"`
	DistributionSource *DistributionBasedDataValidationResult `json:"distribution_based_data_validation_source,omitempty"`
	DistributionTarget *DistributionBasedDataValidationResult `json:"distribution_based_data_validation_target,omitempty"`

	Issues []ValidationIssue `json:"data_match_validation_issues,omitempty"`
}

// SetSuccessRate is the share of the larger sampled key set found in both
// sets, in percent. 0 when both sets are empty.
func (r *CompareSampleDataResult) SetSuccessRate() float64 {
	denominator := r.SourceSetCount
	if r.TargetSetCount > denominator {
		denominator = r.TargetSetCount
	}
	if denominator == 0 {
		return 0.0
	}
	return float64(r.MatchingSetCount) / float64(denominator) * 100.0
}

// TableSuccessRate extrapolates the set success rate to the full tables,
// penalized by the sample row-count disparity: an equal key set proves
// little when one side sampled far more rows than the other.
func (r *CompareSampleDataResult) TableSuccessRate() float64 {
	numerator := r.SourceSampleCount
	denominator := r.TargetSampleCount
	if numerator > denominator {
		numerator, denominator = denominator, numerator
	}
	if denominator == 0 {
		return 0.0
	}
	return r.SetSuccessRate() * float64(numerator) / float64(denominator)
}

// EstimatedMatchingRecords projects the set success rate onto the smaller
// sample, capped at the configured sample size.
func (r *CompareSampleDataResult) EstimatedMatchingRecords() int {
	minCount := r.SourceSampleCount
	if r.TargetSampleCount < minCount {
		minCount = r.TargetSampleCount
	}
	if r.SampleSize > 0 && r.SampleSize < minCount {
		minCount = r.SampleSize
	}
	return int(r.SetSuccessRate() * float64(minCount) / 100.0)
}

// DataMatchValidationResult is the complete per-table data validation
// outcome.
type DataMatchValidationResult struct {
	TableName   string   `json:"table_name"`
	SourceTable string   `json:"source_table"`
	TargetTable string   `json:"target_table"`
	Group       string   `json:"group,omitempty"`
	KeyColumns  []string `json:"key_columns"`
	MappingID   string   `json:"unique_data_mapping_id"`

	DataTransformationRules []string `json:"data_transformation_rules,omitempty"`

	Status Severity `json:"status"`

	SourceTableExists bool   `json:"source_table_exist"`
	TargetTableExists bool   `json:"target_table_exist"`
	SourceTableOrView string `json:"source_table_or_view,omitempty"`
	TargetTableOrView string `json:"target_table_or_view,omitempty"`

	SourceCount     int64 `json:"source_count"`
	TargetCount     int64 `json:"target_count"`
	MatchingRecords int   `json:"matching_records"`
	SampleSize      int   `json:"sample_size"`

	RowCountIssues  []ValidationIssue `json:"row_count_validation_issues"`
	DataMatchIssues []ValidationIssue `json:"data_match_validation_issues"`

	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`

	CompareSampleData *CompareSampleDataResult `json:"compare_sample_data_result,omitempty"`
}

// PercentCountDifference is the signed row-count difference relative to the
// source count; 100 when either count is unusable.
func (r *DataMatchValidationResult) PercentCountDifference() float64 {
	if r.SourceCount < 0 || r.TargetCount < 0 {
		return 100.0
	}
	if r.SourceCount == 0 {
		if r.TargetCount == 0 {
			return 0.0
		}
		return 100.0
	}
	return float64(r.SourceCount-r.TargetCount) / float64(r.SourceCount) * 100.0
}

// SuccessRate relates estimated matching records to the compared volume.
func (r *DataMatchValidationResult) SuccessRate() float64 {
	if r.SourceCount == 0 {
		return 0.0
	}
	total := r.SourceCount
	if r.SampleSize > 0 {
		total = int64(r.SampleSize)
	}
	return float64(r.MatchingRecords) / float64(total) * 100.0
}

// IsSuccessful reports a clean pass: PASS status with no issue above PASS.
func (r *DataMatchValidationResult) IsSuccessful() bool {
	if r.Status != SeverityPass {
		return false
	}
	for _, issue := range r.DataMatchIssues {
		if issue.Severity != SeverityPass {
			return false
		}
	}
	return true
}

// RowCountStatus folds just the row-count issues.
func (r *DataMatchValidationResult) RowCountStatus() Severity {
	status := SeverityPass
	for _, issue := range r.RowCountIssues {
		status = status.Escalate(issue.Severity)
	}
	return status
}

// DataMatchStatus folds the table status with the data-match issues.
func (r *DataMatchValidationResult) DataMatchStatus() Severity {
	status := SeverityPass
	if r.Status == SeverityFail || r.Status == SeverityWarning {
		status = r.Status
	}
	for _, issue := range r.DataMatchIssues {
		status = status.Escalate(issue.Severity)
	}
	return status
}
