package models

import "time"

// NoGroupKey is the reserved grouping key for mappings without a group tag.
const NoGroupKey = "_no_group_"

// SummaryStats are the run-level aggregate numbers.
type SummaryStats struct {
	TotalTables      int     `json:"total_tables"`
	SuccessfulTables int     `json:"successful_tables"`
	PassedTables     int     `json:"passed_tables"`
	FailedTables     int     `json:"failed_tables"`
	WarningTables    int     `json:"warning_tables"`
	TableSuccessRate float64 `json:"success_rate_tables"`

	TotalSourceRecords   int64 `json:"total_source_records"`
	TotalTargetRecords   int64 `json:"total_target_records"`
	TotalMatchingRecords int64 `json:"total_matching_records"`

	OverallDataSuccessRate float64 `json:"overall_data_success_rate"`
	ExecutionTimeSeconds   float64 `json:"execution_time_seconds"`
	SampleSize             int     `json:"sample_size"`
}

// OverallValidationResult is the complete outcome of one validation run.
// The orchestrator creates it, the aggregator sorts and groups it, and it
// is read-only afterwards.
type OverallValidationResult struct {
	ValidationID string    `json:"validation_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`

	SchemaResults []*SchemaValidationResult    `json:"schema_validation_results"`
	DataResults   []*DataMatchValidationResult `json:"data_match_validation_result"`

	DataResultsGrouped map[string][]*DataMatchValidationResult `json:"data_match_validation_result_grouped,omitempty"`

	Summary  SummaryStats `json:"summary_stats"`
	Settings interface{}  `json:"settings,omitempty"`
}

// TotalExecutionTime is the wall-clock run duration in seconds.
func (r *OverallValidationResult) TotalExecutionTime() float64 {
	if r.EndTime.IsZero() || r.StartTime.IsZero() {
		return 0.0
	}
	return r.EndTime.Sub(r.StartTime).Seconds()
}

func foldStatuses(statuses []Severity) Severity {
	if len(statuses) == 0 {
		return SeveritySkip
	}
	out := SeverityPass
	for _, s := range statuses {
		if s == SeverityFail || s == SeverityWarning {
			out = out.Escalate(s)
		}
	}
	return out
}

// OverallTableStatus folds the per-table data statuses.
func (r *OverallValidationResult) OverallTableStatus() Severity {
	statuses := make([]Severity, 0, len(r.DataResults))
	for _, res := range r.DataResults {
		statuses = append(statuses, res.Status)
	}
	return foldStatuses(statuses)
}

// OverallSchemaStatus folds the per-table schema statuses.
func (r *OverallValidationResult) OverallSchemaStatus() Severity {
	statuses := make([]Severity, 0, len(r.SchemaResults))
	for _, res := range r.SchemaResults {
		statuses = append(statuses, res.Status)
	}
	return foldStatuses(statuses)
}

// OverallStatus combines table and schema statuses; SKIP only when both
// phases were skipped.
func (r *OverallValidationResult) OverallStatus() Severity {
	tableStatus := r.OverallTableStatus()
	schemaStatus := r.OverallSchemaStatus()

	switch {
	case tableStatus == SeverityFail || schemaStatus == SeverityFail:
		return SeverityFail
	case tableStatus == SeverityWarning || schemaStatus == SeverityWarning:
		return SeverityWarning
	case tableStatus == SeverityPass || schemaStatus == SeverityPass:
		return SeverityPass
	default:
		return SeveritySkip
	}
}

// OverallRowCountStatus folds the per-table row-count sub-statuses.
func (r *OverallValidationResult) OverallRowCountStatus() Severity {
	statuses := make([]Severity, 0, len(r.DataResults))
	for _, res := range r.DataResults {
		statuses = append(statuses, res.RowCountStatus())
	}
	return foldStatuses(statuses)
}

// OverallDataMatchStatus folds the per-table data-match sub-statuses.
func (r *OverallValidationResult) OverallDataMatchStatus() Severity {
	statuses := make([]Severity, 0, len(r.DataResults))
	for _, res := range r.DataResults {
		statuses = append(statuses, res.DataMatchStatus())
	}
	return foldStatuses(statuses)
}

// OverallRuleBasedStatus fails when any side of any table recorded a
// rule-based failure.
func (r *OverallValidationResult) OverallRuleBasedStatus() Severity {
	if len(r.DataResults) == 0 {
		return SeveritySkip
	}
	for _, res := range r.DataResults {
		if res.CompareSampleData == nil {
			continue
		}
		if res.CompareSampleData.RuleBasedSource.HasFailures() ||
			res.CompareSampleData.RuleBasedTarget.HasFailures() {
			return SeverityFail
		}
	}
	return SeverityPass
}

// ComputeSummary derives the run-level aggregate numbers from the data
// results.
func (r *OverallValidationResult) ComputeSummary() SummaryStats {
	stats := SummaryStats{
		TotalTables:          len(r.DataResults),
		ExecutionTimeSeconds: r.TotalExecutionTime(),
	}

	for _, res := range r.DataResults {
		if res.IsSuccessful() {
			stats.SuccessfulTables++
		}
		switch res.Status {
		case SeverityPass:
			stats.PassedTables++
		case SeverityFail:
			stats.FailedTables++
		case SeverityWarning:
			stats.WarningTables++
		}
		if res.SourceCount > 0 {
			stats.TotalSourceRecords += res.SourceCount
		}
		if res.TargetCount > 0 {
			stats.TotalTargetRecords += res.TargetCount
		}
		if res.MatchingRecords > 0 {
			stats.TotalMatchingRecords += int64(res.MatchingRecords)
		}
	}

	if stats.TotalTables > 0 {
		stats.TableSuccessRate = float64(stats.SuccessfulTables) / float64(stats.TotalTables) * 100.0
	}
	if stats.TotalSourceRecords > 0 {
		stats.OverallDataSuccessRate = float64(stats.TotalMatchingRecords) / float64(stats.TotalSourceRecords) * 100.0
	}
	return stats
}
