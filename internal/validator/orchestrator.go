package validator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// ValidateTransition runs the complete validation for the given mappings:
// a schema phase deduplicated by source table, then one data task per
// mapping, both across a bounded worker pool. The run always returns a
// complete result; per-table failures become FAIL results, never errors.
// Only pre-dispatch problems (invalid mapping, inspection connectivity)
// are returned as errors.
func (v *Validator) ValidateTransition(ctx context.Context, mappings []*models.TableMapping) (*models.OverallValidationResult, error) {
	for _, mapping := range mappings {
		if err := mapping.Normalize(); err != nil {
			return nil, err
		}
		if mapping.ReportSampleCount <= 0 {
			mapping.ReportSampleCount = v.settings.Validation.ReportSampleCount
		}
	}

	result := &models.OverallValidationResult{
		ValidationID: uuid.New().String(),
		StartTime:    time.Now(),
		Settings:     v.settings,
	}

	v.logger.Infof("Starting validation %s with %d tables", result.ValidationID, len(mappings))

	if err := v.buildExistenceIndexes(ctx); err != nil {
		return nil, err
	}

	if v.settings.Validation.EnableSchemaValidation {
		v.logger.Info("Performing schema validation...")
		result.SchemaResults = v.validateSchemas(ctx, mappings)
	}

	if v.settings.Validation.EnableDataValidation {
		v.logger.Info("Performing data validation...")
		result.DataResults = v.validateData(ctx, mappings)
	}

	result.EndTime = time.Now()
	v.finalize(result)

	v.logger.Infof("Validation %s completed in %.2f seconds", result.ValidationID, result.TotalExecutionTime())
	return result, nil
}

func (v *Validator) taskTimeout() time.Duration {
	seconds := v.settings.Validation.TaskTimeoutSeconds
	if seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

// validateSchemas runs the schema phase. Mappings sharing a source table
// are deduplicated, first occurrence wins.
func (v *Validator) validateSchemas(ctx context.Context, mappings []*models.TableMapping) []*models.SchemaValidationResult {
	var deduplicated []*models.TableMapping
	seen := make(map[string]bool)
	for _, mapping := range mappings {
		if !seen[mapping.SourceTable] {
			deduplicated = append(deduplicated, mapping)
			seen[mapping.SourceTable] = true
		}
	}

	results := make([]*models.SchemaValidationResult, len(deduplicated))
	group := newTaskGroup(v.settings.Validation.MaxWorkers)

	for i, mapping := range deduplicated {
		if ctx.Err() != nil {
			results[i] = v.skippedSchemaResult(mapping)
			continue
		}
		i, mapping := i, mapping
		group.Go(func() {
			taskCtx, cancel := context.WithTimeout(ctx, v.taskTimeout())
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					v.logger.Errorf("Schema validation failed for %s: %v", mapping.SourceTable, r)
					results[i] = &models.SchemaValidationResult{
						SourceTable: mapping.SourceTable,
						TargetTable: mapping.TargetTable,
						Status:      models.SeverityFail,
						Issues: []models.ValidationIssue{{
							Type:        "schema_validation_error",
							Description: fmt.Sprintf("Schema validation failed: %s", truncateError(r)),
							Severity:    models.SeverityFail,
						}},
					}
				}
			}()

			results[i] = v.validateSingleSchema(taskCtx, mapping)
			v.logger.Infof("Schema validation completed for %s", mapping.SourceTable)
		})
	}

	group.Wait()
	return results
}

func (v *Validator) skippedSchemaResult(mapping *models.TableMapping) *models.SchemaValidationResult {
	return &models.SchemaValidationResult{
		SourceTable: mapping.SourceTable,
		TargetTable: mapping.TargetTable,
		Status:      models.SeveritySkip,
		Issues: []models.ValidationIssue{{
			Type:        "validation_cancelled",
			Description: "Validation run was cancelled before this table was checked.",
			Severity:    models.SeveritySkip,
		}},
	}
}

// validateData runs one data-validation task per mapping, not deduplicated.
func (v *Validator) validateData(ctx context.Context, mappings []*models.TableMapping) []*models.DataMatchValidationResult {
	results := make([]*models.DataMatchValidationResult, len(mappings))
	group := newTaskGroup(v.settings.Validation.MaxWorkers)

	for i, mapping := range mappings {
		if ctx.Err() != nil {
			results[i] = v.skippedDataResult(mapping)
			continue
		}
		i, mapping := i, mapping
		group.Go(func() {
			taskCtx, cancel := context.WithTimeout(ctx, v.taskTimeout())
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					v.logger.Errorf("Data validation failed for %s: %v", mapping.SourceTable, r)
					results[i] = v.failedDataResult(mapping, truncateError(r))
				}
			}()

			result := v.validateSingleTableData(taskCtx, mapping)
			results[i] = result
			v.logger.Infof("Data validation completed for %s: %.2f%% success rate", mapping.SourceTable, result.SuccessRate())
		})
	}

	group.Wait()
	return results
}

func newDataResult(mapping *models.TableMapping) *models.DataMatchValidationResult {
	return &models.DataMatchValidationResult{
		TableName:               mapping.SourceTable,
		SourceTable:             mapping.SourceTable,
		TargetTable:             mapping.TargetTable,
		Group:                   mapping.Group,
		KeyColumns:              mapping.KeyColumns,
		DataTransformationRules: mapping.DataTransformationRules,
		MappingID:               mapping.UniqueID,
	}
}

func (v *Validator) skippedDataResult(mapping *models.TableMapping) *models.DataMatchValidationResult {
	result := newDataResult(mapping)
	result.Status = models.SeveritySkip
	result.DataMatchIssues = []models.ValidationIssue{{
		Type:        "validation_cancelled",
		Description: "Validation run was cancelled before this table was checked.",
		Severity:    models.SeveritySkip,
	}}
	return result
}

func (v *Validator) failedDataResult(mapping *models.TableMapping, message string) *models.DataMatchValidationResult {
	result := newDataResult(mapping)
	result.Status = models.SeverityFail
	result.DataMatchIssues = []models.ValidationIssue{{
		Type:        "data_validation_error",
		Description: fmt.Sprintf("Data validation failed: %s", message),
		Severity:    models.SeverityFail,
	}}
	return result
}

// fetchRowCount returns the count or nil when it is unknown (fetch failed).
func (v *Validator) fetchRowCount(ctx context.Context, ds DataSource, table string, exists bool) *int64 {
	if !exists {
		return nil
	}
	count, err := ds.RowCount(ctx, table)
	if err != nil {
		v.logger.Warningf("Could not get row count for %s table %s: %v", ds.Label(), table, err)
		return nil
	}
	return &count
}

func positiveOrZero(count *int64) int64 {
	if count == nil || *count < 0 {
		return 0
	}
	return *count
}

// validateSingleTableData validates one mapping: existence, row counts and
// their severity band, then the sampled key-set comparison plus rule and
// distribution checks. All issue severities fold into the final status.
func (v *Validator) validateSingleTableData(ctx context.Context, mapping *models.TableMapping) *models.DataMatchValidationResult {
	start := time.Now()

	sourceExists, sourceKind := v.sourceIndex.lookup(mapping.SourceTable)
	targetExists, targetKind := v.targetIndex.lookup(mapping.TargetTable)

	var sourceCount, targetCount *int64
	if v.settings.Validation.EnableRowCountValidation {
		sourceCount = v.fetchRowCount(ctx, v.source, mapping.SourceTable, sourceExists)
		targetCount = v.fetchRowCount(ctx, v.target, mapping.TargetTable, targetExists)
	}

	var rowCountIssues, dataMatchIssues []models.ValidationIssue
	addBoth := func(issue models.ValidationIssue) {
		rowCountIssues = append(rowCountIssues, issue)
		dataMatchIssues = append(dataMatchIssues, issue)
	}

	switch {
	case !sourceExists:
		addBoth(models.ValidationIssue{
			Type:        "source_table_missing",
			Description: fmt.Sprintf("Could not find source table '%s'.", mapping.SourceTable),
			Severity:    models.SeverityFail,
		})
	case sourceCount != nil && *sourceCount < 0:
		addBoth(models.ValidationIssue{
			Type:        "source_table_count_error",
			Description: fmt.Sprintf("Could not retrieve row count for source table '%s'.", mapping.SourceTable),
			Severity:    models.SeverityFail,
		})
	case sourceCount != nil && *sourceCount == 0:
		addBoth(models.ValidationIssue{
			Type:        "source_table_is_empty",
			Description: fmt.Sprintf("Source table '%s' is empty.", mapping.SourceTable),
			Severity:    models.SeverityWarning,
		})
	}

	switch {
	case !targetExists:
		addBoth(models.ValidationIssue{
			Type:        "target_table_missing",
			Description: fmt.Sprintf("Could not find target table '%s'.", mapping.TargetTable),
			Severity:    models.SeverityFail,
		})
	case targetCount != nil && *targetCount < 0:
		addBoth(models.ValidationIssue{
			Type:        "target_table_count_error",
			Description: fmt.Sprintf("Could not retrieve row count for target table '%s'.", mapping.TargetTable),
			Severity:    models.SeverityFail,
		})
	case targetCount != nil && *targetCount == 0:
		addBoth(models.ValidationIssue{
			Type:        "target_table_is_empty",
			Description: fmt.Sprintf("Target table '%s' is empty.", mapping.TargetTable),
			Severity:    models.SeverityWarning,
		})
	}

	result := newDataResult(mapping)
	result.SourceTableExists = sourceExists
	result.TargetTableExists = targetExists
	result.SourceTableOrView = sourceKind
	result.TargetTableOrView = targetKind
	result.SourceCount = positiveOrZero(sourceCount)
	result.TargetCount = positiveOrZero(targetCount)
	result.SampleSize = v.settings.Validation.SampleSize

	// Both sides unknown or empty: nothing left to compare.
	if (sourceCount == nil || *sourceCount <= 0) && (targetCount == nil || *targetCount <= 0) {
		result.Status = models.SeverityFail
		result.RowCountIssues = rowCountIssues
		result.DataMatchIssues = dataMatchIssues
		result.ExecutionTimeSeconds = time.Since(start).Seconds()
		return result
	}

	result.Status = models.SeverityPass
	for _, issue := range dataMatchIssues {
		result.Status = result.Status.Escalate(issue.Severity)
	}
	result.RowCountIssues = rowCountIssues
	result.DataMatchIssues = dataMatchIssues

	if sourceCount != nil && targetCount != nil && *sourceCount != *targetCount {
		v.applyRowCountBand(result, *sourceCount, *targetCount)
	}

	if len(mapping.KeyColumns) == 0 {
		issue := models.ValidationIssue{
			Type:        "no_key_columns",
			Description: "Skip data validation because no key columns are defined.",
			Severity:    models.SeverityWarning,
			SourceValue: result.SourceCount,
			TargetValue: result.TargetCount,
		}
		result.DataMatchIssues = append(result.DataMatchIssues, issue)
		result.Status = result.Status.Escalate(issue.Severity)
	} else {
		v.applySampleComparison(ctx, result, mapping)
	}

	result.ExecutionTimeSeconds = time.Since(start).Seconds()
	return result
}

// applyRowCountBand classifies the row-count difference: within the
// success threshold PASS, above the failure threshold FAIL, otherwise
// WARNING. A FAIL where the target holds more rows than the source is
// downgraded to WARNING.
func (v *Validator) applyRowCountBand(result *models.DataMatchValidationResult, sourceCount, targetCount int64) {
	var percentDiff float64
	if sourceCount == 0 {
		percentDiff = 100.0
	} else {
		percentDiff = -float64(sourceCount-targetCount) / float64(sourceCount) * 100.0
	}

	thresholds := v.settings.Validation.RowCountDifferenceThreshold

	var severity models.Severity
	var issueType string
	switch {
	case math.Abs(percentDiff) <= thresholds.Success:
		severity = models.SeverityPass
		issueType = fmt.Sprintf("row_count_mismatch<=%.1f%%", thresholds.Success)
	case math.Abs(percentDiff) > thresholds.Failure:
		severity = models.SeverityFail
		issueType = fmt.Sprintf("row_count_mismatch>%.1f%%", thresholds.Failure)
		if sourceCount < targetCount {
			severity = models.SeverityWarning
			issueType = fmt.Sprintf("target_has_more_%.1f%%_data", percentDiff)
		}
	default:
		severity = models.SeverityWarning
		issueType = "row_count_mismatch"
	}

	result.Status = result.Status.Escalate(severity)
	result.RowCountIssues = append(result.RowCountIssues, models.ValidationIssue{
		Type:        issueType,
		Description: fmt.Sprintf("Row count mismatch: source=%d, target=%d (%.2f%% difference)", sourceCount, targetCount, percentDiff),
		Severity:    severity,
		SourceValue: sourceCount,
		TargetValue: targetCount,
	})
}

// applySampleComparison runs the key-set comparison and folds its issues
// and the success-rate band into the table result.
func (v *Validator) applySampleComparison(ctx context.Context, result *models.DataMatchValidationResult, mapping *models.TableMapping) {
	compared := v.compareSampleData(ctx, mapping, v.settings.Validation.SampleSize)
	result.CompareSampleData = compared

	for _, issue := range compared.Issues {
		result.DataMatchIssues = append(result.DataMatchIssues, issue)
		result.Status = result.Status.Escalate(issue.Severity)
	}

	result.MatchingRecords = compared.EstimatedMatchingRecords()

	successRate := compared.TableSuccessRate()
	thresholds := v.settings.Validation.DataValidationThreshold

	successRateStatus := models.SeverityPass
	if math.Abs(successRate) < thresholds.Warning {
		successRateStatus = models.SeverityFail
	} else if math.Abs(successRate) < thresholds.Success {
		successRateStatus = models.SeverityWarning
	}

	if math.Abs(successRate) < 100.0 {
		result.DataMatchIssues = append(result.DataMatchIssues, models.ValidationIssue{
			Type:        fmt.Sprintf("%.2f%% matched data", successRate),
			Description: fmt.Sprintf("Data validation: %.2f%% success", successRate),
			Severity:    successRateStatus,
			SourceValue: result.SourceCount,
			TargetValue: result.TargetCount,
		})
	}

	result.Status = result.Status.Escalate(successRateStatus)
}
