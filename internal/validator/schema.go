package validator

import (
	"context"
	"fmt"
	"sort"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// columnTypes fetches a table's columns as a name→type map plus the sorted
// name set. Introspection failures degrade to an empty map; the caller
// turns that into a FAIL issue.
func (v *Validator) columnTypes(ctx context.Context, ds DataSource, table string) (map[string]string, []string) {
	columns, err := ds.Columns(ctx, table)
	if err != nil {
		v.logger.Warningf("Could not inspect table %s in %s: %v", table, ds.Label(), err)
		return map[string]string{}, nil
	}

	types := make(map[string]string, len(columns))
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		types[col.Name] = col.Type
		names = append(names, col.Name)
	}
	sort.Strings(names)
	return types, names
}

// validateSingleSchema compares one mapping's source and target schemas:
// existence, column introspection, missing/extra columns, and type
// compatibility on the common columns. The final status is the escalation
// fold of every contributing issue.
func (v *Validator) validateSingleSchema(ctx context.Context, mapping *models.TableMapping) *models.SchemaValidationResult {
	result := &models.SchemaValidationResult{
		SourceTable: mapping.SourceTable,
		TargetTable: mapping.TargetTable,
	}

	var issues []models.ValidationIssue
	var sourceTypes, targetTypes map[string]string

	sourceExists, sourceKind := v.sourceIndex.lookup(mapping.SourceTable)
	result.SourceTableOrView = sourceKind
	if !sourceExists {
		issues = append(issues, models.ValidationIssue{
			Type:        "no_source_table",
			Description: fmt.Sprintf("Source table '%s' does not exist.", mapping.SourceTable),
			Severity:    models.SeverityFail,
		})
	} else {
		sourceTypes, result.SourceColumns = v.columnTypes(ctx, v.source, mapping.SourceTable)
		if len(sourceTypes) == 0 {
			issues = append(issues, models.ValidationIssue{
				Type:        "no_columns_source_table",
				Description: fmt.Sprintf("Source table '%s' has no columns or could not be inspected.", mapping.SourceTable),
				Severity:    models.SeverityFail,
			})
		}
	}

	targetExists, targetKind := v.targetIndex.lookup(mapping.TargetTable)
	result.TargetTableOrView = targetKind
	if !targetExists {
		issues = append(issues, models.ValidationIssue{
			Type:        "no_target_table",
			Description: fmt.Sprintf("Target table '%s' does not exist.", mapping.TargetTable),
			Severity:    models.SeverityFail,
		})
	} else {
		targetTypes, result.TargetColumns = v.columnTypes(ctx, v.target, mapping.TargetTable)
		if len(targetTypes) == 0 {
			issues = append(issues, models.ValidationIssue{
				Type:        "no_column_target_table",
				Description: fmt.Sprintf("Target table '%s' has no columns or could not be inspected.", mapping.TargetTable),
				Severity:    models.SeverityFail,
			})
		}
	}

	// Existence or introspection already failed; column comparison would
	// only produce noise.
	if len(issues) > 0 {
		result.Status = models.SeverityFail
		result.Issues = issues
		return result
	}

	var missing, extra []string
	for name := range sourceTypes {
		if _, ok := targetTypes[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range targetTypes {
		if _, ok := sourceTypes[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	result.MissingColumns = missing
	result.ExtraColumns = extra

	var typeMismatchIssues []models.ValidationIssue
	for _, name := range result.SourceColumns {
		targetType, ok := targetTypes[name]
		if !ok {
			continue
		}
		sourceType := sourceTypes[name]
		severity, issue := v.typeCompat.Classify(sourceType, targetType)
		if severity != models.SeverityPass {
			result.TypeMismatches = append(result.TypeMismatches, models.TypeMismatch{
				Column:     name,
				SourceType: sourceType,
				TargetType: targetType,
			})
			if issue != nil {
				typeMismatchIssues = append(typeMismatchIssues, *issue)
			}
		}
	}

	status := models.SeverityPass

	if len(extra) > 0 {
		status = status.Escalate(models.SeverityWarning)
		issues = append(issues, models.ValidationIssue{
			Type:        "extra_columns_in_target",
			Description: fmt.Sprintf("Target table '%s' has extra %d column(s) not in the source table.", mapping.TargetTable, len(extra)),
			Severity:    models.SeverityWarning,
		})
	}
	if len(missing) > 0 {
		status = status.Escalate(models.SeverityFail)
		issues = append(issues, models.ValidationIssue{
			Type:        "missing_columns_in_target",
			Description: fmt.Sprintf("%d column(s) is(are) missing in target table '%s'", len(missing), mapping.TargetTable),
			Severity:    models.SeverityFail,
		})
	}
	if len(result.TypeMismatches) > 0 {
		severity := models.SeverityWarning
		for _, issue := range typeMismatchIssues {
			severity = severity.Escalate(issue.Severity)
			status = status.Escalate(issue.Severity)
			issues = append(issues, issue)
		}
		status = status.Escalate(models.SeverityWarning)
		issues = append(issues, models.ValidationIssue{
			Type:        "type_mismatches_columns",
			Description: fmt.Sprintf("%d column type mismatches found between source and target tables '%s'", len(result.TypeMismatches), mapping.TargetTable),
			Severity:    severity,
		})
	}

	result.Status = status
	result.Issues = issues
	return result
}
