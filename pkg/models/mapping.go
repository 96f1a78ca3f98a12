package models

import (
	"fmt"
	"sort"
	"strings"
)

// castTypeSeparators split a key column declaration like "IS_QNS > BOOLEAN"
// into column name and cast type. Longest separators come first so "->" and
// "=>" are never shadowed by ">", ":" or "|".
var castTypeSeparators = []string{"->", "=>", ">", ":", "|"}

// SplitCastType splits a key-column declaration at the first cast separator.
// The returned cast type is empty when no separator is present.
func SplitCastType(keyColumn string) (column, castType string) {
	for _, sep := range castTypeSeparators {
		if idx := strings.Index(keyColumn, sep); idx >= 0 {
			return strings.TrimSpace(keyColumn[:idx]), strings.TrimSpace(keyColumn[idx+len(sep):])
		}
	}
	return strings.TrimSpace(keyColumn), ""
}

// ColumnRule configures rule-based validation for one key column. Nullable
// and Unique accept booleans or string truthy forms from YAML.
type ColumnRule struct {
	Nullable           interface{} `yaml:"nullable" json:"nullable,omitempty"`
	Unique             interface{} `yaml:"unique" json:"unique,omitempty"`
	Pattern            string      `yaml:"pattern" json:"pattern,omitempty"`
	PatternDescription string      `yaml:"pattern_regex_description" json:"pattern_regex_description,omitempty"`
}

// CategoryBounds bounds one expected category of a column distribution.
// Nil bounds are not enforced.
type CategoryBounds struct {
	Or         []string `yaml:"or" json:"or,omitempty"`
	MinCount   *int     `yaml:"min_count" json:"min_count,omitempty"`
	MaxCount   *int     `yaml:"max_count" json:"max_count,omitempty"`
	MinPercent *float64 `yaml:"min_percent" json:"min_percent,omitempty"`
	MaxPercent *float64 `yaml:"max_percent" json:"max_percent,omitempty"`
}

// ColumnDistribution is the expected categorical histogram for one key
// column.
type ColumnDistribution struct {
	ExpectedDistribution map[string]CategoryBounds `yaml:"expected_distribution" json:"expected_distribution,omitempty"`
	MinItemsCount        *int                      `yaml:"min_items_count" json:"min_items_count,omitempty"`
	MaxItemsCount        *int                      `yaml:"max_items_count" json:"max_items_count,omitempty"`
}

// TableMapping declares one source/target table or view pair to validate.
type TableMapping struct {
	SourceTable string `yaml:"source_table" json:"source_table"`
	TargetTable string `yaml:"target_table" json:"target_table"`
	Group       string `yaml:"group" json:"group,omitempty"`

	// KeyColumns may carry inline cast-type suffixes ("COL -> INTEGER");
	// Normalize strips them into KeyColumnCastTypes.
	KeyColumns         []string `yaml:"key_columns" json:"key_columns"`
	KeyColumnCastTypes []string `yaml:"key_columns_cast_types" json:"key_columns_cast_types,omitempty"`

	SampleSize              int      `yaml:"sample_size" json:"sample_size,omitempty"`
	DataTransformationRules []string `yaml:"data_transformation_rules" json:"data_transformation_rules,omitempty"`

	RuleBasedValidation         map[string]*ColumnRule         `yaml:"rule_based_data_validation" json:"rule_based_data_validation,omitempty"`
	DistributionBasedValidation map[string]*ColumnDistribution `yaml:"distribution_based_data_validation" json:"distribution_based_data_validation,omitempty"`

	// ReportSampleCount caps how many matched/unmatched keys and rule
	// samples are kept for the report; 0 means use the global default.
	ReportSampleCount int  `yaml:"number_of_set_sample_records_for_detailed_report" json:"number_of_set_sample_records_for_detailed_report,omitempty"`
	MaxItemLength     *int `yaml:"max_item_length_for_report" json:"max_item_length_for_report,omitempty"`
	MaxWordLength     *int `yaml:"max_word_length_for_report" json:"max_word_length_for_report,omitempty"`

	UniqueID string `yaml:"unique_data_mapping_id" json:"unique_data_mapping_id"`
}

// Normalize fills defaults and derived fields. At least one of SourceTable
// or TargetTable must be set; each defaults to the other. Key columns are
// trimmed, empties dropped, and cast suffixes split out. The mapping
// identifier is derived deterministically when not provided.
func (m *TableMapping) Normalize() error {
	if m.SourceTable == "" && m.TargetTable == "" {
		return fmt.Errorf("table mapping: at least one of source_table or target_table must be provided")
	}
	if m.SourceTable == "" {
		m.SourceTable = m.TargetTable
	}
	if m.TargetTable == "" {
		m.TargetTable = m.SourceTable
	}

	cleaned := make([]string, 0, len(m.KeyColumns))
	for _, col := range m.KeyColumns {
		if c := strings.TrimSpace(col); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	m.KeyColumns = cleaned

	if len(m.KeyColumnCastTypes) != len(m.KeyColumns) {
		names := make([]string, 0, len(m.KeyColumns))
		casts := make([]string, 0, len(m.KeyColumns))
		for _, col := range m.KeyColumns {
			name, castType := SplitCastType(col)
			names = append(names, name)
			casts = append(casts, castType)
		}
		m.KeyColumns = names
		m.KeyColumnCastTypes = casts
	}

	if m.UniqueID == "" {
		sortedKeys := append([]string(nil), m.KeyColumns...)
		sort.Strings(sortedKeys)
		m.UniqueID = m.SourceTable + "|" + m.TargetTable + "|" +
			strings.Join(sortedKeys, ",") + "|" +
			strings.Join(m.DataTransformationRules, ",")
	}
	return nil
}

// EffectiveMaxItemLength returns the item truncation threshold for report
// samples; 0 disables truncation.
func (m *TableMapping) EffectiveMaxItemLength() int {
	if m.MaxItemLength != nil {
		return *m.MaxItemLength
	}
	return 200
}

// EffectiveMaxWordLength returns the unbroken-word truncation threshold for
// report samples; 0 disables truncation.
func (m *TableMapping) EffectiveMaxWordLength() int {
	if m.MaxWordLength != nil {
		return *m.MaxWordLength
	}
	return 30
}
