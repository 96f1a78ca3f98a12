package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// DatabaseSetting describes one side's connection. Either a full DSN or the
// individual parts may be given; missing parts fall back to environment
// variables in the connector.
type DatabaseSetting struct {
	Type string `yaml:"type" json:"type"` // mysql or postgres
	// DSN and Password are kept out of the JSON report.
	DSN      string `yaml:"dsn" json:"-"`
	Host     string `yaml:"host" json:"host"`
	Port     string `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"`
	Database string `yaml:"database" json:"database"`
	Schema   string `yaml:"schema" json:"schema"`
}

// RowCountThresholds band the absolute row-count percentage difference:
// within Success is PASS, above Failure is FAIL, in between WARNING.
type RowCountThresholds struct {
	Success float64 `yaml:"success" json:"success"`
	Failure float64 `yaml:"failure" json:"failure"`
}

// SuccessRateThresholds band the interpolated success rate: below Warning
// is FAIL, below Success is WARNING.
type SuccessRateThresholds struct {
	Warning float64 `yaml:"warning" json:"warning"`
	Success float64 `yaml:"success" json:"success"`
}

// ValidationSettings is the global tuning surface of a run.
type ValidationSettings struct {
	MaxWorkers         int `yaml:"max_workers" json:"max_workers"`
	SampleSize         int `yaml:"sample_size" json:"sample_size"`
	TaskTimeoutSeconds int `yaml:"task_timeout_seconds" json:"task_timeout_seconds"`

	EnableSchemaValidation            bool `yaml:"enable_schema_validation" json:"enable_schema_validation"`
	EnableDataValidation              bool `yaml:"enable_data_validation" json:"enable_data_validation"`
	EnableRowCountValidation          bool `yaml:"enable_row_count_validation" json:"enable_row_count_validation"`
	EnableRuleBasedValidation         bool `yaml:"enable_rule_based_data_validation" json:"enable_rule_based_data_validation"`
	EnableDistributionBasedValidation bool `yaml:"enable_distribution_based_data_validation" json:"enable_distribution_based_data_validation"`

	RowCountDifferenceThreshold RowCountThresholds    `yaml:"row_count_difference_threshold" json:"row_count_difference_threshold"`
	DataValidationThreshold     SuccessRateThresholds `yaml:"data_validation_threshold" json:"data_validation_threshold"`

	ReportSampleCount int `yaml:"number_of_set_sample_records_for_detailed_report" json:"number_of_set_sample_records_for_detailed_report"`
}

// SortSpec is one ordered sorting directive for a report section.
type SortSpec struct {
	SortBy    string `yaml:"sort_by" json:"sort_by"`       // severity_status, group_name, key_columns_length, table_view_name
	SortOrder string `yaml:"sort_order" json:"sort_order"` // ascending or descending
}

func (s SortSpec) Descending() bool { return s.SortOrder == "descending" }

// ReportSortingSettings orders the report sections.
type ReportSortingSettings struct {
	SchemaReport            []SortSpec `yaml:"schema_report" json:"schema_report"`
	RowCountReport          []SortSpec `yaml:"row_count_report" json:"row_count_report"`
	DataMatchReport         []SortSpec `yaml:"data_match_report" json:"data_match_report"`
	DetailedDataMatchReport []SortSpec `yaml:"detailed_data_match_report" json:"detailed_data_match_report"`
}

// DatabasePair holds both sides of the transition.
type DatabasePair struct {
	Source DatabaseSetting `yaml:"source" json:"source"`
	Target DatabaseSetting `yaml:"target" json:"target"`
}

// Settings is the full configuration file.
type Settings struct {
	Databases     DatabasePair           `yaml:"database_setting" json:"database_setting"`
	TableMappings []*models.TableMapping `yaml:"table_mappings" json:"table_mappings"`
	Validation    ValidationSettings     `yaml:"validation_settings" json:"validation_settings"`
	ReportSorting ReportSortingSettings  `yaml:"report_sorting_settings" json:"report_sorting_settings"`
}

// Default returns the settings used when the file omits a field.
func Default() *Settings {
	return &Settings{
		Validation: ValidationSettings{
			MaxWorkers:                        4,
			TaskTimeoutSeconds:                300,
			EnableSchemaValidation:            true,
			EnableDataValidation:              true,
			EnableRowCountValidation:          true,
			EnableRuleBasedValidation:         true,
			EnableDistributionBasedValidation: true,
			RowCountDifferenceThreshold:       RowCountThresholds{Success: 1.0, Failure: 5.0},
			DataValidationThreshold:           SuccessRateThresholds{Warning: 95.0, Success: 99.0},
			ReportSampleCount:                 5,
		},
	}
}

// Load reads and validates the YAML settings file, layering it over the
// defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Settings) validate() error {
	for side, db := range map[string]DatabaseSetting{"source": c.Databases.Source, "target": c.Databases.Target} {
		switch db.Type {
		case "mysql", "postgres":
		case "":
			return fmt.Errorf("database_setting.%s.type is required", side)
		default:
			return fmt.Errorf("database_setting.%s.type must be mysql or postgres, got %q", side, db.Type)
		}
	}
	if len(c.TableMappings) == 0 {
		return fmt.Errorf("at least one table mapping is required")
	}
	if c.Validation.MaxWorkers <= 0 {
		c.Validation.MaxWorkers = 4
	}
	for _, mapping := range c.TableMappings {
		if err := mapping.Normalize(); err != nil {
			return err
		}
		if mapping.ReportSampleCount <= 0 {
			mapping.ReportSampleCount = c.Validation.ReportSampleCount
		}
	}
	return nil
}
