package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validSettings = `
database_setting:
  source:
    type: mysql
    host: src-host
    database: legacy
  target:
    type: postgres
    host: tgt-host
    database: warehouse
    schema: public

validation_settings:
  max_workers: 8
  sample_size: 5000
  row_count_difference_threshold:
    success: 2.0
    failure: 10.0

table_mappings:
  - source_table: USERS
    target_table: users_v2
    group: core
    key_columns:
      - "USER_ID"
      - "IS_ACTIVE > BOOLEAN"
    rule_based_data_validation:
      USER_ID:
        nullable: false
        unique: true
  - source_table: ORDERS

report_sorting_settings:
  schema_report:
    - sort_by: severity_status
      sort_order: descending
`

func TestLoadValidSettings(t *testing.T) {
	cfg, err := Load(writeSettings(t, validSettings))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Databases.Source.Type != "mysql" || cfg.Databases.Target.Type != "postgres" {
		t.Errorf("Unexpected database types: %+v", cfg.Databases)
	}
	if cfg.Validation.MaxWorkers != 8 {
		t.Errorf("MaxWorkers = %d, want 8", cfg.Validation.MaxWorkers)
	}
	if cfg.Validation.SampleSize != 5000 {
		t.Errorf("SampleSize = %d, want 5000", cfg.Validation.SampleSize)
	}
	if cfg.Validation.RowCountDifferenceThreshold.Failure != 10.0 {
		t.Errorf("Failure threshold = %f, want 10", cfg.Validation.RowCountDifferenceThreshold.Failure)
	}

	// Defaults survive where the file is silent
	if !cfg.Validation.EnableSchemaValidation {
		t.Error("Expected schema validation enabled by default")
	}
	if cfg.Validation.DataValidationThreshold.Warning != 95.0 {
		t.Errorf("Warning threshold = %f, want the 95 default", cfg.Validation.DataValidationThreshold.Warning)
	}
	if cfg.Validation.TaskTimeoutSeconds != 300 {
		t.Errorf("TaskTimeoutSeconds = %d, want the 300 default", cfg.Validation.TaskTimeoutSeconds)
	}

	if len(cfg.ReportSorting.SchemaReport) != 1 || !cfg.ReportSorting.SchemaReport[0].Descending() {
		t.Errorf("Unexpected schema report sorting: %+v", cfg.ReportSorting.SchemaReport)
	}
}

func TestLoadNormalizesMappings(t *testing.T) {
	cfg, err := Load(writeSettings(t, validSettings))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	users := cfg.TableMappings[0]
	if users.KeyColumns[1] != "IS_ACTIVE" || users.KeyColumnCastTypes[1] != "BOOLEAN" {
		t.Errorf("Cast suffix not split: %v / %v", users.KeyColumns, users.KeyColumnCastTypes)
	}
	if users.UniqueID == "" {
		t.Error("Expected a derived mapping ID")
	}
	if users.ReportSampleCount != 5 {
		t.Errorf("ReportSampleCount = %d, want the global default 5", users.ReportSampleCount)
	}

	// A mapping with only a source table defaults the target
	orders := cfg.TableMappings[1]
	if orders.TargetTable != "ORDERS" {
		t.Errorf("TargetTable = %q, want ORDERS", orders.TargetTable)
	}
}

func TestLoadRejectsBadDatabaseType(t *testing.T) {
	content := `
database_setting:
  source:
    type: oracle
  target:
    type: mysql
table_mappings:
  - source_table: USERS
`
	if _, err := Load(writeSettings(t, content)); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}

func TestLoadRequiresDatabaseType(t *testing.T) {
	content := `
database_setting:
  source:
    host: src
  target:
    type: mysql
table_mappings:
  - source_table: USERS
`
	if _, err := Load(writeSettings(t, content)); err == nil {
		t.Error("Expected error for missing database type")
	}
}

func TestLoadRequiresMappings(t *testing.T) {
	content := `
database_setting:
  source:
    type: mysql
  target:
    type: mysql
`
	if _, err := Load(writeSettings(t, content)); err == nil {
		t.Error("Expected error with no table mappings")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}
	if _, err := Load(""); err == nil {
		t.Error("Expected error for an empty path")
	}
}
