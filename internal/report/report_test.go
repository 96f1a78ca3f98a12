package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

func sampleResult() *models.OverallValidationResult {
	users := &models.DataMatchValidationResult{
		TableName:   "users",
		SourceTable: "users",
		TargetTable: "users",
		Group:       "core",
		KeyColumns:  []string{"ID"},
		Status:      models.SeverityPass,
		SourceCount: 100,
		TargetCount: 100,
	}
	audit := &models.DataMatchValidationResult{
		TableName:   "audit_log",
		SourceTable: "audit_log",
		TargetTable: "audit_log",
		Status:      models.SeverityFail,
		SourceCount: 50,
		TargetCount: 10,
		RowCountIssues: []models.ValidationIssue{{
			Type:        "row_count_mismatch>5.0%",
			Description: "Row count mismatch: source=50, target=10 (-80.00% difference)",
			Severity:    models.SeverityFail,
		}},
	}

	result := &models.OverallValidationResult{
		ValidationID: "run-1",
		SchemaResults: []*models.SchemaValidationResult{{
			SourceTable: "users",
			TargetTable: "users",
			Status:      models.SeverityPass,
		}},
		DataResults: []*models.DataMatchValidationResult{users, audit},
		DataResultsGrouped: map[string][]*models.DataMatchValidationResult{
			"core":            {users},
			models.NoGroupKey: {audit},
		},
	}
	result.Summary = result.ComputeSummary()
	return result
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(path, sampleResult()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded["validation_id"] != "run-1" {
		t.Errorf("validation_id = %v, want run-1", decoded["validation_id"])
	}
	// Severities render as names, not numbers
	if !strings.Contains(string(data), `"status": "PASS"`) {
		t.Error("Expected severity names in the JSON report")
	}
}

func TestWriteSchemaReport(t *testing.T) {
	var buf bytes.Buffer
	WriteSchemaReport(&buf, sampleResult())

	out := buf.String()
	if !strings.Contains(out, "SCHEMA VALIDATION REPORT") {
		t.Error("Expected report banner")
	}
	if !strings.Contains(out, "users -> users") {
		t.Errorf("Expected table pair line, got:\n%s", out)
	}
}

func TestWriteRowCountReportOrdersBySeverity(t *testing.T) {
	var buf bytes.Buffer
	specs := []config.SortSpec{{SortBy: "severity_status", SortOrder: "descending"}}
	WriteRowCountReport(&buf, sampleResult(), specs)

	out := buf.String()
	failIdx := strings.Index(out, "audit_log")
	passIdx := strings.Index(out, "users")
	if failIdx < 0 || passIdx < 0 {
		t.Fatalf("Expected both tables in the report, got:\n%s", out)
	}
	if failIdx > passIdx {
		t.Error("Expected the failing table listed first")
	}
}

func TestWriteDataMatchReportGroupsLast(t *testing.T) {
	var buf bytes.Buffer
	WriteDataMatchReport(&buf, sampleResult())

	out := buf.String()
	groupIdx := strings.Index(out, "Group: core")
	ungroupedIdx := strings.Index(out, "audit_log")
	if groupIdx < 0 || ungroupedIdx < 0 {
		t.Fatalf("Expected group header and ungrouped table, got:\n%s", out)
	}
	if groupIdx > ungroupedIdx {
		t.Error("Expected named groups before ungrouped tables")
	}
}

// Group order mirrors the flat results list, not alphabetical order.
func TestWriteDataMatchReportFollowsAggregatorOrder(t *testing.T) {
	zeta := &models.DataMatchValidationResult{TableName: "z_users", Group: "zeta", Status: models.SeverityPass}
	alpha := &models.DataMatchValidationResult{TableName: "a_orders", Group: "alpha", Status: models.SeverityPass}
	result := &models.OverallValidationResult{
		DataResults: []*models.DataMatchValidationResult{zeta, alpha},
		DataResultsGrouped: map[string][]*models.DataMatchValidationResult{
			"zeta":  {zeta},
			"alpha": {alpha},
		},
	}

	var buf bytes.Buffer
	WriteDataMatchReport(&buf, result)

	out := buf.String()
	zetaIdx := strings.Index(out, "Group: zeta")
	alphaIdx := strings.Index(out, "Group: alpha")
	if zetaIdx < 0 || alphaIdx < 0 {
		t.Fatalf("Expected both group headers, got:\n%s", out)
	}
	if zetaIdx > alphaIdx {
		t.Error("Expected groups in the order the results list them")
	}
}

func TestWritersSkipEmptyRuns(t *testing.T) {
	var buf bytes.Buffer
	empty := &models.OverallValidationResult{}
	WriteSchemaReport(&buf, empty)
	WriteRowCountReport(&buf, empty, nil)
	WriteDataMatchReport(&buf, empty)
	if buf.Len() != 0 {
		t.Errorf("Expected no output for an empty run, got:\n%s", buf.String())
	}
}
