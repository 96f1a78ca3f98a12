package validator

import (
	"fmt"
	"strings"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// CompatEntry maps a base type found inside the source type string to the
// target-type prefixes it may convert to.
type CompatEntry struct {
	BaseType       string
	TargetPrefixes []string
}

// TypeCompatibility classifies a source/target column type pair. The PASS
// table is always consulted before the WARNING table, and entries are
// scanned in declaration order; both orders decide the reported severity
// for ambiguous types, so the tables are kept as ordered slices.
type TypeCompatibility struct {
	Pass    []CompatEntry
	Warning []CompatEntry
}

// DefaultTypeCompatibility returns the built-in tables for a
// Teradata-style to SQL Server-style transition.
func DefaultTypeCompatibility() TypeCompatibility {
	return TypeCompatibility{
		Pass: []CompatEntry{
			// Lossless conversions
			{"INT", []string{"INTEGER", "BIGINT", "DECIMAL"}},
			{"INTEGER", []string{"INT", "BIGINT", "DECIMAL"}},
			{"VARCHAR", []string{"NVARCHAR", "TEXT"}},
			{"NUMERIC", []string{"DECIMAL", "FLOAT"}},
			{"DATE", []string{"DATETIME", "TIMESTAMP"}},
			{"BINARY", []string{"VARBINARY"}},
			{"VARBINARY", []string{"BINARY"}},
			{"BIT", []string{"BOOLEAN", "TINYINT", "BOOL", "INTEGER"}},
			{"SMALLINT", []string{"INTEGER"}},
			{"BOOLEAN", []string{"BIT", "BOOL"}},
			// Minimal risk conversions
			{"TIMESTAMP", []string{"DATE", "DATETIME"}},
			{"DATETIME", []string{"DATE", "TIMESTAMP"}},
			{"DECIMAL", []string{"NUMERIC", "FLOAT", "DOUBLE"}},
			{"NVARCHAR", []string{"VARCHAR", "TEXT"}},
			{"BIGINT", []string{"INT", "INTEGER", "DECIMAL"}},
			{"FLOAT", []string{"REAL", "DOUBLE"}},
			{"REAL", []string{"FLOAT", "DOUBLE"}},
			{"DOUBLE", []string{"FLOAT", "REAL"}},
			{"CHAR", []string{"NCHAR", "VARCHAR", "TEXT"}},
			{"NCHAR", []string{"CHAR"}},
			{"TEXT", []string{"VARCHAR", "NVARCHAR"}},
		},
		Warning: []CompatEntry{
			// Potentially lossy conversions
			{"DECIMAL", []string{"INT", "INTEGER", "BIGINT", "DECIMAL"}},
			{"INTEGER", []string{"BIT", "FLOAT", "VARCHAR"}},
			{"FLOAT", []string{"INT", "INTEGER", "BIGINT"}},
			{"DOUBLE", []string{"INT", "INTEGER", "BIGINT"}},
			{"NUMERIC", []string{"INT", "INTEGER", "BIGINT"}},
			{"BIGINT", []string{"INT", "INTEGER", "DECIMAL", "NUMERIC"}},
		},
	}
}

func matchEntry(entries []CompatEntry, sourceType, targetType string) bool {
	for _, entry := range entries {
		if !strings.Contains(sourceType, entry.BaseType) {
			continue
		}
		for _, prefix := range entry.TargetPrefixes {
			// HasPrefix tolerates trailing parameters and collation
			// text, e.g. `VARCHAR(64) COLLATE "SQL_Latin1..."`.
			if strings.HasPrefix(targetType, prefix) {
				return true
			}
		}
	}
	return false
}

// Classify reports how compatible the two column types are, with an
// explanatory issue for anything other than PASS.
func (tc TypeCompatibility) Classify(sourceType, targetType string) (models.Severity, *models.ValidationIssue) {
	sourceType = strings.ToUpper(sourceType)
	targetType = strings.ToUpper(targetType)

	if sourceType == targetType {
		return models.SeverityPass, nil
	}

	if matchEntry(tc.Pass, sourceType, targetType) {
		return models.SeverityPass, nil
	}

	if matchEntry(tc.Warning, sourceType, targetType) {
		return models.SeverityWarning, &models.ValidationIssue{
			Type:        fmt.Sprintf("type_compatible_%s->%s", sourceType, targetType),
			Description: fmt.Sprintf("Column type '%s' is compatible with '%s' but may require attention.", sourceType, targetType),
			Severity:    models.SeverityWarning,
		}
	}

	return models.SeverityFail, &models.ValidationIssue{
		Type:        fmt.Sprintf("fail_type_compatible_%s->%s", sourceType, targetType),
		Description: fmt.Sprintf("Column type '%s' is NOT compatible with '%s'", sourceType, targetType),
		Severity:    models.SeverityFail,
	}
}
