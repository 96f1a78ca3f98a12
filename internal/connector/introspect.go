package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// TableNames lists the base tables of the configured schema.
func (dc *DatabaseConnector) TableNames(ctx context.Context) ([]string, error) {
	return dc.objectNames(ctx, "BASE TABLE")
}

// ViewNames lists the views of the configured schema.
func (dc *DatabaseConnector) ViewNames(ctx context.Context) ([]string, error) {
	return dc.objectNames(ctx, "VIEW")
}

func (dc *DatabaseConnector) objectNames(ctx context.Context, tableType string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s
		AND table_type = %s
		ORDER BY table_name
	`, dc.placeholder(1), dc.placeholder(2))

	rows, err := dc.DB.QueryContext(ctx, query, dc.Opts.Schema, tableType)
	if err != nil {
		dc.Logger.Errorf("Error listing %s objects in %s: %v", tableType, dc.Opts.Label, err)
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Columns returns the columns of a table or view in ordinal position order.
func (dc *DatabaseConnector) Columns(ctx context.Context, table string) ([]models.Column, error) {
	typeColumn := "column_type"
	if dc.Opts.Dialect == DialectPostgres {
		typeColumn = "data_type"
	}

	query := fmt.Sprintf(`
		SELECT column_name, %s
		FROM information_schema.columns
		WHERE table_schema = %s
		AND table_name = %s
		ORDER BY ordinal_position
	`, typeColumn, dc.placeholder(1), dc.placeholder(2))

	rows, err := dc.DB.QueryContext(ctx, query, dc.Opts.Schema, table)
	if err != nil {
		dc.Logger.Warningf("Failed to retrieve columns for %s table %s: %v", dc.Opts.Label, table, err)
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// RowCount counts the rows of a table or view.
func (dc *DatabaseConnector) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + dc.qualifiedName(table)
	if err := dc.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		dc.Logger.Warningf("Could not get count for %s in %s: %v", table, dc.Opts.Label, err)
		return 0, err
	}
	return count, nil
}

// intCastTypes are the declared cast types rewritten to a portable integer
// cast; boolean-ish columns compare reliably across engines as integers.
var intCastTypes = map[string]bool{
	"BOOLEAN": true, "BOOL": true, "BIT": true, "TINYINT": true,
	"BYTEINT": true, "SMALLINT": true, "INT": true, "INTEGER": true,
}

// castExpression wraps a quoted key column in a CAST when its declared cast
// type calls for one; unknown cast types select the column as is.
func (dc *DatabaseConnector) castExpression(column, castType string) string {
	quoted := dc.quoteIdent(column)
	if castType == "" {
		return quoted
	}
	if intCastTypes[strings.ToUpper(castType)] {
		return fmt.Sprintf("CAST(%s AS INT) AS %s", quoted, quoted)
	}
	return quoted
}

// Sample fetches up to limit rows restricted to the key columns, applying
// declared cast types. Values are tagged once here so the validators never
// re-inspect raw driver values.
func (dc *DatabaseConnector) Sample(ctx context.Context, table string, keyColumns, castTypes []string, limit int) ([]models.Row, error) {
	selects := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		castType := ""
		if i < len(castTypes) {
			castType = castTypes[i]
		}
		selects[i] = dc.castExpression(col, castType)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), dc.qualifiedName(table))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := dc.DB.QueryContext(ctx, query)
	if err != nil {
		dc.Logger.Errorf("Error sampling %s.%s: %v", dc.Opts.Label, table, err)
		return nil, err
	}
	defer rows.Close()

	var sample []models.Row
	for rows.Next() {
		values := make([]interface{}, len(keyColumns))
		valuePtrs := make([]interface{}, len(keyColumns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(keyColumns))
		for i, val := range values {
			row[i] = tagValue(val)
		}
		sample = append(sample, row)
	}
	return sample, rows.Err()
}

// tagValue converts a raw driver value into a tagged models.Value.
func tagValue(val interface{}) models.Value {
	switch v := val.(type) {
	case nil:
		return models.NullValue()
	case []byte:
		return models.TextValue(string(v))
	case string:
		return models.TextValue(v)
	case int64:
		return models.NumberValue(float64(v))
	case float64:
		return models.NumberValue(v)
	case bool:
		if v {
			return models.NumberValue(1)
		}
		return models.NumberValue(0)
	case time.Time:
		return models.TimestampValue(v)
	default:
		return models.TextValue(fmt.Sprintf("%v", v))
	}
}
