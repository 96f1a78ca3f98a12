package connector

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func mockConnector(t *testing.T, dialect string) (*DatabaseConnector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &DatabaseConnector{
		Opts:   Options{Label: "source", Dialect: dialect, Schema: "testdb"},
		DB:     db,
		Logger: testLogger(),
	}, mock
}

func TestNewDatabaseConnectorEnvFallback(t *testing.T) {
	os.Setenv("DTV_SOURCE_HOST", "test-host")
	os.Setenv("DTV_SOURCE_USER", "test-user")
	os.Setenv("DTV_SOURCE_PASSWORD", "test-password")
	os.Setenv("DTV_SOURCE_DATABASE", "test-database")
	os.Setenv("DTV_SOURCE_PORT", "3307")
	defer func() {
		for _, v := range []string{"HOST", "USER", "PASSWORD", "DATABASE", "PORT"} {
			os.Unsetenv("DTV_SOURCE_" + v)
		}
	}()

	db := NewDatabaseConnector(Options{Label: "source"}, testLogger())

	if db.Opts.Host != "test-host" {
		t.Errorf("Expected host to be 'test-host', got '%s'", db.Opts.Host)
	}
	if db.Opts.User != "test-user" {
		t.Errorf("Expected user to be 'test-user', got '%s'", db.Opts.User)
	}
	if db.Opts.Password != "test-password" {
		t.Errorf("Expected password to be 'test-password', got '%s'", db.Opts.Password)
	}
	if db.Opts.Database != "test-database" {
		t.Errorf("Expected database to be 'test-database', got '%s'", db.Opts.Database)
	}
	if db.Opts.Port != "3307" {
		t.Errorf("Expected port to be '3307', got '%s'", db.Opts.Port)
	}
	// MySQL defaults the schema to the database name
	if db.Opts.Schema != "test-database" {
		t.Errorf("Expected schema to be 'test-database', got '%s'", db.Opts.Schema)
	}

	// Explicit options win over the environment
	db = NewDatabaseConnector(Options{
		Label: "source", Host: "explicit-host", User: "explicit-user",
		Password: "explicit-password", Database: "explicit-database", Port: "3308",
	}, testLogger())

	if db.Opts.Host != "explicit-host" {
		t.Errorf("Expected host to be 'explicit-host', got '%s'", db.Opts.Host)
	}
	if db.Opts.Port != "3308" {
		t.Errorf("Expected port to be '3308', got '%s'", db.Opts.Port)
	}
}

func TestNewDatabaseConnectorPostgresDefaults(t *testing.T) {
	db := NewDatabaseConnector(Options{Label: "target", Dialect: DialectPostgres, Database: "warehouse"}, testLogger())

	if db.Opts.Port != "5432" {
		t.Errorf("Expected default port 5432, got '%s'", db.Opts.Port)
	}
	if db.Opts.Schema != "public" {
		t.Errorf("Expected default schema 'public', got '%s'", db.Opts.Schema)
	}
}

func TestBuildDSN(t *testing.T) {
	mysql := NewDatabaseConnector(Options{
		Label: "source", Dialect: DialectMySQL,
		Host: "h", Port: "3306", User: "u", Password: "p", Database: "d",
	}, testLogger())
	want := "u:p@tcp(h:3306)/d?parseTime=true"
	if got := mysql.buildDSN(); got != want {
		t.Errorf("Expected DSN '%s', got '%s'", want, got)
	}

	pg := NewDatabaseConnector(Options{
		Label: "target", Dialect: DialectPostgres,
		Host: "h", Port: "5432", User: "u", Password: "p", Database: "d",
	}, testLogger())
	want = "host=h port=5432 user=u password=p dbname=d sslmode=disable"
	if got := pg.buildDSN(); got != want {
		t.Errorf("Expected DSN '%s', got '%s'", want, got)
	}

	explicit := NewDatabaseConnector(Options{Label: "source", DSN: "custom-dsn"}, testLogger())
	if got := explicit.buildDSN(); got != "custom-dsn" {
		t.Errorf("Expected explicit DSN to win, got '%s'", got)
	}
}

func TestQuoteIdent(t *testing.T) {
	mysql, _ := mockConnector(t, DialectMySQL)
	if got := mysql.quoteIdent("users"); got != "`users`" {
		t.Errorf("Expected backtick quoting, got %s", got)
	}

	pg, _ := mockConnector(t, DialectPostgres)
	if got := pg.quoteIdent("users"); got != `"users"` {
		t.Errorf("Expected double-quote quoting, got %s", got)
	}
}

func TestTableNames(t *testing.T) {
	dc, mock := mockConnector(t, DialectMySQL)

	mock.ExpectQuery("SELECT table_name").
		WithArgs("testdb", "BASE TABLE").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").AddRow("users"))

	tables, err := dc.TableNames(context.Background())
	if err != nil {
		t.Fatalf("TableNames returned error: %v", err)
	}
	if len(tables) != 2 || tables[0] != "orders" || tables[1] != "users" {
		t.Errorf("Expected [orders users], got %v", tables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestColumns(t *testing.T) {
	dc, mock := mockConnector(t, DialectMySQL)

	mock.ExpectQuery("SELECT column_name, column_type").
		WithArgs("testdb", "users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type"}).
			AddRow("id", "int(11)").AddRow("name", "varchar(255)"))

	columns, err := dc.Columns(context.Background(), "users")
	if err != nil {
		t.Fatalf("Columns returned error: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("Expected 2 columns, got %d", len(columns))
	}
	if columns[0].Name != "id" || columns[0].Type != "int(11)" {
		t.Errorf("Unexpected first column: %+v", columns[0])
	}
}

func TestRowCount(t *testing.T) {
	dc, mock := mockConnector(t, DialectMySQL)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := dc.RowCount(context.Background(), "users")
	if err != nil {
		t.Fatalf("RowCount returned error: %v", err)
	}
	if count != 42 {
		t.Errorf("Expected count 42, got %d", count)
	}
}

func TestSampleTagsValues(t *testing.T) {
	dc, mock := mockConnector(t, DialectMySQL)

	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT `id`, `created_at` FROM `testdb`.`users` LIMIT 3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(7), created).
			AddRow(nil, nil))

	rows, err := dc.Sample(context.Background(), "users", []string{"id", "created_at"}, nil, 3)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].Kind != models.KindNumber || rows[0][0].Number != 7 {
		t.Errorf("Expected tagged number 7, got %+v", rows[0][0])
	}
	if rows[0][1].Kind != models.KindTimestamp {
		t.Errorf("Expected tagged timestamp, got %+v", rows[0][1])
	}
	if !rows[1][0].IsNull() || !rows[1][1].IsNull() {
		t.Errorf("Expected null-tagged values, got %+v", rows[1])
	}
}

func TestCastExpression(t *testing.T) {
	dc, _ := mockConnector(t, DialectMySQL)

	if got := dc.castExpression("flag", "BOOLEAN"); got != "CAST(`flag` AS INT) AS `flag`" {
		t.Errorf("Expected integer cast, got %s", got)
	}
	if got := dc.castExpression("name", ""); got != "`name`" {
		t.Errorf("Expected plain column, got %s", got)
	}
	if got := dc.castExpression("name", "VARCHAR"); got != "`name`" {
		t.Errorf("Expected unknown cast type to select as is, got %s", got)
	}
}
