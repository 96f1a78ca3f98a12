package connector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Supported dialects.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Options carries connection parameters for one side of the transition.
// Empty fields fall back to DTV_<LABEL>_* environment variables.
type Options struct {
	Label    string // "source" or "target", used in logs and env lookups
	Dialect  string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DatabaseConnector handles database connection, introspection and sampling
// for one side of the transition.
type DatabaseConnector struct {
	Opts   Options
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewDatabaseConnector creates a connector, filling missing options from
// DTV_<LABEL>_HOST, DTV_<LABEL>_USER and so on.
func NewDatabaseConnector(opts Options, logger *logrus.Logger) *DatabaseConnector {
	prefix := "DTV_" + strings.ToUpper(opts.Label) + "_"
	if opts.Dialect == "" {
		opts.Dialect = getEnvOrDefault(prefix+"DIALECT", DialectMySQL)
	}
	if opts.DSN == "" {
		opts.DSN = os.Getenv(prefix + "DSN")
	}
	if opts.Host == "" {
		opts.Host = getEnvOrDefault(prefix+"HOST", "localhost")
	}
	if opts.Port == "" {
		opts.Port = getEnvOrDefault(prefix+"PORT", defaultPort(opts.Dialect))
	}
	if opts.User == "" {
		opts.User = getEnvOrDefault(prefix+"USER", "")
	}
	if opts.Password == "" {
		opts.Password = getEnvOrDefault(prefix+"PASSWORD", "")
	}
	if opts.Database == "" {
		opts.Database = getEnvOrDefault(prefix+"DATABASE", "")
	}
	if opts.Schema == "" {
		opts.Schema = os.Getenv(prefix + "SCHEMA")
	}
	if opts.Schema == "" {
		if opts.Dialect == DialectPostgres {
			opts.Schema = "public"
		} else {
			opts.Schema = opts.Database
		}
	}

	return &DatabaseConnector{Opts: opts, Logger: logger}
}

func defaultPort(dialect string) string {
	if dialect == DialectPostgres {
		return "5432"
	}
	return "3306"
}

// Label identifies the side this connector serves.
func (dc *DatabaseConnector) Label() string { return dc.Opts.Label }

// SchemaName is the schema all queries are qualified with.
func (dc *DatabaseConnector) SchemaName() string { return dc.Opts.Schema }

func (dc *DatabaseConnector) buildDSN() string {
	if dc.Opts.DSN != "" {
		return dc.Opts.DSN
	}
	if dc.Opts.Dialect == DialectPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dc.Opts.Host, dc.Opts.Port, dc.Opts.User, dc.Opts.Password, dc.Opts.Database)
	}
	// parseTime=true so timestamp columns scan as time.Time
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		dc.Opts.User, dc.Opts.Password, dc.Opts.Host, dc.Opts.Port, dc.Opts.Database)
}

// Connect opens and pings the database.
func (dc *DatabaseConnector) Connect(ctx context.Context) error {
	if dc.Opts.Database == "" && dc.Opts.DSN == "" {
		return fmt.Errorf("%s: database name must be provided via config or DTV_%s_DATABASE",
			dc.Opts.Label, strings.ToUpper(dc.Opts.Label))
	}

	db, err := sql.Open(driverName(dc.Opts.Dialect), dc.buildDSN())
	if err != nil {
		dc.Logger.Errorf("Error connecting to %s database: %v", dc.Opts.Label, err)
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		dc.Logger.Errorf("Error pinging %s database: %v", dc.Opts.Label, err)
		db.Close()
		return err
	}

	dc.DB = db
	dc.Logger.Infof("Connected to %s database (%s)", dc.Opts.Label, dc.Opts.Dialect)
	return nil
}

func driverName(dialect string) string {
	if dialect == DialectPostgres {
		return "postgres"
	}
	return "mysql"
}

// Disconnect closes the database connection.
func (dc *DatabaseConnector) Disconnect() {
	if dc.DB != nil {
		if err := dc.DB.Close(); err != nil {
			dc.Logger.Errorf("Error closing %s connection: %v", dc.Opts.Label, err)
		} else {
			dc.Logger.Infof("%s connection closed", dc.Opts.Label)
		}
	}
}

func (dc *DatabaseConnector) placeholder(n int) string {
	if dc.Opts.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// quoteIdent quotes an identifier for the connector's dialect.
func (dc *DatabaseConnector) quoteIdent(name string) string {
	if dc.Opts.Dialect == DialectPostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (dc *DatabaseConnector) qualifiedName(table string) string {
	return dc.quoteIdent(dc.Opts.Schema) + "." + dc.quoteIdent(table)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
