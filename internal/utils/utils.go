package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	// Create a new logger
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("DTV_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	// Parse log level
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	// Configure logger
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	logger.Infof("Logging configured with level: %s", level)
	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file.
// Connection details may come from the settings file instead, so missing
// variables are only reported, never fatal.
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) {
	// Check if a sample .env file exists but not the actual .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	// Load environment variables from .env file if it exists
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Infof("No %s file found, using existing environment variables", envFile)
	}

	// Log all available DTV_* environment variables (for debugging)
	if logger.Level == logrus.DebugLevel {
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, "DTV_") {
				parts := strings.SplitN(env, "=", 2)
				if len(parts) == 2 {
					// Mask passwords
					if strings.HasSuffix(parts[0], "_PASSWORD") {
						logger.Debugf("%s=********", parts[0])
					} else {
						logger.Debugf("%s=%s", parts[0], parts[1])
					}
				}
			}
		}
	}
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// ValidateConnectionParams validates database connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if _, err := strconv.Atoi(port); err != nil {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}

// PrintSummary prints a summary of the validation run
func PrintSummary(result *models.OverallValidationResult) {
	summary := result.Summary

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("DATABASE TRANSITION VALIDATION SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Validation ID: %s\n", result.ValidationID)
	fmt.Printf("Overall status: %s\n", result.OverallStatus())
	fmt.Printf("Schema status: %s\n", result.OverallSchemaStatus())
	fmt.Printf("Row count status: %s\n", result.OverallRowCountStatus())
	fmt.Printf("Data match status: %s\n", result.OverallDataMatchStatus())
	fmt.Println()
	fmt.Printf("Total tables processed: %d\n", summary.TotalTables)
	fmt.Printf("Passed tables: %d\n", summary.PassedTables)
	fmt.Printf("Warning tables: %d\n", summary.WarningTables)
	fmt.Printf("Failed tables: %d\n", summary.FailedTables)
	fmt.Printf("Table success rate: %.2f%%\n", summary.TableSuccessRate)
	fmt.Println()
	fmt.Printf("Total source records: %d\n", summary.TotalSourceRecords)
	fmt.Printf("Total target records: %d\n", summary.TotalTargetRecords)
	fmt.Printf("Estimated matching records: %d\n", summary.TotalMatchingRecords)
	fmt.Printf("Overall data success rate: %.2f%%\n", summary.OverallDataSuccessRate)
	fmt.Printf("Execution time: %.2f seconds\n", summary.ExecutionTimeSeconds)

	var failedTables []string
	for _, res := range result.DataResults {
		if res.Status == models.SeverityFail {
			failedTables = append(failedTables, res.TableName)
		}
	}
	if len(failedTables) > 0 {
		fmt.Println("\nFailed tables:")
		for _, table := range failedTables {
			fmt.Printf("  - %s\n", table)
		}
	}

	fmt.Println(strings.Repeat("=", 50))
}
