package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/connector"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/report"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/utils"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/validator"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

func newConnectorOptions(label string, db config.DatabaseSetting) connector.Options {
	return connector.Options{
		Label:    label,
		Dialect:  db.Type,
		DSN:      db.DSN,
		Host:     db.Host,
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		Database: db.Database,
		Schema:   db.Schema,
	}
}

func main() {
	var (
		configFile string
		envFile    string
		logLevel   string
		outputFile string
		sampleSize int
		maxWorkers int

		skipSchema       bool
		skipData         bool
		skipRowCount     bool
		skipRuleBased    bool
		skipDistribution bool
	)

	rootCmd := &cobra.Command{
		Use:   "database-transition-validator",
		Short: "Validates data consistency between two databases during a migration",
		Long: `Database Transition Validator

Compares schemas, row counts and sampled key data between a source and a
target database to verify a migration preserved the data. Supports MySQL
and PostgreSQL on either side.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Setup logging
			logger := utils.SetupLogging(logLevel)

			// Load environment variables
			utils.LoadEnvironmentVariables(envFile, logger)

			settings, err := config.Load(configFile)
			if err != nil {
				logger.Errorf("Failed to load settings: %v", err)
				os.Exit(1)
			}

			// Flags win over environment variables, which win over the file
			if sampleSize <= 0 {
				sampleSize = utils.GetEnvInt("DTV_SAMPLE_SIZE", 0)
			}
			if maxWorkers <= 0 {
				maxWorkers = utils.GetEnvInt("DTV_MAX_WORKERS", 0)
			}
			if sampleSize > 0 {
				settings.Validation.SampleSize = sampleSize
			}
			if maxWorkers > 0 {
				settings.Validation.MaxWorkers = maxWorkers
			}
			if skipSchema {
				settings.Validation.EnableSchemaValidation = false
			}
			if skipData {
				settings.Validation.EnableDataValidation = false
			}
			if skipRowCount {
				settings.Validation.EnableRowCountValidation = false
			}
			if skipRuleBased {
				settings.Validation.EnableRuleBasedValidation = false
			}
			if skipDistribution {
				settings.Validation.EnableDistributionBasedValidation = false
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source := connector.NewDatabaseConnector(newConnectorOptions("source", settings.Databases.Source), logger)
			target := connector.NewDatabaseConnector(newConnectorOptions("target", settings.Databases.Target), logger)

			// Validate the resolved connection parameters (a full DSN
			// bypasses the individual parts)
			for _, side := range []*connector.DatabaseConnector{source, target} {
				if side.Opts.DSN != "" {
					continue
				}
				if !utils.ValidateConnectionParams(side.Opts.Host, side.Opts.User, side.Opts.Password, side.Opts.Database, side.Opts.Port, logger) {
					logger.Errorf("Invalid %s connection parameters", side.Label())
					os.Exit(1)
				}
			}

			if err := source.Connect(ctx); err != nil {
				logger.Errorf("Failed to connect to source database: %v", err)
				os.Exit(1)
			}
			defer source.Disconnect()

			if err := target.Connect(ctx); err != nil {
				logger.Errorf("Failed to connect to target database: %v", err)
				os.Exit(1)
			}
			defer target.Disconnect()

			v := validator.New(source, target, validator.DefaultTypeCompatibility(), settings, logger)

			result, err := v.ValidateTransition(ctx, settings.TableMappings)
			if err != nil {
				logger.Errorf("Validation run failed: %v", err)
				os.Exit(1)
			}

			report.WriteSchemaReport(os.Stdout, result)
			report.WriteRowCountReport(os.Stdout, result, settings.ReportSorting.RowCountReport)
			report.WriteDataMatchReport(os.Stdout, result)
			utils.PrintSummary(result)

			if outputFile != "" {
				if err := report.WriteJSON(outputFile, result); err != nil {
					logger.Errorf("Failed to write report: %v", err)
					os.Exit(1)
				}
				logger.Infof("Report written to %s", outputFile)
			}

			if result.OverallStatus() == models.SeverityFail {
				os.Exit(1)
			}
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "settings.yaml", "Path to the YAML settings file")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the full validation result as JSON to this file")
	rootCmd.Flags().IntVarP(&sampleSize, "sample-size", "s", 0, "Override the number of rows sampled per table")
	rootCmd.Flags().IntVarP(&maxWorkers, "max-workers", "w", 0, "Override the number of concurrent validation workers")
	rootCmd.Flags().BoolVar(&skipSchema, "skip-schema", false, "Skip schema validation")
	rootCmd.Flags().BoolVar(&skipData, "skip-data", false, "Skip data validation")
	rootCmd.Flags().BoolVar(&skipRowCount, "skip-row-count", false, "Skip row count validation")
	rootCmd.Flags().BoolVar(&skipRuleBased, "skip-rule-based", false, "Skip rule based data validation")
	rootCmd.Flags().BoolVar(&skipDistribution, "skip-distribution", false, "Skip distribution based data validation")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
