package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/link-planner/internal/schemas"
	reportschema "github.com/jonathan/link-planner/schemas"
)

var validateReportCmd = &cobra.Command{
	Use:   "validate-report",
	Short: "Validate a report JSON file against the link report schema",
	Long:  "Validates a JSON report written by 'run' against schemas/link_report.schema.json. The embedded copy of the schema is used unless --schema is given.",
	RunE:  runValidateReport,
}

var (
	validateJSONPath   string
	validateSchemaPath string
)

func init() {
	validateReportCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to the report JSON file (required)")
	validateReportCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a schema file (defaults to the embedded link report schema)")

	if err := validateReportCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateReportCmd)
}

func runValidateReport(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(validateJSONPath); err != nil {
		return fmt.Errorf("report file %s: %w", validateJSONPath, err)
	}

	var err error
	if validateSchemaPath != "" {
		err = schemas.ValidateJSON(validateSchemaPath, validateJSONPath)
	} else {
		err = schemas.ValidateFileAgainst(reportschema.LinkReport, validateJSONPath)
	}

	out := cmd.OutOrStdout()
	if err != nil {
		_, _ = fmt.Fprintf(out, "Validation failed: %v\n", err)
		return fmt.Errorf("%s does not match the link report schema", validateJSONPath)
	}

	_, _ = fmt.Fprintf(out, "Validation passed: %s\n", validateJSONPath)
	return nil
}
