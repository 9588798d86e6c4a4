package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Bessima/orderflow/internal/app"
	"github.com/Bessima/orderflow/internal/importer"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import --user N FILE",
	Short: "Import orders from an .xlsx or .csv file",
	Long: `Runs the file through header, product and duplicate checks and inserts
the rows. A suspended import prints its session id, finish it through the API
after fixing the catalog or assigning products.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	requireUser(importCmd)
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	application, err := app.Build(cmd.Context(), loadConfig())
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer application.Close()

	outcome, err := application.Imports.Start(cmd.Context(), userID, filepath.Base(args[0]), file)
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), outcome)
}

func printOutcome(out io.Writer, outcome *importer.Outcome) error {
	fmt.Fprintf(out, "status: %s\n", outcome.Status)
	if outcome.SessionID != "" {
		fmt.Fprintf(out, "session: %s\n", outcome.SessionID)
	}
	if outcome.Message != "" {
		fmt.Fprintf(out, "%s\n", outcome.Message)
	}

	var rows [][]string
	for _, row := range outcome.Invalid {
		rows = append(rows, []string{strconv.Itoa(row.Row), row.OrderCode, row.Reason()})
	}
	if outcome.Report != nil {
		fmt.Fprintf(out, "inserted: %d, failed: %d\n", outcome.Report.Inserted, outcome.Report.Failed)
		for _, rowErr := range outcome.Report.Errors {
			rows = append(rows, []string{strconv.Itoa(rowErr.Row), rowErr.OrderCode, rowErr.Error})
		}
		for _, warning := range outcome.Report.Warnings {
			rows = append(rows, []string{strconv.Itoa(warning.Row), warning.OrderCode, "warning: " + warning.Error})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Row", "Order code", "Problem")
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
