package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BCVRaj/Emitrr/internal/report"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored runs to an Excel workbook",
	Long: `Export writes all stored runs into one workbook: a Runs sheet with one
row per run and an Entities sheet with one row per extracted entity.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "runs.xlsx", "output workbook path")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs stored")
	}

	results := make([]*types.ConsolidatedResult, 0, len(runs))
	for _, r := range runs {
		res, err := db.GetRun(ctx, r.RunID)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	out, _ := cmd.Flags().GetString("out")
	if err := report.ExportExcel(out, results); err != nil {
		return err
	}
	fmt.Printf("exported %d run(s) to %s\n", len(results), out)
	return nil
}
