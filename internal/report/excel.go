// Package report exports stored analysis runs to an Excel workbook for
// review outside the tool.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

const (
	runsSheet     = "Runs"
	entitiesSheet = "Entities"
)

var runHeaders = []any{
	"Run ID", "Source File", "Processed At", "Doctor Turns", "Patient Turns",
	"Entities", "Diagnosis", "Sentiment", "Intent", "Severity", "Degraded",
}

var entityHeaders = []any{
	"Run ID", "Entity", "Type", "Category", "Confidence",
}

// ExportExcel writes one workbook with a Runs sheet (one row per run) and
// an Entities sheet (one row per extracted entity).
func ExportExcel(path string, results []*types.ConsolidatedResult) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", runsSheet)
	if _, err := f.NewSheet(entitiesSheet); err != nil {
		return fmt.Errorf("creating entities sheet: %w", err)
	}

	if err := f.SetSheetRow(runsSheet, "A1", &runHeaders); err != nil {
		return fmt.Errorf("writing run headers: %w", err)
	}
	if err := f.SetSheetRow(entitiesSheet, "A1", &entityHeaders); err != nil {
		return fmt.Errorf("writing entity headers: %w", err)
	}

	entityRow := 2
	for i, res := range results {
		row := []any{
			res.RunID,
			res.SourceFile,
			res.ProcessedAt.Format("2006-01-02 15:04:05"),
			res.Transcript.DoctorTurns,
			res.Transcript.PatientTurns,
			res.Entities.Statistics.Total,
			res.MedicalSummary.Diagnosis,
			res.SentimentIntent.Sentiment,
			res.SentimentIntent.Intent,
			res.SoapNote.Assessment.Severity,
			res.Degraded(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing run cell: %w", err)
		}
		if err := f.SetSheetRow(runsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing run row: %w", err)
		}

		for _, e := range res.Entities.AllEntities {
			erow := []any{res.RunID, e.Text, e.Label, e.Category, e.Confidence}
			cell, err := excelize.CoordinatesToCellName(1, entityRow)
			if err != nil {
				return fmt.Errorf("computing entity cell: %w", err)
			}
			if err := f.SetSheetRow(entitiesSheet, cell, &erow); err != nil {
				return fmt.Errorf("writing entity row: %w", err)
			}
			entityRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
