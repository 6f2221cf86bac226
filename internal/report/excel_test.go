package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

func TestExportExcel(t *testing.T) {
	results := []*types.ConsolidatedResult{
		{
			RunID:       "run-1",
			SourceFile:  "visit.txt",
			ProcessedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
			Transcript:  types.TranscriptStats{DoctorTurns: 2, PatientTurns: 2},
			Entities: types.EntityReport{
				AllEntities: []types.CategorizedEntity{
					{Text: "neck pain", Label: "Sign_symptom", Category: "symptoms", Confidence: 0.95},
					{Text: "whiplash injury", Label: "Disease_disorder", Category: "diseases", Confidence: 0.91},
				},
				Statistics: types.EntityStats{Total: 2},
			},
			MedicalSummary:  types.MedicalSummary{Diagnosis: "Whiplash injury"},
			SentimentIntent: types.SentimentIntent{Sentiment: "Anxious", Intent: "Reporting symptoms"},
			SoapNote:        types.SoapNote{Assessment: types.SoapAssessment{Severity: "Mild"}},
		},
		{
			RunID:       "run-2",
			SourceFile:  "followup.txt",
			ProcessedAt: time.Date(2026, 3, 21, 10, 0, 0, 0, time.UTC),
			Entities:    types.EntityReport{Statistics: types.EntityStats{Total: 0}},
		},
	}

	path := filepath.Join(t.TempDir(), "runs.xlsx")
	require.NoError(t, ExportExcel(path, results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Runs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Run ID", rows[0][0])
	assert.Equal(t, "run-1", rows[1][0])
	assert.Equal(t, "Whiplash injury", rows[1][6])
	assert.Equal(t, "Anxious", rows[1][7])
	assert.Equal(t, "run-2", rows[2][0])

	entities, err := f.GetRows("Entities")
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, "neck pain", entities[1][1])
	assert.Equal(t, "symptoms", entities[1][3])
	assert.Equal(t, "run-1", entities[2][0])
}
