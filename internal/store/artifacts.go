package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Per-run artifact filename suffixes; each file is prefixed with the run
// timestamp so repeated runs never overwrite each other.
const (
	summaryFile   = "medical_summary.json"
	sentimentFile = "sentiment_intent.json"
	soapFile      = "soap_note.json"
	entitiesFile  = "entities.json"
	completeFile  = "complete_results.json"

	timestampLayout = "20060102_150405"
)

// WriteArtifacts writes the per-record JSON files plus the complete result
// for one run into dir. It returns the written paths.
func WriteArtifacts(dir string, res *types.ConsolidatedResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	ts := res.ProcessedAt.Format(timestampLayout)
	parts := []struct {
		name string
		data any
	}{
		{summaryFile, res.MedicalSummary},
		{sentimentFile, res.SentimentIntent},
		{soapFile, res.SoapNote},
		{entitiesFile, res.Entities},
		{completeFile, res},
	}

	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s", ts, p.name))
		data, err := json.MarshalIndent(p.data, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("marshaling %s: %w", p.name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
