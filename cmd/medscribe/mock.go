package main

import (
	"context"
	"strings"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Deterministic offline capabilities for --mock runs and demos. They scan
// the transcript instead of calling model services, so output is stable
// across runs of the same input.

var mockLexicon = []struct {
	term  string
	label string
}{
	{"neck pain", "Sign_symptom"},
	{"back pain", "Sign_symptom"},
	{"backache", "Sign_symptom"},
	{"headache", "Sign_symptom"},
	{"dizziness", "Sign_symptom"},
	{"whiplash", "Disease_disorder"},
	{"hypertension", "Disease_disorder"},
	{"physiotherapy", "Therapeutic_procedure"},
	{"painkillers", "Medication"},
	{"ibuprofen", "Medication"},
	{"x-ray", "Diagnostic_procedure"},
	{"neck", "Biological_structure"},
	{"spine", "Biological_structure"},
}

type mockLabeler struct{}

func (mockLabeler) LabelSpans(_ context.Context, text string) ([]types.RawEntitySpan, error) {
	lower := strings.ToLower(text)
	var spans []types.RawEntitySpan
	for _, entry := range mockLexicon {
		idx := 0
		for {
			pos := strings.Index(lower[idx:], entry.term)
			if pos < 0 {
				break
			}
			start := idx + pos
			spans = append(spans, types.RawEntitySpan{
				Text:       text[start : start+len(entry.term)],
				Label:      entry.label,
				Confidence: 0.92,
				Start:      start,
				End:        start + len(entry.term),
			})
			idx = start + len(entry.term)
		}
	}
	return spans, nil
}

type mockClassifier struct{}

func (mockClassifier) ClassifySentiment(_ context.Context, text string) (string, float64, error) {
	lower := strings.ToLower(text)
	for _, w := range []string{"worried", "scared", "anxious", "afraid", "pain"} {
		if strings.Contains(lower, w) {
			return "NEGATIVE", 0.9, nil
		}
	}
	for _, w := range []string{"better", "improving", "relieved", "great"} {
		if strings.Contains(lower, w) {
			return "POSITIVE", 0.9, nil
		}
	}
	return "NEUTRAL", 0.6, nil
}

type mockGenerator struct{}

func (mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "PRIMARY intent"):
		return "Reporting symptoms", nil
	case strings.Contains(prompt, "SOAP note"):
		return `{
  "Subjective": {"Chief_Complaint": "Not documented", "History_of_Present_Illness": "Not documented"},
  "Objective": {"Physical_Exam": "Not documented", "Observations": "Patient communicative during visit"},
  "Assessment": {"Diagnosis": "See transcript", "Severity": "Not documented"},
  "Plan": {"Treatment": "Not documented", "Follow-Up": "As advised"}
}`, nil
	default:
		return `{
  "Patient_Name": "Unknown",
  "Symptoms": [],
  "Diagnosis": "See transcript",
  "Treatment": [],
  "Current_Status": "Unknown",
  "Prognosis": "Unknown"
}`, nil
	}
}
