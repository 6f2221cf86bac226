package structured

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

func TestMain(m *testing.M) {
	retryInitialInterval = time.Millisecond
	os.Exit(m.Run())
}

// stubGenerator answers each prompt by keyword, so one stub can serve the
// summary, intent, and SOAP calls of a full extraction.
type stubGenerator struct {
	summary string
	intent  string
	soap    string
	err     error
	calls   int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "PRIMARY intent"):
		return s.intent, nil
	case strings.Contains(prompt, "SOAP note"):
		return s.soap, nil
	default:
		return s.summary, nil
	}
}

// stubClassifier returns a fixed sentiment classification.
type stubClassifier struct {
	label string
	score float64
	err   error
}

func (s *stubClassifier) ClassifySentiment(_ context.Context, _ string) (string, float64, error) {
	return s.label, s.score, s.err
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testExtractor(gen Generator, cls Classifier) *Extractor {
	cfg := types.DefaultConfig()
	cfg.Generative.MaxRetries = 0 // single attempt, no backoff sleeps
	return NewExtractor(gen, cls, cfg.Generative, cfg.Sentiment, testLog())
}

const goodSummary = `{
  "Patient_Name": "Ms. Jones",
  "Symptoms": ["neck pain"],
  "Diagnosis": "Whiplash injury",
  "Treatment": ["physiotherapy"],
  "Current_Status": "Improving",
  "Prognosis": "Full recovery"
}`

const goodSoap = `{
  "Subjective": {"Chief_Complaint": "Neck pain", "History_of_Present_Illness": "Car accident four weeks ago"},
  "Objective": {"Physical_Exam": "Full range of motion", "Observations": "No distress"},
  "Assessment": {"Diagnosis": "Whiplash injury", "Severity": "Mild"},
  "Plan": {"Treatment": "Physiotherapy", "Follow-Up": "Two weeks"}
}`

func TestExtractSummary(t *testing.T) {
	e := testExtractor(&stubGenerator{summary: goodSummary}, &stubClassifier{})

	summary, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if status.Degraded {
		t.Fatalf("status = %+v, want clean", status)
	}
	if summary.Diagnosis != "Whiplash injury" {
		t.Errorf("Diagnosis = %q", summary.Diagnosis)
	}
}

func TestExtractSummaryMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json at all", "I'm sorry, I can't help with that."},
		{"truncated json", `{"Patient_Name": "Ms. Jones", "Symp`},
		{"empty response", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExtractor(&stubGenerator{summary: tt.response}, &stubClassifier{})
			summary, status := e.ExtractSummary(context.Background(), "transcript", nil)

			if !reflect.DeepEqual(summary, defaultSummary()) {
				t.Errorf("summary = %+v, want full defaults", summary)
			}
			if !status.Degraded {
				t.Error("record not flagged degraded")
			}
			if !reflect.DeepEqual(status.DegradedFields, summaryFieldNames()) {
				t.Errorf("DegradedFields = %v, want all fields", status.DegradedFields)
			}
		})
	}
}

func TestExtractSummaryOneFieldMissing(t *testing.T) {
	resp := `{
  "Patient_Name": "Ms. Jones",
  "Symptoms": ["neck pain"],
  "Treatment": ["physiotherapy"],
  "Current_Status": "Improving",
  "Prognosis": "Full recovery"
}`
	e := testExtractor(&stubGenerator{summary: resp}, &stubClassifier{})

	summary, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if !reflect.DeepEqual(status.DegradedFields, []string{"Diagnosis"}) {
		t.Fatalf("DegradedFields = %v, want only Diagnosis", status.DegradedFields)
	}
	if summary.Diagnosis != "Unknown" {
		t.Errorf("Diagnosis = %q, want default", summary.Diagnosis)
	}
	if summary.PatientName != "Ms. Jones" {
		t.Errorf("PatientName = %q, extracted value lost", summary.PatientName)
	}
}

func TestExtractSummaryFencedResponse(t *testing.T) {
	e := testExtractor(&stubGenerator{summary: "```json\n" + goodSummary + "\n```"}, &stubClassifier{})

	summary, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if status.Degraded {
		t.Fatalf("status = %+v, want clean", status)
	}
	if summary.PatientName != "Ms. Jones" {
		t.Errorf("PatientName = %q", summary.PatientName)
	}
}

func TestExtractSummaryGeneratorError(t *testing.T) {
	e := testExtractor(&stubGenerator{err: fmt.Errorf("gateway down")}, &stubClassifier{})

	summary, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if !reflect.DeepEqual(summary, defaultSummary()) || !status.Degraded {
		t.Fatalf("summary = %+v status = %+v, want full default degraded", summary, status)
	}
}

func TestGenerateClientErrorNotRetried(t *testing.T) {
	gen := &stubGenerator{err: &types.CapabilityError{
		Capability: "generative",
		Status:     403,
		Err:        fmt.Errorf("gemini API returned 403: invalid key"),
	}}
	cfg := types.DefaultConfig()
	e := NewExtractor(gen, &stubClassifier{}, cfg.Generative, cfg.Sentiment, testLog())

	summary, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if gen.calls != 1 {
		t.Errorf("generator called %d times for a client error, want 1", gen.calls)
	}
	if !reflect.DeepEqual(summary, defaultSummary()) || !status.Degraded {
		t.Errorf("summary = %+v status = %+v, want full default degraded", summary, status)
	}
}

func TestGenerateTransientErrorRetried(t *testing.T) {
	gen := &stubGenerator{err: &types.CapabilityError{
		Capability: "generative",
		Status:     500,
		Err:        fmt.Errorf("gemini API returned 500: internal"),
	}}
	cfg := types.DefaultConfig()
	cfg.Generative.MaxRetries = 2
	e := NewExtractor(gen, &stubClassifier{}, cfg.Generative, cfg.Sentiment, testLog())

	_, status := e.ExtractSummary(context.Background(), "transcript", nil)
	if gen.calls != 3 {
		t.Errorf("generator called %d times for a server error, want 3", gen.calls)
	}
	if !status.Degraded {
		t.Error("record not flagged degraded")
	}
}

func TestSentimentMapping(t *testing.T) {
	tests := []struct {
		label string
		score float64
		want  string
	}{
		{"NEGATIVE", 0.9, "Anxious"},
		{"POSITIVE", 0.5, "Neutral"}, // below 0.65 threshold
		{"POSITIVE", 0.9, "Reassured"},
		{"POSITIVE", 0.65, "Reassured"}, // threshold inclusive
		{"NEGATIVE", 0.64, "Neutral"},
		{"negative", 0.9, "Anxious"}, // label case-insensitive
		{"LABEL_1", 0.99, "Neutral"}, // unknown label
	}

	cfg := types.DefaultConfig().Sentiment
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%v", tt.label, tt.score), func(t *testing.T) {
			if got := mapSentiment(tt.label, tt.score, cfg); got != tt.want {
				t.Errorf("mapSentiment(%s, %v) = %q, want %q", tt.label, tt.score, got, tt.want)
			}
		})
	}
}

func TestAnalyzeSentimentIntent(t *testing.T) {
	e := testExtractor(
		&stubGenerator{intent: "Reporting symptoms"},
		&stubClassifier{label: "NEGATIVE", score: 0.9},
	)

	si, status := e.AnalyzeSentimentIntent(context.Background(), []string{"My neck hurts."})
	if status.Degraded {
		t.Fatalf("status = %+v, want clean", status)
	}
	if si.Sentiment != "Anxious" {
		t.Errorf("Sentiment = %q, want Anxious", si.Sentiment)
	}
	if si.Intent != "Reporting symptoms" {
		t.Errorf("Intent = %q", si.Intent)
	}
}

func TestAnalyzeSentimentIntentIntentRecovery(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		degraded bool
	}{
		{"exact label", "Seeking reassurance", "Seeking reassurance", false},
		{"label embedded in prose", "The patient is clearly seeking reassurance here.", "Seeking reassurance", false},
		{"unrecognized answer", "The patient wants a second opinion.", defaultIntent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExtractor(&stubGenerator{intent: tt.response}, &stubClassifier{label: "POSITIVE", score: 0.9})
			si, status := e.AnalyzeSentimentIntent(context.Background(), []string{"Will I be okay?"})
			if si.Intent != tt.want {
				t.Errorf("Intent = %q, want %q", si.Intent, tt.want)
			}
			if status.Degraded != tt.degraded {
				t.Errorf("Degraded = %v, want %v (%+v)", status.Degraded, tt.degraded, status)
			}
		})
	}
}

func TestAnalyzeSentimentIntentClassifierFailure(t *testing.T) {
	e := testExtractor(
		&stubGenerator{intent: "Asking questions"},
		&stubClassifier{err: fmt.Errorf("classifier down")},
	)

	si, status := e.AnalyzeSentimentIntent(context.Background(), []string{"What does this mean?"})
	if si.Sentiment != defaultSentiment {
		t.Errorf("Sentiment = %q, want default", si.Sentiment)
	}
	if si.Intent != "Asking questions" {
		t.Errorf("Intent = %q, intent must survive a sentiment failure", si.Intent)
	}
	if !reflect.DeepEqual(status.DegradedFields, []string{"Sentiment"}) {
		t.Errorf("DegradedFields = %v, want only Sentiment", status.DegradedFields)
	}
}

func TestAnalyzeSentimentIntentNoPatientUtterances(t *testing.T) {
	e := testExtractor(&stubGenerator{}, &stubClassifier{})

	si, status := e.AnalyzeSentimentIntent(context.Background(), nil)
	if si.Sentiment != defaultSentiment || si.Intent != defaultIntent {
		t.Errorf("record = %+v, want defaults", si)
	}
	if !status.Degraded {
		t.Error("record not flagged degraded")
	}
}

func TestGenerateSoap(t *testing.T) {
	e := testExtractor(&stubGenerator{soap: goodSoap}, &stubClassifier{})

	note, status := e.GenerateSoap(context.Background(), "transcript", nil, types.TranscriptStats{DoctorTurns: 3, PatientTurns: 4})
	if status.Degraded {
		t.Fatalf("status = %+v, want clean", status)
	}
	if note.Assessment.Severity != "Mild" {
		t.Errorf("Severity = %q", note.Assessment.Severity)
	}
}

func TestGenerateSoapMalformed(t *testing.T) {
	e := testExtractor(&stubGenerator{soap: "not json"}, &stubClassifier{})

	note, status := e.GenerateSoap(context.Background(), "transcript", nil, types.TranscriptStats{})
	if !reflect.DeepEqual(note, defaultSoap()) {
		t.Errorf("note = %+v, want full defaults", note)
	}
	if !reflect.DeepEqual(status.DegradedFields, soapFieldPaths()) {
		t.Errorf("DegradedFields = %v, want all paths", status.DegradedFields)
	}
}

func TestExtractFullRun(t *testing.T) {
	gen := &stubGenerator{summary: goodSummary, intent: "Expressing improvement", soap: goodSoap}
	e := testExtractor(gen, &stubClassifier{label: "POSITIVE", score: 0.9})

	entities := make(chan types.EntityReport, 1)
	entities <- types.EntityReport{AllEntities: []types.CategorizedEntity{
		{Text: "neck pain", Label: "Sign_symptom", Category: "symptoms", Confidence: 0.95},
	}}
	close(entities)

	res, err := e.Extract(context.Background(), "Doctor: How are you?\nPatient: Better.",
		[]string{"Better."}, types.TranscriptStats{DoctorTurns: 1, PatientTurns: 1}, entities)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Summary.Diagnosis != "Whiplash injury" {
		t.Errorf("Diagnosis = %q", res.Summary.Diagnosis)
	}
	if res.Sentiment.Sentiment != "Reassured" || res.Sentiment.Intent != "Expressing improvement" {
		t.Errorf("SentimentIntent = %+v", res.Sentiment)
	}
	if res.Soap.Plan.FollowUp != "Two weeks" {
		t.Errorf("FollowUp = %q", res.Soap.Plan.FollowUp)
	}
	if res.SummaryStatus.Degraded || res.SentimentStatus.Degraded || res.SoapStatus.Degraded {
		t.Errorf("unexpected degraded statuses: %+v %+v %+v", res.SummaryStatus, res.SentimentStatus, res.SoapStatus)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
}

func TestExtractNilEntityChannel(t *testing.T) {
	e := testExtractor(&stubGenerator{summary: goodSummary, intent: "Neutral update", soap: goodSoap}, &stubClassifier{label: "POSITIVE", score: 0.3})

	res, err := e.Extract(context.Background(), "transcript", []string{"hello"}, types.TranscriptStats{}, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Sentiment.Sentiment != "Neutral" {
		t.Errorf("Sentiment = %q, want Neutral for sub-threshold score", res.Sentiment.Sentiment)
	}
}
