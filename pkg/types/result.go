package types

import "time"

// ConsolidatedResult is the single record produced by one pipeline run.
// It is assembled once by the orchestrator at the merge stage and is
// immutable afterwards; persistence is handled by the caller.
type ConsolidatedResult struct {
	RunID        string          `json:"run_id"`
	SourceFile   string          `json:"source_file,omitempty"`
	ProcessedAt  time.Time       `json:"processed_at"`
	SourceLength int             `json:"source_length"`
	Transcript   TranscriptStats `json:"metadata"`

	Entities EntityReport `json:"entities"`

	MedicalSummary MedicalSummary `json:"medical_summary"`
	SummaryStatus  RecordStatus   `json:"medical_summary_status"`

	SentimentIntent SentimentIntent `json:"sentiment_intent"`
	SentimentStatus RecordStatus    `json:"sentiment_intent_status"`

	SoapNote   SoapNote     `json:"soap_note"`
	SoapStatus RecordStatus `json:"soap_note_status"`
}

// Degraded reports whether any structured record in the result carries
// fallback defaults.
func (r *ConsolidatedResult) Degraded() bool {
	return r.SummaryStatus.Degraded || r.SentimentStatus.Degraded || r.SoapStatus.Degraded
}
