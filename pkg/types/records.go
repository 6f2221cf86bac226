package types

// Structured records extracted from a transcript. JSON field names match the
// persisted artifact format consumed by downstream tooling; renaming a field
// here is a breaking change.

// MedicalSummary is the condensed clinical picture of one visit.
type MedicalSummary struct {
	PatientName   string   `json:"Patient_Name"`
	Symptoms      []string `json:"Symptoms"`
	Diagnosis     string   `json:"Diagnosis"`
	Treatment     []string `json:"Treatment"`
	CurrentStatus string   `json:"Current_Status"`
	Prognosis     string   `json:"Prognosis"`
}

// SentimentIntent labels the patient's emotional state and primary intent.
// Sentiment is one of Anxious, Neutral, Reassured; Intent is drawn from the
// configured intent label set.
type SentimentIntent struct {
	Sentiment string `json:"Sentiment"`
	Intent    string `json:"Intent"`
}

// SoapNote is a structured clinical note in SOAP format.
type SoapNote struct {
	Subjective SoapSubjective `json:"Subjective"`
	Objective  SoapObjective  `json:"Objective"`
	Assessment SoapAssessment `json:"Assessment"`
	Plan       SoapPlan       `json:"Plan"`
}

// SoapSubjective covers what the patient reports.
type SoapSubjective struct {
	ChiefComplaint string `json:"Chief_Complaint"`
	History        string `json:"History_of_Present_Illness"`
}

// SoapObjective covers what the clinician observes and measures.
type SoapObjective struct {
	PhysicalExam string `json:"Physical_Exam"`
	Observations string `json:"Observations"`
}

// SoapAssessment covers diagnosis and severity.
type SoapAssessment struct {
	Diagnosis string `json:"Diagnosis"`
	Severity  string `json:"Severity"`
}

// SoapPlan covers treatment and follow-up.
type SoapPlan struct {
	Treatment string `json:"Treatment"`
	FollowUp  string `json:"Follow-Up"`
}

// RecordStatus reports how much of a structured record came from real
// extraction versus schema defaults. A record is degraded when one or more
// of its fields fell back to the schema default; DegradedFields lists their
// paths (e.g. "Diagnosis", "Subjective.Chief_Complaint") so consumers can
// tell real extractions from fallbacks.
type RecordStatus struct {
	Degraded       bool     `json:"degraded"`
	DegradedFields []string `json:"degraded_fields,omitempty"`
}
