package types

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerDoctor  Speaker = "doctor"
	SpeakerPatient Speaker = "patient"
	SpeakerUnknown Speaker = "unknown"
)

// Utterance is one uninterrupted speaker turn in a transcript. Utterances
// are created by the segmenter in transcript order and never mutated
// afterwards.
type Utterance struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Order   int     `json:"order"`
}

// TranscriptStats summarizes speaker attribution for one transcript.
type TranscriptStats struct {
	TotalTurns      int `json:"total_turns"`
	DoctorTurns     int `json:"doctor_turns"`
	PatientTurns    int `json:"patient_turns"`
	UnknownTurns    int `json:"unknown_turns"`
	TotalCharacters int `json:"total_characters"`
}
