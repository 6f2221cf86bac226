package segment

import (
	"errors"
	"testing"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

func testSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := New(types.DefaultConfig().Segmenter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSegmentBasic(t *testing.T) {
	s := testSegmenter(t)

	utts, err := s.Segment("Doctor: Hello\nPatient: Hi")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	want := []types.Utterance{
		{Speaker: types.SpeakerDoctor, Text: "Hello", Order: 0},
		{Speaker: types.SpeakerPatient, Text: "Hi", Order: 1},
	}
	if len(utts) != len(want) {
		t.Fatalf("got %d utterances, want %d: %+v", len(utts), len(want), utts)
	}
	for i := range want {
		if utts[i] != want[i] {
			t.Errorf("utterance %d = %+v, want %+v", i, utts[i], want[i])
		}
	}
}

func TestSegmentAttribution(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Utterance
	}{
		{
			name: "alternate speaker tags",
			text: "Dr.: How are you feeling?\nPt: Much better.",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "How are you feeling?", Order: 0},
				{Speaker: types.SpeakerPatient, Text: "Much better.", Order: 1},
			},
		},
		{
			name: "consecutive same-speaker turns merge",
			text: "Patient: My neck hurts.\nPatient: And my back too.",
			want: []types.Utterance{
				{Speaker: types.SpeakerPatient, Text: "My neck hurts. And my back too.", Order: 0},
			},
		},
		{
			name: "untagged line continues the open turn",
			text: "Doctor: Take ibuprofen twice a day\nwith food.",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "Take ibuprofen twice a day with food.", Order: 0},
			},
		},
		{
			name: "untagged preamble becomes unknown",
			text: "Visit recorded 3 March.\nDoctor: Hello.",
			want: []types.Utterance{
				{Speaker: types.SpeakerUnknown, Text: "Visit recorded 3 March.", Order: 0},
				{Speaker: types.SpeakerDoctor, Text: "Hello.", Order: 1},
			},
		},
		{
			name: "whitespace normalized",
			text: "Doctor:   I  see\t some swelling.\nPatient: Yes.",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "I see some swelling.", Order: 0},
				{Speaker: types.SpeakerPatient, Text: "Yes.", Order: 1},
			},
		},
		{
			name: "bare tag interrupts the open turn",
			text: "Doctor: How are you?\nPatient:\nStill sore, honestly.",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "How are you?", Order: 0},
				{Speaker: types.SpeakerPatient, Text: "Still sore, honestly.", Order: 1},
			},
		},
		{
			name: "trailing bare tag yields no empty utterance",
			text: "Doctor: Any questions?\nPatient:",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "Any questions?", Order: 0},
			},
		},
		{
			name: "case-insensitive tags",
			text: "DOCTOR: Hello.\npatient: Hi.",
			want: []types.Utterance{
				{Speaker: types.SpeakerDoctor, Text: "Hello.", Order: 0},
				{Speaker: types.SpeakerPatient, Text: "Hi.", Order: 1},
			},
		},
	}

	s := testSegmenter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			utts, err := s.Segment(tt.text)
			if err != nil {
				t.Fatalf("Segment: %v", err)
			}
			if len(utts) != len(tt.want) {
				t.Fatalf("got %d utterances, want %d: %+v", len(utts), len(tt.want), utts)
			}
			for i := range tt.want {
				if utts[i] != tt.want[i] {
					t.Errorf("utterance %d = %+v, want %+v", i, utts[i], tt.want[i])
				}
			}
		})
	}
}

func TestSegmentNoSpeakerMatch(t *testing.T) {
	s := testSegmenter(t)

	_, err := s.Segment("just some free text\nwith no speaker tags at all")
	if !errors.Is(err, types.ErrNoSpeakerMatch) {
		t.Fatalf("err = %v, want ErrNoSpeakerMatch", err)
	}
}

func TestSegmentPatternPriority(t *testing.T) {
	// Both roles carry a pattern matching "Speaker:"; the first configured
	// role must win every time.
	cfg := types.SegmenterConfig{
		Speakers: []types.RolePatterns{
			{Role: types.SpeakerDoctor, Patterns: []string{`speaker\s*:`}},
			{Role: types.SpeakerPatient, Patterns: []string{`speaker\s*:`}},
		},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 10; i++ {
		utts, err := s.Segment("Speaker: hello")
		if err != nil {
			t.Fatalf("Segment: %v", err)
		}
		if utts[0].Speaker != types.SpeakerDoctor {
			t.Fatalf("run %d attributed to %q, want doctor", i, utts[0].Speaker)
		}
	}
}

func TestSegmentRemoveFillers(t *testing.T) {
	cfg := types.DefaultConfig().Segmenter
	cfg.RemoveFillers = true
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	utts, err := s.Segment("Patient: Um, my neck hurts, you know.")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if got, want := utts[0].Text, ", my neck hurts, ."; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestInvalidPattern(t *testing.T) {
	cfg := types.SegmenterConfig{
		Speakers: []types.RolePatterns{
			{Role: types.SpeakerDoctor, Patterns: []string{`(unclosed`}},
		},
	}
	_, err := New(cfg)
	var cerr *types.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestHelpers(t *testing.T) {
	utts := []types.Utterance{
		{Speaker: types.SpeakerDoctor, Text: "How are you?", Order: 0},
		{Speaker: types.SpeakerPatient, Text: "Fine.", Order: 1},
		{Speaker: types.SpeakerUnknown, Text: "(door opens)", Order: 2},
		{Speaker: types.SpeakerPatient, Text: "Better than last week.", Order: 3},
	}

	if got, want := FullText(utts), "How are you?\nFine.\n(door opens)\nBetter than last week."; got != want {
		t.Errorf("FullText = %q, want %q", got, want)
	}

	patient := SpeakerText(utts, types.SpeakerPatient)
	if len(patient) != 2 || patient[0] != "Fine." || patient[1] != "Better than last week." {
		t.Errorf("SpeakerText(patient) = %v", patient)
	}

	st := Stats(utts, 100)
	if st.DoctorTurns != 1 || st.PatientTurns != 2 || st.UnknownTurns != 1 || st.TotalTurns != 3 {
		t.Errorf("Stats = %+v", st)
	}
	if st.TotalCharacters != 100 {
		t.Errorf("TotalCharacters = %d, want 100", st.TotalCharacters)
	}
}
