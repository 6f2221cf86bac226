// Package structured populates schema-defined records (medical summary,
// sentiment and intent, SOAP note) from a generative model and a local
// sentiment classifier.
//
// Each schema is a declared field table with per-field defaults. Validation
// is per-field: a missing or wrongly shaped field falls back to its default
// without invalidating the rest of the record, and every fallback is
// recorded in the record's status so consumers can tell real extractions
// from defaults.
package structured

import (
	"strings"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// fieldKind describes the shape a schema field accepts.
type fieldKind int

const (
	kindString fieldKind = iota
	kindStringList
)

// fieldSpec declares one schema field: its wire name, shape, and the
// description used when building prompts. Defaults live in defaultSummary
// and defaultSoap so they are part of the record construction contract.
type fieldSpec struct {
	name string
	kind fieldKind
	desc string
}

// summaryFields is the medical summary schema.
var summaryFields = []fieldSpec{
	{name: "Patient_Name", kind: kindString, desc: "patient name if mentioned, otherwise 'Unknown' (string)"},
	{name: "Symptoms", kind: kindStringList, desc: `["list", "of", "symptoms"]`},
	{name: "Diagnosis", kind: kindString, desc: "primary diagnosis (single string, not array)"},
	{name: "Treatment", kind: kindStringList, desc: `["list", "of", "treatments/medications"]`},
	{name: "Current_Status", kind: kindString, desc: "patient's current condition/status (string)"},
	{name: "Prognosis", kind: kindString, desc: "expected outcome/recovery (string)"},
}

// soapSection declares one SOAP section and its sub-fields. All SOAP fields
// are strings defaulting to "Not documented".
type soapSection struct {
	name   string
	fields []soapField
}

type soapField struct {
	name string
	desc string
}

const soapDefault = "Not documented"

// soapSections is the SOAP note schema in output order.
var soapSections = []soapSection{
	{name: "Subjective", fields: []soapField{
		{name: "Chief_Complaint", desc: "patient's main complaint (string)"},
		{name: "History_of_Present_Illness", desc: "patient's history and symptoms description (string)"},
	}},
	{name: "Objective", fields: []soapField{
		{name: "Physical_Exam", desc: "physical examination findings (string)"},
		{name: "Observations", desc: "clinical observations (string)"},
	}},
	{name: "Assessment", fields: []soapField{
		{name: "Diagnosis", desc: "medical diagnosis (string)"},
		{name: "Severity", desc: "severity level (e.g., Mild, Moderate, Severe) (string)"},
	}},
	{name: "Plan", fields: []soapField{
		{name: "Treatment", desc: "treatment plan and interventions (string)"},
		{name: "Follow-Up", desc: "follow-up instructions (string)"},
	}},
}

// Sentiment and intent defaults. Sentiment comes from the local classifier,
// intent from the generative capability; neither goes through JSON parsing.
const (
	defaultSentiment = "Neutral"
	defaultIntent    = "Unknown"
)

// defaultSummary returns the full fallback medical summary.
func defaultSummary() types.MedicalSummary {
	return types.MedicalSummary{
		PatientName:   "Unknown",
		Symptoms:      []string{},
		Diagnosis:     "Unknown",
		Treatment:     []string{},
		CurrentStatus: "Unknown",
		Prognosis:     "Unknown",
	}
}

// defaultSoap returns the full fallback SOAP note.
func defaultSoap() types.SoapNote {
	return types.SoapNote{
		Subjective: types.SoapSubjective{ChiefComplaint: soapDefault, History: soapDefault},
		Objective:  types.SoapObjective{PhysicalExam: soapDefault, Observations: soapDefault},
		Assessment: types.SoapAssessment{Diagnosis: soapDefault, Severity: soapDefault},
		Plan:       types.SoapPlan{Treatment: soapDefault, FollowUp: soapDefault},
	}
}

// summaryFieldNames lists the summary schema's field names in order.
func summaryFieldNames() []string {
	names := make([]string, len(summaryFields))
	for i, f := range summaryFields {
		names[i] = f.name
	}
	return names
}

// soapFieldPaths lists every SOAP field as "Section.Field" in order.
func soapFieldPaths() []string {
	var paths []string
	for _, sec := range soapSections {
		for _, f := range sec.fields {
			paths = append(paths, sec.name+"."+f.name)
		}
	}
	return paths
}

// validateSummary checks a parsed response against the summary schema.
// Fields that are absent or of the wrong shape are replaced with their
// defaults individually; the returned list names every defaulted field.
func validateSummary(raw map[string]any) (types.MedicalSummary, []string) {
	out := defaultSummary()
	var degraded []string

	for _, f := range summaryFields {
		v, ok := extractField(raw, f)
		if !ok {
			degraded = append(degraded, f.name)
			continue
		}
		switch f.name {
		case "Patient_Name":
			out.PatientName = v.(string)
		case "Symptoms":
			out.Symptoms = v.([]string)
		case "Diagnosis":
			out.Diagnosis = v.(string)
		case "Treatment":
			out.Treatment = v.([]string)
		case "Current_Status":
			out.CurrentStatus = v.(string)
		case "Prognosis":
			out.Prognosis = v.(string)
		}
	}
	return out, degraded
}

// validateSoap checks a parsed response against the SOAP schema. A section
// of the wrong shape defaults every field it contains; a well-shaped section
// defaults missing or empty sub-fields only.
func validateSoap(raw map[string]any) (types.SoapNote, []string) {
	out := defaultSoap()
	var degraded []string

	for _, sec := range soapSections {
		section, ok := raw[sec.name].(map[string]any)
		if !ok {
			for _, f := range sec.fields {
				degraded = append(degraded, sec.name+"."+f.name)
			}
			continue
		}
		for _, f := range sec.fields {
			s, ok := section[f.name].(string)
			if !ok || strings.TrimSpace(s) == "" {
				degraded = append(degraded, sec.name+"."+f.name)
				continue
			}
			setSoapField(&out, sec.name, f.name, s)
		}
	}
	return out, degraded
}

// setSoapField writes one validated value into the typed note.
func setSoapField(note *types.SoapNote, section, field, value string) {
	switch section + "." + field {
	case "Subjective.Chief_Complaint":
		note.Subjective.ChiefComplaint = value
	case "Subjective.History_of_Present_Illness":
		note.Subjective.History = value
	case "Objective.Physical_Exam":
		note.Objective.PhysicalExam = value
	case "Objective.Observations":
		note.Objective.Observations = value
	case "Assessment.Diagnosis":
		note.Assessment.Diagnosis = value
	case "Assessment.Severity":
		note.Assessment.Severity = value
	case "Plan.Treatment":
		note.Plan.Treatment = value
	case "Plan.Follow-Up":
		note.Plan.FollowUp = value
	}
}

// extractField pulls one field out of the parsed response, coercing to the
// declared shape. The second return is false when the field is absent,
// empty, or wrongly shaped.
func extractField(raw map[string]any, f fieldSpec) (any, bool) {
	v, present := raw[f.name]
	if !present {
		return nil, false
	}
	switch f.kind {
	case kindString:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		return s, true
	case kindStringList:
		items, ok := v.([]any)
		if !ok {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
