// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Prompts are deterministic: the schema blocks are generated from the field
// tables in schema.go, so a schema change propagates to the prompts without
// touching them, and the generative call runs at low temperature.

// summaryPromptTmpl asks for the medical summary as strict JSON.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are a medical AI assistant. Analyze this medical transcript and extract key information.

TRANSCRIPT:
{{.Transcript}}

DETECTED MEDICAL ENTITIES (from NER model):
{{.Entities}}

Generate a JSON summary with these EXACT fields (must be valid JSON):
{{.Schema}}

Rules:
- Output ONLY valid JSON, nothing else
- Diagnosis must be a STRING, not an array; combine multiple diagnoses into one string
- If information is missing, use "Unknown" for strings or an empty array [] for lists
- Use the detected entities to help accuracy
- Be concise but accurate

JSON OUTPUT:`))

// soapPromptTmpl asks for the SOAP note as nested strict JSON.
var soapPromptTmpl = template.Must(template.New("soap").Parse(`You are a medical AI assistant. Generate a SOAP note from this medical transcript.

TRANSCRIPT:
{{.Transcript}}

DETECTED MEDICAL ENTITIES:
{{.Entities}}

SPEAKER INFO:
Doctor turns: {{.DoctorTurns}}, Patient turns: {{.PatientTurns}}

Generate a SOAP note in JSON format with NESTED STRUCTURE and these EXACT fields (must be valid JSON):
{{.Schema}}

SOAP Guidelines:
- Subjective: what the PATIENT reports (symptoms, history, concerns)
- Objective: what the DOCTOR observes or measures (physical exam findings)
- Assessment: the doctor's diagnosis and severity assessment
- Plan: treatment plan, medications, and follow-up schedule

CRITICAL: Output must be NESTED JSON with sub-objects, not flat strings!

Output ONLY valid JSON, nothing else.

JSON OUTPUT:`))

// intentPromptTmpl asks for exactly one label from the configured set.
var intentPromptTmpl = template.Must(template.New("intent").Parse(`You are a medical AI assistant. Analyze the patient's primary intent from their statements.

PATIENT STATEMENTS:
{{.Statements}}

Determine the patient's PRIMARY intent. Choose EXACTLY ONE from these options:
{{.Options}}

Output ONLY the intent label, nothing else.

INTENT:`))

// summarySchemaBlock renders the summary field table as a JSON skeleton.
func summarySchemaBlock() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range summaryFields {
		sep := ","
		if i == len(summaryFields)-1 {
			sep = ""
		}
		if f.kind == kindStringList {
			fmt.Fprintf(&b, "  %q: %s%s\n", f.name, f.desc, sep)
		} else {
			fmt.Fprintf(&b, "  %q: %q%s\n", f.name, f.desc, sep)
		}
	}
	b.WriteString("}")
	return b.String()
}

// soapSchemaBlock renders the SOAP section table as a nested JSON skeleton.
func soapSchemaBlock() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, sec := range soapSections {
		fmt.Fprintf(&b, "  %q: {\n", sec.name)
		for j, f := range sec.fields {
			sep := ","
			if j == len(sec.fields)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "    %q: %q%s\n", f.name, f.desc, sep)
		}
		sep := ","
		if i == len(soapSections)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  }%s\n", sep)
	}
	b.WriteString("}")
	return b.String()
}

// entityBlock formats detected entities for prompt inclusion.
func entityBlock(entities []types.CategorizedEntity) string {
	if len(entities) == 0 {
		return "(none detected)"
	}
	var b strings.Builder
	for _, e := range entities {
		fmt.Fprintf(&b, "- %s (%s, confidence: %.3f)\n", e.Text, e.Label, e.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSummaryPrompt builds the medical summary prompt.
func renderSummaryPrompt(transcript string, entities []types.CategorizedEntity) (string, error) {
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct {
		Transcript, Entities, Schema string
	}{transcript, entityBlock(entities), summarySchemaBlock()})
	if err != nil {
		return "", fmt.Errorf("rendering summary prompt: %w", err)
	}
	return buf.String(), nil
}

// renderSoapPrompt builds the SOAP note prompt.
func renderSoapPrompt(transcript string, entities []types.CategorizedEntity, stats types.TranscriptStats) (string, error) {
	var buf bytes.Buffer
	err := soapPromptTmpl.Execute(&buf, struct {
		Transcript, Entities, Schema string
		DoctorTurns, PatientTurns    int
	}{transcript, entityBlock(entities), soapSchemaBlock(), stats.DoctorTurns, stats.PatientTurns})
	if err != nil {
		return "", fmt.Errorf("rendering soap prompt: %w", err)
	}
	return buf.String(), nil
}

// renderIntentPrompt builds the intent classification prompt.
func renderIntentPrompt(statements []string, labels []string) (string, error) {
	var numbered strings.Builder
	for i, s := range statements {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, s)
	}

	var buf bytes.Buffer
	err := intentPromptTmpl.Execute(&buf, struct {
		Statements, Options string
	}{strings.TrimRight(numbered.String(), "\n"), strings.Join(labels, ", ")})
	if err != nil {
		return "", fmt.Errorf("rendering intent prompt: %w", err)
	}
	return buf.String(), nil
}
