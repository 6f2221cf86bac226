// Package entity runs the biomedical sequence-labeling capability over
// transcript text and reduces the raw spans to a filtered, deduplicated,
// categorized report.
//
// Input longer than the configured character limit is truncated, not
// chunked: entities past the limit are not recovered.
package entity

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Labeler abstracts the biomedical NER capability so tests can supply a
// mock. One call labels one (already truncated) block of text.
type Labeler interface {
	LabelSpans(ctx context.Context, text string) ([]types.RawEntitySpan, error)
}

// Extractor produces an EntityReport from transcript text.
type Extractor struct {
	labeler Labeler
	cfg     types.NERConfig
	log     *logrus.Entry
}

// NewExtractor wires a labeler to the extraction settings.
func NewExtractor(labeler Labeler, cfg types.NERConfig, log *logrus.Entry) *Extractor {
	return &Extractor{labeler: labeler, cfg: cfg, log: log}
}

// Extract invokes the labeler once on the truncated input and builds the
// report. An empty report is a valid outcome; an error means the capability
// itself failed and the caller decides whether to degrade or abort.
func (e *Extractor) Extract(ctx context.Context, text string) (types.EntityReport, error) {
	if len(text) > e.cfg.MaxChars {
		e.log.WithFields(logrus.Fields{
			"chars": len(text),
			"limit": e.cfg.MaxChars,
		}).Warn("transcript exceeds NER limit, truncating")
		text = text[:e.cfg.MaxChars]
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.labeler.LabelSpans(ctx, text)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.EntityReport{}, &types.CapabilityError{Capability: "ner", Timeout: true, Err: err}
		}
		return types.EntityReport{}, &types.CapabilityError{Capability: "ner", Err: err}
	}

	kept := e.filter(raw)
	deduped := dedupe(kept)
	report := e.categorize(deduped)

	e.log.WithFields(logrus.Fields{
		"raw":  len(raw),
		"kept": report.Statistics.Total,
	}).Info("entity extraction complete")
	return report, nil
}

// filter drops spans below the confidence threshold or at or under the
// minimum text length.
func (e *Extractor) filter(spans []types.RawEntitySpan) []types.RawEntitySpan {
	kept := make([]types.RawEntitySpan, 0, len(spans))
	for _, sp := range spans {
		if sp.Confidence < e.cfg.ConfidenceThreshold {
			continue
		}
		text := strings.TrimSpace(sp.Text)
		if len(text) <= e.cfg.MinEntityLength {
			continue
		}
		sp.Text = text
		kept = append(kept, sp)
	}
	return kept
}

// dedupe collapses spans that share the same lowercased text. The surviving
// span keeps the first-seen surface text and offsets and the maximum
// confidence; when distinct labels occur for the same text, the label of the
// highest-confidence occurrence wins, first seen on ties. dedupe is
// idempotent: applying it to its own output changes nothing.
func dedupe(spans []types.RawEntitySpan) []types.RawEntitySpan {
	index := make(map[string]int, len(spans))
	out := make([]types.RawEntitySpan, 0, len(spans))

	for _, sp := range spans {
		key := strings.ToLower(sp.Text)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, sp)
			continue
		}
		if sp.Confidence > out[i].Confidence {
			out[i].Confidence = sp.Confidence
			out[i].Label = sp.Label
		}
	}
	return out
}

// categorize maps each span's label through the ordered category table and
// computes the report statistics.
func (e *Extractor) categorize(spans []types.RawEntitySpan) types.EntityReport {
	report := types.EmptyEntityReport(e.cfg.CategoryNames())

	var sum float64
	for _, sp := range spans {
		cat := e.categoryFor(sp.Label)
		ent := types.CategorizedEntity{
			Text:       sp.Text,
			Label:      sp.Label,
			Category:   cat,
			Confidence: sp.Confidence,
			Start:      sp.Start,
			End:        sp.End,
		}
		report.AllEntities = append(report.AllEntities, ent)
		report.Categorized[cat] = append(report.Categorized[cat], ent)
		report.Statistics.ByCategory[cat]++
		sum += sp.Confidence
	}

	report.Statistics.Total = len(report.AllEntities)
	if report.Statistics.Total > 0 {
		report.Statistics.AverageConfidence = sum / float64(report.Statistics.Total)
	}
	return report
}

// categoryFor finds the first configured category whose label keyword
// appears in the span label. Unmapped labels land in the default category
// rather than being dropped.
func (e *Extractor) categoryFor(label string) string {
	upper := strings.ToUpper(label)
	for _, m := range e.cfg.Categories {
		for _, kw := range m.Labels {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				return m.Name
			}
		}
	}
	return e.cfg.DefaultCategory
}

// TopEntities returns up to n entities ordered by descending confidence,
// for inclusion in generative prompts.
func TopEntities(report types.EntityReport, n int) []types.CategorizedEntity {
	ents := make([]types.CategorizedEntity, len(report.AllEntities))
	copy(ents, report.AllEntities)
	sort.SliceStable(ents, func(i, j int) bool {
		return ents[i].Confidence > ents[j].Confidence
	})
	if len(ents) > n {
		ents = ents[:n]
	}
	return ents
}
