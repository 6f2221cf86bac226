package structured

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/BCVRaj/Emitrr/internal/entity"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Generator abstracts the external generative model so tests can supply a
// stub. One call turns one prompt into raw model text; the output is
// non-deterministic and may be malformed, which is why every parse path
// below has a fallback.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result bundles the three structured records with their statuses.
type Result struct {
	Summary         types.MedicalSummary
	SummaryStatus   types.RecordStatus
	Sentiment       types.SentimentIntent
	SentimentStatus types.RecordStatus
	Soap            types.SoapNote
	SoapStatus      types.RecordStatus
}

// Extractor populates the structured records. The contract is
// schema-conformance, not value-reproducibility: every returned record
// contains exactly its schema's field set, with defaults standing in for
// anything the capabilities failed to produce.
type Extractor struct {
	gen  Generator
	cls  Classifier
	gcfg types.GenerativeConfig
	scfg types.SentimentConfig
	log  *logrus.Entry
}

// NewExtractor wires the generative and classifier capabilities to the
// extraction settings.
func NewExtractor(gen Generator, cls Classifier, gcfg types.GenerativeConfig, scfg types.SentimentConfig, log *logrus.Entry) *Extractor {
	return &Extractor{gen: gen, cls: cls, gcfg: gcfg, scfg: scfg, log: log}
}

// Extract produces all three records. Sentiment and intent run first
// because they need no entity context; the entity report is then read from
// the channel (the entity branch runs concurrently) before the
// entity-informed summary and SOAP prompts are built. A nil or closed-empty
// channel simply yields entity-free prompts.
func (e *Extractor) Extract(ctx context.Context, transcript string, patient []string, stats types.TranscriptStats, entities <-chan types.EntityReport) (Result, error) {
	var res Result

	res.Sentiment, res.SentimentStatus = e.AnalyzeSentimentIntent(ctx, patient)

	var report types.EntityReport
	if entities != nil {
		report = <-entities
	}
	top := entity.TopEntities(report, e.gcfg.TopEntities)

	res.Summary, res.SummaryStatus = e.ExtractSummary(ctx, transcript, top)
	res.Soap, res.SoapStatus = e.GenerateSoap(ctx, transcript, top, stats)

	return res, ctx.Err()
}

// ExtractSummary generates and validates the medical summary record.
func (e *Extractor) ExtractSummary(ctx context.Context, transcript string, entities []types.CategorizedEntity) (types.MedicalSummary, types.RecordStatus) {
	prompt, err := renderSummaryPrompt(truncate(transcript, e.gcfg.MaxChars), entities)
	if err != nil {
		e.log.WithError(err).Error("summary prompt failed, using defaults")
		return defaultSummary(), degradedAll(summaryFieldNames())
	}

	text, err := e.generate(ctx, prompt)
	if err != nil {
		e.log.WithError(err).Warn("summary generation failed, using defaults")
		return defaultSummary(), degradedAll(summaryFieldNames())
	}

	raw, ok := parseObject(text)
	if !ok {
		e.log.Warn("summary response unparseable, using defaults")
		return defaultSummary(), degradedAll(summaryFieldNames())
	}

	summary, degraded := validateSummary(raw)
	if len(degraded) > 0 {
		e.log.WithField("fields", degraded).Warn("summary fields defaulted")
	}
	return summary, types.RecordStatus{Degraded: len(degraded) > 0, DegradedFields: degraded}
}

// AnalyzeSentimentIntent classifies patient sentiment locally and asks the
// generative capability for the primary intent, constrained to the
// configured label set.
func (e *Extractor) AnalyzeSentimentIntent(ctx context.Context, patient []string) (types.SentimentIntent, types.RecordStatus) {
	out := types.SentimentIntent{Sentiment: defaultSentiment, Intent: defaultIntent}
	if len(patient) == 0 {
		e.log.Warn("no patient utterances, sentiment/intent defaulted")
		return out, degradedAll([]string{"Sentiment", "Intent"})
	}

	var degraded []string

	cctx, cancel := context.WithTimeout(ctx, e.scfg.Timeout)
	label, score, err := e.cls.ClassifySentiment(cctx, truncate(strings.Join(patient, " "), e.scfg.MaxChars))
	cancel()
	if err != nil {
		e.log.WithError(err).Warn("sentiment classification failed, using default")
		degraded = append(degraded, "Sentiment")
	} else {
		out.Sentiment = mapSentiment(label, score, e.scfg)
	}

	intent, ok := e.detectIntent(ctx, patient)
	if !ok {
		degraded = append(degraded, "Intent")
	} else {
		out.Intent = intent
	}

	return out, types.RecordStatus{Degraded: len(degraded) > 0, DegradedFields: degraded}
}

// detectIntent asks the generative capability for one intent label and
// validates the answer against the configured set: exact match first, then
// case-insensitive containment.
func (e *Extractor) detectIntent(ctx context.Context, patient []string) (string, bool) {
	prompt, err := renderIntentPrompt(patient, e.gcfg.IntentLabels)
	if err != nil {
		e.log.WithError(err).Error("intent prompt failed")
		return "", false
	}

	text, err := e.generate(ctx, prompt)
	if err != nil {
		e.log.WithError(err).Warn("intent generation failed, using default")
		return "", false
	}

	answer := strings.TrimSpace(text)
	for _, label := range e.gcfg.IntentLabels {
		if answer == label {
			return label, true
		}
	}
	lower := strings.ToLower(answer)
	for _, label := range e.gcfg.IntentLabels {
		if strings.Contains(lower, strings.ToLower(label)) {
			return label, true
		}
	}

	e.log.WithField("response", answer).Warn("unrecognized intent label, using default")
	return "", false
}

// GenerateSoap generates and validates the SOAP note record.
func (e *Extractor) GenerateSoap(ctx context.Context, transcript string, entities []types.CategorizedEntity, stats types.TranscriptStats) (types.SoapNote, types.RecordStatus) {
	prompt, err := renderSoapPrompt(truncate(transcript, e.gcfg.MaxChars), entities, stats)
	if err != nil {
		e.log.WithError(err).Error("soap prompt failed, using defaults")
		return defaultSoap(), degradedAll(soapFieldPaths())
	}

	text, err := e.generate(ctx, prompt)
	if err != nil {
		e.log.WithError(err).Warn("soap generation failed, using defaults")
		return defaultSoap(), degradedAll(soapFieldPaths())
	}

	raw, ok := parseObject(text)
	if !ok {
		e.log.Warn("soap response unparseable, using defaults")
		return defaultSoap(), degradedAll(soapFieldPaths())
	}

	note, degraded := validateSoap(raw)
	if len(degraded) > 0 {
		e.log.WithField("fields", degraded).Warn("soap fields defaulted")
	}
	return note, types.RecordStatus{Degraded: len(degraded) > 0, DegradedFields: degraded}
}

// retryInitialInterval is the first backoff delay. Package-level var for
// test substitution.
var retryInitialInterval = 500 * time.Millisecond

// generate invokes the generative capability with exponential backoff.
// Retry policy lives here, in the invocation layer, so backends stay
// single-shot; context cancellation stops the retry loop. Client errors
// (4xx) are permanent: they will not heal on retry, and the HTTP layer has
// already backed off on 429 before reporting it.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	var out string
	op := func() error {
		text, err := e.gen.Generate(ctx, prompt)
		if err != nil {
			var capErr *types.CapabilityError
			if errors.As(err, &capErr) && capErr.Status >= 400 && capErr.Status < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(e.gcfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return out, nil
}

// degradedAll marks a record fully fallen back to defaults.
func degradedAll(fields []string) types.RecordStatus {
	return types.RecordStatus{Degraded: true, DegradedFields: fields}
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
