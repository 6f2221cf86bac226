// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one transcript analysis run: segmentation,
// concurrent entity and structured extraction, then the merge into a single
// consolidated result.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BCVRaj/Emitrr/internal/entity"
	"github.com/BCVRaj/Emitrr/internal/logging"
	"github.com/BCVRaj/Emitrr/internal/segment"
	"github.com/BCVRaj/Emitrr/internal/structured"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Stage identifies the orchestrator's position in a run. Transitions are
// strictly forward; Failed can be entered from any stage.
type Stage string

const (
	StageInit       Stage = "INIT"
	StageSegmented  Stage = "SEGMENTED"
	StageEntities   Stage = "ENTITIES_EXTRACTED"
	StageStructured Stage = "STRUCTURED_EXTRACTED"
	StageMerged     Stage = "MERGED"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// Pipeline ties the three stages together. It owns no state between runs;
// every Run produces an independent result.
type Pipeline struct {
	cfg  types.PipelineConfig
	seg  *segment.Segmenter
	ents *entity.Extractor
	ext  *structured.Extractor
	log  *logrus.Entry
}

// New builds a pipeline from already-constructed stage components.
func New(cfg types.PipelineConfig, seg *segment.Segmenter, ents *entity.Extractor, ext *structured.Extractor, log *logrus.Entry) *Pipeline {
	return &Pipeline{cfg: cfg, seg: seg, ents: ents, ext: ext, log: log}
}

// Run processes one raw transcript. Segmentation failure aborts the run;
// entity extraction failure degrades it (the structured branch continues
// with an empty report). The entity and structured branches overlap: the
// entity report is handed to the structured extractor over a channel so the
// sentiment and intent calls run while the NER call is still in flight.
func (p *Pipeline) Run(ctx context.Context, source, text string) (types.ConsolidatedResult, error) {
	runID := uuid.New().String()
	log := logging.ForRun(p.log, runID, source)

	stage := StageInit
	advance := func(next Stage) {
		log.WithFields(logrus.Fields{"from": stage, "to": next}).Debug("stage transition")
		stage = next
	}

	utts, err := p.seg.Segment(text)
	if err != nil {
		advance(StageFailed)
		return types.ConsolidatedResult{}, fmt.Errorf("segmenting transcript: %w", err)
	}
	advance(StageSegmented)

	stats := segment.Stats(utts, len(text))
	transcript := segment.FullText(utts)
	patient := segment.SpeakerText(utts, types.SpeakerPatient)

	reports := make(chan types.EntityReport, 1)
	var report types.EntityReport
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(reports)
		r, err := p.ents.Extract(ctx, transcript)
		if err != nil {
			log.WithError(err).Warn("entity extraction failed, continuing without entities")
			r = types.EmptyEntityReport(p.cfg.NER.CategoryNames())
		}
		report = r
		reports <- r
	}()

	res, err := p.ext.Extract(ctx, transcript, patient, stats, reports)
	wg.Wait()
	if err != nil {
		advance(StageFailed)
		return types.ConsolidatedResult{}, fmt.Errorf("structured extraction: %w", err)
	}
	advance(StageEntities)
	advance(StageStructured)

	out := types.ConsolidatedResult{
		RunID:           runID,
		SourceFile:      source,
		ProcessedAt:     time.Now().UTC(),
		SourceLength:    len(text),
		Transcript:      stats,
		Entities:        report,
		MedicalSummary:  res.Summary,
		SummaryStatus:   res.SummaryStatus,
		SentimentIntent: res.Sentiment,
		SentimentStatus: res.SentimentStatus,
		SoapNote:        res.Soap,
		SoapStatus:      res.SoapStatus,
	}
	advance(StageMerged)
	advance(StageDone)

	log.WithFields(logrus.Fields{
		"entities": out.Entities.Statistics.Total,
		"degraded": out.Degraded(),
	}).Info("run complete")
	return out, nil
}
