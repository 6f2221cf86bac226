// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/BCVRaj/Emitrr/internal/entity"
	"github.com/BCVRaj/Emitrr/internal/pipeline"
	"github.com/BCVRaj/Emitrr/internal/segment"
	"github.com/BCVRaj/Emitrr/internal/store"
	"github.com/BCVRaj/Emitrr/internal/structured"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcripts...]",
	Short: "Analyze transcript files into structured medical records",
	Long: `Analyze processes one or more transcript text files. Each file is
segmented by speaker, biomedical entities are extracted, and three records
are generated per transcript: a medical summary, a sentiment and intent
classification, and a SOAP note.

Multiple files are processed concurrently, bounded by --workers. Results
are saved to the run database; pass --mock to use deterministic offline
capabilities instead of model services.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("out", "", "output directory (overrides config)")
	analyzeCmd.Flags().Bool("mock", false, "use deterministic offline capabilities")
	analyzeCmd.Flags().Int("workers", 0, "concurrent transcripts in batch mode (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
}

// buildPipeline assembles the stage components. Mock mode swaps every
// external capability for a deterministic local one.
func buildPipeline(cfg types.PipelineConfig, mock bool) (*pipeline.Pipeline, error) {
	seg, err := segment.New(cfg.Segmenter)
	if err != nil {
		return nil, err
	}

	var (
		lab entity.Labeler
		gen structured.Generator
		cls structured.Classifier
	)
	if mock {
		lab, gen, cls = mockLabeler{}, mockGenerator{}, mockClassifier{}
	} else {
		if cfg.NER.Endpoint == "" {
			return nil, &types.ConfigError{Field: "ner.endpoint", Reason: "required unless --mock is set"}
		}
		if cfg.Sentiment.Endpoint == "" {
			return nil, &types.ConfigError{Field: "sentiment.endpoint", Reason: "required unless --mock is set"}
		}
		if cfg.Generative.APIKey == "" {
			return nil, &types.ConfigError{Field: "generative.api_key", Reason: "set GEMINI_API_KEY or use --mock"}
		}
		lab = &entity.HTTPLabeler{Endpoint: cfg.NER.Endpoint}
		gen = &structured.GeminiBackend{Cfg: cfg.Generative}
		cls = &structured.HTTPClassifier{Endpoint: cfg.Sentiment.Endpoint}
	}

	ents := entity.NewExtractor(lab, cfg.NER, log)
	ext := structured.NewExtractor(gen, cls, cfg.Generative, cfg.Sentiment, log)
	return pipeline.New(cfg, seg, ents, ext, log), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Output.Dir = out
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}
	mock, _ := cmd.Flags().GetBool("mock")

	p, err := buildPipeline(cfg, mock)
	if err != nil {
		return err
	}

	db, err := store.NewStore(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	type outcome struct {
		path string
		res  types.ConsolidatedResult
		err  error
	}
	outcomes := make([]outcome, len(args))

	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup
	for i, path := range args {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = outcome{path: path}
			data, err := os.ReadFile(path)
			if err != nil {
				outcomes[i].err = fmt.Errorf("reading %s: %w", path, err)
				return
			}
			res, err := p.Run(ctx, filepath.Base(path), string(data))
			outcomes[i].res, outcomes[i].err = res, err
		}(i, path)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			log.WithError(o.err).WithField("file", o.path).Error("analysis failed")
			failed++
			continue
		}
		if err := db.SaveRun(ctx, &o.res); err != nil {
			return fmt.Errorf("saving run %s: %w", o.res.RunID, err)
		}
		if cfg.Output.SaveArtifacts {
			if _, err := store.WriteArtifacts(cfg.Output.Dir, &o.res); err != nil {
				return fmt.Errorf("writing artifacts for %s: %w", o.res.RunID, err)
			}
		}
		printSummary(&o.res)
	}

	if failed > 0 {
		return fmt.Errorf("%d transcript(s) failed", failed)
	}
	return nil
}

func sortedCategories(byCategory map[string]int) []string {
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

func printSummary(res *types.ConsolidatedResult) {
	fmt.Printf("%s  %s\n", res.RunID, res.SourceFile)
	fmt.Printf("  turns: %d doctor, %d patient", res.Transcript.DoctorTurns, res.Transcript.PatientTurns)
	if res.Transcript.UnknownTurns > 0 {
		fmt.Printf(", %d unknown", res.Transcript.UnknownTurns)
	}
	fmt.Println()
	fmt.Printf("  entities: %d (avg confidence %.2f)\n",
		res.Entities.Statistics.Total, res.Entities.Statistics.AverageConfidence)
	for _, cat := range sortedCategories(res.Entities.Statistics.ByCategory) {
		if n := res.Entities.Statistics.ByCategory[cat]; n > 0 {
			fmt.Printf("    %s: %d\n", cat, n)
		}
	}
	fmt.Printf("  diagnosis: %s\n", res.MedicalSummary.Diagnosis)
	fmt.Printf("  sentiment: %s, intent: %s\n",
		res.SentimentIntent.Sentiment, res.SentimentIntent.Intent)
	if res.Degraded() {
		fmt.Println("  note: some fields fell back to defaults")
	}
}
