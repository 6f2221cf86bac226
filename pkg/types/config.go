package types

import (
	"fmt"
	"time"
)

// RolePatterns binds a speaker role to an ordered list of regular
// expressions. Roles are tried in declaration order and patterns in list
// order; the first match wins, which makes attribution deterministic for
// lines that several patterns could claim.
type RolePatterns struct {
	Role     Speaker  `json:"role" yaml:"role" mapstructure:"role"`
	Patterns []string `json:"patterns" yaml:"patterns" mapstructure:"patterns"`
}

// SegmenterConfig holds speaker-attribution settings.
type SegmenterConfig struct {
	// Speakers is the ordered pattern table. Lines matching no pattern are
	// attributed to SpeakerUnknown rather than discarded.
	Speakers []RolePatterns `json:"speakers" yaml:"speakers" mapstructure:"speakers"`

	// RemoveFillers strips conversational filler words before segmentation.
	RemoveFillers bool `json:"remove_fillers" yaml:"remove_fillers" mapstructure:"remove_fillers"`

	// FillerWords are removed when RemoveFillers is set.
	FillerWords []string `json:"filler_words" yaml:"filler_words" mapstructure:"filler_words"`
}

// CategoryMapping binds an entity category to the NER label keywords that
// select it. Mappings are tried in declaration order; the first category
// whose keyword appears in the span label wins.
type CategoryMapping struct {
	Name   string   `json:"name" yaml:"name" mapstructure:"name"`
	Labels []string `json:"labels" yaml:"labels" mapstructure:"labels"`
}

// NERConfig holds settings for the biomedical entity extraction stage.
type NERConfig struct {
	// Endpoint is the URL of the local model server exposing the
	// sequence-labeling capability.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Timeout bounds one inference call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// ConfidenceThreshold drops spans scored below it (default 0.8).
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold" mapstructure:"confidence_threshold"`

	// MaxChars truncates the input text; transcripts past the limit are
	// cut, not chunked (default 5000).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// MinEntityLength drops spans whose text is this many characters or
	// fewer (default 2).
	MinEntityLength int `json:"min_entity_length" yaml:"min_entity_length" mapstructure:"min_entity_length"`

	// Categories is the ordered label-to-category table.
	Categories []CategoryMapping `json:"categories" yaml:"categories" mapstructure:"categories"`

	// DefaultCategory receives spans whose label matches no mapping
	// (default "other").
	DefaultCategory string `json:"default_category" yaml:"default_category" mapstructure:"default_category"`
}

// CategoryNames returns the configured category names in order, with the
// default category appended.
func (c NERConfig) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories)+1)
	for _, m := range c.Categories {
		names = append(names, m.Name)
	}
	return append(names, c.DefaultCategory)
}

// SentimentConfig holds settings for the local sentiment classifier.
type SentimentConfig struct {
	// Endpoint is the URL of the local classifier server.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Timeout bounds one classification call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// PositiveThreshold is the minimum POSITIVE score mapped to Reassured
	// (default 0.65).
	PositiveThreshold float64 `json:"positive_threshold" yaml:"positive_threshold" mapstructure:"positive_threshold"`

	// NegativeThreshold is the minimum NEGATIVE score mapped to Anxious
	// (default 0.65).
	NegativeThreshold float64 `json:"negative_threshold" yaml:"negative_threshold" mapstructure:"negative_threshold"`

	// MaxChars truncates the classifier input (default 512).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`
}

// GenerativeConfig holds settings for the external generative model.
type GenerativeConfig struct {
	// Model is the generative model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the generative API. Loaded from the
	// environment, never from config files.
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`

	// Temperature controls sampling; kept at 0.0 for reproducible field
	// extraction.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the response length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// TopP and TopK are passed through to the API.
	TopP float64 `json:"top_p" yaml:"top_p" mapstructure:"top_p"`
	TopK int     `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// Timeout bounds one generation call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retry attempts for failed calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxChars truncates the transcript excerpt included in prompts
	// (default 4000).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// TopEntities caps how many detected entities are listed in prompts
	// (default 25).
	TopEntities int `json:"top_entities" yaml:"top_entities" mapstructure:"top_entities"`

	// IntentLabels is the closed set of patient intents.
	IntentLabels []string `json:"intent_labels" yaml:"intent_labels" mapstructure:"intent_labels"`
}

// OutputConfig holds persistence settings.
type OutputConfig struct {
	// Dir receives timestamped JSON artifacts and the run database.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// SaveArtifacts controls whether per-record JSON files are written in
	// addition to the run database.
	SaveArtifacts bool `json:"save_artifacts" yaml:"save_artifacts" mapstructure:"save_artifacts"`
}

// PipelineConfig groups all stage configurations. It is built once at
// process start, validated, and passed by reference; nothing mutates it at
// runtime.
type PipelineConfig struct {
	Segmenter  SegmenterConfig  `json:"segmenter" yaml:"segmenter" mapstructure:"segmenter"`
	NER        NERConfig        `json:"ner" yaml:"ner" mapstructure:"ner"`
	Sentiment  SentimentConfig  `json:"sentiment" yaml:"sentiment" mapstructure:"sentiment"`
	Generative GenerativeConfig `json:"generative" yaml:"generative" mapstructure:"generative"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`

	// Workers bounds concurrent transcript runs in batch mode (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the baseline configuration. Endpoints and the API
// key still have to be supplied by the environment or a config file.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Segmenter: SegmenterConfig{
			Speakers: []RolePatterns{
				{
					Role: SpeakerDoctor,
					Patterns: []string{
						`(doctor|physician|dr\.?)\s*:`,
						`(provider|clinician|practitioner)\s*:`,
						`MD\s*:`,
					},
				},
				{
					Role: SpeakerPatient,
					Patterns: []string{
						`(patient|pt\.?)\s*:`,
						`(client|individual)\s*:`,
					},
				},
			},
			RemoveFillers: false,
			FillerWords:   []string{"um", "uh", "like", "you know", "i mean", "well"},
		},
		NER: NERConfig{
			Timeout:             30 * time.Second,
			ConfidenceThreshold: 0.8,
			MaxChars:            5000,
			MinEntityLength:     2,
			Categories: []CategoryMapping{
				{Name: "symptoms", Labels: []string{"SYMPTOM", "SIGN", "FINDING"}},
				{Name: "diseases", Labels: []string{"DISEASE", "CONDITION", "DISORDER", "SYNDROME"}},
				{Name: "treatments", Labels: []string{"TREATMENT", "PROCEDURE", "THERAPY", "INTERVENTION"}},
				{Name: "anatomy", Labels: []string{"ANATOMY", "BODY_PART", "ORGAN", "TISSUE", "ANATOMICAL"}},
				{Name: "medications", Labels: []string{"MEDICATION", "DRUG", "PHARMACEUTICAL", "MEDICINE"}},
			},
			DefaultCategory: "other",
		},
		Sentiment: SentimentConfig{
			Timeout:           15 * time.Second,
			PositiveThreshold: 0.65,
			NegativeThreshold: 0.65,
			MaxChars:          512,
		},
		Generative: GenerativeConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.0,
			MaxTokens:   2048,
			TopP:        0.95,
			TopK:        40,
			Timeout:     25 * time.Second,
			MaxRetries:  3,
			MaxChars:    4000,
			TopEntities: 25,
			IntentLabels: []string{
				"Reporting symptoms",
				"Seeking reassurance",
				"Expressing improvement",
				"Asking questions",
				"Neutral update",
			},
		},
		Output: OutputConfig{
			Dir:           "data/output",
			SaveArtifacts: true,
		},
		Workers: 4,
	}
}

// Validate checks the configuration before any stage executes. It returns a
// *ConfigError describing the first problem found.
func (c *PipelineConfig) Validate() error {
	if len(c.Segmenter.Speakers) == 0 {
		return &ConfigError{Field: "segmenter.speakers", Reason: "at least one speaker role is required"}
	}
	for _, rp := range c.Segmenter.Speakers {
		if len(rp.Patterns) == 0 {
			return &ConfigError{Field: "segmenter.speakers", Reason: fmt.Sprintf("role %q has no patterns", rp.Role)}
		}
	}
	if c.NER.ConfidenceThreshold < 0 || c.NER.ConfidenceThreshold > 1 {
		return &ConfigError{Field: "ner.confidence_threshold", Reason: "must be within [0, 1]"}
	}
	if c.NER.MaxChars <= 0 {
		return &ConfigError{Field: "ner.max_chars", Reason: "must be positive"}
	}
	if c.NER.DefaultCategory == "" {
		return &ConfigError{Field: "ner.default_category", Reason: "must not be empty"}
	}
	if c.Sentiment.PositiveThreshold < 0 || c.Sentiment.PositiveThreshold > 1 {
		return &ConfigError{Field: "sentiment.positive_threshold", Reason: "must be within [0, 1]"}
	}
	if c.Sentiment.NegativeThreshold < 0 || c.Sentiment.NegativeThreshold > 1 {
		return &ConfigError{Field: "sentiment.negative_threshold", Reason: "must be within [0, 1]"}
	}
	if c.Generative.Model == "" {
		return &ConfigError{Field: "generative.model", Reason: "must not be empty"}
	}
	if c.Generative.Temperature < 0 {
		return &ConfigError{Field: "generative.temperature", Reason: "must not be negative"}
	}
	if c.Generative.MaxChars <= 0 {
		return &ConfigError{Field: "generative.max_chars", Reason: "must be positive"}
	}
	if len(c.Generative.IntentLabels) == 0 {
		return &ConfigError{Field: "generative.intent_labels", Reason: "at least one intent label is required"}
	}
	if c.Workers <= 0 {
		return &ConfigError{Field: "workers", Reason: "must be positive"}
	}
	return nil
}
