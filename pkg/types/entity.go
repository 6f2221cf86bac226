package types

// RawEntitySpan is a single labeled span as returned by the biomedical NER
// capability. Spans are transient: they exist between one inference call and
// the report built from it.
type RawEntitySpan struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// CategorizedEntity is a filtered, deduplicated medical entity assigned to
// one of the configured categories. Entities are unique by (lowercased text,
// category); Confidence is the maximum over duplicate occurrences.
type CategorizedEntity struct {
	Text       string  `json:"text"`
	Label      string  `json:"type"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// EntityStats holds aggregate figures for one entity report. An empty report
// has AverageConfidence 0.0; that is a valid outcome, not an error.
type EntityStats struct {
	Total             int            `json:"total"`
	ByCategory        map[string]int `json:"by_category"`
	AverageConfidence float64        `json:"average_confidence"`
}

// EntityReport is the full output of the entity extraction stage. It is
// derived state, recomputed from scratch on every run.
type EntityReport struct {
	AllEntities []CategorizedEntity            `json:"all_entities"`
	Categorized map[string][]CategorizedEntity `json:"categorized"`
	Statistics  EntityStats                    `json:"statistics"`
}

// EmptyEntityReport returns a report with initialized (non-nil) containers
// for the given category names. Used when the NER capability fails and the
// pipeline continues with a degraded, entity-free result.
func EmptyEntityReport(categories []string) EntityReport {
	cat := make(map[string][]CategorizedEntity, len(categories))
	byCat := make(map[string]int, len(categories))
	for _, c := range categories {
		cat[c] = []CategorizedEntity{}
		byCat[c] = 0
	}
	return EntityReport{
		AllEntities: []CategorizedEntity{},
		Categorized: cat,
		Statistics:  EntityStats{ByCategory: byCat},
	}
}
