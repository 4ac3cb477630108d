package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/fanout"
)

// LabelOutcome is the result of one label aggregation pass. Evidence is
// nil only when no document was found; Missing lists the sections that
// could not be retrieved from the chosen document.
type LabelOutcome struct {
	Evidence *LabelEvidence
	Missing  []SectionKey
}

// LabelAggregator locates the most recent label document for an identity
// and fetches its six sections as independent, concurrently issued
// requests. Per-section failures degrade the evidence; once a document
// is found they never fail the stage.
type LabelAggregator struct {
	registry       LabelRegistry
	sectionTimeout time.Duration
}

// NewLabelAggregator wires a label aggregator. sectionTimeout bounds each
// individual section fetch.
func NewLabelAggregator(reg LabelRegistry, sectionTimeout time.Duration) *LabelAggregator {
	return &LabelAggregator{registry: reg, sectionTimeout: sectionTimeout}
}

// Fetch searches by rxcui when one is known, falling back to the display
// name, picks the most recently published document, and fans out over the
// six sections. It errors only when the document search fails or returns
// nothing.
func (a *LabelAggregator) Fetch(ctx context.Context, rxcui, name string) (LabelOutcome, error) {
	docs, err := a.registry.SearchDocuments(ctx, rxcui, name)
	if err != nil {
		return LabelOutcome{}, fmt.Errorf("label document search: %w", err)
	}
	if len(docs) == 0 {
		return LabelOutcome{}, fmt.Errorf("no label documents found")
	}

	doc := docs[0]
	for _, d := range docs[1:] {
		// Published dates are YYYYMMDD, so string order is date order.
		if d.Published > doc.Published {
			doc = d
		}
	}

	tasks := make([]fanout.Task[string], 0, len(sectionOrder))
	for _, key := range sectionOrder {
		field := sectionFields[key]
		tasks = append(tasks, fanout.Task[string]{
			Name: string(key),
			Run: func(ctx context.Context) (string, error) {
				return a.registry.GetSection(ctx, doc.ID, field)
			},
		})
	}
	results := fanout.Collect(ctx, a.sectionTimeout, tasks)

	sections := make(map[SectionKey]string)
	var missing []SectionKey
	for i, res := range results {
		key := sectionOrder[i]
		if res.Err != nil || res.Value == "" {
			missing = append(missing, key)
			continue
		}
		sections[key] = res.Value
	}
	return LabelOutcome{
		Evidence: &LabelEvidence{
			DocumentID:    doc.ID,
			PublishedDate: doc.Published,
			Sections:      sections,
		},
		Missing: missing,
	}, nil
}
