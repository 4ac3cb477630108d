package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
)

const summarizeSystemPrompt = "You are a clinical pharmacist writing a " +
	"plain-language medication briefing for a consumer. Use ONLY the " +
	"evidence provided in the message. Do not add facts from your own " +
	"knowledge; if the evidence does not cover a field, return it empty. " +
	"Respond with JSON only, in the form " +
	`{"overview":"...","key_points":[],"warnings":[],` +
	`"common_side_effects":[],"food_interactions":[]}` + "."

// Per-section cap on evidence text included in the prompt, and the cap
// on reactions listed.
const (
	maxSectionPromptChars = 1000
	maxPromptReactions    = 10
)

// sectionTitles are the human-readable headings used in the prompt.
var sectionTitles = map[SectionKey]string{
	SectionIndications:       "Indications and usage",
	SectionDosage:            "Dosage and administration",
	SectionContraindications: "Contraindications",
	SectionWarnings:          "Warnings",
	SectionAdverseReactions:  "Adverse reactions",
	SectionDrugInteractions:  "Drug interactions",
}

// Summarizer produces the structured consumer summary from whatever
// evidence the aggregation stages gathered. It must never be invoked with
// no evidence at all.
type Summarizer struct {
	model llm.Client
}

// NewSummarizer wires a summarizer to a model client.
func NewSummarizer(model llm.Client) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize builds an evidence-bounded prompt and strictly decodes the
// model's JSON answer. An undecodable response is an error; the pipeline
// then ships the raw evidence without a summary.
func (s *Summarizer) Summarize(ctx context.Context, displayName string, label *LabelEvidence, adverse *AdverseEventEvidence) (*SummaryEvidence, error) {
	if label == nil && adverse == nil {
		return nil, fmt.Errorf("summarize %q: no evidence to summarize", displayName)
	}

	raw, err := s.model.Complete(ctx, summarizeSystemPrompt, s.buildPrompt(displayName, label, adverse), llm.Options{
		Temperature: 0.2,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize %q: %w", displayName, err)
	}

	var summary SummaryEvidence
	if err := decodeModelJSON(raw, &summary); err != nil {
		return nil, fmt.Errorf("summarize %q: %w", displayName, err)
	}
	if strings.TrimSpace(summary.Overview) == "" {
		return nil, fmt.Errorf("summarize %q: model returned an empty overview", displayName)
	}
	return &summary, nil
}

func (s *Summarizer) buildPrompt(displayName string, label *LabelEvidence, adverse *AdverseEventEvidence) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Drug: %s\n", displayName)

	if label != nil {
		fmt.Fprintf(&sb, "\n== Product label (document %s, published %s) ==\n", label.DocumentID, label.PublishedDate)
		for _, key := range sectionOrder {
			text, ok := label.Sections[key]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "\n[%s]\n%s\n", sectionTitles[key], truncateRunes(text, maxSectionPromptChars))
		}
	}

	if adverse != nil {
		sb.WriteString("\n== Spontaneous adverse-event reports ==\n")
		fmt.Fprintf(&sb, "Total reports: %d\n", adverse.TotalReports)
		fmt.Fprintf(&sb, "Serious: %d (%.1f%%), deaths: %d, hospitalizations: %d\n",
			adverse.SeriousCount, adverse.SeriousRate, adverse.DeathCount, adverse.HospitalizationCount)
		if len(adverse.TopReactions) > 0 {
			sb.WriteString("Most reported reactions:\n")
			for i, r := range adverse.TopReactions {
				if i == maxPromptReactions {
					break
				}
				fmt.Fprintf(&sb, "- %s (%d reports)\n", r.Term, r.Count)
			}
		}
	}
	return sb.String()
}

// truncateRunes shortens s to at most n runes, marking the cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + " [...]"
}
