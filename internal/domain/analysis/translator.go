package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
)

// TranslationCandidate is one possible English rendering of a non-English
// drug name. DosageForm is carried when the source name implies one
// (for example a strength or formulation suffix).
type TranslationCandidate struct {
	Name       string `json:"name"`
	DosageForm string `json:"dosage_form,omitempty"`
}

// NeedsTranslation reports whether the raw name contains Han characters
// or other non-Latin letters and therefore must be translated before
// registry lookup. Pure Latin-script input passes through untranslated.
func NeedsTranslation(name string) bool {
	for _, r := range name {
		if unicode.Is(unicode.Han, r) {
			return true
		}
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

const translateSystemPrompt = "You are a pharmaceutical terminology translator. " +
	"Given a drug name written in Chinese or another non-English language, " +
	"return the most likely English generic or brand names. Respond with " +
	"JSON only, in the form " +
	`{"candidates":[{"name":"...","dosage_form":"..."}]}` +
	". Order candidates from most to least likely. Omit dosage_form when " +
	"the input does not imply one. Never invent drug names."

const maxTranslationCandidates = 3

// Translator turns a non-English drug name into ranked English candidates
// via a generative model. Translation is the only stage with no degraded
// fallback: a failure here is fatal to the run.
type Translator struct {
	model llm.Client
}

// NewTranslator wires a translator to a model client.
func NewTranslator(model llm.Client) *Translator {
	return &Translator{model: model}
}

// Translate returns at most three candidates, best first. An empty or
// undecodable model response is an error, never an empty success.
func (t *Translator) Translate(ctx context.Context, rawName string) ([]TranslationCandidate, error) {
	user := fmt.Sprintf("Translate this drug name to English: %q", rawName)
	raw, err := t.model.Complete(ctx, translateSystemPrompt, user, llm.Options{
		Temperature: 0.1,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("translate %q: %w", rawName, err)
	}

	var parsed struct {
		Candidates []TranslationCandidate `json:"candidates"`
	}
	if err := decodeModelJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("translate %q: %w", rawName, err)
	}

	out := make([]TranslationCandidate, 0, maxTranslationCandidates)
	for _, c := range parsed.Candidates {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		out = append(out, c)
		if len(out) == maxTranslationCandidates {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("translate %q: model returned no usable candidates", rawName)
	}
	return out, nil
}
