package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

const reconcileSystemPrompt = "You are a pharmacist matching a consumer-" +
	"entered drug name against registry candidates. Pick the single candidate " +
	"that best matches the original input, preferring ingredient-level " +
	"concepts over branded packs when ambiguous and honoring any dosage " +
	"form noted for the input. Respond with JSON only, in " +
	`the form {"rxcui":"..."}` + ". The rxcui must be copied verbatim from " +
	"the candidate list. Never answer with an rxcui that is not listed."

// ReconcileOutcome records how the fuzzy union was narrowed to a single
// identity. Picked is true when the model chose the candidate; when false
// the deterministic first-candidate fallback was used and FallbackReason
// says why. Verified is true when the registry confirmed the canonical
// name of the picked identifier.
type ReconcileOutcome struct {
	Identity       ResolvedIdentity
	Picked         bool
	Verified       bool
	FallbackReason string
}

// Reconciler narrows a multi-candidate fuzzy union to one identity using
// a generative model, with a deterministic fallback so the pipeline never
// aborts here.
type Reconciler struct {
	model    llm.Client
	registry IdentityRegistry
}

// NewReconciler wires a reconciler to a model and an identity registry.
func NewReconciler(model llm.Client, reg IdentityRegistry) *Reconciler {
	return &Reconciler{model: model, registry: reg}
}

// Reconcile selects one concept from a non-empty union. A single-entry
// union is selected deterministically without a model call. Any model
// failure, undecodable response, or out-of-set answer falls back to the
// first (best-scored) union entry. candidates carries the translated
// names with their dosage-form hints for prompt context.
func (r *Reconciler) Reconcile(ctx context.Context, rawName string, candidates []TranslationCandidate, union []registry.Concept) ReconcileOutcome {
	if len(union) == 1 {
		return ReconcileOutcome{
			Identity: identityFromConcept(union[0], ResolutionFuzzy),
			Verified: true,
		}
	}

	out, reason := r.pick(ctx, rawName, candidates, union)
	if reason != "" {
		return ReconcileOutcome{
			Identity:       identityFromConcept(union[0], ResolutionFuzzy),
			FallbackReason: reason,
		}
	}

	verified := true
	name := out.Name
	if props, err := r.registry.GetProperties(ctx, out.RxCUI); err == nil {
		name = props.Name
	} else {
		// The identifier came from the registry's own approximate search,
		// so a failed property lookup does not invalidate it.
		verified = false
	}
	return ReconcileOutcome{
		Identity: ResolvedIdentity{
			RxCUI:         out.RxCUI,
			CanonicalName: name,
			Method:        ResolutionReconciled,
		},
		Picked:   true,
		Verified: verified,
	}
}

// pick asks the model to choose from the union. It returns the chosen
// concept, or a non-empty fallback reason.
func (r *Reconciler) pick(ctx context.Context, rawName string, candidates []TranslationCandidate, union []registry.Concept) (registry.Concept, string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Original input: %q\n", rawName)
	for _, c := range candidates {
		if c.Name == rawName && c.DosageForm == "" {
			continue
		}
		fmt.Fprintf(&sb, "Translated as: %q", c.Name)
		if c.DosageForm != "" {
			fmt.Fprintf(&sb, " (dosage form: %s)", c.DosageForm)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\nCandidates:\n")
	for _, c := range union {
		fmt.Fprintf(&sb, "- rxcui=%s name=%q tty=%s", c.RxCUI, c.Name, c.TTY)
		if c.Score != nil {
			fmt.Fprintf(&sb, " score=%.0f", *c.Score)
		}
		sb.WriteByte('\n')
	}

	raw, err := r.model.Complete(ctx, reconcileSystemPrompt, sb.String(), llm.Options{
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		return registry.Concept{}, fmt.Sprintf("model call failed: %v", err)
	}

	var parsed struct {
		RxCUI string `json:"rxcui"`
	}
	if err := decodeModelJSON(raw, &parsed); err != nil {
		return registry.Concept{}, fmt.Sprintf("undecodable model response: %v", err)
	}
	for _, c := range union {
		if c.RxCUI == parsed.RxCUI {
			return c, ""
		}
	}
	return registry.Concept{}, fmt.Sprintf("model answered rxcui %q, not in candidate set", parsed.RxCUI)
}

func identityFromConcept(c registry.Concept, method ResolutionMethod) ResolvedIdentity {
	return ResolvedIdentity{
		RxCUI:         c.RxCUI,
		CanonicalName: c.Name,
		Method:        method,
	}
}
