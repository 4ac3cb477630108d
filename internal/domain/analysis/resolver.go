package analysis

import (
	"context"
	"fmt"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

// maxUnionCandidates caps the deduplicated fuzzy-match union handed to the
// reconciler.
const maxUnionCandidates = 12

// ResolveOutcome is the result of one resolution pass. Exactly one of
// three shapes holds: an exact identity (Identity.Method == exact, Union
// empty), a fuzzy union awaiting reconciliation (Identity.Method ==
// unresolved, Union non-empty), or nothing at all (both empty).
type ResolveOutcome struct {
	Identity ResolvedIdentity
	Union    []registry.Concept
}

// Resolver maps translated name candidates onto registry identities:
// exact lookup first across all candidates, then a deduplicated union of
// approximate matches.
type Resolver struct {
	registry IdentityRegistry
}

// NewResolver wires a resolver to an identity registry.
func NewResolver(reg IdentityRegistry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve tries each candidate name in rank order for an exact match and
// returns immediately on the first hit. When no candidate matches exactly
// it collects approximate matches across all candidates into a capped,
// deduplicated union. A non-nil error is returned only when no identity
// was found and at least one registry call failed, so the caller can tell
// "no such drug" apart from "registry unreachable".
func (r *Resolver) Resolve(ctx context.Context, candidates []TranslationCandidate) (ResolveOutcome, error) {
	var lastErr error

	for _, c := range candidates {
		rxcui, err := r.registry.SearchExact(ctx, c.Name)
		if err != nil {
			lastErr = err
			continue
		}
		if rxcui == "" {
			continue
		}
		name := c.Name
		if props, err := r.registry.GetProperties(ctx, rxcui); err == nil {
			name = props.Name
		}
		return ResolveOutcome{
			Identity: ResolvedIdentity{
				RxCUI:         rxcui,
				CanonicalName: name,
				Method:        ResolutionExact,
			},
		}, nil
	}

	seen := make(map[string]bool)
	var union []registry.Concept
	for _, c := range candidates {
		matches, err := r.registry.SearchApprox(ctx, c.Name, maxUnionCandidates)
		if err != nil {
			lastErr = err
			continue
		}
		for _, m := range matches {
			if seen[m.RxCUI] {
				continue
			}
			seen[m.RxCUI] = true
			union = append(union, m)
			if len(union) == maxUnionCandidates {
				break
			}
		}
		if len(union) == maxUnionCandidates {
			break
		}
	}

	out := ResolveOutcome{
		Identity: ResolvedIdentity{Method: ResolutionUnresolved},
		Union:    union,
	}
	if len(union) == 0 && lastErr != nil {
		return out, fmt.Errorf("identity registry lookup failed: %w", lastErr)
	}
	return out, nil
}
