package analysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

// ---- registry ports ----

// IdentityRegistry resolves display names to canonical drug concepts.
type IdentityRegistry interface {
	// SearchExact returns the concept identifier for a normalized name
	// match, or "" when the registry has no exact match.
	SearchExact(ctx context.Context, name string) (string, error)
	// SearchApprox returns scored approximate-match candidates, deduplicated
	// by identifier, best first.
	SearchApprox(ctx context.Context, name string, maxEntries int) ([]registry.Concept, error)
	// GetProperties returns the canonical properties of a known identifier.
	GetProperties(ctx context.Context, rxcui string) (registry.ConceptProperties, error)
}

// LabelRegistry locates structured product label documents and extracts
// individual sections from them.
type LabelRegistry interface {
	SearchDocuments(ctx context.Context, rxcui, name string) ([]registry.LabelDocument, error)
	GetSection(ctx context.Context, documentID, field string) (string, error)
}

// AdverseRegistry queries spontaneous adverse-event report statistics.
type AdverseRegistry interface {
	CountReports(ctx context.Context, drugName string, filter registry.ReportFilter) (int, error)
	TopReactions(ctx context.Context, drugName string, limit int) ([]registry.Reaction, error)
}

// ---- infrastructure ports ----

// ResolutionCache is an optional read-through cache for resolved
// identities keyed by normalized input name. Get returns (nil, nil) on a
// miss. Cache failures must never fail a pipeline run.
type ResolutionCache interface {
	Get(ctx context.Context, name string) (*ResolvedIdentity, error)
	Put(ctx context.Context, name string, identity ResolvedIdentity) error
}

// AuditRepository persists completed pipeline runs and their log trails.
type AuditRepository interface {
	InsertRequest(ctx context.Context, rec *AuditRecord) (uuid.UUID, error)
	InsertLogs(ctx context.Context, requestID uuid.UUID, entries []WorkflowLogEntry) error
}
