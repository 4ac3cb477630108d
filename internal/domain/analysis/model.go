// Package analysis implements the drug-identity resolution and
// evidence-aggregation pipeline: free-text name in, canonical identity plus
// label and adverse-event evidence plus an evidence-bounded summary out,
// with a per-stage audit trail.
package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

// Language is the declared input language of a request.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
	LanguageOther   Language = "other"
)

// InputSource describes how the raw name was captured.
type InputSource string

const (
	SourceText   InputSource = "text"
	SourceOCR    InputSource = "ocr"
	SourceManual InputSource = "manual"
)

// AnalyzeRequest is the immutable inbound request.
type AnalyzeRequest struct {
	Name        string      `json:"name"`
	Language    Language    `json:"language,omitempty"`
	RequesterID string      `json:"requester_id,omitempty"`
	InputSource InputSource `json:"input_source,omitempty"`
}

// ResolutionMethod records how a canonical identity was obtained.
type ResolutionMethod string

const (
	ResolutionExact      ResolutionMethod = "exact"
	ResolutionFuzzy      ResolutionMethod = "fuzzy"
	ResolutionReconciled ResolutionMethod = "reconciled"
	ResolutionUnresolved ResolutionMethod = "unresolved"
)

// ResolvedIdentity is the canonical pharmacological identity of the input,
// or the record of the failure to find one. Fixed once the label stage
// begins.
type ResolvedIdentity struct {
	RxCUI         string           `json:"rxcui,omitempty"`
	CanonicalName string           `json:"canonical_name,omitempty"`
	Method        ResolutionMethod `json:"method"`
}

// Resolved reports whether a registry identity was established.
func (r ResolvedIdentity) Resolved() bool {
	return r.RxCUI != ""
}

// SectionKey names one of the six label sections the pipeline extracts.
type SectionKey string

const (
	SectionIndications       SectionKey = "indications"
	SectionDosage            SectionKey = "dosage"
	SectionContraindications SectionKey = "contraindications"
	SectionWarnings          SectionKey = "warnings"
	SectionAdverseReactions  SectionKey = "adverseReactions"
	SectionDrugInteractions  SectionKey = "drugInteractions"
)

// sectionOrder fixes the fetch and presentation order of label sections.
var sectionOrder = []SectionKey{
	SectionIndications,
	SectionDosage,
	SectionContraindications,
	SectionWarnings,
	SectionAdverseReactions,
	SectionDrugInteractions,
}

// sectionFields maps section keys to the label registry's field names.
var sectionFields = map[SectionKey]string{
	SectionIndications:       registry.SectionIndications,
	SectionDosage:            registry.SectionDosage,
	SectionContraindications: registry.SectionContraindications,
	SectionWarnings:          registry.SectionWarnings,
	SectionAdverseReactions:  registry.SectionAdverseReactions,
	SectionDrugInteractions:  registry.SectionDrugInteractions,
}

// LabelEvidence holds the sections successfully extracted from the most
// recently published label document. A missing section is not an error;
// it is simply absent from the map.
type LabelEvidence struct {
	DocumentID    string                `json:"document_id"`
	PublishedDate string                `json:"published_date"`
	Sections      map[SectionKey]string `json:"sections"`
}

// ReactionCount is one entry of the top-reactions ranking. PercentOfMax is
// the count relative to the largest count in the returned set, not to the
// total number of reports.
type ReactionCount struct {
	Term         string `json:"term"`
	Count        int    `json:"count"`
	PercentOfMax int    `json:"percent_of_max"`
}

// AdverseEventEvidence aggregates FAERS report statistics.
type AdverseEventEvidence struct {
	TotalReports         int             `json:"total_reports"`
	SeriousCount         int             `json:"serious_count"`
	DeathCount           int             `json:"death_count"`
	HospitalizationCount int             `json:"hospitalization_count"`
	SeriousRate          float64         `json:"serious_rate"` // percent, one decimal
	TopReactions         []ReactionCount `json:"top_reactions"`
}

// SummaryEvidence is the structured, evidence-bounded summary. It is only
// produced when at least one evidence source succeeded, and must be
// derivable from that evidence alone.
type SummaryEvidence struct {
	Overview          string   `json:"overview"`
	KeyPoints         []string `json:"key_points"`
	Warnings          []string `json:"warnings"`
	CommonSideEffects []string `json:"common_side_effects"`
	FoodInteractions  []string `json:"food_interactions"`
}

// LogStatus is the status of one workflow log entry.
type LogStatus string

const (
	StatusStart   LogStatus = "start"
	StatusSuccess LogStatus = "success"
	StatusError   LogStatus = "error"
	StatusSkip    LogStatus = "skip"
	StatusInfo    LogStatus = "info"
)

// Pipeline stage identifiers, in execution order.
const (
	StageValidate  = "validate"
	StageTranslate = "translate"
	StageResolve   = "resolve"
	StageReconcile = "reconcile"
	StageLabel     = "label"
	StageAdverse   = "adverse"
	StageSummarize = "summarize"
	StagePersist   = "persist"
)

// WorkflowLogEntry is one immutable, timestamped audit trail entry.
type WorkflowLogEntry struct {
	Stage     string                 `json:"stage"`
	Status    LogStatus              `json:"status"`
	Message   string                 `json:"message"`
	Timestamp string                 `json:"timestamp"` // UTC RFC3339Nano
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// OverviewRow is the condensed at-a-glance projection: one row per stage,
// holding that stage's most recent status.
type OverviewRow struct {
	Stage   string    `json:"stage"`
	Status  LogStatus `json:"status"`
	Message string    `json:"message"`
}

// Registry source names as cited in AnalysisResult.SourcesCited.
const (
	SourceRxNorm    = "RxNorm"
	SourceDrugLabel = "openFDA Drug Label"
	SourceFAERS     = "openFDA FAERS"
)

// Disclaimer is attached to every result.
const Disclaimer = "This information is compiled from public regulatory " +
	"sources and is not medical advice. Consult a pharmacist or physician " +
	"before starting, stopping, or combining medications."

// AnalysisResult is the terminal aggregate of one pipeline run. It is
// created once per request and never mutated after return.
type AnalysisResult struct {
	Request      AnalyzeRequest        `json:"request"`
	Identity     ResolvedIdentity      `json:"identity"`
	Label        *LabelEvidence        `json:"label,omitempty"`
	Adverse      *AdverseEventEvidence `json:"adverse_events,omitempty"`
	Summary      *SummaryEvidence      `json:"summary,omitempty"`
	SourcesCited []string              `json:"sources_cited"`
	Disclaimer   string                `json:"disclaimer"`
	AnalyzedAt   string                `json:"analyzed_at"`
	Logs         []WorkflowLogEntry    `json:"logs"`
	Overview     []OverviewRow         `json:"overview"`
}

// AbortError is the single fatal outcome of the pipeline: a malformed
// request or a failed required translation. It carries the audit trail
// accumulated up to the abort so diagnostic callers can still see what
// happened.
type AbortError struct {
	Stage    string
	Reason   string
	Logs     []WorkflowLogEntry
	Overview []OverviewRow
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("analysis aborted at %s: %s", e.Stage, e.Reason)
}

// AuditRecord is the persisted projection of one pipeline run.
type AuditRecord struct {
	ID            uuid.UUID
	RequestName   string
	Language      string
	RequesterID   string
	InputSource   string
	RxCUI         string
	CanonicalName string
	Method        string
	SourcesCited  []string
	Aborted       bool
	AnalyzedAt    time.Time
}
