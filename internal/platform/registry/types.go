// Package registry contains the HTTP clients for the external drug
// registries the pipeline consumes: RxNorm for identity resolution, the
// openFDA drug label endpoint for structured labels, and openFDA FAERS for
// adverse-event statistics. Each client covers exactly the operations the
// pipeline needs and nothing more.
package registry

import "errors"

// ErrNotFound indicates the registry had no matching record. Callers treat
// it as an empty result, distinct from transport failures.
var ErrNotFound = errors.New("registry: not found")

// Concept is one identity-registry search result.
type Concept struct {
	RxCUI   string   `json:"rxcui"`
	Name    string   `json:"name"`
	TTY     string   `json:"tty"`
	Synonym string   `json:"synonym,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

// ConceptProperties are the canonical properties of a resolved concept.
type ConceptProperties struct {
	RxCUI string `json:"rxcui"`
	Name  string `json:"name"`
	TTY   string `json:"tty"`
}

// LabelDocument identifies one structured product label.
type LabelDocument struct {
	ID        string `json:"id"`
	Published string `json:"published"` // YYYYMMDD as reported by the registry
}

// Reaction is one aggregated adverse-event reaction count.
type Reaction struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ReportFilter narrows an adverse-event report count query.
type ReportFilter string

const (
	FilterAll             ReportFilter = ""
	FilterSerious         ReportFilter = "serious:1"
	FilterDeath           ReportFilter = "seriousnessdeath:1"
	FilterHospitalization ReportFilter = "seriousnesshospitalization:1"
)
