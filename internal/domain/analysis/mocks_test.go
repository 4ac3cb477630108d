package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

// fakeIdentity is an in-memory identity registry. exact maps lowercase
// names to identifiers; approx maps lowercase names to candidate lists;
// props maps identifiers to canonical properties.
type fakeIdentity struct {
	exact     map[string]string
	approx    map[string][]registry.Concept
	props     map[string]registry.ConceptProperties
	exactErr  error
	approxErr error
	propsErr  error
}

func (f *fakeIdentity) SearchExact(_ context.Context, name string) (string, error) {
	if f.exactErr != nil {
		return "", f.exactErr
	}
	return f.exact[strings.ToLower(name)], nil
}

func (f *fakeIdentity) SearchApprox(_ context.Context, name string, maxEntries int) ([]registry.Concept, error) {
	if f.approxErr != nil {
		return nil, f.approxErr
	}
	out := f.approx[strings.ToLower(name)]
	if len(out) > maxEntries {
		out = out[:maxEntries]
	}
	return out, nil
}

func (f *fakeIdentity) GetProperties(_ context.Context, rxcui string) (registry.ConceptProperties, error) {
	if f.propsErr != nil {
		return registry.ConceptProperties{}, f.propsErr
	}
	p, ok := f.props[rxcui]
	if !ok {
		return registry.ConceptProperties{}, registry.ErrNotFound
	}
	return p, nil
}

// fakeLabels serves one document set and per-field section text.
type fakeLabels struct {
	docs        []registry.LabelDocument
	sections    map[string]string // field name -> text
	searchErr   error
	sectionErrs map[string]error // field name -> error
}

func (f *fakeLabels) SearchDocuments(_ context.Context, rxcui, name string) ([]registry.LabelDocument, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.docs, nil
}

func (f *fakeLabels) GetSection(_ context.Context, documentID, field string) (string, error) {
	if err := f.sectionErrs[field]; err != nil {
		return "", err
	}
	text, ok := f.sections[field]
	if !ok {
		return "", registry.ErrNotFound
	}
	return text, nil
}

// fakeAdverse serves fixed report counts and a reaction ranking.
type fakeAdverse struct {
	counts    map[registry.ReportFilter]int
	reactions []registry.Reaction
	countErr  error
	reactErr  error
}

func (f *fakeAdverse) CountReports(_ context.Context, drugName string, filter registry.ReportFilter) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[filter], nil
}

func (f *fakeAdverse) TopReactions(_ context.Context, drugName string, limit int) ([]registry.Reaction, error) {
	if f.reactErr != nil {
		return nil, f.reactErr
	}
	if len(f.reactions) > limit {
		return f.reactions[:limit], nil
	}
	return f.reactions, nil
}

// fakeCache is an in-memory resolution cache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]ResolvedIdentity
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]ResolvedIdentity)}
}

func (f *fakeCache) Get(_ context.Context, name string) (*ResolvedIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.entries[name]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (f *fakeCache) Put(_ context.Context, name string, identity ResolvedIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[name] = identity
	return nil
}

// fakeAudit records inserts in memory.
type fakeAudit struct {
	mu        sync.Mutex
	records   []*AuditRecord
	logs      map[uuid.UUID][]WorkflowLogEntry
	insertErr error
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{logs: make(map[uuid.UUID][]WorkflowLogEntry)}
}

func (f *fakeAudit) InsertRequest(_ context.Context, rec *AuditRecord) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	rec.ID = uuid.New()
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeAudit) InsertLogs(_ context.Context, requestID uuid.UUID, entries []WorkflowLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[requestID] = entries
	return nil
}

func (f *fakeAudit) GetRequest(_ context.Context, id uuid.UUID) (*AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeAudit) GetLogs(_ context.Context, requestID uuid.UUID) ([]WorkflowLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[requestID], nil
}

// ---- scenario builders ----

func ibuprofenIdentity() *fakeIdentity {
	return &fakeIdentity{
		exact: map[string]string{"ibuprofen": "5640"},
		approx: map[string][]registry.Concept{
			"ibuprofin": {
				{RxCUI: "5640", Name: "ibuprofen", TTY: "IN", Score: scoreOf(85)},
				{RxCUI: "153010", Name: "Advil", TTY: "BN", Score: scoreOf(70)},
			},
		},
		props: map[string]registry.ConceptProperties{
			"5640":   {RxCUI: "5640", Name: "ibuprofen", TTY: "IN"},
			"153010": {RxCUI: "153010", Name: "Advil", TTY: "BN"},
		},
	}
}

func fullLabels() *fakeLabels {
	sections := make(map[string]string)
	for _, field := range sectionFields {
		sections[field] = "text for " + field
	}
	return &fakeLabels{
		docs:     []registry.LabelDocument{{ID: "doc-1", Published: "20240601"}},
		sections: sections,
	}
}

func activeAdverse() *fakeAdverse {
	return &fakeAdverse{
		counts: map[registry.ReportFilter]int{
			registry.FilterAll:             200,
			registry.FilterSerious:         30,
			registry.FilterDeath:           3,
			registry.FilterHospitalization: 12,
		},
		reactions: []registry.Reaction{
			{Term: "NAUSEA", Count: 100},
			{Term: "HEADACHE", Count: 50},
		},
	}
}

func emptyAdverse() *fakeAdverse {
	return &fakeAdverse{counts: map[registry.ReportFilter]int{}}
}

func scoreOf(v float64) *float64 { return &v }

func translationJSON(names ...string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf(`{"name":%q}`, n)
	}
	return `{"candidates":[` + strings.Join(parts, ",") + `]}`
}

const summaryJSON = `{"overview":"Ibuprofen is an anti-inflammatory pain reliever.",` +
	`"key_points":["Take with food"],"warnings":["Stomach bleeding risk"],` +
	`"common_side_effects":["Nausea"],"food_interactions":["Avoid alcohol"]}`
