package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
)

// Service orchestrates one pipeline run per Analyze call: validate,
// translate when needed, resolve, reconcile when ambiguous, aggregate
// label and adverse-event evidence, summarize when any evidence exists,
// and persist the audit trail. Every stage outcome is recorded through a
// per-run Recorder; after translation no failure aborts the run.
type Service struct {
	translator *Translator
	resolver   *Resolver
	reconciler *Reconciler
	labels     *LabelAggregator
	adverse    *AdverseAggregator
	summarizer *Summarizer

	cache  ResolutionCache
	audit  AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the pipeline stages. Audit persistence and the
// resolution cache are optional and attached via setters.
func NewService(model llm.Client, ids IdentityRegistry, labels LabelRegistry, adverse AdverseRegistry,
	sectionTimeout, queryTimeout time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		translator: NewTranslator(model),
		resolver:   NewResolver(ids),
		reconciler: NewReconciler(model, ids),
		labels:     NewLabelAggregator(labels, sectionTimeout),
		adverse:    NewAdverseAggregator(adverse, queryTimeout),
		summarizer: NewSummarizer(model),
		logger:     logger,
		now:        time.Now,
	}
}

// SetAuditRepository enables audit persistence. Without it the persist
// stage records a skip.
func (s *Service) SetAuditRepository(repo AuditRepository) { s.audit = repo }

// SetResolutionCache enables the read-through resolution cache.
func (s *Service) SetResolutionCache(c ResolutionCache) { s.cache = c }

// Analyze runs the full pipeline for one request. It returns a result for
// every well-formed request whose name could be carried into resolution;
// the only error shape is *AbortError, raised on a malformed request or a
// failed required translation.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	rec := NewRecorder()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		rec.Record(StageValidate, StatusError, "drug name is required", nil)
		return nil, s.abort(ctx, rec, req, StageValidate, "drug name is required")
	}
	rec.Record(StageValidate, StatusSuccess, "request accepted", map[string]interface{}{
		"name":     req.Name,
		"language": req.Language,
		"source":   req.InputSource,
	})

	candidates, err := s.translate(ctx, rec, req.Name)
	if err != nil {
		return nil, s.abort(ctx, rec, req, StageTranslate, err.Error())
	}

	identity, displayName := s.resolve(ctx, rec, req.Name, candidates)

	label := s.fetchLabel(ctx, rec, identity, displayName)
	adverse := s.fetchAdverse(ctx, rec, displayName)
	summary := s.summarize(ctx, rec, displayName, label, adverse)

	result := &AnalysisResult{
		Request:      req,
		Identity:     identity,
		Label:        label,
		Adverse:      adverse,
		Summary:      summary,
		SourcesCited: citedSources(identity, label, adverse),
		Disclaimer:   Disclaimer,
		AnalyzedAt:   s.now().UTC().Format(time.RFC3339),
	}
	s.persist(ctx, rec, result, false)

	result.Logs = rec.Logs()
	result.Overview = rec.Overview()
	return result, nil
}

// ---- stages ----

// translate returns the ranked name candidates carried into resolution.
// Latin-script input skips the model call and becomes its own single
// candidate. This is the only stage whose failure aborts the run.
func (s *Service) translate(ctx context.Context, rec *Recorder, rawName string) ([]TranslationCandidate, error) {
	if !NeedsTranslation(rawName) {
		rec.Record(StageTranslate, StatusSkip, "latin-script input, translation not required", nil)
		return []TranslationCandidate{{Name: rawName}}, nil
	}

	rec.Record(StageTranslate, StatusStart, "translating drug name", nil)
	candidates, err := s.translator.Translate(ctx, rawName)
	if err != nil {
		rec.Record(StageTranslate, StatusError, err.Error(), nil)
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	rec.Record(StageTranslate, StatusSuccess, fmt.Sprintf("%d candidate(s) produced", len(candidates)),
		map[string]interface{}{"candidates": names})
	return candidates, nil
}

// resolve establishes the canonical identity, consulting the cache first
// and reconciling fuzzy unions. It returns the identity plus the display
// name used by the downstream evidence stages, which falls back to the
// best translation candidate when unresolved.
func (s *Service) resolve(ctx context.Context, rec *Recorder, rawName string, candidates []TranslationCandidate) (ResolvedIdentity, string) {
	rec.Record(StageResolve, StatusStart, "resolving drug identity", nil)

	cacheKey := strings.ToLower(candidates[0].Name)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		rec.Record(StageResolve, StatusInfo, "resolution cache hit", nil)
		rec.Record(StageResolve, StatusSuccess, "identity served from resolution cache", map[string]interface{}{
			"rxcui":  cached.RxCUI,
			"method": cached.Method,
		})
		rec.Record(StageReconcile, StatusSkip, "identity served from cache", nil)
		return *cached, cached.CanonicalName
	}

	outcome, err := s.resolver.Resolve(ctx, candidates)
	switch {
	case outcome.Identity.Method == ResolutionExact:
		rec.Record(StageResolve, StatusSuccess, "exact registry match", map[string]interface{}{
			"rxcui":          outcome.Identity.RxCUI,
			"canonical_name": outcome.Identity.CanonicalName,
		})
		rec.Record(StageReconcile, StatusSkip, "exact match, reconciliation not needed", nil)
		s.cachePut(ctx, cacheKey, outcome.Identity)
		return outcome.Identity, outcome.Identity.CanonicalName

	case len(outcome.Union) > 0:
		rec.Record(StageResolve, StatusInfo,
			fmt.Sprintf("no exact match, %d approximate candidate(s)", len(outcome.Union)), nil)
		identity := s.reconcile(ctx, rec, rawName, candidates, outcome)
		s.cachePut(ctx, cacheKey, identity)
		return identity, identity.CanonicalName

	default:
		msg := "no registry match for any candidate"
		if err != nil {
			msg = err.Error()
		}
		rec.Record(StageResolve, StatusError, msg, nil)
		rec.Record(StageReconcile, StatusSkip, "nothing to reconcile", nil)
		// Downstream stages proceed best-effort on the raw candidate name.
		return outcome.Identity, candidates[0].Name
	}
}

func (s *Service) reconcile(ctx context.Context, rec *Recorder, rawName string, candidates []TranslationCandidate, outcome ResolveOutcome) ResolvedIdentity {
	rec.Record(StageReconcile, StatusStart,
		fmt.Sprintf("reconciling %d candidate(s)", len(outcome.Union)), nil)

	rc := s.reconciler.Reconcile(ctx, rawName, candidates, outcome.Union)
	meta := map[string]interface{}{
		"rxcui":          rc.Identity.RxCUI,
		"canonical_name": rc.Identity.CanonicalName,
		"method":         rc.Identity.Method,
	}
	switch {
	case rc.Picked:
		rec.Record(StageReconcile, StatusSuccess, "model selected best candidate", meta)
		if !rc.Verified {
			rec.Record(StageReconcile, StatusInfo, "canonical name not verified by registry", meta)
		}
	case rc.FallbackReason != "":
		rec.Record(StageReconcile, StatusInfo,
			"reconciliation inconclusive, using best-scored candidate: "+rc.FallbackReason, meta)
		rec.Record(StageReconcile, StatusSuccess, "best-scored candidate selected", meta)
	default:
		rec.Record(StageReconcile, StatusSuccess, "single candidate selected", meta)
	}
	return rc.Identity
}

func (s *Service) fetchLabel(ctx context.Context, rec *Recorder, identity ResolvedIdentity, displayName string) *LabelEvidence {
	rec.Record(StageLabel, StatusStart, "fetching product label", nil)
	if !identity.Resolved() {
		rec.Record(StageLabel, StatusInfo, "identity unresolved, searching label registry by name", nil)
	}

	outcome, err := s.labels.Fetch(ctx, identity.RxCUI, displayName)
	if err != nil {
		rec.Record(StageLabel, StatusError, err.Error(), nil)
		return nil
	}
	meta := map[string]interface{}{
		"document_id": outcome.Evidence.DocumentID,
		"published":   outcome.Evidence.PublishedDate,
		"sections":    len(outcome.Evidence.Sections),
	}
	if len(outcome.Missing) > 0 {
		missing := make([]string, len(outcome.Missing))
		for i, k := range outcome.Missing {
			missing[i] = string(k)
		}
		meta["missing_sections"] = missing
	}
	rec.Record(StageLabel, StatusSuccess,
		fmt.Sprintf("%d of %d sections retrieved", len(outcome.Evidence.Sections), len(sectionOrder)), meta)
	if len(outcome.Evidence.Sections) == 0 {
		// A document with no retrievable sections contributes nothing
		// downstream, though finding it is not a stage failure.
		return nil
	}
	return outcome.Evidence
}

func (s *Service) fetchAdverse(ctx context.Context, rec *Recorder, displayName string) *AdverseEventEvidence {
	rec.Record(StageAdverse, StatusStart, "querying adverse-event reports", nil)

	ev, warnings, err := s.adverse.Fetch(ctx, displayName)
	for _, w := range warnings {
		rec.Record(StageAdverse, StatusInfo, w, nil)
	}
	if err != nil {
		rec.Record(StageAdverse, StatusError, err.Error(), nil)
		return nil
	}
	if ev == nil {
		rec.Record(StageAdverse, StatusError, "no adverse-event reports found", nil)
		return nil
	}
	rec.Record(StageAdverse, StatusSuccess,
		fmt.Sprintf("%d reports, %d ranked reactions", ev.TotalReports, len(ev.TopReactions)),
		map[string]interface{}{
			"total_reports": ev.TotalReports,
			"serious_rate":  ev.SeriousRate,
		})
	return ev
}

func (s *Service) summarize(ctx context.Context, rec *Recorder, displayName string, label *LabelEvidence, adverse *AdverseEventEvidence) *SummaryEvidence {
	if label == nil && adverse == nil {
		rec.Record(StageSummarize, StatusSkip, "no evidence gathered, summary not generated", nil)
		return nil
	}

	rec.Record(StageSummarize, StatusStart, "generating evidence-bounded summary", nil)
	summary, err := s.summarizer.Summarize(ctx, displayName, label, adverse)
	if err != nil {
		rec.Record(StageSummarize, StatusError, err.Error(), nil)
		return nil
	}
	rec.Record(StageSummarize, StatusSuccess, "summary generated", nil)
	return summary
}

// persist writes the audit record and the log trail accumulated so far.
// Failures degrade to an error log entry; the caller still gets its
// result.
func (s *Service) persist(ctx context.Context, rec *Recorder, result *AnalysisResult, aborted bool) {
	if s.audit == nil {
		rec.Record(StagePersist, StatusSkip, "audit persistence not configured", nil)
		return
	}
	rec.Record(StagePersist, StatusStart, "persisting audit record", nil)

	record := &AuditRecord{
		RequestName:   result.Request.Name,
		Language:      string(result.Request.Language),
		RequesterID:   result.Request.RequesterID,
		InputSource:   string(result.Request.InputSource),
		RxCUI:         result.Identity.RxCUI,
		CanonicalName: result.Identity.CanonicalName,
		Method:        string(result.Identity.Method),
		SourcesCited:  result.SourcesCited,
		Aborted:       aborted,
		AnalyzedAt:    s.now().UTC(),
	}
	id, err := s.audit.InsertRequest(ctx, record)
	if err != nil {
		rec.Record(StagePersist, StatusError, fmt.Sprintf("insert audit record: %v", err), nil)
		return
	}
	if err := s.audit.InsertLogs(ctx, id, rec.Logs()); err != nil {
		rec.Record(StagePersist, StatusError, fmt.Sprintf("insert audit logs: %v", err), nil)
		return
	}
	rec.Record(StagePersist, StatusSuccess, "audit record persisted",
		map[string]interface{}{"record_id": id.String()})
}

// abort finalizes a fatal run: it persists the partial trail best-effort
// and wraps everything in an AbortError.
func (s *Service) abort(ctx context.Context, rec *Recorder, req AnalyzeRequest, stage, reason string) error {
	s.persist(ctx, rec, &AnalysisResult{
		Request:  req,
		Identity: ResolvedIdentity{Method: ResolutionUnresolved},
	}, true)
	s.logger.Warn().Str("stage", stage).Str("name", req.Name).Msg("analysis aborted")
	return &AbortError{
		Stage:    stage,
		Reason:   reason,
		Logs:     rec.Logs(),
		Overview: rec.Overview(),
	}
}

// ---- helpers ----

// citedSources lists exactly the registries whose data is present in the
// result, in fixed order.
func citedSources(identity ResolvedIdentity, label *LabelEvidence, adverse *AdverseEventEvidence) []string {
	sources := []string{}
	if identity.Resolved() {
		sources = append(sources, SourceRxNorm)
	}
	if label != nil && len(label.Sections) > 0 {
		sources = append(sources, SourceDrugLabel)
	}
	if adverse != nil {
		sources = append(sources, SourceFAERS)
	}
	return sources
}

func (s *Service) cacheGet(ctx context.Context, key string) *ResolvedIdentity {
	if s.cache == nil {
		return nil
	}
	identity, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("resolution cache read failed")
		return nil
	}
	return identity
}

func (s *Service) cachePut(ctx context.Context, key string, identity ResolvedIdentity) {
	if s.cache == nil || !identity.Resolved() {
		return
	}
	if err := s.cache.Put(ctx, key, identity); err != nil {
		s.logger.Warn().Err(err).Msg("resolution cache write failed")
	}
}
