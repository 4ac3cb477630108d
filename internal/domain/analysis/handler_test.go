package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
)

func performRequest(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateAnalysisOK(t *testing.T) {
	model := llm.NewScriptedClient([]string{summaryJSON}, nil)
	svc := newTestService(model, ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, nil)

	rec := performRequest(h, http.MethodPost, "/api/v1/analyses", `{"name":"ibuprofen"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Identity.RxCUI != "5640" {
		t.Errorf("unexpected identity: %+v", result.Identity)
	}
	if len(result.SourcesCited) != 3 || result.Summary == nil {
		t.Errorf("unexpected result: sources=%v", result.SourcesCited)
	}
}

func TestCreateAnalysisEmptyNameIs400(t *testing.T) {
	svc := newTestService(llm.NewScriptedClient(nil, nil), ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, nil)

	rec := performRequest(h, http.MethodPost, "/api/v1/analyses", `{"name":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAnalysisTranslationAbortIs422(t *testing.T) {
	model := llm.NewScriptedClient([]string{""}, []error{errors.New("model unavailable")})
	svc := newTestService(model, ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, nil)

	rec := performRequest(h, http.MethodPost, "/api/v1/analyses", `{"name":"布洛芬"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp abortResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stage != StageTranslate || resp.Error == "" {
		t.Errorf("unexpected abort payload: %+v", resp)
	}
	if len(resp.Logs) == 0 || len(resp.Overview) == 0 {
		t.Error("abort payload must carry the partial audit trail")
	}
}

func TestGetAnalysisWithoutStoreIs503(t *testing.T) {
	svc := newTestService(llm.NewScriptedClient(nil, nil), ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, nil)

	rec := performRequest(h, http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetAnalysisRoundTrip(t *testing.T) {
	audit := newFakeAudit()
	id, err := audit.InsertRequest(context.Background(), &AuditRecord{
		RequestName:   "ibuprofen",
		RxCUI:         "5640",
		CanonicalName: "ibuprofen",
		Method:        "exact",
		SourcesCited:  []string{SourceRxNorm},
		AnalyzedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := audit.InsertLogs(context.Background(), id, []WorkflowLogEntry{
		{Stage: StageResolve, Status: StatusSuccess, Message: "exact registry match"},
	}); err != nil {
		t.Fatalf("seed logs: %v", err)
	}

	svc := newTestService(llm.NewScriptedClient(nil, nil), ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, audit)

	rec := performRequest(h, http.MethodGet, "/api/v1/analyses/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp auditResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RxCUI != "5640" || len(resp.Logs) != 1 {
		t.Errorf("unexpected payload: %+v", resp)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	svc := newTestService(llm.NewScriptedClient(nil, nil), ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, newFakeAudit())

	rec := performRequest(h, http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetAnalysisBadID(t *testing.T) {
	svc := newTestService(llm.NewScriptedClient(nil, nil), ibuprofenIdentity(), fullLabels(), activeAdverse())
	h := NewHandler(svc, newFakeAudit())

	rec := performRequest(h, http.MethodGet, "/api/v1/analyses/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
