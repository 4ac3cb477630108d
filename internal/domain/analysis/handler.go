package analysis

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc    *Service
	reader AuditReader
}

// NewHandler wires the HTTP surface. reader may be nil when audit
// persistence is disabled; the lookup endpoint then answers 503.
func NewHandler(svc *Service, reader AuditReader) *Handler {
	return &Handler{svc: svc, reader: reader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyses", h.CreateAnalysis)
	api.GET("/analyses/:id", h.GetAnalysis)
}

// abortResponse is the diagnostic payload for fatally aborted runs.
type abortResponse struct {
	Error    string             `json:"error"`
	Stage    string             `json:"stage"`
	Logs     []WorkflowLogEntry `json:"logs"`
	Overview []OverviewRow      `json:"overview"`
}

// CreateAnalysis runs the pipeline synchronously and returns the full
// result. Malformed requests answer 400; a fatal abort past validation
// answers 422 with the partial audit trail.
func (h *Handler) CreateAnalysis(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Analyze(c.Request().Context(), req)
	if err != nil {
		var abort *AbortError
		if !errors.As(err, &abort) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if abort.Stage == StageValidate {
			return echo.NewHTTPError(http.StatusBadRequest, abort.Reason)
		}
		return c.JSON(http.StatusUnprocessableEntity, abortResponse{
			Error:    abort.Reason,
			Stage:    abort.Stage,
			Logs:     abort.Logs,
			Overview: abort.Overview,
		})
	}
	return c.JSON(http.StatusOK, result)
}

// auditResponse pairs a persisted request with its log trail.
type auditResponse struct {
	ID            uuid.UUID          `json:"id"`
	RequestName   string             `json:"request_name"`
	Language      string             `json:"language,omitempty"`
	RequesterID   string             `json:"requester_id,omitempty"`
	InputSource   string             `json:"input_source,omitempty"`
	RxCUI         string             `json:"rxcui,omitempty"`
	CanonicalName string             `json:"canonical_name,omitempty"`
	Method        string             `json:"method"`
	SourcesCited  []string           `json:"sources_cited"`
	Aborted       bool               `json:"aborted"`
	AnalyzedAt    string             `json:"analyzed_at"`
	Logs          []WorkflowLogEntry `json:"logs"`
}

// GetAnalysis returns a persisted audit record with its log trail.
func (h *Handler) GetAnalysis(c echo.Context) error {
	if h.reader == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit persistence not configured")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	rec, err := h.reader.GetRequest(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	logs, err := h.reader.GetLogs(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, auditResponse{
		ID:            rec.ID,
		RequestName:   rec.RequestName,
		Language:      rec.Language,
		RequesterID:   rec.RequesterID,
		InputSource:   rec.InputSource,
		RxCUI:         rec.RxCUI,
		CanonicalName: rec.CanonicalName,
		Method:        rec.Method,
		SourcesCited:  rec.SourcesCited,
		Aborted:       rec.Aborted,
		AnalyzedAt:    rec.AnalyzedAt.UTC().Format(time.RFC3339),
		Logs:          logs,
	})
}
