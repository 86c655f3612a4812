// Package httpapi exposes the schedule, progress, holiday and work item use
// cases as a JSON API.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/service"
)

// RequestRecorder receives one call per served request.
type RequestRecorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// Config for the HTTP API handler.
type Config struct {
	Schedule  service.ScheduleService
	Progress  service.ProgressService
	Holidays  service.HolidayService
	WorkItems service.WorkItemService
	BasePath  string
	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer
	Recorder RequestRecorder
}

type apiErrorBody struct {
	Code    contract.ErrorCode `json:"code" example:"VALIDATION"`
	Field   string             `json:"field,omitempty" example:"start_date"`
	Message string             `json:"message" example:"start_date must be YYYY-MM-DD"`
}

// apiError is the error envelope every failed request returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

const codeBadRequest contract.ErrorCode = "BAD_REQUEST"

// New returns an HTTP handler exposing the timeline API.
func New(cfg Config) http.Handler {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", "", joinErrors(msg, errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", "", joinErrors(msg, errs))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if cfg.Recorder != nil {
		router.Use(recordRequests(cfg.Recorder))
	}
	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	hcfg := huma.DefaultConfig("Timeline API", "1.0.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerChains(group, cfg.Schedule)
	registerProgress(group, cfg.Progress)
	registerHolidays(group, cfg.Holidays)
	registerWorkItems(group, cfg.WorkItems)
	return router
}

func newAPIError(status int, code contract.ErrorCode, field, message string) huma.StatusError {
	if code == "" {
		code = codeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Field: field, Message: message}}
}

// handleError maps a use case error onto its HTTP status.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	ce := contract.ErrorFromDomain(err)
	status := statusForCode(ce.Code)
	msg := ce.Message
	if ce.Code == contract.ErrCodeInternal {
		msg = "internal error"
	}
	return newAPIError(status, ce.Code, ce.Field, msg)
}

func statusForCode(code contract.ErrorCode) int {
	switch code {
	case contract.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case contract.ErrCodeNotFound:
		return http.StatusNotFound
	case contract.ErrCodeInvalidIndex:
		return http.StatusBadRequest
	case contract.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) contract.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return codeBadRequest
	case http.StatusNotFound:
		return contract.ErrCodeNotFound
	case http.StatusConflict:
		return contract.ErrCodeConflict
	case http.StatusUnprocessableEntity:
		return contract.ErrCodeValidation
	case http.StatusInternalServerError:
		return contract.ErrCodeInternal
	default:
		return contract.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")))
	}
}

func joinErrors(msg string, errs []error) string {
	if len(errs) == 0 {
		return msg
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			parts = append(parts, e.Error())
		}
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// recordRequests reports each request under its route pattern so that ids
// in the path do not become label values.
func recordRequests(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startedAt := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.RecordHTTPRequest(r.Method, pattern, status, time.Since(startedAt))
		})
	}
}

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string
	}, error) {
		return &struct {
			Body map[string]string
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}
