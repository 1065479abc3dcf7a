package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// RequestEvent is one audited API request.
type RequestEvent struct {
	RequestID  string
	Method     string
	Path       string
	Action     string
	EntityType *string
	EntityID   *string
	StatusCode int
	Duration   time.Duration
	Outcome    string
}

// AuditLogger is the minimal contract used by AuditMiddleware.
type AuditLogger interface {
	LogRequest(ctx context.Context, evt RequestEvent)
}

// ZerologAuditLogger writes request events as structured log lines.
type ZerologAuditLogger struct {
	logger zerolog.Logger
}

func NewZerologAuditLogger(logger zerolog.Logger) *ZerologAuditLogger {
	return &ZerologAuditLogger{logger: logger}
}

func (l *ZerologAuditLogger) LogRequest(_ context.Context, evt RequestEvent) {
	var e *zerolog.Event
	switch evt.Outcome {
	case OutcomeSuccess:
		e = l.logger.Info()
	case OutcomeError:
		e = l.logger.Error()
	default:
		e = l.logger.Warn()
	}
	if evt.EntityType != nil {
		e = e.Str("entity_type", *evt.EntityType)
	}
	if evt.EntityID != nil {
		e = e.Str("entity_id", *evt.EntityID)
	}
	e.
		Str("request_id", evt.RequestID).
		Str("method", evt.Method).
		Str("path", evt.Path).
		Str("action", evt.Action).
		Int("status_code", evt.StatusCode).
		Dur("duration", evt.Duration).
		Str("outcome", evt.Outcome).
		Msg("api request")
}

// AuditMiddleware records every request passing through it.
// Expected order in router: RequestID -> AuditMiddleware -> handlers.
func AuditMiddleware(logger AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			action, entityType, entityID := actionFromRequest(r.Method, r.URL.Path)
			logger.LogRequest(r.Context(), RequestEvent{
				RequestID:  chimiddleware.GetReqID(r.Context()),
				Method:     r.Method,
				Path:       r.URL.Path,
				Action:     action,
				EntityType: entityType,
				EntityID:   entityID,
				StatusCode: recorder.statusCode,
				Duration:   time.Since(start),
				Outcome:    outcomeFromStatus(recorder.statusCode),
			})
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func outcomeFromStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == http.StatusNotFound:
		return OutcomeNotFound
	case statusCode >= 400 && statusCode < 500:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

func actionFromRequest(method, path string) (string, *string, *string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return strings.ToLower(method) + "_request", nil, nil
	}

	entityType := singularEntity(segments[2])
	if entityType == "" {
		return strings.ToLower(method) + "_request", nil, nil
	}

	if len(segments) == 3 {
		return actionForCollection(method, entityType), strPtr(entityType), nil
	}

	// tools/call dispatches by body, not by path id.
	if entityType == "tool" && segments[3] == "call" {
		return "call_tool", strPtr(entityType), nil
	}

	entityID := segments[3]
	action := actionForEntity(method, entityType)
	if len(segments) > 4 {
		action += "_" + segments[4]
	}
	return action, strPtr(entityType), strPtr(entityID)
}

func singularEntity(entity string) string {
	entityMap := map[string]string{
		"claims":    "claim",
		"plans":     "plan",
		"providers": "provider",
		"tools":     "tool",
	}

	if value, ok := entityMap[entity]; ok {
		return value
	}
	return ""
}

func actionForCollection(method, entity string) string {
	if method == http.MethodGet {
		return "list_" + entity
	}
	return strings.ToLower(method) + "_" + entity
}

func actionForEntity(method, entity string) string {
	if method == http.MethodGet {
		return "get_" + entity
	}
	return strings.ToLower(method) + "_" + entity
}

func strPtr(v string) *string {
	return &v
}
