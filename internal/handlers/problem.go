package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cindral/core/internal/systemmap"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

func writeProblem(w http.ResponseWriter, r *http.Request, p ProblemDetail) {
	p.Type = fmt.Sprintf("https://cindral.io/errors/%d", p.Status)
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if r != nil {
		p.Instance = r.URL.Path
	}
	p.TraceID = w.Header().Get("X-Request-ID")

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, r, ProblemDetail{Status: status, Detail: detail})
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	WriteError(w, r, http.StatusBadRequest, detail)
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	WriteError(w, r, http.StatusNotFound, detail)
}

func WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, "The HTTP method is not supported for this endpoint")
}

func WriteTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	WriteError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Retry after the specified interval.")
}

// WriteInternal logs err and never exposes it.
func WriteInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "internal server error", "path", r.URL.Path, "error", err)
	WriteError(w, r, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.")
}

// writeBackendError maps collaborator failures onto problem responses.
func writeBackendError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, systemmap.ErrStale) {
		logger.WarnContext(r.Context(), "mutation applied but refresh failed", "error", err)
		writeProblem(w, r, ProblemDetail{
			Status: http.StatusBadGateway,
			Detail: "The change was saved but the map could not be refreshed.",
			Kind:   "stale",
		})
		return
	}

	kind := systemmap.Classify(err)
	p := ProblemDetail{Kind: string(kind), Detail: err.Error()}
	switch kind {
	case systemmap.KindValidation:
		p.Status = http.StatusBadRequest
	case systemmap.KindNotFound:
		p.Status = http.StatusNotFound
	case systemmap.KindNetwork:
		p.Status = http.StatusBadGateway
		p.Detail = "The compliance backend could not be reached."
	default:
		p.Status = http.StatusBadGateway
		p.Detail = "The compliance backend rejected the request."
	}
	if p.Status >= 500 {
		logger.ErrorContext(r.Context(), "backend request failed", "kind", kind, "error", err)
	}
	writeProblem(w, r, p)
}
