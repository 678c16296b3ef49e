// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/evanschultz/missionctl/internal/adapters/server/common"
)

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	mission common.MissionService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the mission read service.
func NewHandler(mission common.MissionService) *Handler {
	return &Handler{mission: mission}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if h.mission == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "mission service is not configured",
		})
		return
	}
	switch path {
	case "board":
		h.handleBoard(w, r)
	case "items":
		h.handleItems(w, r)
	case "stats":
		h.handleStats(w, r)
	case "reviewers":
		h.handleReviewers(w, r)
	case "pulse":
		h.handlePulse(w, r)
	case "vocabulary":
		h.handleVocabulary(w, r)
	default:
		login, ok := resolveContributorLogin(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		h.handleContributor(w, r, login)
	}
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	view, err := h.mission.Board(r.Context(), boardRequestFromQuery(r.URL.Query()))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleItems serves GET `/items`.
func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.mission.Items(r.Context(), boardRequestFromQuery(r.URL.Query()))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// handleStats serves GET `/stats`.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.mission.Stats(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReviewers serves GET `/reviewers`.
func (h *Handler) handleReviewers(w http.ResponseWriter, r *http.Request) {
	view, err := h.mission.Reviewers(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handlePulse serves GET `/pulse?limit=N`.
func (h *Handler) handlePulse(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: fmt.Sprintf("limit %q is not an integer", raw),
			})
			return
		}
		limit = parsed
	}
	events, err := h.mission.Pulse(r.Context(), limit)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

// handleVocabulary serves GET `/vocabulary`.
func (h *Handler) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	vocab, err := h.mission.Vocabulary(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vocab)
}

// handleContributor serves GET `/contributors/{login}`.
func (h *Handler) handleContributor(w http.ResponseWriter, r *http.Request, login string) {
	contributor, err := h.mission.Contributor(r.Context(), login)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributor)
}

// boardRequestFromQuery reads repeated filter params. Priority and status
// values may also be comma-separated; domains are free text and only repeat.
func boardRequestFromQuery(values url.Values) common.BoardRequest {
	return common.BoardRequest{
		Query:      values.Get("q"),
		Priorities: splitMulti(values["priority"]),
		Statuses:   splitMulti(values["status"]),
		Domains:    repeatedOnly(values["domain"]),
	}
}

func splitMulti(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		out = append(out, repeatedOnly(strings.Split(entry, ","))...)
	}
	return out
}

func repeatedOnly(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// resolveContributorLogin parses `/contributors/{login}` and returns `{login}`.
func resolveContributorLogin(path string) (string, bool) {
	const prefix = "contributors/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	login := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if login == "" || strings.Contains(login, "/") {
		return "", false
	}
	return login, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrServiceUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}
