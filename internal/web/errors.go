package web

// Handlers report failures through s.fail. The raw error goes to the log
// with the request ID; the client gets the core.MapError message, shaped for
// htmx, JSON or plain text, with a status derived from the error code.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/JonMunkholm/testsheet/internal/web/templates"
)

// ErrorResponse is the JSON error body. Error repeats Message for clients
// that only read the conventional field.
type ErrorResponse struct {
	Error       string           `json:"error"`
	Message     string           `json:"message"`
	Action      string           `json:"action,omitempty"`
	Code        string           `json:"code"`
	Diagnostics []report.Problem `json:"diagnostics,omitempty"`
}

// statusForCode maps an error code family to an HTTP status.
func statusForCode(code string) int {
	switch {
	case strings.HasPrefix(code, "VAL"), strings.HasPrefix(code, "SEL"):
		return http.StatusUnprocessableEntity
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case strings.HasPrefix(code, "FILE"):
		return http.StatusBadRequest
	case code == "GEN001":
		return http.StatusServiceUnavailable
	case code == "GEN002":
		return http.StatusGatewayTimeout
	case code == "GEN003":
		return 499 // client closed request
	case strings.HasPrefix(code, "RATE"):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// fail responds to err with the status of its error code and, for
// validation failures, the capped per-row diagnostics.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := core.MapError(err).Code
	problems := report.Problems(core.Diagnose(err), s.service.MaxReportedRows())
	respondError(w, r, err, statusForCode(code), problems)
}

// respondError logs err and writes the mapped message. 5xx statuses log at
// error level, the rest at warn.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int, problems []report.Problem) {
	msg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", statusCode,
		"code", msg.Code,
		"error", err,
		"problems", len(problems),
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, msg, statusCode, problems)
	case wantsJSON(r):
		respondErrorJSON(w, msg, statusCode, problems)
	default:
		respondErrorText(w, msg, statusCode, problems)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int, problems []report.Problem) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:       msg.Message,
		Message:     msg.Message,
		Action:      msg.Action,
		Code:        msg.Code,
		Diagnostics: problems,
	})
}

// respondErrorText writes a plain error response, one problem per line.
func respondErrorText(w http.ResponseWriter, msg core.UserMessage, statusCode int, problems []report.Problem) {
	body := msg.Message + " (" + msg.Code + ")"
	for _, line := range report.ProblemLines(problems) {
		body += "\n- " + line
	}
	http.Error(w, body, statusCode)
}

// renderErrorPartial writes the alert and problem list as an htmx fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int, problems []report.Problem) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// htmx ignores swaps on error statuses unless told otherwise
	w.Header().Set("HX-Reswap", "innerHTML")
	w.WriteHeader(statusCode)

	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
		return
	}
	if err := templates.ProblemList(problems).Render(r.Context(), w); err != nil {
		slog.Error("render problem list", "error", err)
	}
}

// isHTMX reports whether htmx issued r.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON is true when the client asks for JSON, sends JSON, or calls an
// /api/ route without saying otherwise.
func wantsJSON(r *http.Request) bool {
	for _, h := range []string{"Accept", "Content-Type"} {
		if strings.Contains(r.Header.Get(h), "application/json") {
			return true
		}
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v with HTML escaping off. An encode failure can only be
// logged because the status is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
