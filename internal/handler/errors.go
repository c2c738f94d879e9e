package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// errorBody is the JSON envelope for every non-2xx response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// storedWithoutPositionBody answers a create whose pin was stored but whose
// position the authority refused. Pin carries the id for a retry through
// PUT /api/pines/{id}/position.
type storedWithoutPositionBody struct {
	Error errorDetail `json:"error"`
	Pin   pinResponse `json:"pin"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// requestError answers a bad request rejected before reaching the service
// layer (malformed body, bad parameter).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// serviceError maps a service error to its HTTP response. notFound is the
// message used for domain.ErrNotFound, since the handler is the layer that
// knows what was being looked up. Unknown errors become 500 and are logged.
func serviceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, "out_of_range", unwrapMessage(err, domain.ErrOutOfRange))
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		slog.WarnContext(r.Context(), "position write refused", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "authority_unavailable", "coordinate authority unavailable; try again later")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "only the owner or an admin may do this")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// unwrapMessage extracts the human-readable part that follows sentinel in a
// wrapped error, e.g.
// "service.PinService.Create: validation error: name is required" -> "name is required".
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}
