package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// ErrorBody is the error envelope of the order-management API:
// a message plus, for validation failures, messages per field.
type ErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err in the API error envelope. AppErrors keep their
// status and field messages; anything else is logged and answered with 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body := ErrorBody{Message: appErr.Message}
		if len(appErr.Fields) > 0 {
			body.Errors = make(map[string][]string, len(appErr.Fields))
			for field, msg := range appErr.Fields {
				body.Errors[field] = []string{msg}
			}
		}
		WriteJSON(w, appErr.Status, body)
		return
	}

	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		WriteJSON(w, status, ErrorBody{Message: "Server Error"})
		return
	}
	WriteJSON(w, status, ErrorBody{Message: err.Error()})
}

// WriteMessage writes a bare {"message": ...} body.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Message: message})
}

// ParseID parses a numeric path parameter. If invalid, it writes a 404 and
// returns false, signaling the caller to return early.
func ParseID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteMessage(w, http.StatusNotFound, "No query results for id "+param)
		return 0, false
	}
	return id, true
}
