package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// APIErrorResponse covers the two error body shapes the order-management API
// produces: the framework default `{"message": "...", "errors": {"field": ["..."]}}`
// and the structured `{"error": {"code": "...", "message": "..."}}` envelope.
type APIErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError that keeps the transport status code, so callers can
// branch on it (401 session, 403 permission, 422 validation, ...).
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, resource string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &apperrors.AppError{
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%s returned status %d", resource, resp.StatusCode),
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("read error body: %w", err),
		}
	}

	var body APIErrorResponse
	code, message := "", ""
	var fields map[string]string
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Error != nil:
			code, message = body.Error.Code, body.Error.Message
		default:
			message = body.Message
		}
		fields = flattenFieldErrors(body.Errors)
	}
	if message == "" {
		message = strings.TrimSpace(string(bodyBytes))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return mapStatusError(resp.StatusCode, code, message, resource, fields)
}

// mapStatusError translates a status code and error body into an AppError
// that preserves the error semantics.
func mapStatusError(status int, code, message, resource string, fields map[string]string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", resource, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(resource, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusGone:
		return apperrors.Gone(qualifiedMsg)
	case status == http.StatusUnprocessableEntity:
		return apperrors.Validation(qualifiedMsg, fields)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualifiedMsg)
	default:
		if code == "" {
			code = "HTTP_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// flattenFieldErrors keeps the first message of every field.
func flattenFieldErrors(errs map[string][]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for field, msgs := range errs {
		if len(msgs) > 0 {
			out[field] = msgs[0]
		}
	}
	return out
}
