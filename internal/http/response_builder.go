package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"failed to encode response"}`))
		return
	}
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse creates a standard `{"message": ...}` error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(messageBody{Message: message})
}

// MessageResponse is a 200 carrying only a message.
func MessageResponse(message string) *JSONResponseBuilder {
	return NewJSONResponse().Body(messageBody{Message: message})
}

// errorResponseFor maps service errors to HTTP responses. Validation and
// date problems are the caller's fault; anything unrecognised is a 500 that
// carries the error text.
func errorResponseFor(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	var berr *badRequestError
	switch {
	case errors.As(err, &verr):
		return ErrorResponse(http.StatusBadRequest, verr.Error())
	case errors.As(err, &berr):
		return ErrorResponse(http.StatusBadRequest, berr.Error())
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, "Transaction not found")
	case errors.Is(err, core.ErrMissingDateRange):
		return ErrorResponse(http.StatusBadRequest, "Start date and end date are required")
	case errors.Is(err, core.ErrInvalidDateFormat):
		return ErrorResponse(http.StatusBadRequest, "Invalid date format")
	default:
		return ErrorResponse(http.StatusInternalServerError, err.Error())
	}
}

// writeError logs err with the request-scoped logger and writes its mapped
// response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponseFor(err)

	fields := applog.NewFields().WithOperation(op).WithError(err)
	logger := applog.FromContext(r.Context())
	if resp.statusCode >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields.WithErrorType(applog.ErrorTypeInternal).ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.WithErrorType(errorType(resp.statusCode)).ToSlice()...)
	}

	resp.Write(w)
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case http.StatusUnauthorized:
		return applog.ErrorTypeAuth
	default:
		return applog.ErrorTypeValidation
	}
}
