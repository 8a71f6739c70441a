package http

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Error codes carried in JSON error bodies.
const (
	CodeNotFound    = "not_found"
	CodeBadRequest  = "bad_request"
	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal"
	CodeUnavailable = "unavailable"
)

// APIError is the JSON body of every non-validation failure.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// fieldErrorsBody is the 422 body of a rejected form.
type fieldErrorsBody struct {
	FieldErrors map[string]string `json:"fieldErrors"`
}

// savedBody is the 200 body of a committed bulk update.
type savedBody struct {
	LastSavedDate string `json:"lastSavedDate"`
}

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    http.Header
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    http.Header{},
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// JSON encodes v as the body. An encoding failure turns the response into
// a 500 with a generic error body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		b.statusCode = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"internal error","code":"internal"}` + "\n")
	}
	b.headers.Set("Content-Type", "application/json; charset=utf-8")
	b.body = buf.Bytes()
	return b
}

// HTML sets a rendered page as the body.
func (b *ResponseBuilder) HTML(page []byte) *ResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = page
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if b.headers.Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorJSON builds an APIError response.
func ErrorJSON(status int, code, message string) *ResponseBuilder {
	return NewResponse().Status(status).JSON(APIError{Error: message, Code: code})
}

// NotFoundJSON is the generic operation error for a missing record.
func NotFoundJSON(message string) *ResponseBuilder {
	return ErrorJSON(http.StatusNotFound, CodeNotFound, message)
}

// BadRequestJSON reports an unreadable request.
func BadRequestJSON(message string) *ResponseBuilder {
	return ErrorJSON(http.StatusBadRequest, CodeBadRequest, message)
}

// InternalErrorJSON never leaks the underlying error.
func InternalErrorJSON() *ResponseBuilder {
	return ErrorJSON(http.StatusInternalServerError, CodeInternal, "internal error")
}

// FieldErrorsJSON builds the 422 response of a rejected form.
func FieldErrorsJSON(fields map[string]string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(fieldErrorsBody{FieldErrors: fields})
}
