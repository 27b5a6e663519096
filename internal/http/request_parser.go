package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/middleware/auth"
)

// maxBodyBytes caps transaction payloads.
const maxBodyBytes = 64 << 10

// badRequestError marks a body that could not be decoded at all.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "Invalid request body: " + e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

// ParsePageNumber reads pageNumber from the query string. Missing,
// non-numeric and non-positive values fall back to page 1.
func ParsePageNumber(query url.Values) int {
	v := strings.TrimSpace(query.Get("pageNumber"))
	if v == "" {
		return 1
	}
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// DecodeTransactionFields reads a `{type, category, amount, description}`
// body. Unknown keys are ignored. An empty body decodes to no fields. String
// values are kept verbatim; amount may be a JSON number or a numeric string.
func DecodeTransactionFields(w http.ResponseWriter, r *http.Request) (core.TransactionFields, error) {
	var f core.TransactionFields

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return core.TransactionFields{}, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return f, &badRequestError{err: fmt.Errorf("body exceeds %d bytes", maxErr.Limit)}
		}
		return f, &badRequestError{err: err}
	}
	if dec.More() {
		return f, &badRequestError{err: errors.New("unexpected data after JSON object")}
	}
	return f, nil
}

// ownerOf returns the authenticated owner. Routes under /api only run
// after auth.Middleware, so an empty result means a wiring bug.
func ownerOf(r *http.Request) string {
	owner, _ := auth.OwnerFromContext(r.Context())
	return owner
}
