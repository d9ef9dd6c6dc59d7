package sharepoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx answer from the list store.
type Error struct {
	StatusCode int
	Code       string // store error code, may be empty
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports whether the store answered 404.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is a store 404.
func IsNotFound(err error) bool {
	var spErr *Error
	return errors.As(err, &spErr) && spErr.NotFound()
}

// errorEnvelope is the odata=verbose error body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Lang  string `json:"lang"`
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// newError builds an Error from a failed response body, preferring the
// store's own message over the generic HTTP one.
func newError(statusCode int, body []byte) *Error {
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", statusCode),
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Code = env.Error.Code
		if env.Error.Message.Value != "" {
			e.Message = env.Error.Message.Value
		}
	}
	return e
}
