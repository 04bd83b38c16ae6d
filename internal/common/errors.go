package common

import (
	"fmt"
	"strconv"
	"strings"
)

// WrapError prefixes err with message. A nil err stays nil.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NewError formats a plain error.
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError names the setting or input that was rejected.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NetworkError is a transport failure talking to URL: nothing came back.
// Callers treat it as retryable.
type NetworkError struct {
	URL string
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	msg := e.Op + " " + e.URL
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError records that op against url failed before a response arrived.
func NewNetworkError(url, op string, err error) *NetworkError {
	return &NetworkError{URL: url, Op: op, Err: err}
}

// HTTPError is a response with an unacceptable status. Body holds the start
// of the response body, if any.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	who := e.URL
	if who == "" {
		who = "server"
	}
	msg := who + " answered " + strconv.Itoa(e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func NewHTTPError(url string, statusCode int, body string) *HTTPError {
	return &HTTPError{URL: url, StatusCode: statusCode, Body: body}
}

// CombineErrors drops nils and returns the single remaining error unchanged,
// or one error listing all of them.
func CombineErrors(errs []error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}

	parts := make([]string, len(kept))
	for i, err := range kept {
		parts[i] = err.Error()
	}
	return fmt.Errorf("%d errors: %s", len(kept), strings.Join(parts, "; "))
}

// ErrorCollector accumulates errors from independent steps.
type ErrorCollector struct {
	errors []error
}

func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

func (ec *ErrorCollector) Error() error {
	return CombineErrors(ec.errors)
}
