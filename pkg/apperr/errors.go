package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Category groups error codes.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryResource       Category = "resource"
	CategoryBusinessRule   Category = "business_rule"
	CategoryDatabase       Category = "database"
	CategoryNetwork        Category = "network"
	CategoryRateLimit      Category = "rate_limit"
	CategoryInternal       Category = "internal"
)

// Code is a stable, client-visible error code.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeInvitationExpired  Code = "INVITATION_EXPIRED"
	CodeBusinessRule       Code = "BUSINESS_RULE_VIOLATION"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeDatabaseTimeout    Code = "DATABASE_TIMEOUT"
	CodeNetwork            Code = "NETWORK_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

type codeInfo struct {
	category    Category
	status      int
	recoverable bool
}

var codes = map[Code]codeInfo{
	CodeValidation:         {CategoryValidation, http.StatusBadRequest, false},
	CodeUnauthorized:       {CategoryAuthentication, http.StatusUnauthorized, false},
	CodeTokenExpired:       {CategoryAuthentication, http.StatusUnauthorized, false},
	CodeForbidden:          {CategoryAuthorization, http.StatusForbidden, false},
	CodeNotFound:           {CategoryResource, http.StatusNotFound, false},
	CodeConflict:           {CategoryResource, http.StatusConflict, false},
	CodeInvitationExpired:  {CategoryBusinessRule, http.StatusGone, false},
	CodeBusinessRule:       {CategoryBusinessRule, http.StatusUnprocessableEntity, false},
	CodeRateLimited:        {CategoryRateLimit, http.StatusTooManyRequests, false},
	CodeDatabase:           {CategoryDatabase, http.StatusInternalServerError, false},
	CodeDatabaseTimeout:    {CategoryDatabase, http.StatusServiceUnavailable, true},
	CodeNetwork:            {CategoryNetwork, http.StatusBadGateway, true},
	CodeServiceUnavailable: {CategoryNetwork, http.StatusServiceUnavailable, true},
	CodeInternal:           {CategoryInternal, http.StatusInternalServerError, false},
}

// Error is the API-facing error type.
type Error struct {
	Code       Code
	Message    string
	Field      string
	Suggestion string
	Details    map[string]interface{}
	// RetryAfter is set for RATE_LIMITED errors.
	RetryAfter time.Duration
	// Err is the underlying cause. It is logged but never sent to clients.
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so callers can write
// errors.Is(err, apperr.New(apperr.CodeNotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Category returns the category of the error code.
func (e *Error) Category() Category {
	if info, ok := codes[e.Code]; ok {
		return info.category
	}
	return CategoryInternal
}

// HTTPStatus returns the HTTP status for the error code.
func (e *Error) HTTPStatus() int {
	if info, ok := codes[e.Code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Recoverable reports whether retrying the operation may succeed.
func (e *Error) Recoverable() bool {
	return codes[e.Code].recoverable
}

// WithField sets the offending input field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSuggestion sets a remediation hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detail entry.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Field: field}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// NotFound reports a missing resource of the given kind.
func NotFound(resource, id string) *Error {
	e := &Error{Code: CodeNotFound, Message: resource + " not found"}
	if id != "" {
		e.WithDetail("id", id)
	}
	return e.WithDetail("resource", resource)
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func BusinessRule(message string) *Error {
	return &Error{Code: CodeBusinessRule, Message: message}
}

// RateLimited reports a throttled request; retryAfter may be zero.
func RateLimited(retryAfter time.Duration) *Error {
	e := &Error{Code: CodeRateLimited, Message: "too many requests", RetryAfter: retryAfter}
	if retryAfter > 0 {
		e.WithDetail("retry_after_seconds", strconv.Itoa(int(retryAfter.Seconds())))
	}
	return e.WithSuggestion("wait before retrying")
}

func Unavailable(message string, cause error) *Error {
	return &Error{Code: CodeServiceUnavailable, Message: message, Err: cause}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "an internal error occurred", Err: err}
}

// CodeOf returns the code of err after classification.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

// IsCode reports whether err classifies to code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
