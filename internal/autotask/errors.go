package autotask

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a gateway failure into one of the user-facing
// error buckets. Local validation failures never reach the network.
type Category string

const (
	CategoryInvalidArgument      Category = "invalid_argument"
	CategoryAuthenticationFailed Category = "authentication_failed"
	CategoryNotFound             Category = "not_found"
	CategoryPermissionDenied     Category = "permission_denied"
	CategoryRemoteService        Category = "remote_service_error"
	CategoryNetwork              Category = "network_error"
)

// Error is the typed error returned by the client and the tool handlers.
type Error struct {
	Category   Category
	Op         string // e.g. "GET Tickets/123"
	StatusCode int    // remote HTTP status, 0 for local failures
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Category))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument builds a local validation error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Category: CategoryInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for a missing entity.
func NotFound(format string, args ...any) *Error {
	return &Error{Category: CategoryNotFound, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf extracts the category from err, or CategoryRemoteService
// when err carries no category.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryRemoteService
}
