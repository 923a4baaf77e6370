package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionFailedMessage is shown whenever any reference label cannot be matched.
const ResolutionFailedMessage = "Could not resolve city/vehicle/trip type. Please revise your selection."

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError is a local input problem. No network call has been made.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ResolutionError lists every label that had no match in its reference list.
type ResolutionError struct {
	Labels []string
}

func (e ResolutionError) Error() string {
	return ResolutionFailedMessage
}

// Detail is the log-friendly form that names the unmatched labels.
func (e ResolutionError) Detail() string {
	return fmt.Sprintf("unresolved: %s", strings.Join(e.Labels, ", "))
}

// BackendError is a non-2xx answer from the booking API, already turned into
// a human readable message.
type BackendError struct {
	Status int
	Msg    string
	Body   string
}

func (e BackendError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// TransportError wraps a failure to reach the booking API at all.
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// EmptyResponseError means the backend answered 2xx without a usable body.
type EmptyResponseError struct {
	Msg string
}

func (e EmptyResponseError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "empty response"
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsResolution(err error) bool {
	var target ResolutionError
	return errors.As(err, &target)
}

func IsBackend(err error) bool {
	var target BackendError
	return errors.As(err, &target)
}

// IsUnauthorized reports a 401 from the booking API.
func IsUnauthorized(err error) bool {
	var target BackendError
	return errors.As(err, &target) && target.Status == 401
}

func IsTransport(err error) bool {
	var target TransportError
	return errors.As(err, &target)
}

func IsEmptyResponse(err error) bool {
	var target EmptyResponseError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
