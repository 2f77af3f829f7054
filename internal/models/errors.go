package models

// ErrorKind classifies why a resource or a whole class could not be audited.
type ErrorKind string

const (
	ErrAccessDenied    ErrorKind = "access_denied"
	ErrNotFound        ErrorKind = "not_found"
	ErrThrottled       ErrorKind = "throttled"
	ErrTimeout         ErrorKind = "timeout"
	ErrCanceled        ErrorKind = "canceled"
	ErrTransport       ErrorKind = "transport"
	ErrMalformed       ErrorKind = "malformed"
	ErrIncompleteFacts ErrorKind = "incomplete_facts"
	ErrUnknown         ErrorKind = "unknown"
)

// ResourceError is the serialised form of a failure recorded in place of a
// finding (resource level) or on a class status (enumeration level).
type ResourceError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ResourceError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// FetchError is a directory-service failure tagged with its classification.
// Op names the external call that failed.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }
