package smartrecruit

import (
	"errors"
	"fmt"
	"net/http"
)

const genericFailureMessage = "Something went wrong. Please try again."

// ValidationError is returned before any request is made when an input is unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NoMatchesError reports a successful recommendation call that produced nothing to show.
type NoMatchesError struct {
	ResumeID string
}

func (e *NoMatchesError) Error() string {
	return fmt.Sprintf("no job matches for resume %s", e.ResumeID)
}

// BackendError is a non-2xx response. Detail carries the backend's own explanation.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bad status: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("bad status: %d: %s", e.Status, e.Detail)
}

// Unauthorized reports whether the backend rejected the bearer token.
func (e *BackendError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// AlreadyAppliedError is the client-side short-circuit for a duplicate application.
type AlreadyAppliedError struct {
	JobID    int
	ResumeID string
}

func (e *AlreadyAppliedError) Error() string {
	return fmt.Sprintf("already applied to job %d with resume %s", e.JobID, e.ResumeID)
}

// AlreadyWithdrawnError is the client-side short-circuit for a duplicate withdraw.
type AlreadyWithdrawnError struct {
	ApplicationID string
}

func (e *AlreadyWithdrawnError) Error() string {
	return fmt.Sprintf("application %s is already withdrawn", e.ApplicationID)
}

// TransportError means no response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsLocal reports whether err was resolved on the client without touching the network.
// Such errors map to inline messages rather than the generic error banner.
func IsLocal(err error) bool {
	var (
		validation *ValidationError
		applied    *AlreadyAppliedError
		withdrawn  *AlreadyWithdrawnError
	)
	return errors.As(err, &validation) || errors.As(err, &applied) || errors.As(err, &withdrawn)
}

// Message converts err into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		noMatches  *NoMatchesError
		backend    *BackendError
		applied    *AlreadyAppliedError
		withdrawn  *AlreadyWithdrawnError
		transport  *TransportError
	)

	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &noMatches):
		return "No matching jobs were found for this resume."
	case errors.As(err, &applied):
		return "You have already applied to this job with this resume."
	case errors.As(err, &withdrawn):
		return "This application has already been withdrawn."
	case errors.As(err, &backend):
		if backend.Detail != "" {
			return backend.Detail
		}
		return genericFailureMessage
	case errors.As(err, &transport):
		return "The SmartRecruit service is unreachable. Please try again."
	default:
		return genericFailureMessage
	}
}
